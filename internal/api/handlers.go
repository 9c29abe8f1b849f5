package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"longevity/internal/analysis"
	"longevity/internal/logging"
	"longevity/internal/service"
	"longevity/internal/store"
)

// Handler serves the JSON API
type Handler struct {
	sync      *service.SyncService
	query     *service.QueryService
	exportDir string
	log       *logging.Logger
}

// NewHandler creates a handler. Exports are written under exportDir.
func NewHandler(sync *service.SyncService, query *service.QueryService, exportDir string, log *logging.Logger) *Handler {
	return &Handler{sync: sync, query: query, exportDir: exportDir, log: log}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStatus returns days since last activity, streak and alert level
func (h *Handler) GetStatus(c *gin.Context) {
	st, err := h.query.Status(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": st})
}

// ListActivities returns activities newest first. Query: limit, offset.
func (h *Handler) ListActivities(c *gin.Context) {
	limit, err := intQuery(c, "limit", service.DefaultListLimit)
	if err != nil {
		badRequest(c, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		badRequest(c, err)
		return
	}

	activities, err := h.query.Activities(c.Request.Context(), limit, offset)
	if err != nil {
		h.internalError(c, err)
		return
	}

	out := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, activityToResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GetActivity returns one activity by ID
func (h *Handler) GetActivity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, errors.New("invalid activity ID"))
		return
	}

	a, err := h.query.Activity(c.Request.Context(), id)
	if errors.Is(err, store.ErrActivityNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": activityToResponse(*a)})
}

// CreateActivity records a manual entry
func (h *Handler) CreateActivity(c *gin.Context) {
	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m, err := parseManual(req)
	if err != nil {
		badRequest(c, err)
		return
	}

	a, err := h.sync.AddManualActivity(c.Request.Context(), m)
	if errors.Is(err, analysis.ErrInvalidActivity) {
		badRequest(c, err)
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": activityToResponse(*a)})
}

// DeleteActivity removes an activity
func (h *Handler) DeleteActivity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, errors.New("invalid activity ID"))
		return
	}

	err = h.sync.DeleteActivity(c.Request.Context(), id)
	if errors.Is(err, store.ErrActivityNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDailyMetrics returns wellness samples. Query: days.
func (h *Handler) ListDailyMetrics(c *gin.Context) {
	days, err := intQuery(c, "days", service.DefaultDailyDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	daily, err := h.query.DailyMetrics(c.Request.Context(), days)
	if err != nil {
		h.internalError(c, err)
		return
	}

	out := make([]DailyMetricsResponse, 0, len(daily))
	for _, m := range daily {
		out = append(out, dailyToResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// ListWeeklySummaries returns weekly summaries newest first. Query: weeks.
func (h *Handler) ListWeeklySummaries(c *gin.Context) {
	weeks, err := intQuery(c, "weeks", service.DefaultWeeks)
	if err != nil {
		badRequest(c, err)
		return
	}

	summaries, err := h.query.WeeklySummaries(c.Request.Context(), weeks)
	if err != nil {
		h.internalError(c, err)
		return
	}

	out := make([]WeeklySummaryResponse, 0, len(summaries))
	for _, w := range summaries {
		out = append(out, weeklyToResponse(w))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// ListFitnessTrends returns the fitness model for recent days. Query: days.
func (h *Handler) ListFitnessTrends(c *gin.Context) {
	days, err := intQuery(c, "days", service.TrendDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	trends, err := h.query.FitnessTrends(c.Request.Context(), days)
	if err != nil {
		h.internalError(c, err)
		return
	}

	out := make([]FitnessTrendResponse, 0, len(trends))
	for _, t := range trends {
		out = append(out, trendToResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GetCalendar returns one month of activity days
func (h *Handler) GetCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, errors.New("invalid year"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		badRequest(c, errors.New("invalid month"))
		return
	}

	cal, err := h.query.Calendar(c.Request.Context(), year, time.Month(month))
	if errors.Is(err, service.ErrInvalidMonth) {
		badRequest(c, err)
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cal})
}

// Sync pulls from the configured providers and recomputes
func (h *Handler) Sync(c *gin.Context) {
	result, err := h.sync.SyncAll(c.Request.Context(), nil)
	if errors.Is(err, service.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	resp := SyncResponse{
		DaysSynced:        result.DaysSynced,
		ActivitiesFetched: result.ActivitiesFetched,
		ActivitiesStored:  result.ActivitiesStored,
		DuplicatesSkipped: result.DuplicatesSkipped,
		Rejected:          rejectionStrings(result.Rejected),
		Errors:            make([]string, 0, len(result.Errors)),
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	if st, err := h.query.Status(c.Request.Context()); err == nil {
		resp.Status = st
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Recompute rederives all derived fields from stored data
func (h *Handler) Recompute(c *gin.Context) {
	res, err := h.sync.Recompute(c.Request.Context())
	if errors.Is(err, service.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	resp := RecomputeResponse{
		Activities: len(res.Activities),
		Weeks:      len(res.Weekly),
		Rejected:   rejectionStrings(res.Rejected),
	}
	if st, err := h.query.Status(c.Request.Context()); err == nil {
		resp.Status = st
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Export writes the CSV export and returns its directory
func (h *Handler) Export(c *gin.Context) {
	dir, err := h.query.Export(c.Request.Context(), h.exportDir)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"directory": dir}})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.log.Error("handler error", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
