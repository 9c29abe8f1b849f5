package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"longevity/internal/logging"
)

// NewRouter builds the gin engine with all routes registered
func NewRouter(h *Handler, log *logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(log))
	router.Use(collectMetrics())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/status", h.GetStatus)

	activities := api.Group("/activities")
	activities.GET("", h.ListActivities)
	activities.POST("", h.CreateActivity)
	activities.GET("/:id", h.GetActivity)
	activities.DELETE("/:id", h.DeleteActivity)

	api.GET("/daily-metrics", h.ListDailyMetrics)
	api.GET("/weekly-summaries", h.ListWeeklySummaries)
	api.GET("/fitness-trends", h.ListFitnessTrends)
	api.GET("/calendar/:year/:month", h.GetCalendar)

	api.POST("/sync", h.Sync)
	api.POST("/recompute", h.Recompute)
	api.POST("/export", h.Export)

	return router
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *logging.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("shutting down server")
	return server.Shutdown(shutdownCtx)
}
