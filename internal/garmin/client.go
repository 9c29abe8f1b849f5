package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"longevity/internal/config"
	"longevity/internal/ratelimit"
)

const dateLayout = "2006-01-02"

// pageSize is the activity search page size
const pageSize = 100

// ErrNoData is returned when the service has nothing recorded for a date
var ErrNoData = errors.New("no data for date")

// Client reads wellness data and activities from the Garmin Connect API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	displayName string
	rateLimiter *ratelimit.Limiter
}

// NewClient creates a client authenticated with the configured access token
func NewClient(cfg config.GarminConfig) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	return NewClientWithHTTP(oauth2.NewClient(context.Background(), ts), cfg.BaseURL, cfg.DisplayName)
}

// NewClientWithHTTP creates a client with a preconfigured HTTP client
func NewClientWithHTTP(httpClient *http.Client, baseURL, displayName string) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		displayName: displayName,
		rateLimiter: ratelimit.New(250*time.Millisecond,
			ratelimit.Window{Limit: 1000, Period: time.Hour},
		),
	}
}

// GetDailySummary fetches steps, resting HR, stress and the other daily stats
func (c *Client) GetDailySummary(ctx context.Context, date time.Time) (*DailySummary, error) {
	params := url.Values{"calendarDate": {date.Format(dateLayout)}}
	var s DailySummary
	if err := c.getJSON(ctx, "/usersummary-service/usersummary/daily/"+url.PathEscape(c.displayName), params, &s); err != nil {
		return nil, fmt.Errorf("fetching daily summary %s: %w", date.Format(dateLayout), err)
	}
	return &s, nil
}

// GetSleep fetches the sleep summary for the night ending on date
func (c *Client) GetSleep(ctx context.Context, date time.Time) (*SleepData, error) {
	params := url.Values{"date": {date.Format(dateLayout)}, "nonSleepBufferMinutes": {"60"}}
	var s SleepData
	if err := c.getJSON(ctx, "/wellness-service/wellness/dailySleepData/"+url.PathEscape(c.displayName), params, &s); err != nil {
		return nil, fmt.Errorf("fetching sleep %s: %w", date.Format(dateLayout), err)
	}
	return &s, nil
}

// GetHRV fetches the overnight HRV summary
func (c *Client) GetHRV(ctx context.Context, date time.Time) (*HRVData, error) {
	var h HRVData
	if err := c.getJSON(ctx, "/hrv-service/hrv/"+date.Format(dateLayout), nil, &h); err != nil {
		return nil, fmt.Errorf("fetching hrv %s: %w", date.Format(dateLayout), err)
	}
	return &h, nil
}

// GetBodyComposition fetches the weight recorded on date
func (c *Client) GetBodyComposition(ctx context.Context, date time.Time) (*BodyComposition, error) {
	d := date.Format(dateLayout)
	params := url.Values{"startDate": {d}, "endDate": {d}}
	var b BodyComposition
	if err := c.getJSON(ctx, "/weight-service/weight/dateRange", params, &b); err != nil {
		return nil, fmt.Errorf("fetching body composition %s: %w", d, err)
	}
	return &b, nil
}

// GetActivities lists activities started between from and to (inclusive dates)
func (c *Client) GetActivities(ctx context.Context, from, to time.Time) ([]Activity, error) {
	var all []Activity
	for start := 0; ; start += pageSize {
		params := url.Values{
			"startDate": {from.Format(dateLayout)},
			"endDate":   {to.Format(dateLayout)},
			"start":     {strconv.Itoa(start)},
			"limit":     {strconv.Itoa(pageSize)},
		}

		var page []Activity
		if err := c.getJSON(ctx, "/activitylist-service/activities/search/activities", params, &page); err != nil {
			return all, fmt.Errorf("fetching activities at offset %d: %w", start, err)
		}

		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return ErrNoData
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
