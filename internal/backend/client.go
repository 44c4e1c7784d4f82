// Package backend is the HTTP client for the vessel controller API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"soak_console/internal/models"
)

const adminKeyHeader = "X-Admin-Key"

var ErrNoAdminKey = errors.New("admin key not configured")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// Client talks to one controller backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	adminKey   string
}

// NewClient creates a client for baseURL (e.g. http://host:8000/api).
func NewClient(baseURL, adminKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(
				http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
					return "backend " + r.Method + " " + r.URL.Path
				}),
			),
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		adminKey: adminKey,
	}
}

// HasAdminKey reports whether admin-scoped endpoints can be called.
func (c *Client) HasAdminKey() bool { return c.adminKey != "" }

// doRequest sends body as JSON and decodes a JSON response into result when non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, admin bool, body, result any) error {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		if c.adminKey == "" {
			return ErrNoAdminKey
		}
		req.Header.Set(adminKeyHeader, c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doRequest(ctx, http.MethodGet, path, false, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	return c.doRequest(ctx, http.MethodPost, path, false, body, nil)
}

// Status fetches the device snapshot.
func (c *Client) Status(ctx context.Context) (*models.DeviceSnapshot, error) {
	var s models.DeviceSnapshot
	if err := c.get(ctx, "status/", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Settings(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	if err := c.get(ctx, "settings/", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// History returns up to limit samples, newest first as the backend sends them.
func (c *Client) History(ctx context.Context, limit int) ([]models.HistorySample, error) {
	var out []models.HistorySample
	path := "status/history?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// wireSchedule shadows days_of_week so one bad entry does not fail the whole list.
type wireSchedule struct {
	models.Schedule
	Days models.LenientWeekdays `json:"days_of_week"`
}

// Schedules lists the controller's schedules. Invalid days_of_week entries are
// skipped and reported through DroppedDays.
func (c *Client) Schedules(ctx context.Context) ([]models.Schedule, error) {
	var wire []wireSchedule
	if err := c.get(ctx, "schedules/", &wire); err != nil {
		return nil, err
	}
	out := make([]models.Schedule, len(wire))
	for i, w := range wire {
		out[i] = w.Schedule
		out[i].Days = w.Days.Days
		out[i].DroppedDays = w.Days.Dropped
	}
	return out, nil
}

func (c *Client) Logs(ctx context.Context) ([]models.UsageLogEntry, error) {
	var out []models.UsageLogEntry
	if err := c.get(ctx, "status/logs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Weather(ctx context.Context) (*models.WeatherReport, error) {
	var w models.WeatherReport
	if err := c.get(ctx, "status/weather", &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) Energy(ctx context.Context) (*models.EnergyUsage, error) {
	var e models.EnergyUsage
	if err := c.get(ctx, "status/energy", &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SystemLogs fetches the admin console feed.
func (c *Client) SystemLogs(ctx context.Context) (string, error) {
	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, "support/logs", true, nil, &raw); err != nil {
		return "", err
	}
	var wrapped struct {
		Logs string `json:"logs"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Logs != "" {
		return wrapped.Logs, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	return string(raw), nil
}

// SetRelay asks for relay to be switched on or off.
func (c *Client) SetRelay(ctx context.Context, relay string, on bool) error {
	return c.post(ctx, "control/", map[string]bool{relay: on})
}

func (c *Client) ResetFaults(ctx context.Context) error {
	return c.post(ctx, "control/reset-faults", nil)
}

func (c *Client) MasterShutdown(ctx context.Context) error {
	return c.post(ctx, "control/master-shutdown", nil)
}

type startSoakRequest struct {
	TargetTemp      float64 `json:"target_temp"`
	DurationMinutes int     `json:"duration_minutes"`
}

func (c *Client) StartSoak(ctx context.Context, targetTemp float64, durationMinutes int) error {
	return c.post(ctx, "control/start-soak", startSoakRequest{TargetTemp: targetTemp, DurationMinutes: durationMinutes})
}

func (c *Client) CancelSoak(ctx context.Context) error {
	return c.post(ctx, "control/cancel-soak", nil)
}

func (c *Client) CancelScheduledSession(ctx context.Context) error {
	return c.post(ctx, "control/cancel-scheduled-session", nil)
}

// AdjustSoakTimer moves the active session's expiry by minutes (may be negative).
func (c *Client) AdjustSoakTimer(ctx context.Context, minutes int) error {
	return c.post(ctx, "control/adjust-soak-timer", map[string]int{"minutes": minutes})
}

func (c *Client) TriggerSchedule(ctx context.Context, id int) error {
	return c.post(ctx, "control/trigger-schedule/"+strconv.Itoa(id), nil)
}

// UpdateSystem asks the backend to pull and restart. Admin only.
func (c *Client) UpdateSystem(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "control/update-system", true, nil, nil)
}

func (c *Client) CreateSchedule(ctx context.Context, s models.Schedule) (*models.Schedule, error) {
	var out models.Schedule
	if err := c.doRequest(ctx, http.MethodPost, "schedules/", false, s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSchedule(ctx context.Context, id int, s models.Schedule) (*models.Schedule, error) {
	var out models.Schedule
	if err := c.doRequest(ctx, http.MethodPut, "schedules/"+strconv.Itoa(id), false, s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSchedule(ctx context.Context, id int) error {
	return c.doRequest(ctx, http.MethodDelete, "schedules/"+strconv.Itoa(id), false, nil, nil)
}

// UpdateSettings posts a partial settings change.
func (c *Client) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	return c.post(ctx, "settings/", patch)
}

type bugReport struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ReportBug files an issue and returns its URL.
func (c *Client) ReportBug(ctx context.Context, title, description string) (string, error) {
	var out struct {
		IssueURL string `json:"issue_url"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "support/report-bug", false, bugReport{title, description}, &out); err != nil {
		return "", err
	}
	return out.IssueURL, nil
}
