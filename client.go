package secboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyTarget   = errors.New("scan target is required")
	ErrEmptyScanType = errors.New("scan type is required")
)

// VulnFilter narrows the vulnerability list. Zero values mean no
// filtering on that field.
type VulnFilter struct {
	Severity Severity
	Status   VulnStatus
	ToolID   uint
}

func (f VulnFilter) query() string {
	q := url.Values{}
	if f.Severity != "" {
		q.Set("severity", string(f.Severity))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.ToolID != 0 {
		q.Set("tool", fmt.Sprint(f.ToolID))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Client exposes one operation per backend endpoint. Every operation
// returns raw records; the transforms are applied by the feeds.
type Client struct {
	t *Transport
}

func NewClient(t *Transport) *Client {
	return &Client{t: t}
}

// unwrapList accepts both response shapes the backend produces for
// lists: the paginated envelope {results: [...]} and a bare array.
// Anything else normalizes to an empty list.
func unwrapList(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		return raw
	}

	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results
	}
	return json.RawMessage("[]")
}

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	raw, err := c.t.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out []T
	if err := json.Unmarshal(unwrapList(raw), &out); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	raw, err := c.t.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return out, nil
}

func (c *Client) DashboardStats(ctx context.Context) (*RawStats, error) {
	return get[RawStats](ctx, c, "dashboard/")
}

func (c *Client) Tools(ctx context.Context) ([]RawTool, error) {
	return list[RawTool](ctx, c, "tools/")
}

func (c *Client) Tool(ctx context.Context, id uint) (*RawTool, error) {
	return get[RawTool](ctx, c, fmt.Sprintf("tools/%d/", id))
}

func (c *Client) Vulnerabilities(ctx context.Context, f VulnFilter) ([]RawVulnerability, error) {
	return list[RawVulnerability](ctx, c, "vulnerabilities/"+f.query())
}

func (c *Client) Vulnerability(ctx context.Context, id uint) (*RawVulnerability, error) {
	return get[RawVulnerability](ctx, c, fmt.Sprintf("vulnerabilities/%d/", id))
}

func (c *Client) VulnerabilitiesBySeverity(ctx context.Context) ([]SeverityCount, error) {
	return list[SeverityCount](ctx, c, "vulnerabilities/by_severity/")
}

func (c *Client) RecentVulnerabilities(ctx context.Context) ([]RawVulnerability, error) {
	return list[RawVulnerability](ctx, c, "vulnerabilities/recent/")
}

func (c *Client) VulnerabilityTrend(ctx context.Context) ([]TrendPoint, error) {
	return list[TrendPoint](ctx, c, "vulnerabilities/trend/")
}

func (c *Client) Alerts(ctx context.Context) ([]RawAlert, error) {
	return list[RawAlert](ctx, c, "alerts/")
}

func (c *Client) UnacknowledgedAlerts(ctx context.Context) ([]RawAlert, error) {
	return list[RawAlert](ctx, c, "alerts/unacknowledged/")
}

func (c *Client) Scans(ctx context.Context) ([]RawScan, error) {
	return list[RawScan](ctx, c, "scans/")
}

func (c *Client) Scan(ctx context.Context, id uint) (*RawScan, error) {
	return get[RawScan](ctx, c, fmt.Sprintf("scans/%d/", id))
}

func (c *Client) Hosts(ctx context.Context) ([]RawHost, error) {
	return list[RawHost](ctx, c, "hosts/")
}

func (c *Client) Metrics(ctx context.Context) ([]RawMetric, error) {
	return list[RawMetric](ctx, c, "metrics/")
}

func (c *Client) Schedules(ctx context.Context) ([]RawSchedule, error) {
	return list[RawSchedule](ctx, c, "scan-schedules/")
}

func (c *Client) ActiveSchedules(ctx context.Context) ([]RawSchedule, error) {
	return list[RawSchedule](ctx, c, "scan-schedules/active_schedules/")
}

// MUTATIONS
// ---

// AcknowledgeReply is the confirmation payload of the acknowledge
// endpoint.
type AcknowledgeReply struct {
	Status string `json:"status"`
}

func (c *Client) AcknowledgeAlert(ctx context.Context, id uint) (*AcknowledgeReply, error) {
	raw, err := c.t.Do(ctx, http.MethodPost, fmt.Sprintf("alerts/%d/acknowledge/", id), nil, nil)
	if err != nil {
		return nil, err
	}

	var out AcknowledgeReply
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode acknowledge reply")
	}
	return &out, nil
}

type ScanStarted struct {
	Status       string `json:"status"`
	Tool         string `json:"tool"`
	ScanResultID uint   `json:"scan_result_id"`
	Message      string `json:"message"`
}

// StartScan triggers a scan for a tool. Target and scan type are
// checked for presence here; an empty value never reaches the wire.
func (c *Client) StartScan(ctx context.Context, toolID uint, target, scanType string) (*ScanStarted, error) {
	if strings.TrimSpace(target) == "" {
		return nil, ErrEmptyTarget
	}
	if strings.TrimSpace(scanType) == "" {
		return nil, ErrEmptyScanType
	}

	body := map[string]string{"target": target, "scan_type": scanType}
	raw, err := c.t.Do(ctx, http.MethodPost, fmt.Sprintf("tools/%d/start_scan/", toolID), body, nil)
	if err != nil {
		return nil, err
	}

	var out ScanStarted
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode start_scan reply")
	}
	return &out, nil
}

type ScanStopped struct {
	Status string `json:"status"`
	Tool   string `json:"tool"`
}

func (c *Client) StopScan(ctx context.Context, toolID uint) (*ScanStopped, error) {
	raw, err := c.t.Do(ctx, http.MethodPost, fmt.Sprintf("tools/%d/stop_scan/", toolID), nil, nil)
	if err != nil {
		return nil, err
	}

	var out ScanStopped
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode stop_scan reply")
	}
	return &out, nil
}

type ScheduleToggled struct {
	Message  string `json:"message"`
	IsActive bool   `json:"is_active"`
}

func (c *Client) ToggleSchedule(ctx context.Context, id uint) (*ScheduleToggled, error) {
	raw, err := c.t.Do(ctx, http.MethodPost, fmt.Sprintf("scan-schedules/%d/toggle_active/", id), nil, nil)
	if err != nil {
		return nil, err
	}

	var out ScheduleToggled
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode toggle reply")
	}
	return &out, nil
}

type ScheduleRun struct {
	Message      string `json:"message"`
	ScanResultID uint   `json:"scan_result_id"`
}

func (c *Client) RunScheduleNow(ctx context.Context, id uint) (*ScheduleRun, error) {
	raw, err := c.t.Do(ctx, http.MethodPost, fmt.Sprintf("scan-schedules/%d/run_now/", id), nil, nil)
	if err != nil {
		return nil, err
	}

	var out ScheduleRun
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode run_now reply")
	}
	return &out, nil
}
