package secboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrUnknownSeverity   = errors.New("unknown severity")
	ErrUnknownVulnStatus = errors.New("unknown vulnerability status")
	ErrUnknownToolStatus = errors.New("unknown tool status")
	ErrUnknownAlertType  = errors.New("unknown alert type")
	ErrUnknownScanStatus = errors.New("unknown scan status")
	ErrNoTimestamp       = errors.New("alert carries no timestamp")
)

// toolProfile is the static capability record for a known tool.
// Unknown tool names take defaultProfile instead of failing; the
// backend owns the tool list and may grow it ahead of us.
type toolProfile struct {
	DisplayName string
	Category    ToolCategory
	Icon        string
	ScanTypes   []string
}

var defaultProfile = toolProfile{
	Category:  CAT_NETWORK,
	Icon:      "shield",
	ScanTypes: []string{"default"},
}

var toolProfiles = map[string]toolProfile{
	"nmap": {
		DisplayName: "Nmap",
		Category:    CAT_NETWORK,
		Icon:        "radar",
		ScanTypes:   []string{"quick", "full", "stealth", "udp"},
	},
	"zap": {
		DisplayName: "OWASP ZAP",
		Category:    CAT_WEB,
		Icon:        "globe",
		ScanTypes:   []string{"baseline", "full", "api"},
	},
	"openvas": {
		DisplayName: "OpenVAS",
		Category:    CAT_NETWORK,
		Icon:        "search",
		ScanTypes:   []string{"full", "fast"},
	},
	"trivy": {
		DisplayName: "Trivy",
		Category:    CAT_CONTAINER,
		Icon:        "box",
		ScanTypes:   []string{"image", "filesystem", "repo"},
	},
	"tshark": {
		DisplayName: "TShark",
		Category:    CAT_NETWORK,
		Icon:        "activity",
		ScanTypes:   []string{"capture", "analyze"},
	},
	"wazuh": {
		DisplayName: "Wazuh",
		Category:    CAT_SIEM,
		Icon:        "eye",
		ScanTypes:   []string{"agents", "rules"},
	},
}

func lookupProfile(name string) toolProfile {
	if p, ok := toolProfiles[strings.ToLower(name)]; ok {
		return p
	}

	p := defaultProfile
	p.DisplayName = name
	return p
}

func parseSeverity(s string) (Severity, error) {
	switch v := Severity(s); v {
	case SEV_CRITICAL, SEV_HIGH, SEV_MEDIUM, SEV_LOW, SEV_INFO:
		return v, nil
	}
	return "", errors.Wrapf(ErrUnknownSeverity, "%q", s)
}

func parseVulnStatus(s string) (VulnStatus, error) {
	switch v := VulnStatus(s); v {
	case VULN_OPEN, VULN_IN_PROGRESS, VULN_RESOLVED, VULN_FALSE_POSITIVE:
		return v, nil
	}
	return "", errors.Wrapf(ErrUnknownVulnStatus, "%q", s)
}

func parseToolStatus(s string) (ToolStatus, error) {
	switch v := ToolStatus(s); v {
	case TOOL_ACTIVE, TOOL_INACTIVE, TOOL_SCANNING, TOOL_ERROR:
		return v, nil
	}
	return "", errors.Wrapf(ErrUnknownToolStatus, "%q", s)
}

func parseAlertType(s string) (AlertType, error) {
	switch v := AlertType(s); v {
	case ALERT_INTRUSION, ALERT_VULNERABILITY, ALERT_ANOMALY, ALERT_COMPLIANCE,
		ALERT_POLICY_VIOLATION, ALERT_MALWARE, ALERT_SCAN_COMPLETE:
		return v, nil
	}
	return "", errors.Wrapf(ErrUnknownAlertType, "%q", s)
}

func parseScanStatus(s string) (ScanStatus, error) {
	switch v := ScanStatus(s); v {
	// queued shows up transiently while a scan waits for a worker
	case "queued":
		return SCAN_PENDING, nil
	case SCAN_RUNNING, SCAN_COMPLETED, SCAN_FAILED, SCAN_PENDING:
		return v, nil
	}
	return "", errors.Wrapf(ErrUnknownScanStatus, "%q", s)
}

// TransformTool shapes a raw tool record for display. The status enum
// is closed; the profile lookup is not.
func TransformTool(r RawTool) (Tool, error) {
	status, err := parseToolStatus(r.Status)
	if err != nil {
		return Tool{}, err
	}

	p := lookupProfile(r.Name)
	return Tool{
		ID:           r.ID,
		Name:         strings.ToLower(r.Name),
		DisplayName:  p.DisplayName,
		Status:       status,
		LastScan:     r.LastScan,
		Category:     p.Category,
		ScanTypes:    p.ScanTypes,
		Icon:         p.Icon,
		ScanCount:    r.ScanCount,
		ErrorMessage: r.ErrorMessage,
	}, nil
}

func TransformVulnerability(r RawVulnerability) (Vulnerability, error) {
	sev, err := parseSeverity(r.Severity)
	if err != nil {
		return Vulnerability{}, err
	}
	status, err := parseVulnStatus(r.Status)
	if err != nil {
		return Vulnerability{}, err
	}

	// no resolved name from the serializer; show the reference
	toolName := r.ToolName
	if toolName == "" {
		toolName = strconv.FormatUint(uint64(r.Tool), 10)
	}

	return Vulnerability{
		ID:           r.ID,
		VulnID:       r.VulnID,
		Title:        r.Title,
		Description:  r.Description,
		Severity:     sev,
		Status:       status,
		CVSSScore:    r.CVSSScore,
		CVEID:        r.CVEID,
		Asset:        r.AffectedAsset,
		Port:         r.Port,
		Service:      r.Service,
		ToolID:       r.Tool,
		ToolName:     toolName,
		DiscoveredAt: r.DiscoveredAt,
		Remediation:  r.Remediation,
	}, nil
}

// TransformAlert resolves the alert timestamp from the primary field,
// then the secondary. Neither present is an error; we do not fabricate
// a time (see DESIGN.md).
func TransformAlert(r RawAlert) (Alert, error) {
	typ, err := parseAlertType(r.AlertType)
	if err != nil {
		return Alert{}, err
	}
	sev, err := parseSeverity(r.Severity)
	if err != nil {
		return Alert{}, err
	}

	var ts time.Time
	switch {
	case r.Timestamp != nil:
		ts = *r.Timestamp
	case r.CreatedAt != nil:
		ts = *r.CreatedAt
	default:
		return Alert{}, errors.Wrapf(ErrNoTimestamp, "alert %d", r.ID)
	}

	return Alert{
		ID:           r.ID,
		Type:         typ,
		Severity:     sev,
		Message:      r.Message,
		Source:       r.Source,
		SourceIP:     r.SourceIP,
		ToolID:       r.Tool,
		ToolName:     r.ToolName,
		Timestamp:    ts,
		Acknowledged: r.Acknowledged,
	}, nil
}

func TransformStats(r RawStats) DashboardStats {
	return DashboardStats{
		TotalVulnerabilities: r.TotalVulnerabilities,
		CriticalVulns:        r.CriticalVulns,
		HighVulns:            r.HighVulns,
		MediumVulns:          r.MediumVulns,
		LowVulns:             r.LowVulns,
		ActiveTools:          r.ActiveTools,
		TotalAlerts:          r.TotalAlerts,
		UnacknowledgedAlerts: r.UnacknowledgedAlerts,
		HostsDiscovered:      r.HostsDiscovered,
		LastScanTime:         r.LastScanTime,
		TotalTools:           len(toolProfiles),
	}
}

func TransformScan(r RawScan) (ScanResult, error) {
	status, err := parseScanStatus(r.Status)
	if err != nil {
		return ScanResult{}, err
	}

	return ScanResult{
		ID:         r.ID,
		ToolID:     r.Tool,
		ToolName:   r.ToolName,
		ScanType:   r.ScanType,
		Target:     r.Target,
		Status:     status,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		VulnsFound: r.VulnsFound,
	}, nil
}

func TransformHost(r RawHost) Host {
	return Host{
		ID:        r.ID,
		IPAddress: r.IPAddress,
		Hostname:  r.Hostname,
		OSType:    r.OSType,
		Status:    r.Status,
		FirstSeen: r.FirstSeen,
		LastSeen:  r.LastSeen,
	}
}

func TransformMetric(r RawMetric) Metric {
	return Metric{
		ID:        r.ID,
		Type:      r.MetricType,
		Name:      r.MetricName,
		Value:     r.Value,
		Timestamp: r.Timestamp,
	}
}

func TransformSchedule(r RawSchedule) ScanSchedule {
	return ScanSchedule{
		ID:        r.ID,
		ToolID:    r.Tool,
		Target:    r.Target,
		ScanType:  r.ScanType,
		Frequency: r.Frequency,
		IsActive:  r.IsActive,
		NextRun:   r.NextRun,
		LastRun:   r.LastRun,
	}
}

// TransformAll maps a whole list, failing on the first bad record so
// unknown enum values surface instead of being dropped.
func TransformAll[R, V any](rs []R, fn func(R) (V, error)) ([]V, error) {
	out := make([]V, 0, len(rs))
	for _, r := range rs {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
