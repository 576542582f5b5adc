package secboard

import (
	"encoding/json"
	"time"
)

type ToolStatus string

const (
	TOOL_ACTIVE   ToolStatus = "active"
	TOOL_INACTIVE ToolStatus = "inactive"
	TOOL_SCANNING ToolStatus = "scanning"
	TOOL_ERROR    ToolStatus = "error"
)

type Severity string

const (
	SEV_CRITICAL Severity = "critical"
	SEV_HIGH     Severity = "high"
	SEV_MEDIUM   Severity = "medium"
	SEV_LOW      Severity = "low"
	SEV_INFO     Severity = "info"
)

type VulnStatus string

const (
	VULN_OPEN           VulnStatus = "open"
	VULN_IN_PROGRESS    VulnStatus = "in_progress"
	VULN_RESOLVED       VulnStatus = "resolved"
	VULN_FALSE_POSITIVE VulnStatus = "false_positive"
)

type AlertType string

const (
	ALERT_INTRUSION        AlertType = "intrusion"
	ALERT_VULNERABILITY    AlertType = "vulnerability"
	ALERT_ANOMALY          AlertType = "anomaly"
	ALERT_COMPLIANCE       AlertType = "compliance"
	ALERT_POLICY_VIOLATION AlertType = "policy_violation"
	ALERT_MALWARE          AlertType = "malware"
	ALERT_SCAN_COMPLETE    AlertType = "scan_complete"
)

type ScanStatus string

const (
	SCAN_RUNNING   ScanStatus = "running"
	SCAN_COMPLETED ScanStatus = "completed"
	SCAN_FAILED    ScanStatus = "failed"
	SCAN_PENDING   ScanStatus = "pending"
)

type ToolCategory string

const (
	CAT_NETWORK   ToolCategory = "network"
	CAT_WEB       ToolCategory = "web"
	CAT_CONTAINER ToolCategory = "container"
	CAT_SIEM      ToolCategory = "siem"
)

// Raw records mirror the backend serializers field by field.
// They exist only at the transport boundary; everything above the
// transform layer works with the view records below.

type RawTool struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	LastScan     *time.Time `json:"last_scan"`
	ScanCount    int        `json:"scan_count"`
	ErrorMessage string     `json:"error_message"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type RawVulnerability struct {
	ID            uint       `json:"id"`
	VulnID        string     `json:"vuln_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Severity      string     `json:"severity"`
	Status        string     `json:"status"`
	CVSSScore     string     `json:"cvss_score"`
	CVEID         string     `json:"cve_id"`
	AffectedAsset string     `json:"affected_asset"`
	Port          *int       `json:"port"`
	Service       string     `json:"service"`
	Tool          uint       `json:"tool"`
	ToolName      string     `json:"tool_name"`
	DiscoveredAt  *time.Time `json:"discovered_at"`
	Remediation   string     `json:"remediation"`
}

type RawAlert struct {
	ID            uint            `json:"id"`
	AlertType     string          `json:"alert_type"`
	Severity      string          `json:"severity"`
	Message       string          `json:"message"`
	Source        string          `json:"source"`
	SourceIP      string          `json:"source_ip"`
	DestinationIP string          `json:"destination_ip"`
	Tool          uint            `json:"tool"`
	ToolName      string          `json:"tool_name"`
	Timestamp     *time.Time      `json:"timestamp"`
	CreatedAt     *time.Time      `json:"created_at"`
	Acknowledged  bool            `json:"acknowledged"`
	Details       json.RawMessage `json:"details"`
}

type RawStats struct {
	TotalVulnerabilities int        `json:"total_vulnerabilities"`
	CriticalVulns        int        `json:"critical_vulns"`
	HighVulns            int        `json:"high_vulns"`
	MediumVulns          int        `json:"medium_vulns"`
	LowVulns             int        `json:"low_vulns"`
	ActiveTools          int        `json:"active_tools"`
	TotalAlerts          int        `json:"total_alerts"`
	UnacknowledgedAlerts int        `json:"unacknowledged_alerts"`
	HostsDiscovered      int        `json:"hosts_discovered"`
	LastScanTime         *time.Time `json:"last_scan_time"`
}

type RawScan struct {
	ID         uint            `json:"id"`
	Tool       uint            `json:"tool"`
	ToolName   string          `json:"tool_name"`
	ScanType   string          `json:"scan_type"`
	Target     string          `json:"target"`
	StartTime  *time.Time      `json:"start_time"`
	EndTime    *time.Time      `json:"end_time"`
	Status     string          `json:"status"`
	ParsedData json.RawMessage `json:"parsed_data"`
	VulnsFound int             `json:"vulnerabilities_found"`
}

type RawHost struct {
	ID        uint            `json:"id"`
	IPAddress string          `json:"ip_address"`
	Hostname  string          `json:"hostname"`
	MAC       string          `json:"mac_address"`
	OSType    string          `json:"os_type"`
	Status    string          `json:"status"`
	FirstSeen *time.Time      `json:"first_seen"`
	LastSeen  *time.Time      `json:"last_seen"`
	OpenPorts json.RawMessage `json:"open_ports"`
	Services  json.RawMessage `json:"services"`
}

type RawMetric struct {
	ID         uint            `json:"id"`
	MetricType string          `json:"metric_type"`
	MetricName string          `json:"metric_name"`
	Value      int             `json:"value"`
	Timestamp  *time.Time      `json:"timestamp"`
	Metadata   json.RawMessage `json:"metadata"`
}

type RawSchedule struct {
	ID        uint       `json:"id"`
	Tool      uint       `json:"tool"`
	Target    string     `json:"target"`
	ScanType  string     `json:"scan_type"`
	Frequency string     `json:"frequency"`
	IsActive  bool       `json:"is_active"`
	NextRun   *time.Time `json:"next_run"`
	LastRun   *time.Time `json:"last_run"`
	CreatedAt *time.Time `json:"created_at"`
}

// View records. These are what feeds cache and the renderer consumes.

type Tool struct {
	ID           uint
	Name         string
	DisplayName  string
	Status       ToolStatus
	LastScan     *time.Time
	Category     ToolCategory
	ScanTypes    []string
	Icon         string
	ScanCount    int
	ErrorMessage string
}

type Vulnerability struct {
	ID           uint
	VulnID       string
	Title        string
	Description  string
	Severity     Severity
	Status       VulnStatus
	CVSSScore    string
	CVEID        string
	Asset        string
	Port         *int
	Service      string
	ToolID       uint
	ToolName     string
	DiscoveredAt *time.Time
	Remediation  string
}

type Alert struct {
	ID           uint
	Type         AlertType
	Severity     Severity
	Message      string
	Source       string
	SourceIP     string
	ToolID       uint
	ToolName     string
	Timestamp    time.Time
	Acknowledged bool
}

type DashboardStats struct {
	TotalVulnerabilities int
	CriticalVulns        int
	HighVulns            int
	MediumVulns          int
	LowVulns             int
	ActiveTools          int
	TotalAlerts          int
	UnacknowledgedAlerts int
	HostsDiscovered      int
	LastScanTime         *time.Time

	// Not reported by the dashboard endpoint. Filled in from the
	// scans and tools feeds when those have data.
	ActiveScans int
	TotalTools  int
}

type ScanResult struct {
	ID         uint
	ToolID     uint
	ToolName   string
	ScanType   string
	Target     string
	Status     ScanStatus
	StartTime  *time.Time
	EndTime    *time.Time
	VulnsFound int
}

type Host struct {
	ID        uint
	IPAddress string
	Hostname  string
	OSType    string
	Status    string
	FirstSeen *time.Time
	LastSeen  *time.Time
}

type Metric struct {
	ID        uint
	Type      string
	Name      string
	Value     int
	Timestamp *time.Time
}

type ScanSchedule struct {
	ID        uint
	ToolID    uint
	Target    string
	ScanType  string
	Frequency string
	IsActive  bool
	NextRun   *time.Time
	LastRun   *time.Time
}

// Severity counts as returned by vulnerabilities/by_severity/.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// One point of the vulnerabilities/trend/ time series.
type TrendPoint struct {
	Date     string `json:"date"`
	Critical int    `json:"critical"`
	High     int    `json:"high"`
	Medium   int    `json:"medium"`
	Low      int    `json:"low"`
}
