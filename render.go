package secboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Plain-text rendering for the terminal views. Empty lists render a
// placeholder line instead of nothing, so a disconnected backend never
// looks like a hung fetch.

const noData = "no data"

func fmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func table(w io.Writer, header []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, noData)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func RenderDashboard(w io.Writer, stats DashboardStats, connected bool) {
	state := "demo data"
	if connected {
		state = "live"
	}
	fmt.Fprintf(w, "Security Dashboard [%s]\n\n", state)

	rows := [][]string{
		{"Open Vulnerabilities", fmt.Sprint(stats.TotalVulnerabilities)},
		{"Critical Vulnerabilities", fmt.Sprint(stats.CriticalVulns)},
		{"High", fmt.Sprint(stats.HighVulns)},
		{"Medium", fmt.Sprint(stats.MediumVulns)},
		{"Low", fmt.Sprint(stats.LowVulns)},
		{"Active Tools", fmt.Sprintf("%d/%d", stats.ActiveTools, stats.TotalTools)},
		{"Active Scans", fmt.Sprint(stats.ActiveScans)},
		{"Alerts (unacknowledged)", fmt.Sprintf("%d (%d)", stats.TotalAlerts, stats.UnacknowledgedAlerts)},
		{"Hosts Discovered", fmt.Sprint(stats.HostsDiscovered)},
		{"Last Scan", fmtTime(stats.LastScanTime)},
	}
	table(w, []string{"METRIC", "VALUE"}, rows)
}

func RenderTools(w io.Writer, tools []Tool) {
	rows := make([][]string, 0, len(tools))
	for _, t := range tools {
		rows = append(rows, []string{
			t.DisplayName,
			string(t.Category),
			string(t.Status),
			strings.Join(t.ScanTypes, ","),
			fmtTime(t.LastScan),
		})
	}
	table(w, []string{"TOOL", "CATEGORY", "STATUS", "SCAN TYPES", "LAST SCAN"}, rows)
}

func RenderVulnerabilities(w io.Writer, vulns []Vulnerability) {
	rows := make([][]string, 0, len(vulns))
	for _, v := range vulns {
		cve := v.CVEID
		if cve == "" {
			cve = "-"
		}
		rows = append(rows, []string{
			v.VulnID,
			string(v.Severity),
			string(v.Status),
			cve,
			v.Asset,
			v.ToolName,
			v.Title,
		})
	}
	table(w, []string{"ID", "SEVERITY", "STATUS", "CVE", "ASSET", "TOOL", "TITLE"}, rows)
}

func RenderAlerts(w io.Writer, alerts []Alert) {
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		ack := " "
		if a.Acknowledged {
			ack = "x"
		}
		rows = append(rows, []string{
			fmt.Sprint(a.ID),
			string(a.Type),
			string(a.Severity),
			"[" + ack + "]",
			a.Source,
			a.Timestamp.Local().Format("15:04:05"),
			a.Message,
		})
	}
	table(w, []string{"ID", "TYPE", "SEVERITY", "ACK", "SOURCE", "TIME", "MESSAGE"}, rows)
}

func RenderScans(w io.Writer, scans []ScanResult) {
	rows := make([][]string, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, []string{
			fmt.Sprint(s.ID),
			s.ToolName,
			s.ScanType,
			s.Target,
			string(s.Status),
			fmtTime(s.StartTime),
			fmt.Sprint(s.VulnsFound),
		})
	}
	table(w, []string{"ID", "TOOL", "TYPE", "TARGET", "STATUS", "STARTED", "FOUND"}, rows)
}

func RenderHosts(w io.Writer, hosts []Host) {
	rows := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		name := h.Hostname
		if name == "" {
			name = "-"
		}
		rows = append(rows, []string{
			h.IPAddress, name, h.OSType, h.Status, fmtTime(h.LastSeen),
		})
	}
	table(w, []string{"IP", "HOSTNAME", "OS", "STATUS", "LAST SEEN"}, rows)
}

func RenderMetrics(w io.Writer, metrics []Metric) {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			m.Type, m.Name, fmt.Sprint(m.Value), fmtTime(m.Timestamp),
		})
	}
	table(w, []string{"TYPE", "NAME", "VALUE", "AT"}, rows)
}

func RenderSchedules(w io.Writer, schedules []ScanSchedule) {
	rows := make([][]string, 0, len(schedules))
	for _, s := range schedules {
		active := "inactive"
		if s.IsActive {
			active = "active"
		}
		rows = append(rows, []string{
			fmt.Sprint(s.ID),
			fmt.Sprint(s.ToolID),
			s.Target,
			s.ScanType,
			s.Frequency,
			active,
			fmtTime(s.NextRun),
		})
	}
	table(w, []string{"ID", "TOOL", "TARGET", "TYPE", "FREQUENCY", "STATE", "NEXT RUN"}, rows)
}

func RenderNotification(w io.Writer, n Notification) {
	if n.Err != nil {
		fmt.Fprintf(w, "! %s: %s\n", n.Title, n.Message)
		return
	}
	if n.Message != "" {
		fmt.Fprintf(w, "* %s: %s\n", n.Title, n.Message)
		return
	}
	fmt.Fprintf(w, "* %s\n", n.Title)
}
