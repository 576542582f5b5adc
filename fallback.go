package secboard

// Fallback records stand in when the backend is unreachable or a list
// comes back empty. They carry no backend identity (ID 0) and must
// never be sent back in a mutation.

var fallbackTools = []Tool{
	{Name: "nmap", DisplayName: "Nmap", Status: TOOL_INACTIVE, Category: CAT_NETWORK,
		Icon: "radar", ScanTypes: []string{"quick", "full", "stealth", "udp"}},
	{Name: "zap", DisplayName: "OWASP ZAP", Status: TOOL_INACTIVE, Category: CAT_WEB,
		Icon: "globe", ScanTypes: []string{"baseline", "full", "api"}},
	{Name: "openvas", DisplayName: "OpenVAS", Status: TOOL_INACTIVE, Category: CAT_NETWORK,
		Icon: "search", ScanTypes: []string{"full", "fast"}},
	{Name: "trivy", DisplayName: "Trivy", Status: TOOL_INACTIVE, Category: CAT_CONTAINER,
		Icon: "box", ScanTypes: []string{"image", "filesystem", "repo"}},
	{Name: "tshark", DisplayName: "TShark", Status: TOOL_INACTIVE, Category: CAT_NETWORK,
		Icon: "activity", ScanTypes: []string{"capture", "analyze"}},
	{Name: "wazuh", DisplayName: "Wazuh", Status: TOOL_INACTIVE, Category: CAT_SIEM,
		Icon: "eye", ScanTypes: []string{"agents", "rules"}},
}

// FallbackTools returns a copy so callers cannot mutate the set.
func FallbackTools() []Tool {
	out := make([]Tool, len(fallbackTools))
	copy(out, fallbackTools)
	return out
}

// FallbackStats is the zero-valued snapshot shown while disconnected
// with no cached data.
func FallbackStats() DashboardStats {
	return DashboardStats{TotalTools: len(fallbackTools)}
}

// PickList applies the fallback policy to a list resource: a live,
// non-empty list wins verbatim; anything else takes the fallback set.
// Live and fallback entries are never merged.
func PickList[T any](live []T, failed bool, fallback []T) []T {
	if !failed && len(live) > 0 {
		return live
	}
	return fallback
}

// PickValue is the scalar version: the live value wins unless the
// fetch failed or nothing was ever fetched.
func PickValue[T any](live *T, failed bool, fallback T) T {
	if !failed && live != nil {
		return *live
	}
	return fallback
}
