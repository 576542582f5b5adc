package secboard

import (
	"testing"
)

func TestPickListEmptyLive(t *testing.T) {
	// empty live list, no error: the illustrative set shows
	got := PickList(nil, false, FallbackTools())
	if len(got) != 6 {
		t.Fatalf("expected the 6 fallback tools, got %d", len(got))
	}
}

func TestPickListLiveWins(t *testing.T) {
	live := []Tool{{ID: 42, Name: "nmap", DisplayName: "Nmap"}}

	got := PickList(live, false, FallbackTools())
	if len(got) != 1 || got[0].ID != 42 {
		t.Fatalf("live data must win verbatim, never merged: %+v", got)
	}
}

func TestPickListErrorUsesFallback(t *testing.T) {
	live := []Tool{{ID: 42}}

	got := PickList(live, true, FallbackTools())
	if len(got) != 6 {
		t.Fatalf("a failed fetch falls back, got %d entries", len(got))
	}
}

func TestPickListEmptyFallback(t *testing.T) {
	// alerts and vulnerabilities fall back to nothing at all
	got := PickList[Alert](nil, true, nil)
	if len(got) != 0 {
		t.Fatalf("expected empty fallback, got %d", len(got))
	}
}

func TestPickValue(t *testing.T) {
	live := DashboardStats{CriticalVulns: 7}

	if got := PickValue(&live, false, FallbackStats()); got.CriticalVulns != 7 {
		t.Errorf("live value must win: %+v", got)
	}
	if got := PickValue(&live, true, FallbackStats()); got.CriticalVulns != 0 {
		t.Errorf("failed fetch must fall back: %+v", got)
	}
	if got := PickValue[DashboardStats](nil, false, FallbackStats()); got.TotalTools != 6 {
		t.Errorf("missing value must fall back: %+v", got)
	}
}

func TestFallbackRecordsHaveNoIdentity(t *testing.T) {
	for _, tool := range FallbackTools() {
		if tool.ID != 0 {
			t.Errorf("fallback tool %q carries a backend id", tool.Name)
		}
	}
}

func TestFallbackToolsIsACopy(t *testing.T) {
	a := FallbackTools()
	a[0].Name = "mutated"
	if FallbackTools()[0].Name == "mutated" {
		t.Error("FallbackTools must return a copy")
	}
}
