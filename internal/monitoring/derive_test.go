package monitoring

import (
	"testing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

func fp(v float64) *float64 { return &v }

func TestFilter(t *testing.T) {
	sites := []domain.SiteDashboard{
		site("1", "Alpha", domain.StatusUp, nil),
		site("2", "Beta", domain.StatusDown, nil),
	}

	cases := []struct {
		search string
		status StatusFilter
		want   []string
	}{
		{"alp", FilterAll, []string{"Alpha"}},
		{"ALP", FilterAll, []string{"Alpha"}},
		{"", "down", []string{"Beta"}},
		{"", FilterAll, []string{"Alpha", "Beta"}},
		{"beta.example", FilterAll, []string{"Beta"}}, // url match
		{"alpha", "down", []string{}},
		{"", "maintenance", []string{}},
	}
	for _, c := range cases {
		got := names(Filter(sites, c.search, c.status))
		if len(got) != len(c.want) {
			t.Fatalf("Filter(%q,%q)=%v want %v", c.search, c.status, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("Filter(%q,%q)=%v want %v", c.search, c.status, got, c.want)
			}
		}
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats([]domain.SiteDashboard{
		site("1", "a", domain.StatusUp, fp(100)),
		site("2", "b", domain.StatusDown, nil),
		site("3", "c", domain.StatusMaintenance, fp(300)),
		site("4", "d", domain.StatusUnknown, nil),
	})
	if st.Total != 4 || st.Up != 1 || st.Down != 1 || st.Maintenance != 1 || st.Unknown != 1 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.AvgResponseTime == nil || *st.AvgResponseTime != 200 {
		t.Fatalf("want avg 200 with nil excluded, got %v", st.AvgResponseTime)
	}

	st = ComputeStats([]domain.SiteDashboard{
		site("1", "a", domain.StatusUp, nil),
		site("2", "b", domain.StatusUp, nil),
	})
	if st.AvgResponseTime != nil {
		t.Fatalf("want absent average, got %v", *st.AvgResponseTime)
	}

	// a recorded 0ms is data, not absence
	st = ComputeStats([]domain.SiteDashboard{site("1", "a", domain.StatusUp, fp(0))})
	if st.AvgResponseTime == nil || *st.AvgResponseTime != 0 {
		t.Fatalf("0ms should count as a value")
	}

	if st := ComputeStats(nil); st.Total != 0 || st.AvgResponseTime != nil {
		t.Fatalf("empty stats wrong: %+v", st)
	}
}

func TestParseStatusFilterAndViewMode(t *testing.T) {
	for _, s := range []string{"", "all", "up", "down", "maintenance", "unknown"} {
		if _, ok := ParseStatusFilter(s); !ok {
			t.Fatalf("%q should parse", s)
		}
	}
	if _, ok := ParseStatusFilter("timeout"); ok {
		t.Fatalf("timeout is a log status, not a site filter")
	}
	if m, ok := ParseViewMode(""); !ok || m != ViewList {
		t.Fatalf("empty view mode should default to list")
	}
	if _, ok := ParseViewMode("grid"); ok {
		t.Fatalf("grid is not a view mode")
	}
}
