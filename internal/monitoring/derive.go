package monitoring

import (
	"strings"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// StatusFilter narrows the list to one status, or FilterAll.
type StatusFilter string

const FilterAll StatusFilter = "all"

func ParseStatusFilter(s string) (StatusFilter, bool) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, true
	}
	if domain.SiteStatus(s).Valid() {
		return StatusFilter(s), true
	}
	return "", false
}

type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewMap  ViewMode = "map"
)

func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(s) {
	case "", ViewList:
		return ViewList, true
	case ViewMap:
		return ViewMap, true
	}
	return "", false
}

// Filter keeps sites whose name or url contains search (case-insensitive)
// and whose status matches status.
func Filter(sites []domain.SiteDashboard, search string, status StatusFilter) []domain.SiteDashboard {
	term := strings.ToLower(search)
	out := make([]domain.SiteDashboard, 0, len(sites))
	for _, s := range sites {
		matches := strings.Contains(strings.ToLower(s.Name), term) ||
			strings.Contains(strings.ToLower(s.URL), term)
		if !matches {
			continue
		}
		if status != FilterAll && status != "" && string(s.Status) != string(status) {
			continue
		}
		out = append(out, s)
	}
	return out
}

type Stats struct {
	Total       int `json:"total"`
	Up          int `json:"up"`
	Down        int `json:"down"`
	Maintenance int `json:"maintenance"`
	Unknown     int `json:"unknown"`
	// AvgResponseTime is nil when no site has a response time.
	AvgResponseTime *float64 `json:"avg_response_time"`
}

// ComputeStats summarizes sites. Only sites with a last response time take
// part in the average.
func ComputeStats(sites []domain.SiteDashboard) Stats {
	st := Stats{Total: len(sites)}
	var (
		sum float64
		n   int
	)
	for _, s := range sites {
		switch s.Status {
		case domain.StatusUp:
			st.Up++
		case domain.StatusDown:
			st.Down++
		case domain.StatusMaintenance:
			st.Maintenance++
		case domain.StatusUnknown:
			st.Unknown++
		}
		if s.LastResponseTime != nil {
			sum += *s.LastResponseTime
			n++
		}
	}
	if n > 0 {
		avg := sum / float64(n)
		st.AvgResponseTime = &avg
	}
	return st
}
