package repo

import (
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

const UptimeWindow = 24 * time.Hour

// Uptime24h folds the logs of one site checked within the window ending at
// now into the dashboard aggregate. No checks yields 0%.
func Uptime24h(logs []domain.SiteLog, now time.Time) (uptime float64, checks int) {
	since := now.Add(-UptimeWindow)
	up := 0
	for _, l := range logs {
		if l.CheckedAt.Before(since) || l.CheckedAt.After(now) {
			continue
		}
		checks++
		if l.Status == domain.LogUp {
			up++
		}
	}
	if checks == 0 {
		return 0, 0
	}
	return float64(up) / float64(checks) * 100, checks
}
