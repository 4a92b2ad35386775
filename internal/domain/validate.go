package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidRow = errors.New("invalid dashboard row")

// Validate checks a row coming back from a store before it reaches the view
// layer, so a drifting schema fails loudly instead of rendering blanks.
func (d SiteDashboard) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRow)
	case d.Name == "":
		return fmt.Errorf("%w: site %s has empty name", ErrInvalidRow, d.ID)
	case d.URL == "":
		return fmt.Errorf("%w: site %s has empty url", ErrInvalidRow, d.ID)
	case !d.Status.Valid():
		return fmt.Errorf("%w: site %s has status %q", ErrInvalidRow, d.ID, d.Status)
	case d.Uptime24h < 0 || d.Uptime24h > 100:
		return fmt.Errorf("%w: site %s uptime_24h %.2f out of range", ErrInvalidRow, d.ID, d.Uptime24h)
	case d.Checks24h < 0:
		return fmt.Errorf("%w: site %s checks_24h %d negative", ErrInvalidRow, d.ID, d.Checks24h)
	}
	return nil
}

// UptimeBucket grades a 24h uptime percentage for the list view indicator.
func UptimeBucket(pct float64) string {
	switch {
	case pct >= 99:
		return "good"
	case pct >= 95:
		return "fair"
	default:
		return "poor"
	}
}
