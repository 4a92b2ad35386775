package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var (
	// ErrNotFound is returned when no site has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRow is returned when a stored row cannot be turned into a
	// valid domain value.
	ErrMalformedRow = errors.New("malformed row")
)

// Ports (interfaces); swap in any DB adapter.
type SiteStore interface {
	// ListDashboard returns every site with its 24h aggregate, ordered by name.
	ListDashboard(ctx context.Context) ([]domain.SiteDashboard, error)
	Get(ctx context.Context, id domain.SiteID) (*domain.SiteDashboard, error)
	Insert(ctx context.Context, s domain.NewSite) (*domain.MonitoredSite, error)
	Update(ctx context.Context, id domain.SiteID, p domain.SitePatch) error
	Delete(ctx context.Context, id domain.SiteID) error
}

type LogStore interface {
	AppendLog(ctx context.Context, l *domain.SiteLog) error
	// RecentLogs returns up to limit logs for a site, newest first.
	RecentLogs(ctx context.Context, id domain.SiteID, limit int) ([]domain.SiteLog, error)
}

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Change is a row-level notification. Subscribers are expected to re-fetch
// rather than apply it.
type Change struct {
	Table string
	Op    Op
}

type Subscription interface {
	Close() error
}

type ChangeFeed interface {
	Subscribe(ctx context.Context, fn func(Change)) (Subscription, error)
}

// Store is everything the dashboard needs from a backend.
type Store interface {
	SiteStore
	LogStore
	ChangeFeed
	Close() error
}

// SitesTable is the table name carried by site changes.
const SitesTable = "monitored_sites"

// CheckDashboard validates every row, wrapping the first failure in
// ErrMalformedRow.
func CheckDashboard(rows []domain.SiteDashboard) error {
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return errors.Join(ErrMalformedRow, err)
		}
	}
	return nil
}
