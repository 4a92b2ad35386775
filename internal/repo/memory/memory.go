package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

type Store struct {
	mu    sync.RWMutex
	sites map[domain.SiteID]*domain.MonitoredSite
	logs  map[domain.SiteID][]domain.SiteLog
	feed  *repo.Feed
	now   func() time.Time
}

func New() *Store {
	return &Store{
		sites: make(map[domain.SiteID]*domain.MonitoredSite),
		logs:  make(map[domain.SiteID][]domain.SiteLog),
		feed:  repo.NewFeed(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Store) Close() error { return nil }

func (m *Store) Subscribe(ctx context.Context, fn func(repo.Change)) (repo.Subscription, error) {
	return m.feed.Subscribe(ctx, fn)
}

func (m *Store) ListDashboard(ctx context.Context) ([]domain.SiteDashboard, error) {
	m.mu.RLock()
	now := m.now()
	out := make([]domain.SiteDashboard, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, m.dashboardLocked(s, now))
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Store) Get(ctx context.Context, id domain.SiteID) (*domain.SiteDashboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sites[id]
	if s == nil {
		return nil, repo.ErrNotFound
	}
	d := m.dashboardLocked(s, m.now())
	return &d, nil
}

func (m *Store) Insert(ctx context.Context, n domain.NewSite) (*domain.MonitoredSite, error) {
	now := m.now()
	s := &domain.MonitoredSite{
		ID:                 domain.SiteID(uuid.NewString()),
		CreatedAt:          now,
		UpdatedAt:          now,
		Name:               n.Name,
		URL:                n.URL,
		Description:        n.Description,
		Country:            n.Country,
		Region:             n.Region,
		Latitude:           n.Latitude,
		Longitude:          n.Longitude,
		CheckInterval:      n.CheckInterval,
		TimeoutSeconds:     n.TimeoutSeconds,
		ExpectedStatusCode: n.ExpectedStatusCode,
		Status:             n.Status,
		Tags:               append([]string{}, n.Tags...),
		IsActive:           n.IsActive,
	}
	if s.Status == "" {
		s.Status = domain.StatusUnknown
	}

	m.mu.Lock()
	m.sites[s.ID] = s
	m.mu.Unlock()

	m.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpInsert})
	cp := *s
	return &cp, nil
}

func (m *Store) Update(ctx context.Context, id domain.SiteID, p domain.SitePatch) error {
	m.mu.Lock()
	s := m.sites[id]
	if s == nil {
		m.mu.Unlock()
		return repo.ErrNotFound
	}
	p.Apply(s)
	s.UpdatedAt = m.now()
	m.mu.Unlock()

	m.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpUpdate})
	return nil
}

func (m *Store) Delete(ctx context.Context, id domain.SiteID) error {
	m.mu.Lock()
	if _, ok := m.sites[id]; !ok {
		m.mu.Unlock()
		return repo.ErrNotFound
	}
	delete(m.sites, id)
	delete(m.logs, id)
	m.mu.Unlock()

	m.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpDelete})
	return nil
}

// AppendLog records a check and mirrors its outcome onto the site's
// last-check fields, as the backend checker does.
func (m *Store) AppendLog(ctx context.Context, l *domain.SiteLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CheckedAt.IsZero() {
		l.CheckedAt = m.now()
	}

	m.mu.Lock()
	s := m.sites[l.SiteID]
	if s == nil {
		m.mu.Unlock()
		return repo.ErrNotFound
	}
	m.logs[l.SiteID] = append(m.logs[l.SiteID], *l)
	checked := l.CheckedAt
	s.LastCheckedAt = &checked
	s.LastResponseTime = l.ResponseTime
	s.LastError = l.ErrorMessage
	s.Status = siteStatusFromLog(l.Status)
	s.UpdatedAt = m.now()
	m.mu.Unlock()

	m.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpUpdate})
	return nil
}

func (m *Store) RecentLogs(ctx context.Context, id domain.SiteID, limit int) ([]domain.SiteLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.logs[id]
	out := make([]domain.SiteLog, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckedAt.After(out[j].CheckedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) dashboardLocked(s *domain.MonitoredSite, now time.Time) domain.SiteDashboard {
	up, n := repo.Uptime24h(m.logs[s.ID], now)
	d := domain.SiteDashboard{MonitoredSite: *s, Uptime24h: up, Checks24h: n}
	d.Tags = append([]string{}, s.Tags...)
	return d
}

func siteStatusFromLog(s domain.LogStatus) domain.SiteStatus {
	if s == domain.LogUp {
		return domain.StatusUp
	}
	return domain.StatusDown
}

var _ repo.Store = (*Store)(nil)
