package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// Fixed-width UTC layout so timestamps compare correctly as TEXT.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements repo.Store on a local SQLite file. Change notifications
// are delivered in-process, so only writers in this process are observed.
type Store struct {
	db   *sql.DB
	feed *repo.Feed
	now  func() time.Time
}

// New opens the database file and runs migrations.
func New(ctx context.Context, dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// One writer; keeps in-memory databases on a single connection too.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	s := &Store{db: db, feed: repo.NewFeed(), now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS monitored_sites (
	id                   TEXT PRIMARY KEY,
	created_at           TEXT NOT NULL,
	updated_at           TEXT NOT NULL,
	name                 TEXT NOT NULL,
	url                  TEXT NOT NULL,
	description          TEXT,
	country              TEXT NOT NULL,
	region               TEXT,
	latitude             REAL,
	longitude            REAL,
	check_interval       INTEGER NOT NULL,
	timeout_seconds      INTEGER NOT NULL,
	expected_status_code INTEGER NOT NULL,
	status               TEXT NOT NULL,
	last_checked_at      TEXT,
	last_response_time   REAL,
	last_error           TEXT,
	tags                 TEXT NOT NULL DEFAULT '[]',
	is_active            INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_sites_name ON monitored_sites (name, id);

CREATE TABLE IF NOT EXISTS site_monitoring_logs (
	id               TEXT PRIMARY KEY,
	site_id          TEXT NOT NULL,
	checked_at       TEXT NOT NULL,
	status           TEXT NOT NULL,
	response_time    REAL,
	status_code      INTEGER,
	error_message    TEXT,
	response_headers TEXT,
	response_size    INTEGER,
	FOREIGN KEY(site_id) REFERENCES monitored_sites(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_logs_site_checked_at ON site_monitoring_logs (site_id, checked_at DESC);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Subscribe(ctx context.Context, fn func(repo.Change)) (repo.Subscription, error) {
	return s.feed.Subscribe(ctx, fn)
}

const dashboardQuery = `
SELECT s.id, s.created_at, s.updated_at, s.name, s.url, s.description, s.country, s.region,
       s.latitude, s.longitude, s.check_interval, s.timeout_seconds, s.expected_status_code, s.status,
       s.last_checked_at, s.last_response_time, s.last_error, s.tags, s.is_active,
       COUNT(l.id), COALESCE(SUM(CASE WHEN l.status = 'up' THEN 1 ELSE 0 END), 0)
  FROM monitored_sites s
  LEFT JOIN site_monitoring_logs l ON l.site_id = s.id AND l.checked_at > ?`

func (s *Store) ListDashboard(ctx context.Context) ([]domain.SiteDashboard, error) {
	since := s.now().Add(-repo.UptimeWindow).Format(tsLayout)
	rows, err := s.db.QueryContext(ctx, dashboardQuery+` GROUP BY s.id ORDER BY s.name, s.id`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var out []domain.SiteDashboard
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	if err := repo.CheckDashboard(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id domain.SiteID) (*domain.SiteDashboard, error) {
	since := s.now().Add(-repo.UptimeWindow).Format(tsLayout)
	row := s.db.QueryRowContext(ctx, dashboardQuery+` WHERE s.id = ? GROUP BY s.id`, since, string(id))
	d, err := scanDashboard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, errors.Join(repo.ErrMalformedRow, err)
	}
	return &d, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDashboard(row scanner) (domain.SiteDashboard, error) {
	var (
		d                    domain.SiteDashboard
		id, status, tagsJSON string
		created, updated     string
		lastChecked          sql.NullString
		active               bool
		up                   int
	)
	err := row.Scan(
		&id, &created, &updated, &d.Name, &d.URL, &d.Description, &d.Country, &d.Region,
		&d.Latitude, &d.Longitude, &d.CheckInterval, &d.TimeoutSeconds, &d.ExpectedStatusCode, &status,
		&lastChecked, &d.LastResponseTime, &d.LastError, &tagsJSON, &active,
		&d.Checks24h, &up,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("failed to scan site: %w", errors.Join(repo.ErrMalformedRow, err))
	}
	d.ID = domain.SiteID(id)
	d.Status = domain.SiteStatus(status)
	d.IsActive = active
	if d.CreatedAt, err = parseTS(created); err != nil {
		return d, err
	}
	if d.UpdatedAt, err = parseTS(updated); err != nil {
		return d, err
	}
	if lastChecked.Valid {
		t, err := parseTS(lastChecked.String)
		if err != nil {
			return d, err
		}
		d.LastCheckedAt = &t
	}
	if err := json.Unmarshal([]byte(tagsJSON), &d.Tags); err != nil {
		return d, fmt.Errorf("site %s tags: %w", id, errors.Join(repo.ErrMalformedRow, err))
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Checks24h > 0 {
		d.Uptime24h = float64(up) / float64(d.Checks24h) * 100
	}
	return d, nil
}

func parseTS(v string) (time.Time, error) {
	t, err := time.Parse(tsLayout, v)
	if err != nil {
		return t, fmt.Errorf("timestamp %q: %w", v, errors.Join(repo.ErrMalformedRow, err))
	}
	return t, nil
}

func (s *Store) Insert(ctx context.Context, n domain.NewSite) (*domain.MonitoredSite, error) {
	now := s.now()
	site := &domain.MonitoredSite{
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
	if site.Status == "" {
		site.Status = domain.StatusUnknown
	}
	tags, _ := json.Marshal(site.Tags)

	_, err := s.db.ExecContext(ctx, `
INSERT INTO monitored_sites
	(id, created_at, updated_at, name, url, description, country, region, latitude, longitude,
	 check_interval, timeout_seconds, expected_status_code, status, tags, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(site.ID), now.Format(tsLayout), now.Format(tsLayout), site.Name, site.URL, site.Description,
		site.Country, site.Region, site.Latitude, site.Longitude, site.CheckInterval, site.TimeoutSeconds,
		site.ExpectedStatusCode, string(site.Status), string(tags), site.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to insert site: %w", err)
	}
	s.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpInsert})
	return site, nil
}

func (s *Store) Update(ctx context.Context, id domain.SiteID, p domain.SitePatch) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.URL != nil {
		add("url", *p.URL)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Country != nil {
		add("country", *p.Country)
	}
	if p.CheckInterval != nil {
		add("check_interval", *p.CheckInterval)
	}
	if p.TimeoutSeconds != nil {
		add("timeout_seconds", *p.TimeoutSeconds)
	}
	if p.ExpectedStatusCode != nil {
		add("expected_status_code", *p.ExpectedStatusCode)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.Tags != nil {
		b, _ := json.Marshal(p.Tags)
		add("tags", string(b))
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	add("updated_at", s.now().Format(tsLayout))
	args = append(args, string(id))

	res, err := s.db.ExecContext(ctx,
		"UPDATE monitored_sites SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	s.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpUpdate})
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.SiteID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM monitored_sites WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	s.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpDelete})
	return nil
}

func (s *Store) AppendLog(ctx context.Context, l *domain.SiteLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CheckedAt.IsZero() {
		l.CheckedAt = s.now()
	}
	var headers *string
	if l.ResponseHeaders != nil {
		b, _ := json.Marshal(l.ResponseHeaders)
		h := string(b)
		headers = &h
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	checked := l.CheckedAt.UTC().Format(tsLayout)
	if _, err := tx.ExecContext(ctx, `
INSERT INTO site_monitoring_logs
	(id, site_id, checked_at, status, response_time, status_code, error_message, response_headers, response_size)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, string(l.SiteID), checked, string(l.Status), l.ResponseTime, l.StatusCode,
		l.ErrorMessage, headers, l.ResponseSize); err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}

	status := domain.StatusDown
	if l.Status == domain.LogUp {
		status = domain.StatusUp
	}
	res, err := tx.ExecContext(ctx, `
UPDATE monitored_sites
   SET status = ?, last_checked_at = ?, last_response_time = ?, last_error = ?, updated_at = ?
 WHERE id = ?`,
		string(status), checked, l.ResponseTime, l.ErrorMessage, s.now().Format(tsLayout), string(l.SiteID))
	if err != nil {
		return fmt.Errorf("failed to update last check: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.feed.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpUpdate})
	return nil
}

func (s *Store) RecentLogs(ctx context.Context, id domain.SiteID, limit int) ([]domain.SiteLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, checked_at, status, response_time, status_code, error_message, response_headers, response_size
  FROM site_monitoring_logs
 WHERE site_id = ?
 ORDER BY checked_at DESC
 LIMIT ?`, string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var out []domain.SiteLog
	for rows.Next() {
		var (
			l               = domain.SiteLog{SiteID: id}
			checked, status string
			headers         sql.NullString
		)
		if err := rows.Scan(&l.ID, &checked, &status, &l.ResponseTime, &l.StatusCode,
			&l.ErrorMessage, &headers, &l.ResponseSize); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		if l.CheckedAt, err = parseTS(checked); err != nil {
			return nil, err
		}
		l.Status = domain.LogStatus(status)
		if headers.Valid {
			if err := json.Unmarshal([]byte(headers.String), &l.ResponseHeaders); err != nil {
				return nil, fmt.Errorf("log %s headers: %w", l.ID, errors.Join(repo.ErrMalformedRow, err))
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

var _ repo.Store = (*Store)(nil)
