package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

const dashboardColumns = `id::text, created_at, updated_at, name, url, description, country, region,
       latitude, longitude, check_interval, timeout_seconds, expected_status_code, status,
       last_checked_at, last_response_time, last_error, tags, is_active, uptime_24h, checks_24h`

// ---- SiteStore ----

func (s *Store) ListDashboard(ctx context.Context) ([]domain.SiteDashboard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+dashboardColumns+`
		   FROM site_monitoring_dashboard
		  ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
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
		return nil, fmt.Errorf("list sites: %w", err)
	}
	if err := repo.CheckDashboard(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id domain.SiteID) (*domain.SiteDashboard, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+dashboardColumns+`
		   FROM site_monitoring_dashboard
		  WHERE id::text = $1`, string(id))
	d, err := scanDashboard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, errors.Join(repo.ErrMalformedRow, err)
	}
	return &d, nil
}

func scanDashboard(row pgx.Row) (domain.SiteDashboard, error) {
	var (
		d      domain.SiteDashboard
		id     string
		status string
	)
	err := row.Scan(
		&id, &d.CreatedAt, &d.UpdatedAt, &d.Name, &d.URL, &d.Description, &d.Country, &d.Region,
		&d.Latitude, &d.Longitude, &d.CheckInterval, &d.TimeoutSeconds, &d.ExpectedStatusCode, &status,
		&d.LastCheckedAt, &d.LastResponseTime, &d.LastError, &d.Tags, &d.IsActive, &d.Uptime24h, &d.Checks24h,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("scan site: %w", errors.Join(repo.ErrMalformedRow, err))
	}
	d.ID = domain.SiteID(id)
	d.Status = domain.SiteStatus(status)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

func (s *Store) Insert(ctx context.Context, n domain.NewSite) (*domain.MonitoredSite, error) {
	status := n.Status
	if status == "" {
		status = domain.StatusUnknown
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	site := &domain.MonitoredSite{
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
		Status:             status,
		Tags:               tags,
		IsActive:           n.IsActive,
	}
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO monitored_sites
		   (name, url, description, country, region, latitude, longitude,
		    check_interval, timeout_seconds, expected_status_code, status, tags, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 RETURNING id::text, created_at, updated_at`,
		n.Name, n.URL, n.Description, n.Country, n.Region, n.Latitude, n.Longitude,
		n.CheckInterval, n.TimeoutSeconds, n.ExpectedStatusCode, string(status), tags, n.IsActive,
	).Scan(&id, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert site: %w", err)
	}
	site.ID = domain.SiteID(id)
	return site, nil
}

func (s *Store) Update(ctx context.Context, id domain.SiteID, p domain.SitePatch) error {
	q, args := buildUpdate(id, p)
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// buildUpdate renders the UPDATE for the set fields of p. updated_at is
// always bumped, so an empty patch still touches the row.
func buildUpdate(id domain.SiteID, p domain.SitePatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
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
		add("tags", p.Tags)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, string(id))
	q := "UPDATE monitored_sites SET " + strings.Join(sets, ", ") +
		" WHERE id::text = $" + strconv.Itoa(len(args))
	return q, args
}

func (s *Store) Delete(ctx context.Context, id domain.SiteID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM monitored_sites WHERE id::text = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- LogStore ----

// AppendLog inserts the log and mirrors it onto the site's last-check
// columns in one transaction.
func (s *Store) AppendLog(ctx context.Context, l *domain.SiteLog) error {
	if l.CheckedAt.IsZero() {
		l.CheckedAt = time.Now().UTC()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO site_monitoring_logs
		   (site_id, checked_at, status, response_time, status_code, error_message, response_headers, response_size)
		 VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id::text`,
		string(l.SiteID), l.CheckedAt, string(l.Status), l.ResponseTime, l.StatusCode,
		l.ErrorMessage, l.ResponseHeaders, l.ResponseSize,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	status := domain.StatusDown
	if l.Status == domain.LogUp {
		status = domain.StatusUp
	}
	tag, err := tx.Exec(ctx,
		`UPDATE monitored_sites
		    SET status = $1, last_checked_at = $2, last_response_time = $3, last_error = $4, updated_at = now()
		  WHERE id::text = $5`,
		string(status), l.CheckedAt, l.ResponseTime, l.ErrorMessage, string(l.SiteID))
	if err != nil {
		return fmt.Errorf("update last check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) RecentLogs(ctx context.Context, id domain.SiteID, limit int) ([]domain.SiteLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, checked_at, status, response_time, status_code, error_message, response_headers, response_size
		   FROM site_monitoring_logs
		  WHERE site_id::text = $1
		  ORDER BY checked_at DESC
		  LIMIT $2`, string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("recent logs: %w", err)
	}
	defer rows.Close()

	var out []domain.SiteLog
	for rows.Next() {
		l := domain.SiteLog{SiteID: id}
		var status string
		if err := rows.Scan(&l.ID, &l.CheckedAt, &status, &l.ResponseTime, &l.StatusCode,
			&l.ErrorMessage, &l.ResponseHeaders, &l.ResponseSize); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Status = domain.LogStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}
