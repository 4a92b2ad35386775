package postgres

import (
	"context"
	"fmt"
)

// Channel is the LISTEN/NOTIFY channel the sites trigger publishes on. The
// payload is the trigger's TG_OP.
const Channel = "monitored_sites_changes"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS monitored_sites (
  id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
  name                 TEXT NOT NULL,
  url                  TEXT NOT NULL,
  description          TEXT NULL,
  country              TEXT NOT NULL,
  region               TEXT NULL,
  latitude             DOUBLE PRECISION NULL,
  longitude            DOUBLE PRECISION NULL,
  check_interval       INTEGER NOT NULL DEFAULT 300 CHECK (check_interval >= 60),
  timeout_seconds      INTEGER NOT NULL DEFAULT 30 CHECK (timeout_seconds BETWEEN 5 AND 300),
  expected_status_code INTEGER NOT NULL DEFAULT 200 CHECK (expected_status_code BETWEEN 100 AND 599),
  status               TEXT NOT NULL DEFAULT 'unknown' CHECK (status IN ('up','down','unknown','maintenance')),
  last_checked_at      TIMESTAMPTZ NULL,
  last_response_time   DOUBLE PRECISION NULL,
  last_error           TEXT NULL,
  tags                 TEXT[] NOT NULL DEFAULT '{}',
  is_active            BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS site_monitoring_logs (
  id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  site_id          UUID NOT NULL REFERENCES monitored_sites(id) ON DELETE CASCADE,
  checked_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  status           TEXT NOT NULL CHECK (status IN ('up','down','timeout','error')),
  response_time    DOUBLE PRECISION NULL,
  status_code      INTEGER NULL,
  error_message    TEXT NULL,
  response_headers JSONB NULL,
  response_size    BIGINT NULL
);

CREATE INDEX IF NOT EXISTS idx_logs_site_time ON site_monitoring_logs (site_id, checked_at DESC);

CREATE OR REPLACE VIEW site_monitoring_dashboard AS
SELECT s.*,
       COALESCE(100.0 * COUNT(l.id) FILTER (WHERE l.status = 'up') / NULLIF(COUNT(l.id), 0), 0)::float8 AS uptime_24h,
       COUNT(l.id)::int AS checks_24h
  FROM monitored_sites s
  LEFT JOIN site_monitoring_logs l
    ON l.site_id = s.id AND l.checked_at > now() - interval '24 hours'
 GROUP BY s.id;

CREATE OR REPLACE FUNCTION notify_monitored_sites() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify('` + Channel + `', TG_OP);
  RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS monitored_sites_notify ON monitored_sites;
CREATE TRIGGER monitored_sites_notify
  AFTER INSERT OR UPDATE OR DELETE ON monitored_sites
  FOR EACH ROW EXECUTE FUNCTION notify_monitored_sites();
`

// Migrate creates the tables, the dashboard view and the change trigger.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
