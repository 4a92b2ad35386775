package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	pg "github.com/hamed0406/sitewatch/internal/repo/postgres"
	"github.com/hamed0406/sitewatch/internal/repo/sqlite"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.Store = memory.New()
	var _ repo.Store = (*pg.Store)(nil)
	var _ repo.Store = (*sqlite.Store)(nil)
}

func TestCheckDashboard_FlagsMalformedRow(t *testing.T) {
	rows := []domain.SiteDashboard{
		{MonitoredSite: domain.MonitoredSite{ID: "a", Name: "A", URL: "https://a", Status: domain.StatusUp}},
		{MonitoredSite: domain.MonitoredSite{ID: "b", Name: "B", URL: "https://b", Status: "bogus"}},
	}
	err := repo.CheckDashboard(rows)
	if !errors.Is(err, repo.ErrMalformedRow) || !errors.Is(err, domain.ErrInvalidRow) {
		t.Fatalf("want malformed row error, got %v", err)
	}
	if err := repo.CheckDashboard(rows[:1]); err != nil {
		t.Fatalf("valid rows rejected: %v", err)
	}
}

func TestUptime24h(t *testing.T) {
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	logs := []domain.SiteLog{
		{Status: domain.LogUp, CheckedAt: now.Add(-time.Hour)},
		{Status: domain.LogError, CheckedAt: now.Add(-2 * time.Hour)},
		{Status: domain.LogUp, CheckedAt: now.Add(-48 * time.Hour)},
	}
	up, n := repo.Uptime24h(logs, now)
	if n != 2 || up != 50 {
		t.Fatalf("want 2 checks at 50%%, got %d at %v", n, up)
	}
	if up, n := repo.Uptime24h(nil, now); up != 0 || n != 0 {
		t.Fatalf("empty logs should be 0/0, got %v/%d", up, n)
	}
}

func TestFeed_SubscribePublishClose(t *testing.T) {
	f := repo.NewFeed()
	var a, b int
	subA, _ := f.Subscribe(context.Background(), func(repo.Change) { a++ })
	_, _ = f.Subscribe(context.Background(), func(repo.Change) { b++ })

	f.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpInsert})
	if a != 1 || b != 1 {
		t.Fatalf("both subscribers should fire: a=%d b=%d", a, b)
	}

	_ = subA.Close()
	_ = subA.Close() // idempotent
	f.Publish(repo.Change{Table: repo.SitesTable, Op: repo.OpDelete})
	if a != 1 || b != 2 {
		t.Fatalf("closed subscriber fired: a=%d b=%d", a, b)
	}
	if f.Len() != 1 {
		t.Fatalf("want 1 live subscription, got %d", f.Len())
	}
}
