package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

func newSite(name string) domain.NewSite {
	return domain.NewSite{
		Name:               name,
		URL:                "https://" + name + ".example",
		Country:            "DE",
		CheckInterval:      300,
		TimeoutSeconds:     30,
		ExpectedStatusCode: 200,
		Status:             domain.StatusUnknown,
		IsActive:           true,
	}
}

func TestMemoryStore_InsertAndListOrderedByName(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, n := range []string{"Gamma", "Alpha", "Beta"} {
		got, err := s.Insert(ctx, newSite(n))
		if err != nil {
			t.Fatalf("Insert %s: %v", n, err)
		}
		if got.ID == "" {
			t.Fatalf("expected site ID to be set")
		}
	}

	all, err := s.ListDashboard(ctx)
	if err != nil {
		t.Fatalf("ListDashboard: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(all))
	}
	if all[0].Name != "Alpha" || all[1].Name != "Beta" || all[2].Name != "Gamma" {
		t.Fatalf("not ordered by name: %s %s %s", all[0].Name, all[1].Name, all[2].Name)
	}
	if err := repo.CheckDashboard(all); err != nil {
		t.Fatalf("rows should validate: %v", err)
	}
}

func TestMemoryStore_UpdateDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	off := false
	if err := s.Update(ctx, "missing", domain.SitePatch{IsActive: &off}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("Update missing: want ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("Delete missing: want ErrNotFound, got %v", err)
	}

	site, _ := s.Insert(ctx, newSite("Alpha"))
	if err := s.Update(ctx, site.ID, domain.SitePatch{IsActive: &off}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(ctx, site.ID)
	if err != nil || got.IsActive {
		t.Fatalf("expected inactive site, got %+v err=%v", got, err)
	}

	if err := s.Delete(ctx, site.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, site.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("Get after delete: want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	s := New()

	var ops []repo.Op
	sub, err := s.Subscribe(ctx, func(c repo.Change) {
		if c.Table != repo.SitesTable {
			t.Errorf("unexpected table %q", c.Table)
		}
		ops = append(ops, c.Op)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	site, _ := s.Insert(ctx, newSite("Alpha"))
	on := true
	_ = s.Update(ctx, site.ID, domain.SitePatch{IsActive: &on})
	_ = s.Delete(ctx, site.ID)

	if len(ops) != 3 || ops[0] != repo.OpInsert || ops[1] != repo.OpUpdate || ops[2] != repo.OpDelete {
		t.Fatalf("unexpected ops: %v", ops)
	}

	_ = sub.Close()
	_, _ = s.Insert(ctx, newSite("Beta"))
	if len(ops) != 3 {
		t.Fatalf("closed subscription still notified: %v", ops)
	}
}

func TestMemoryStore_AppendLogFeedsAggregate(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	site, _ := s.Insert(ctx, newSite("Alpha"))
	rt := 120.0
	for i, st := range []domain.LogStatus{domain.LogUp, domain.LogUp, domain.LogUp, domain.LogTimeout} {
		l := &domain.SiteLog{
			SiteID:       site.ID,
			Status:       st,
			ResponseTime: &rt,
			CheckedAt:    now.Add(-time.Duration(4-i) * time.Minute),
		}
		if err := s.AppendLog(ctx, l); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}
	// outside the window
	_ = s.AppendLog(ctx, &domain.SiteLog{SiteID: site.ID, Status: domain.LogDown, CheckedAt: now.Add(-25 * time.Hour)})

	got, err := s.Get(ctx, site.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Checks24h != 4 || got.Uptime24h != 75 {
		t.Fatalf("want 4 checks at 75%%, got %d at %v", got.Checks24h, got.Uptime24h)
	}

	logs, _ := s.RecentLogs(ctx, site.ID, 2)
	if len(logs) != 2 || logs[0].Status != domain.LogTimeout {
		t.Fatalf("want newest first, got %+v", logs)
	}
}
