package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// ---- shared helpers ----

func snap(id string, st domain.SiteStatus) domain.SiteDashboard {
	return domain.SiteDashboard{MonitoredSite: domain.MonitoredSite{
		ID: domain.SiteID(id), Name: id, URL: "https://" + id, Country: "DE", Status: st,
	}}
}

type memNotifier struct {
	mu     sync.Mutex
	titles []string
	texts  []string
}

func (m *memNotifier) Send(ctx context.Context, title, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	m.texts = append(m.texts, text)
	return nil
}

func (m *memNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

func drain(t *testing.T, a *Alerter, nt *memNotifier, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = a.Run(ctx); close(done) }()
	deadline := time.Now().Add(time.Second)
	for nt.count() < want && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done
	if got := nt.count(); got != want {
		t.Fatalf("want %d alerts, got %d (%v)", want, got, nt.titles)
	}
}

// ---- tests ----

func TestAlerter_SendsOnDown_RespectsCooldown(t *testing.T) {
	nt := &memNotifier{}
	al := NewAlerter(zap.NewNop(), nt, AlerterConfig{AlertOnRecovery: true, Cooldown: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	al.now = func() time.Time { return now }

	up := []domain.SiteDashboard{snap("a", domain.StatusUp)}
	down := []domain.SiteDashboard{snap("a", domain.StatusDown)}

	al.Observe(nil, up) // first sighting is silent
	al.Observe(up, down)
	drain(t, al, nt, 1)
	if !strings.Contains(nt.titles[0], "DOWN") || !strings.Contains(nt.texts[0], "Country: Germany") {
		t.Fatalf("unexpected alert: %q %q", nt.titles[0], nt.texts[0])
	}

	// recovery, then down again inside the cooldown; recovery resets it
	al.Observe(down, up)
	drain(t, al, nt, 2)
	if !strings.Contains(nt.titles[1], "RECOVERED") {
		t.Fatalf("want recovery alert, got %q", nt.titles[1])
	}
	al.Observe(up, down)
	drain(t, al, nt, 3)

	// flapping through maintenance within the cooldown stays quiet
	mt := []domain.SiteDashboard{snap("a", domain.StatusMaintenance)}
	al.Observe(down, mt)
	al.Observe(mt, down)
	drain(t, al, nt, 3)

	now = now.Add(2 * time.Minute)
	al.Observe(mt, down)
	drain(t, al, nt, 4)
}

func TestAlerter_NoRecoveryIfDisabled(t *testing.T) {
	nt := &memNotifier{}
	al := NewAlerter(zap.NewNop(), nt, AlerterConfig{})

	down := []domain.SiteDashboard{snap("b", domain.StatusDown)}
	up := []domain.SiteDashboard{snap("b", domain.StatusUp)}
	al.Observe(down, up)
	drain(t, al, nt, 0)

	al.Observe(up, down)
	drain(t, al, nt, 1)
}

func TestAlerter_NewSitesAndUnknownToUpAreSilent(t *testing.T) {
	nt := &memNotifier{}
	al := NewAlerter(zap.NewNop(), nt, AlerterConfig{AlertOnRecovery: true})

	al.Observe(nil, []domain.SiteDashboard{snap("c", domain.StatusDown)})
	al.Observe(
		[]domain.SiteDashboard{snap("c", domain.StatusUnknown)},
		[]domain.SiteDashboard{snap("c", domain.StatusUp)},
	)
	drain(t, al, nt, 0)
}

func TestAlerter_DropsWhenQueueFull(t *testing.T) {
	nt := &memNotifier{}
	al := NewAlerter(zap.NewNop(), nt, AlerterConfig{Queue: 1})
	prev := []domain.SiteDashboard{snap("a", domain.StatusUp), snap("b", domain.StatusUp)}
	next := []domain.SiteDashboard{snap("a", domain.StatusDown), snap("b", domain.StatusDown)}
	al.Observe(prev, next)
	drain(t, al, nt, 1)
}

type failing struct{ err error }

func (f failing) Send(context.Context, string, string) error { return f.err }

func TestMulti_TriesAllAndCombinesErrors(t *testing.T) {
	nt := &memNotifier{}
	m := Multi{failing{ErrDisabled}, nil, nt, failing{context.Canceled}}
	err := m.Send(context.Background(), "t", "x")
	if err == nil || nt.count() != 1 {
		t.Fatalf("want combined error and one delivery, got %v, %d", err, nt.count())
	}
	if !strings.Contains(err.Error(), "notifier disabled") || !strings.Contains(err.Error(), "context canceled") {
		t.Fatalf("both errors should be reported: %v", err)
	}
	if err := (Multi{nt}).Send(context.Background(), "t", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
