package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	// Cooldown suppresses repeated down alerts for the same site.
	Cooldown time.Duration
	// Queue bounds pending alerts; extra ones are dropped and logged.
	Queue int
}

type alert struct {
	title string
	text  string
}

// Alerter turns site status transitions into notifications. Observe is
// cheap and non-blocking; Run does the sending.
type Alerter struct {
	log      *zap.Logger
	notifier Notifier
	cfg      AlerterConfig
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[domain.SiteID]time.Time

	queue chan alert
}

func NewAlerter(log *zap.Logger, notifier Notifier, cfg AlerterConfig) *Alerter {
	if cfg.Queue <= 0 {
		cfg.Queue = 64
	}
	return &Alerter{
		log:      log,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		lastSent: make(map[domain.SiteID]time.Time),
		queue:    make(chan alert, cfg.Queue),
	}
}

// Observe compares two snapshots. Sites missing from prev are new and never
// alert; so the first load is silent.
func (a *Alerter) Observe(prev, next []domain.SiteDashboard) {
	before := make(map[domain.SiteID]domain.SiteStatus, len(prev))
	for _, s := range prev {
		before[s.ID] = s.Status
	}

	now := a.now()
	for _, s := range next {
		old, seen := before[s.ID]
		if !seen || old == s.Status {
			continue
		}

		down := s.Status == domain.StatusDown
		recovered := s.Status == domain.StatusUp && old == domain.StatusDown
		if !down && !(recovered && a.cfg.AlertOnRecovery) {
			continue
		}

		a.mu.Lock()
		last, sent := a.lastSent[s.ID]
		if down && sent && now.Sub(last) < a.cfg.Cooldown {
			a.mu.Unlock()
			a.log.Debug("alert_cooldown", zap.String("site", string(s.ID)))
			continue
		}
		if down {
			a.lastSent[s.ID] = now
		} else {
			delete(a.lastSent, s.ID)
		}
		a.mu.Unlock()

		title, text := message(s, old)
		select {
		case a.queue <- alert{title: title, text: text}:
		default:
			a.log.Warn("alert_dropped", zap.String("site", string(s.ID)), zap.String("status", string(s.Status)))
		}
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case al := <-a.queue:
			if err := a.notifier.Send(ctx, al.title, al.text); err != nil {
				a.log.Warn("alert_send_error", zap.String("title", al.title), zap.Error(err))
				continue
			}
			a.log.Info("alert_sent", zap.String("title", al.title))
		}
	}
}

func message(s domain.SiteDashboard, old domain.SiteStatus) (string, string) {
	title := "🔴 Site DOWN: " + s.Name
	if s.Status == domain.StatusUp {
		title = "🟢 Site RECOVERED: " + s.Name
	}

	latency := "n/a"
	if s.LastResponseTime != nil {
		latency = fmt.Sprintf("%.0f ms", *s.LastResponseTime)
	}
	reason := "n/a"
	if s.LastError != nil && *s.LastError != "" {
		reason = *s.LastError
	}
	checked := "n/a"
	if s.LastCheckedAt != nil {
		checked = s.LastCheckedAt.UTC().Format(time.RFC3339)
	}

	text := fmt.Sprintf(
		"URL: %s\nCountry: %s\nWas: %s\nLatency: %s\nReason: %s\nUptime 24h: %.2f%%\nChecked: %s",
		s.URL, domain.CountryName(s.Country), old, latency, reason, s.Uptime24h, checked,
	)
	return title, text
}
