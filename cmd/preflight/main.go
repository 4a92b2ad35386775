// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hamed0406/sitewatch/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	// Normalize and sanity-check lists (no spaces around commas).
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS", "ALLOWED_ORIGINS"} {
		if strings.Contains(os.Getenv(name), " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	cfg := config.FromEnv()

	switch {
	case len(cfg.AdminAPIKeys) == 0 && len(cfg.PublicAPIKeys) == 0:
		warn("no API keys set; every caller gets admin access.")
	case len(cfg.AdminAPIKeys) == 0:
		fail("ADMIN_API_KEYS is empty while PUBLIC_API_KEYS is set (admin routes will 403).")
	case len(cfg.PublicAPIKeys) == 0:
		warn("PUBLIC_API_KEYS is empty; only admin keys can read.")
	default:
		ok(fmt.Sprintf("%d public / %d admin keys", len(cfg.PublicAPIKeys), len(cfg.AdminAPIKeys)))
	}

	ok("API_ADDR=" + cfg.Addr)

	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			fail("DATABASE_DRIVER=postgres but DATABASE_URL is empty.")
		} else {
			ok("postgres store")
		}
	case config.DriverSQLite:
		if cfg.DatabaseURL == "" {
			warn("DATABASE_URL empty; sqlite will use ./sitewatch.db")
		} else {
			ok("sqlite store at " + cfg.DatabaseURL)
		}
	default:
		if d := os.Getenv("DATABASE_DRIVER"); d != "" && !strings.EqualFold(d, string(config.DriverMemory)) {
			fail("unknown DATABASE_DRIVER " + d)
		} else {
			warn("in-memory store; sites are lost on restart.")
		}
	}

	if cfg.SlackWebhookURL != "" {
		if u, err := url.Parse(cfg.SlackWebhookURL); err != nil || u.Scheme != "https" {
			fail("SLACK_WEBHOOK_URL is not an https URL.")
		} else {
			ok("slack alerts enabled")
		}
	}
	switch {
	case cfg.TelegramBotToken != "" && cfg.TelegramChatID != "":
		ok("telegram alerts enabled")
	case cfg.TelegramBotToken != "" || cfg.TelegramChatID != "":
		fail("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together.")
	}
	if cfg.SlackWebhookURL == "" && cfg.TelegramBotToken == "" {
		warn("no notifier configured; status alerts are off.")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS and websocket origins are unrestricted.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
