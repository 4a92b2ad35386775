package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Config struct {
	Addr        string // API bind address, e.g., "127.0.0.1:8080" (Windows) or ":8080" (Docker)
	LogDir      string // logs directory
	LogLevel    string
	LogConsole  bool
	Driver      Driver
	DatabaseURL string // postgres DSN or sqlite file path

	PublicAPIKeys  []string
	AdminAPIKeys   []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
	AllowedOrigins []string

	SlackWebhookURL  string
	TelegramBotToken string
	TelegramChatID   string
	AlertOnRecovery  bool
	AlertCooldown    time.Duration
}

// LoadDotEnv reads files (default ".env") into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func FromEnv() Config {
	// Bind address (Windows-friendly default)
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	db := os.Getenv("DATABASE_URL")

	return Config{
		Addr:        addr,
		LogDir:      logDir,
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogConsole:  boolOr("LOG_CONSOLE", false),
		Driver:      driver(os.Getenv("DATABASE_DRIVER"), db),
		DatabaseURL: db,

		PublicAPIKeys:  list("PUBLIC_API_KEYS"),
		AdminAPIKeys:   list("ADMIN_API_KEYS"),
		PublicRPM:      intOr("PUBLIC_RPM", 120),
		PublicBurst:    intOr("PUBLIC_BURST", 60),
		AdminRPM:       intOr("ADMIN_RPM", 30),
		AdminBurst:     intOr("ADMIN_BURST", 10),
		AllowedOrigins: list("ALLOWED_ORIGINS"),

		SlackWebhookURL:  os.Getenv("SLACK_WEBHOOK_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		AlertOnRecovery:  boolOr("ALERT_ON_RECOVERY", true),
		AlertCooldown:    time.Duration(intOr("ALERT_COOLDOWN_SEC", 600)) * time.Second,
	}
}

// driver picks the store. Without an explicit choice a postgres DSN means
// postgres and anything else the in-memory store.
func driver(explicit, dsn string) Driver {
	switch d := Driver(strings.ToLower(strings.TrimSpace(explicit))); d {
	case DriverMemory, DriverSQLite, DriverPostgres:
		return d
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres
	}
	return DriverMemory
}

func list(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func boolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
