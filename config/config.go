/*
Package config loads server settings.

PRECEDENCE (lowest to highest):
  1. Defaults
  2. .env file in the working directory (optional)
  3. Process environment
  4. Command-line flags (applied by cmd/server)

VARIABLES:
  PORT               HTTP port (default: 8080)
  DB_PATH            SQLite database path (default: ledger.db)
  SESSION_SECRET     HS256 signing secret for session tokens
  CORS_ORIGINS       Comma-separated allowed origins
  RESPONSE_WINDOW    Assignment response window (default: 48h)
  REMINDER_INTERVAL  Reminder scan interval, 0 disables (default: 1h)
  NOTIFY_BUFFER      Notification queue size (default: 256)
*/
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevSecret is used when SESSION_SECRET is unset. Never use it in production.
const DevSecret = "dev-secret-change-me"

type Config struct {
	Port             int
	DBPath           string
	SessionSecret    string
	CORSOrigins      []string
	ResponseWindow   time.Duration
	ReminderInterval time.Duration
	NotifyBuffer     int
}

func Default() Config {
	return Config{
		Port:             8080,
		DBPath:           "ledger.db",
		SessionSecret:    DevSecret,
		CORSOrigins:      []string{"http://localhost:5173", "http://localhost:8080"},
		ResponseWindow:   48 * time.Hour,
		ReminderInterval: time.Hour,
		NotifyBuffer:     256,
	}
}

// Load reads files (default ".env") into the environment, then builds a Config.
// Missing files are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv on top of the defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error

	if v := getenv("PORT"); v != "" {
		if cfg.Port, err = strconv.Atoi(v); err != nil || cfg.Port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	} else {
		log.Println("[Config] SESSION_SECRET not set, using development secret")
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getenv("RESPONSE_WINDOW"); v != "" {
		if cfg.ResponseWindow, err = time.ParseDuration(v); err != nil || cfg.ResponseWindow <= 0 {
			return Config{}, fmt.Errorf("invalid RESPONSE_WINDOW %q", v)
		}
	}
	if v := getenv("REMINDER_INTERVAL"); v != "" {
		if cfg.ReminderInterval, err = time.ParseDuration(v); err != nil || cfg.ReminderInterval < 0 {
			return Config{}, fmt.Errorf("invalid REMINDER_INTERVAL %q", v)
		}
	}
	if v := getenv("NOTIFY_BUFFER"); v != "" {
		if cfg.NotifyBuffer, err = strconv.Atoi(v); err != nil || cfg.NotifyBuffer <= 0 {
			return Config{}, fmt.Errorf("invalid NOTIFY_BUFFER %q", v)
		}
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
