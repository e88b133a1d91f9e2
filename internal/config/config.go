// Package config reads all service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr   string // API bind address, e.g. "127.0.0.1:8080" or ":8080"
	LogDir string // logs directory
	DBPath string // bbolt database file; empty means in-memory store

	PublicAPIKeys  []string
	AdminAPIKeys   []string
	AllowedOrigins []string

	// Probe budgets.
	PingTimeout time.Duration
	HTTPTimeout time.Duration
	PortTimeout time.Duration
	TLSTimeout  time.Duration

	// Background re-check loop.
	RetryAttempts       int
	RetryBackoff        time.Duration
	CheckInterval       time.Duration // 0 disables the loop
	MaxConcurrentChecks int

	// Rate limits (requests per minute + burst).
	PublicRPM   int
	PublicBurst int
	AdminRPM    int
	AdminBurst  int

	// Alerting.
	AlertCooldown     time.Duration
	AlertPollInterval time.Duration
	AlertOnRecovery   bool
	WatchCertificates bool
	SlackWebhook      string
}

func FromEnv() Config {
	return Config{
		Addr:   envStr("ADDR", "127.0.0.1:8080"),
		LogDir: envStr("LOG_DIR", "logs"),
		DBPath: os.Getenv("DB_PATH"),

		PublicAPIKeys:  envList("PUBLIC_API_KEYS"),
		AdminAPIKeys:   envList("ADMIN_API_KEYS"),
		AllowedOrigins: envList("ALLOWED_ORIGINS"),

		PingTimeout: envMS("PING_TIMEOUT_MS", 5*time.Second),
		HTTPTimeout: envMS("HTTP_TIMEOUT_MS", 10*time.Second),
		PortTimeout: envMS("PORT_TIMEOUT_MS", 3*time.Second),
		TLSTimeout:  envMS("TLS_TIMEOUT_MS", 10*time.Second),

		RetryAttempts:       envInt("RETRY_ATTEMPTS", 2, 1),
		RetryBackoff:        envMS("RETRY_BACKOFF_MS", 300*time.Millisecond),
		CheckInterval:       envMS("CHECK_INTERVAL_MS", time.Minute),
		MaxConcurrentChecks: envInt("MAX_CONCURRENT_CHECKS", 8, 1),

		PublicRPM:   envInt("PUBLIC_RPM", 120, 0),
		PublicBurst: envInt("PUBLIC_BURST", 60, 0),
		AdminRPM:    envInt("ADMIN_RPM", 60, 0),
		AdminBurst:  envInt("ADMIN_BURST", 30, 0),

		AlertCooldown:     envMS("ALERT_COOLDOWN_MS", 15*time.Minute),
		AlertPollInterval: envMS("ALERT_POLL_INTERVAL_MS", 30*time.Second),
		AlertOnRecovery:   envBool("ALERT_ON_RECOVERY", true),
		WatchCertificates: envBool("WATCH_CERTIFICATES", true),
		SlackWebhook:      os.Getenv("SLACK_WEBHOOK"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, def, floor int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= floor {
			return n
		}
	}
	return def
}

func envMS(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
