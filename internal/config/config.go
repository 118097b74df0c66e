package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr            string
	Store               string
	DBDSN               string
	DBMaxConns          int32
	MigrateOnStart      bool
	JWTIssuer           string
	JWTSecret           string
	JWTTTL              time.Duration
	WebSocketOrigin     string
	LogLevel            slog.Level
	RateLimitRPS        float64
	RateLimitBurst      int
	OrderExpiryInterval time.Duration
	AdminEmail          string
	AdminPasswordHash   string
}

// Load reads the environment. Missing required keys are reported together.
func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.Store = strings.ToLower(strings.TrimSpace(os.Getenv("STORE")))
	if c.Store == "" {
		c.Store = StorePostgres
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return c, errors.New("invalid STORE: use postgres or memory")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" && c.Store == StorePostgres {
		missing = append(missing, "DB_DSN")
	}
	c.DBMaxConns = 25
	if raw := strings.TrimSpace(os.Getenv("DB_MAX_CONNS")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 {
			return c, errors.New("invalid DB_MAX_CONNS")
		}
		c.DBMaxConns = int32(n)
	}
	c.MigrateOnStart = true
	if raw := os.Getenv("MIGRATE_ON_START"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c, fmt.Errorf("invalid MIGRATE_ON_START: %w", err)
		}
		c.MigrateOnStart = b
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, fmt.Errorf("invalid JWT_TTL: %w", err)
		}
		c.JWTTTL = d
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		c.WebSocketOrigin = "*"
	}
	level, err := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return c, err
	}
	c.LogLevel = level
	c.RateLimitRPS = 10
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return c, errors.New("invalid RATE_LIMIT_RPS")
		}
		c.RateLimitRPS = f
	}
	c.RateLimitBurst = 30
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c, errors.New("invalid RATE_LIMIT_BURST")
		}
		c.RateLimitBurst = n
	}
	if raw := strings.TrimSpace(os.Getenv("ORDER_EXPIRY_INTERVAL")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return c, errors.New("invalid ORDER_EXPIRY_INTERVAL")
		}
		c.OrderExpiryInterval = d
	}
	c.AdminEmail = strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	c.AdminPasswordHash = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH"))
	if (c.AdminEmail == "") != (c.AdminPasswordHash == "") {
		return c, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set together")
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

// ParseLogLevel accepts debug, info, warn and error; empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
}
