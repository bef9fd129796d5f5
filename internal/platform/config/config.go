// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. Outside production a
local .env file is merged in first via 'joho/godotenv'.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/taibuivan/storefront/internal/platform/constants"
)

// OTP store drivers.
const (
	OTPStorePostgres = "postgres"
	OTPStoreRedis    = "redis"
)

// # Configuration Schema

// Config holds all runtime configuration for the storefront API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// CronSecret authenticates the external scheduler calling the cleanup endpoint.
	CronSecret string `env:"CRON_SECRET,required"`

	// Session lifecycle
	SessionWindow        time.Duration `env:"SESSION_WINDOW"         envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"0s"`
	ActivityLogRetention time.Duration `env:"ACTIVITY_LOG_RETENTION" envDefault:"2160h"`

	// Password recovery
	ResetCodeTTL    time.Duration `env:"RESET_CODE_TTL"    envDefault:"5m"`
	OTPStore        string        `env:"OTP_STORE"         envDefault:"postgres"`
	ExposeResetCode bool          `env:"EXPOSE_RESET_CODE" envDefault:"false"`

	// Outbound mail (SendGrid). Empty key falls back to logging the code.
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFromName   string `env:"MAIL_FROM_NAME"    envDefault:"Storefront Support"`
	MailFromEmail  string `env:"MAIL_FROM_EMAIL"   envDefault:"support@storefront.shop"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"storefront.shop"`

	// TrustedProxyCIDRs lists the reverse proxies allowed to set X-Forwarded-For
	// and X-Real-IP. Empty means the socket peer is always the client.
	TrustedProxyCIDRs []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	// TrustedProxies is TrustedProxyCIDRs parsed by [Config.Validate].
	TrustedProxies []netip.Prefix `env:"-"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// A missing .env is normal in containers; only the production flag disables it.
	if os.Getenv("ENVIRONMENT") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	if c.ExposeResetCode && c.IsProduction() {
		return errors.New("config: EXPOSE_RESET_CODE must not be enabled in production")
	}

	if c.OTPStore != OTPStorePostgres && c.OTPStore != OTPStoreRedis {
		return fmt.Errorf("config: unknown OTP_STORE %q", c.OTPStore)
	}

	c.TrustedProxies = c.TrustedProxies[:0]
	for _, cidr := range c.TrustedProxyCIDRs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return fmt.Errorf("config: invalid TRUSTED_PROXY_CIDRS entry %q: %w", cidr, err)
		}
		c.TrustedProxies = append(c.TrustedProxies, prefix.Masked())
	}

	if c.SessionWindow <= 0 {
		c.SessionWindow = constants.SessionWindow
	}
	if c.ResetCodeTTL <= 0 {
		c.ResetCodeTTL = constants.ResetCodeTTL
	}
	if c.ActivityLogRetention <= 0 {
		c.ActivityLogRetention = constants.ActivityLogRetention
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
