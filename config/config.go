// Package config provides environment-based configuration for vessel.
//
// Configuration is loaded from environment variables using Viper, with
// sensible defaults for development.
//
// # Environment Variables
//
//   - DB_TYPE: Database type (sqlite, postgres, mysql). Default: sqlite
//   - DSN: Database connection string. Default: vessel.db
//   - TOKEN_STORE: Token backend (gorm, redis). Default: gorm
//   - REDIS_ADDR: Redis address when TOKEN_STORE=redis. Default: localhost:6379
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - PORT: HTTP server port. Default: 8080
//   - BASE_URL: Public base URL used when composing token links.
//   - RECOVERY_TOKEN_TTL: Lifetime of recovery tokens. Default: 1h
//   - CONFIRMATION_TOKEN_TTL: Lifetime of confirmation tokens. Default: 24h
//   - SESSION_TTL: Lifetime of issued sessions. Default: 24h
//
// # OIDC Provider Configuration
//
// Social providers are configured via the OIDC_PROVIDERS map:
//
//	OIDC_PROVIDERS_GOOGLE_ISSUER=https://accounts.google.com
//	OIDC_PROVIDERS_GOOGLE_CLIENT_ID=your-client-id
//	OIDC_PROVIDERS_GOOGLE_CLIENT_SECRET=your-secret
//	OIDC_PROVIDERS_GOOGLE_REDIRECT_URL=https://example.com/auth/google/callback
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBType     string `mapstructure:"DB_TYPE"` // sqlite, postgres, mysql
	DSN        string `mapstructure:"DSN"`
	TokenStore string `mapstructure:"TOKEN_STORE"` // gorm, redis
	RedisAddr  string `mapstructure:"REDIS_ADDR"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	Port       int    `mapstructure:"PORT"`
	BaseURL    string `mapstructure:"BASE_URL"`

	RecoveryTokenTTL     time.Duration `mapstructure:"RECOVERY_TOKEN_TTL"`
	ConfirmationTokenTTL time.Duration `mapstructure:"CONFIRMATION_TOKEN_TTL"`
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`

	OIDCProviders map[string]OIDCProvider `mapstructure:"OIDC_PROVIDERS"`
}

type OIDCProvider struct {
	Issuer       string `mapstructure:"issuer"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "vessel.db")
	viper.SetDefault("TOKEN_STORE", "gorm")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("RECOVERY_TOKEN_TTL", "1h")
	viper.SetDefault("CONFIRMATION_TOKEN_TTL", "24h")
	viper.SetDefault("SESSION_TTL", "24h")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
