package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string `env:"PORT,default=8080"`
	Environment string `env:"ENVIRONMENT,default=development"`

	DatabaseURL string `env:"DATABASE_URL"`
	PSQLHost    string `env:"PSQL_HOST,default=localhost"`
	PSQLPort    string `env:"PSQL_PORT,default=5432"`
	PSQLUser    string `env:"PSQL_USER,default=postgres"`
	PSQLPass    string `env:"PSQL_PASSWORD,default=postgres"`
	PSQLDBName  string `env:"PSQL_DB_NAME,default=i9campaigns"`

	JWTSecret           string `env:"JWT_SECRET,default=dev-secret"`
	JWTExpiresInSeconds int64  `env:"JWT_EXPIRES_IN_SECONDS,default=86400"`

	// TabletAPIKey authenticates the terminal fleet on /api/tablets.
	TabletAPIKey string `env:"TABLET_API_KEY"`

	RedisURL        string `env:"REDIS_URL,default=redis://localhost:6379/0"`
	CacheTTLSeconds int    `env:"CACHE_TTL_SECONDS,default=120"`

	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.PSQLUser, cfg.PSQLPass),
			Host:   cfg.PSQLHost + ":" + cfg.PSQLPort,
			Path:   cfg.PSQLDBName,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		cfg.DatabaseURL = u.String()
	}

	return &cfg, nil
}
