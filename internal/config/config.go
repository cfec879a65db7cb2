package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// BackendCfg locates the hosted backend. URL and AnonKey are the two
// required connection parameters; their absence is fatal at startup.
type BackendCfg struct {
	URL         string `env:"STORE_URL"`
	AnonKey     string `env:"STORE_ANON_KEY"`
	JwtSecret   string `env:"STORE_JWT_SECRET"`
	PostgresDSN string `env:"STORE_POSTGRES_DSN" envDefault:""`
}

type SessionCfg struct {
	Timeout       time.Duration `env:"SESSION_TIMEOUT" envDefault:"30m"`
	WarningWindow time.Duration `env:"SESSION_WARNING_WINDOW" envDefault:"5m"`
}

type ThrottleCfg struct {
	MaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	Window        time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`
	SweepSchedule string        `env:"LOGIN_SWEEP_SCHEDULE" envDefault:"@every 5m"`
}

type ServerCfg struct {
	Port           int           `env:"PORT" envDefault:"3000"`
	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"500ms"`
}

type Config struct {
	BackendCfg  BackendCfg
	SessionCfg  SessionCfg
	ThrottleCfg ThrottleCfg
	ServerCfg   ServerCfg
}

func Build() (Config, error) {
	var cfg Config
	opts := env.Options{RequiredIfNoDef: true}

	if err := env.Parse(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("failed to parse environment variables - %w", err)
	}

	if cfg.SessionCfg.WarningWindow >= cfg.SessionCfg.Timeout {
		return cfg, fmt.Errorf("session warning window %s must be shorter than timeout %s",
			cfg.SessionCfg.WarningWindow, cfg.SessionCfg.Timeout)
	}

	return cfg, nil
}
