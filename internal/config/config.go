package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port             string        `env:"PORT" envDefault:"3000"`
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"fuelrelay"`
	ShutdownTimeoutS int           `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"10"`
	ShutdownTimeout  time.Duration `env:"-"`

	PortalBaseURL  string        `env:"QT_PORTAL_URL" envDefault:"https://go.qttechnologies.com"`
	PortalTimeoutS int           `env:"QT_PORTAL_TIMEOUT_SECONDS" envDefault:"30"`
	PortalTimeout  time.Duration `env:"-"`

	PortalUsername    string `env:"QT_USERNAME"`
	PortalPassword    string `env:"QT_PASSWORD"`
	CompanyLocationID string `env:"QT_COMPANY_LOCATION_ID"`
	PortalUserID      string `env:"QT_USER_ID"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDEmail      string `env:"VAPID_EMAIL" envDefault:"admin@example.com"`

	PollIntervalMs int `env:"POLL_INTERVAL" envDefault:"30000"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	StaticDir string `env:"STATIC_DIR" envDefault:"public"`
}

func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.ShutdownTimeout = time.Duration(cfg.ShutdownTimeoutS) * time.Second
	cfg.PortalTimeout = time.Duration(cfg.PortalTimeoutS) * time.Second
	return cfg, nil
}

// HasPortalCredentials reports whether every portal setting the relay
// endpoints depend on is present.
func (c Config) HasPortalCredentials() bool {
	return c.PortalUsername != "" && c.PortalPassword != "" &&
		c.CompanyLocationID != "" && c.PortalUserID != ""
}

// HasVAPIDKeys reports whether web-push delivery can be configured.
func (c Config) HasVAPIDKeys() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
