package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Secret string        `envconfig:"MENOSENSE_SESSION_SECRET" required:"true"`
	Secure bool          `envconfig:"MENOSENSE_SESSION_SECURE" default:"true"`
	MaxAge time.Duration `envconfig:"MENOSENSE_SESSION_MAX_AGE" default:"168h"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func NewStore(cfg *Config) sessions.Store {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
