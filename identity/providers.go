package identity

import (
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	NewConfig,
	NewFederatedConfig,
	NewFederated,
	NewCachedProvider,
)

type Config struct {
	ApiKey          string        `envconfig:"MENOSENSE_IDENTITY_API_KEY"`
	BaseUrl         string        `envconfig:"MENOSENSE_IDENTITY_BASE_URL" default:"https://identitytoolkit.googleapis.com"`
	TokenUrl        string        `envconfig:"MENOSENSE_IDENTITY_TOKEN_URL" default:"https://securetoken.googleapis.com"`
	RequestUri      string        `envconfig:"MENOSENSE_APPLICATION_URL" default:"http://localhost:8080"`
	Timeout         time.Duration `envconfig:"MENOSENSE_IDENTITY_TIMEOUT" default:"10s"`
	CacheSize       int           `envconfig:"MENOSENSE_IDENTITY_CACHE_SIZE" default:"10000"`
	CacheExpiration time.Duration `envconfig:"MENOSENSE_IDENTITY_CACHE_EXPIRATION" default:"1m"`
}

type FederatedConfig struct {
	GoogleClientId     string `envconfig:"MENOSENSE_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"MENOSENSE_GOOGLE_CLIENT_SECRET"`
	GoogleAuthUrl      string `envconfig:"MENOSENSE_GOOGLE_AUTH_URL"`
	GoogleTokenUrl     string `envconfig:"MENOSENSE_GOOGLE_TOKEN_URL"`
	CallbackUrl        string `envconfig:"MENOSENSE_GOOGLE_CALLBACK_URL" default:"http://localhost:8080/auth/google/callback"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	err := envconfig.Process("", cfg)
	return cfg, err
}

func NewFederatedConfig() (*FederatedConfig, error) {
	cfg := &FederatedConfig{}
	err := envconfig.Process("", cfg)
	return cfg, err
}

// NewCachedProvider returns the identity provider client with account lookups cached
func NewCachedProvider(cfg *Config) (Provider, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	expiration := cfg.CacheExpiration
	if expiration <= 0 {
		expiration = DefaultCacheEntryExpiration
	}

	cached, err := NewCachingProvider(size, expiration, NewClient(cfg, httpClient))
	if err != nil {
		return nil, err
	}
	return cached, nil
}
