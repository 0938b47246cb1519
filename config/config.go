package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HttpAddress      string        `envconfig:"MENOSENSE_HTTP_ADDRESS" default:":8080"`
	ApplicationUrl   string        `envconfig:"MENOSENSE_APPLICATION_URL" default:"http://localhost:8080"`
	QuestionnaireUrl string        `envconfig:"MENOSENSE_QUESTIONNAIRE_URL" default:"https://menosense.streamlit.app/"`
	StatusClearDelay time.Duration `envconfig:"MENOSENSE_STATUS_CLEAR_DELAY" default:"2s"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
