package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds settings taken from the environment. They win over the file.
type Env struct {
	APIBaseURL   string `env:"NIHONGO_API_BASE_URL"`
	AccessToken  string `env:"NIHONGO_ACCESS_TOKEN"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	LogLevel     string `env:"NIHONGO_LOG_LEVEL" envDefault:"info"`
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}
