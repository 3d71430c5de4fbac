package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process-level configuration loaded from the environment.
// Everything an operator may change at runtime lives in Settings instead,
// persisted through the storage layer.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8080"`

	// Bootstrap values used to seed Settings on first start.
	BotToken        string `env:"BOT_TOKEN"`
	TargetChatID    int64  `env:"TARGET_CHAT_ID"`
	LLMAPIKey       string `env:"LLM_API_KEY"`
	LLMBaseURL      string `env:"LLM_BASE_URL"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	OutputLanguage  string `env:"OUTPUT_LANGUAGE" envDefault:"en"`
	SchedulePattern string `env:"SCHEDULE_PATTERN" envDefault:"0 8"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
