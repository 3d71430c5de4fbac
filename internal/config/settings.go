package config

// Settings is the runtime configuration an operator edits through the admin
// surface. It is persisted as a single JSON document in the settings table and
// read fresh at the start of every digest run, so edits take effect without a
// restart.
type Settings struct {
	LLM        LLMSettings      `json:"llm"`
	Resilience Resilience       `json:"resilience"`
	Ingest     IngestSettings   `json:"ingest"`
	Channel    ChannelSettings  `json:"channel"`
	Schedule   ScheduleSettings `json:"schedule"`
}

// Endpoint describes one chat-completions provider.
type Endpoint struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
}

// LLMSettings holds the primary provider and an optional backup used when the
// primary is exhausted.
type LLMSettings struct {
	Primary Endpoint `json:"primary"`
	Backup  Endpoint `json:"backup"`
}

// Resilience controls retry behavior for LLM calls.
type Resilience struct {
	TimeoutMS  int  `json:"timeout_ms"`
	MaxRetries int  `json:"max_retries"`
	UseBackup  bool `json:"use_backup"`
}

// IngestSettings controls feed collection and scoring.
type IngestSettings struct {
	LookbackHours  int    `json:"lookback_hours"`
	OutputLanguage string `json:"output_language"`
}

// ChannelSettings controls the outbound Telegram channel.
type ChannelSettings struct {
	Enabled   bool   `json:"enabled"`
	BotToken  string `json:"bot_token"`
	ChatID    int64  `json:"chat_id"`
	PushCount int    `json:"push_count"`
}

// ScheduleSettings controls the digest scheduler.
type ScheduleSettings struct {
	Enabled bool   `json:"enabled"`
	Pattern string `json:"pattern"`
}

// DefaultSettings returns the settings document seeded on first start.
func DefaultSettings(cfg *Config) Settings {
	return Settings{
		LLM: LLMSettings{
			Primary: Endpoint{
				BaseURL: cfg.LLMBaseURL,
				APIKey:  cfg.LLMAPIKey,
				Model:   cfg.LLMModel,
			},
		},
		Resilience: Resilience{
			TimeoutMS:  30000,
			MaxRetries: 2,
			UseBackup:  true,
		},
		Ingest: IngestSettings{
			LookbackHours:  24,
			OutputLanguage: cfg.OutputLanguage,
		},
		Channel: ChannelSettings{
			Enabled:   true,
			BotToken:  cfg.BotToken,
			ChatID:    cfg.TargetChatID,
			PushCount: 5,
		},
		Schedule: ScheduleSettings{
			Enabled: true,
			Pattern: cfg.SchedulePattern,
		},
	}
}
