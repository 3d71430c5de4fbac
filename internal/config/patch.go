package config

// SettingsPatch is a partial update to Settings. Every field is optional; nil
// fields leave the current value untouched. Fields are enumerated explicitly
// so a partial JSON body can never clobber settings it did not mention.
type SettingsPatch struct {
	LLM        *LLMPatch        `json:"llm,omitempty"`
	Resilience *ResiliencePatch `json:"resilience,omitempty"`
	Ingest     *IngestPatch     `json:"ingest,omitempty"`
	Channel    *ChannelPatch    `json:"channel,omitempty"`
	Schedule   *SchedulePatch   `json:"schedule,omitempty"`
}

type EndpointPatch struct {
	BaseURL *string `json:"base_url,omitempty"`
	APIKey  *string `json:"api_key,omitempty"`
	Model   *string `json:"model,omitempty"`
}

type LLMPatch struct {
	Primary *EndpointPatch `json:"primary,omitempty"`
	Backup  *EndpointPatch `json:"backup,omitempty"`
}

type ResiliencePatch struct {
	TimeoutMS  *int  `json:"timeout_ms,omitempty"`
	MaxRetries *int  `json:"max_retries,omitempty"`
	UseBackup  *bool `json:"use_backup,omitempty"`
}

type IngestPatch struct {
	LookbackHours  *int    `json:"lookback_hours,omitempty"`
	OutputLanguage *string `json:"output_language,omitempty"`
}

type ChannelPatch struct {
	Enabled   *bool   `json:"enabled,omitempty"`
	BotToken  *string `json:"bot_token,omitempty"`
	ChatID    *int64  `json:"chat_id,omitempty"`
	PushCount *int    `json:"push_count,omitempty"`
}

type SchedulePatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Pattern *string `json:"pattern,omitempty"`
}

// Apply merges the patch into s and returns the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.LLM != nil {
		if p.LLM.Primary != nil {
			s.LLM.Primary = p.LLM.Primary.apply(s.LLM.Primary)
		}

		if p.LLM.Backup != nil {
			s.LLM.Backup = p.LLM.Backup.apply(s.LLM.Backup)
		}
	}

	if p.Resilience != nil {
		applyInt(&s.Resilience.TimeoutMS, p.Resilience.TimeoutMS)
		applyInt(&s.Resilience.MaxRetries, p.Resilience.MaxRetries)
		applyBool(&s.Resilience.UseBackup, p.Resilience.UseBackup)
	}

	if p.Ingest != nil {
		applyInt(&s.Ingest.LookbackHours, p.Ingest.LookbackHours)
		applyString(&s.Ingest.OutputLanguage, p.Ingest.OutputLanguage)
	}

	if p.Channel != nil {
		applyBool(&s.Channel.Enabled, p.Channel.Enabled)
		applyString(&s.Channel.BotToken, p.Channel.BotToken)
		applyInt(&s.Channel.PushCount, p.Channel.PushCount)

		if p.Channel.ChatID != nil {
			s.Channel.ChatID = *p.Channel.ChatID
		}
	}

	if p.Schedule != nil {
		applyBool(&s.Schedule.Enabled, p.Schedule.Enabled)
		applyString(&s.Schedule.Pattern, p.Schedule.Pattern)
	}

	return s
}

func (p EndpointPatch) apply(e Endpoint) Endpoint {
	applyString(&e.BaseURL, p.BaseURL)
	applyString(&e.APIKey, p.APIKey)
	applyString(&e.Model, p.Model)

	return e
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
