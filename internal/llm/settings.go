package llm

import (
	"time"

	"github.com/feedranker/feed-digest-bot/internal/config"
)

// ResilienceFromSettings maps the operator-editable settings document to the
// per-invocation resilience policy.
func ResilienceFromSettings(s config.Settings) ResilienceConfig {
	return ResilienceConfig{
		Primary:    Endpoint(s.LLM.Primary),
		Backup:     Endpoint(s.LLM.Backup),
		Timeout:    time.Duration(s.Resilience.TimeoutMS) * time.Millisecond,
		MaxRetries: s.Resilience.MaxRetries,
		UseBackup:  s.Resilience.UseBackup,
	}
}
