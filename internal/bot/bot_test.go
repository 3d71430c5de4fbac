package bot

import (
	"strings"
	"testing"

	"github.com/feedranker/feed-digest-bot/internal/digest"
)

func TestRunReplyText(t *testing.T) {
	tests := []struct {
		name    string
		outcome digest.RunOutcome
		want    string
	}{
		{
			name:    "conflict",
			outcome: digest.RunOutcome{AlreadyRunning: true},
			want:    "already in progress",
		},
		{
			name:    "failure",
			outcome: digest.RunOutcome{Message: "primary LLM endpoint is not configured"},
			want:    "failed",
		},
		{
			name:    "success",
			outcome: digest.RunOutcome{Success: true, Message: "pushed 3 articles", NewCount: 3},
			want:    "pushed 3 articles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runReplyText(tt.outcome); !strings.Contains(got, tt.want) {
				t.Errorf("runReplyText(%+v) = %q, want it to mention %q", tt.outcome, got, tt.want)
			}
		})
	}
}
