// Package llm mediates every language-model call in the system. A single
// Invoker applies per-call timeouts, bounded retries with increasing backoff,
// and failover from the primary endpoint to an optional backup.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/feedranker/feed-digest-bot/internal/observability"
)

const (
	// backoffUnit is the base wait between attempts; attempt N waits N units.
	backoffUnit = time.Second

	// minTranslationTimeout floors the extended timeout used for translation
	// calls, which move far more tokens than scoring calls.
	minTranslationTimeout = 60 * time.Second

	logFieldProvider = "provider"
	logFieldAttempt  = "attempt"

	providerPrimary = "primary"
	providerBackup  = "backup"
)

var (
	// ErrProvidersExhausted is returned when every configured provider failed
	// all of its attempts.
	ErrProvidersExhausted = errors.New("all LLM providers exhausted")

	// ErrEmptyResponse marks a structurally valid response with no usable content.
	ErrEmptyResponse = errors.New("empty LLM response")
)

// Endpoint describes one chat-completions provider.
type Endpoint struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Configured reports whether the endpoint carries a credential.
func (e Endpoint) Configured() bool {
	return e.APIKey != ""
}

// ResilienceConfig is the per-invocation retry policy. It is owned by the
// caller and never mutated by the Invoker.
type ResilienceConfig struct {
	Primary    Endpoint
	Backup     Endpoint
	Timeout    time.Duration
	MaxRetries int
	UseBackup  bool
}

// TranslationTimeout returns the extended timeout for translation calls:
// at least twice the base timeout, floored at a fixed minimum.
func (c ResilienceConfig) TranslationTimeout() time.Duration {
	t := 2 * c.Timeout
	if t < minTranslationTimeout {
		t = minTranslationTimeout
	}

	return t
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Invoker is the single choke point for LLM calls.
type Invoker struct {
	logger *zerolog.Logger

	// Overridable in tests.
	backoff   time.Duration
	newClient func(Endpoint) chatClient
}

func NewInvoker(logger *zerolog.Logger) *Invoker {
	return &Invoker{
		logger:  logger,
		backoff: backoffUnit,
		newClient: func(ep Endpoint) chatClient {
			cc := openai.DefaultConfig(ep.APIKey)
			if ep.BaseURL != "" {
				cc.BaseURL = ep.BaseURL
			}

			return openai.NewClientWithConfig(cc)
		},
	}
}

// CallOption adjusts a single invocation without touching the shared config.
type CallOption func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

// WithTimeout overrides the effective timeout for this call only.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = d
	}
}

// Invoke delivers a single best-effort completion for the prompt. The primary
// endpoint is tried up to MaxRetries+1 times; if it is exhausted and a backup
// is configured and enabled, the backup gets the same bounded-retry loop.
// Success returns the raw text of the first choice.
func (inv *Invoker) Invoke(ctx context.Context, cfg ResilienceConfig, prompt string, opts ...CallOption) (string, error) {
	options := callOptions{timeout: cfg.Timeout}
	for _, opt := range opts {
		opt(&options)
	}

	var errs []error

	if cfg.Primary.Configured() {
		content, err := inv.tryEndpoint(ctx, cfg.Primary, providerPrimary, prompt, options.timeout, cfg.MaxRetries)
		if err == nil {
			return content, nil
		}

		errs = append(errs, err)
	}

	if cfg.UseBackup && cfg.Backup.Configured() {
		content, err := inv.tryEndpoint(ctx, cfg.Backup, providerBackup, prompt, options.timeout, cfg.MaxRetries)
		if err == nil {
			return content, nil
		}

		errs = append(errs, err)
	}

	return "", fmt.Errorf("%w: %w", ErrProvidersExhausted, errors.Join(errs...))
}

// tryEndpoint runs the bounded-retry loop against one endpoint.
func (inv *Invoker) tryEndpoint(ctx context.Context, ep Endpoint, provider, prompt string, timeout time.Duration, maxRetries int) (string, error) {
	client := inv.newClient(ep)
	attempts := maxRetries + 1

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := inv.attempt(ctx, client, ep.Model, prompt, timeout)
		if err == nil {
			observability.LLMAttemptsTotal.WithLabelValues(provider, observability.OutcomeSuccess).Inc()
			inv.logger.Debug().
				Str(logFieldProvider, provider).
				Int(logFieldAttempt, attempt).
				Msg("LLM call succeeded")

			return content, nil
		}

		lastErr = err
		observability.LLMAttemptsTotal.WithLabelValues(provider, observability.OutcomeFailure).Inc()
		inv.logger.Warn().
			Err(err).
			Str(logFieldProvider, provider).
			Int(logFieldAttempt, attempt).
			Msg("LLM call failed")

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%s: %w", provider, ctx.Err())
			case <-time.After(time.Duration(attempt) * inv.backoff):
			}
		}
	}

	return "", fmt.Errorf("%s: %w", provider, lastErr)
}

func (inv *Invoker) attempt(ctx context.Context, client chatClient, model, prompt string, timeout time.Duration) (string, error) {
	callCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	return content, nil
}
