// Package observability exposes Prometheus metrics for the digest pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeConflict = "conflict"
)

var (
	// RunsTotal counts digest runs by outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_runs_total",
		Help: "Digest runs by outcome.",
	}, []string{"outcome"})

	// ArticlesPushedTotal counts articles pushed to the channel.
	ArticlesPushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_articles_pushed_total",
		Help: "Articles pushed to the channel.",
	})

	// LLMAttemptsTotal counts individual LLM call attempts by provider and outcome.
	LLMAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_attempts_total",
		Help: "LLM call attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	// TranslationsTotal counts on-demand translations by outcome.
	TranslationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translations_total",
		Help: "On-demand article translations by outcome.",
	}, []string{"outcome"})
)
