// Package score turns raw feed items into ranked digest candidates by asking
// the LLM to score each one.
package score

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/feedranker/feed-digest-bot/internal/feed"
	"github.com/feedranker/feed-digest-bot/internal/llm"
)

const (
	// MinScore is the admission threshold for candidates.
	MinScore = 6

	// scanMultiple caps how many items are scored per run relative to the
	// push count, bounding LLM spend when many new items pile up.
	scanMultiple = 3

	// interItemDelay paces scoring calls as provider rate-limit courtesy.
	interItemDelay = time.Second

	logFieldTitle = "title"
)

// Result is the structured scoring verdict for one item.
type Result struct {
	Score    int      `json:"score"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Reason   string   `json:"reason"`
}

// Candidate pairs a raw item with its scoring result.
type Candidate struct {
	Item   feed.Item
	Result Result
}

// Invoker is the LLM call surface the scorer depends on.
type Invoker interface {
	Invoke(ctx context.Context, cfg llm.ResilienceConfig, prompt string, opts ...llm.CallOption) (string, error)
}

// Scorer scores items strictly sequentially and selects the ranked top slice.
type Scorer struct {
	invoker Invoker
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewScorer(invoker Invoker, logger *zerolog.Logger) *Scorer {
	return &Scorer{
		invoker: invoker,
		limiter: rate.NewLimiter(rate.Every(interItemDelay), 1),
		logger:  logger,
	}
}

// SelectTop scores up to scanMultiple*pushCount items one at a time, admits
// those scoring at least MinScore, and returns them sorted by score descending
// (ties keep input order), truncated to pushCount. A scoring failure excludes
// that single item and never aborts the batch.
func (s *Scorer) SelectTop(ctx context.Context, items []feed.Item, cfg llm.ResilienceConfig, language string, pushCount int) []Candidate {
	limit := scanMultiple * pushCount
	if len(items) > limit {
		items = items[:limit]
	}

	var admitted []Candidate

	for _, item := range items {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("scoring interrupted")

			break
		}

		result, ok := s.scoreOne(ctx, item, cfg, language)
		if !ok {
			continue
		}

		if result.Score < MinScore {
			s.logger.Debug().
				Str(logFieldTitle, item.Title).
				Int("score", result.Score).
				Msg("item below threshold")

			continue
		}

		admitted = append(admitted, Candidate{Item: item, Result: result})
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].Result.Score > admitted[j].Result.Score
	})

	if len(admitted) > pushCount {
		admitted = admitted[:pushCount]
	}

	return admitted
}

func (s *Scorer) scoreOne(ctx context.Context, item feed.Item, cfg llm.ResilienceConfig, language string) (Result, bool) {
	prompt := llm.BuildScoringPrompt(item.Title, item.Source, item.Content, language)

	raw, err := s.invoker.Invoke(ctx, cfg, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Str(logFieldTitle, item.Title).Msg("scoring failed")

		return Result{}, false
	}

	obj, found := llm.ExtractJSONObject(raw)
	if !found {
		s.logger.Warn().Str(logFieldTitle, item.Title).Msg("no JSON object in scoring response")

		return Result{}, false
	}

	var result Result
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		s.logger.Warn().Err(err).Str(logFieldTitle, item.Title).Msg("malformed scoring response")

		return Result{}, false
	}

	if result.Score < 1 || result.Score > 10 {
		s.logger.Warn().Int("score", result.Score).Str(logFieldTitle, item.Title).Msg("score out of range")

		return Result{}, false
	}

	return result, true
}
