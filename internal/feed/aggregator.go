package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Source is an enabled feed the aggregator should collect from.
type Source struct {
	URL  string
	Name string
}

// fetchResult carries one source's items back from its goroutine.
type fetchResult struct {
	source string
	items  []Item
	err    error
}

// Aggregator fans the fetcher out over all enabled sources concurrently and
// merges the results.
type Aggregator struct {
	fetcher *Fetcher
	logger  *zerolog.Logger
}

func NewAggregator(fetcher *Fetcher, logger *zerolog.Logger) *Aggregator {
	return &Aggregator{fetcher: fetcher, logger: logger}
}

// Collect fetches every source concurrently and returns all items published
// strictly within the lookback window, newest first. A failing source is
// logged and contributes nothing; it never aborts the aggregate.
func (a *Aggregator) Collect(ctx context.Context, sources []Source, window time.Duration) []Item {
	results := make(chan fetchResult, len(sources))

	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)

		go func(src Source) {
			defer wg.Done()

			items, err := a.fetcher.Fetch(ctx, src.URL, src.Name)
			results <- fetchResult{source: src.Name, items: items, err: err}
		}(src)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	cutoff := time.Now().Add(-window)

	var merged []Item

	for res := range results {
		if res.err != nil {
			a.logger.Warn().Err(res.err).Str("source", res.source).Msg("feed fetch failed, skipping source")
			continue
		}

		for _, item := range res.items {
			if item.PublishedAt.After(cutoff) {
				merged = append(merged, item)
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})

	return merged
}
