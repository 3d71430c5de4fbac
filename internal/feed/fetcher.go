// Package feed retrieves syndication feeds and normalizes their entries into
// items the digest pipeline can score.
package feed

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const (
	fetchTimeout    = 15 * time.Second
	maxBodySize     = 10 * 1024 * 1024 // 10MB
	maxContentChars = 3000
	userAgent       = "feed-digest-bot/1.0"

	headerUserAgent = "User-Agent"
)

var errHTTPStatus = errors.New("unexpected HTTP status")

// Item is a normalized feed entry. Items live only for the duration of one
// digest run.
type Item struct {
	Title       string
	Link        string
	Content     string
	PublishedAt time.Time
	Source      string
}

// Fetcher retrieves and parses a single feed.
type Fetcher struct {
	client *http.Client
	parser *gofeed.Parser
	logger *zerolog.Logger
}

func NewFetcher(logger *zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Fetch downloads and parses one feed, returning its normalized items.
// Entries lacking both a title and a link are discarded; content is truncated
// to a fixed character budget.
func (f *Fetcher) Fetch(ctx context.Context, url, sourceName string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerUserAgent, userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errHTTPStatus, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))

	for _, entry := range parsed.Items {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)

		if title == "" && link == "" {
			continue
		}

		items = append(items, Item{
			Title:       title,
			Link:        link,
			Content:     normalizeContent(entry),
			PublishedAt: entryTime(entry),
			Source:      sourceName,
		})
	}

	return items, nil
}

// entryTime picks the best publish timestamp for an entry. gofeed already
// normalizes pubDate/published/updated; dateparse covers the nonstandard
// formats some feeds emit.
func entryTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}

	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}

	for _, raw := range []string{entry.Published, entry.Updated} {
		if raw == "" {
			continue
		}

		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}

	if entry.DublinCoreExt != nil {
		for _, raw := range entry.DublinCoreExt.Date {
			if t, err := dateparse.ParseAny(raw); err == nil {
				return t
			}
		}
	}

	return time.Time{}
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)
var spaceRegex = regexp.MustCompile(`[ \t]+`)

func normalizeContent(entry *gofeed.Item) string {
	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	content = tagRegex.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)
	content = spaceRegex.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)

	runes := []rune(content)
	if len(runes) > maxContentChars {
		content = string(runes[:maxContentChars])
	}

	return content
}
