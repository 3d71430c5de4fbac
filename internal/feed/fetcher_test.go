package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()

	return &logger
}

func rssServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

const rssTemplate = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test Feed</title>%s</channel></rss>`

func rssItem(title, link, desc, pubDate string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><description>%s</description><pubDate>%s</pubDate></item>`, title, link, desc, pubDate)
}

func TestFetchNormalizesItems(t *testing.T) {
	pub := time.Now().Add(-time.Hour).UTC().Format(time.RFC1123Z)
	body := fmt.Sprintf(rssTemplate,
		rssItem("First", "https://example.com/1", "<p>Hello &amp; <b>world</b></p>", pub)+
			`<item><description>no title, no link</description></item>`)

	srv := rssServer(t, body)

	items, err := NewFetcher(testLogger()).Fetch(context.Background(), srv.URL, "test")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (titleless+linkless entry must be dropped)", len(items))
	}

	item := items[0]

	if item.Title != "First" || item.Link != "https://example.com/1" {
		t.Errorf("item = %+v", item)
	}

	if item.Content != "Hello & world" {
		t.Errorf("Content = %q, want stripped plain text", item.Content)
	}

	if item.Source != "test" {
		t.Errorf("Source = %q", item.Source)
	}

	if item.PublishedAt.IsZero() {
		t.Error("PublishedAt not parsed")
	}
}

func TestFetchTruncatesContent(t *testing.T) {
	long := strings.Repeat("х", maxContentChars+500) // multibyte on purpose
	body := fmt.Sprintf(rssTemplate, rssItem("Long", "https://example.com/long", long, time.Now().UTC().Format(time.RFC1123Z)))

	srv := rssServer(t, body)

	items, err := NewFetcher(testLogger()).Fetch(context.Background(), srv.URL, "test")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := len([]rune(items[0].Content)); got != maxContentChars {
		t.Errorf("content length = %d runes, want %d", got, maxContentChars)
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewFetcher(testLogger()).Fetch(context.Background(), srv.URL, "broken"); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestAggregatorCollect(t *testing.T) {
	now := time.Now().UTC()

	fresh := rssServer(t, fmt.Sprintf(rssTemplate,
		rssItem("Fresh", "https://a.example/fresh", "d", now.Add(-2*time.Hour).Format(time.RFC1123Z))+
			rssItem("Stale", "https://a.example/stale", "d", now.Add(-48*time.Hour).Format(time.RFC1123Z))))

	fresher := rssServer(t, fmt.Sprintf(rssTemplate,
		rssItem("Fresher", "https://b.example/fresher", "d", now.Add(-1*time.Hour).Format(time.RFC1123Z))))

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	agg := NewAggregator(NewFetcher(testLogger()), testLogger())

	sources := []Source{
		{URL: fresh.URL, Name: "alpha"},
		{URL: fresher.URL, Name: "beta"},
		{URL: broken.URL, Name: "gamma"},
	}

	items := agg.Collect(context.Background(), sources, 24*time.Hour)

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (stale filtered, broken source skipped)", len(items))
	}

	if items[0].Title != "Fresher" || items[1].Title != "Fresh" {
		t.Errorf("items not sorted newest first: %q, %q", items[0].Title, items[1].Title)
	}
}

func TestAggregatorEmptySources(t *testing.T) {
	agg := NewAggregator(NewFetcher(testLogger()), testLogger())

	if items := agg.Collect(context.Background(), nil, time.Hour); len(items) != 0 {
		t.Errorf("got %d items from zero sources", len(items))
	}
}
