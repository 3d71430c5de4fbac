package storage

import "time"

// FeedSource is one configured syndication feed.
type FeedSource struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Article is a pushed digest entry. It is created once during a run and
// mutated at most once meaningfully, when translation completes.
type Article struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	TitleLocalized    string     `json:"title_localized"`
	Link              string     `json:"link"`
	Content           string     `json:"content"`
	Summary           string     `json:"summary"`
	Category          string     `json:"category"`
	Score             int        `json:"score"`
	Keywords          []string   `json:"keywords"`
	Reason            string     `json:"reason"`
	SummaryMsgID      *int64     `json:"summary_msg_id,omitempty"`
	FullTextMsgID     *int64     `json:"full_text_msg_id,omitempty"`
	TranslatedContent *string    `json:"translated_content,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// RunHistoryItem is one pushed article reference inside a history entry.
type RunHistoryItem struct {
	ID             string `json:"id"`
	TitleLocalized string `json:"title"`
	Score          int    `json:"score"`
}

// RunHistoryEntry records one completed digest run.
type RunHistoryEntry struct {
	Date     time.Time        `json:"date"`
	NewCount int              `json:"new_count"`
	Items    []RunHistoryItem `json:"items"`
}
