// Package compose renders articles into Telegram-ready messages: the compact
// summary card pushed by a digest run, and the paginated full-text view sent
// on demand.
package compose

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/feedranker/feed-digest-bot/internal/storage"
)

// MaxMessageSize is the size ceiling for one message. Kept below Telegram's
// hard 4096 limit to leave headroom for markup.
const MaxMessageSize = 4000

// Callback data prefixes recognized by the callback handler.
const (
	CallbackPrefixRead = "read_"
	CallbackPrefixBack = "back_"
)

const (
	starFilled = "★"
	starEmpty  = "☆"
	starsTotal = 5
)

// Button is one inline action affordance. Exactly one of CallbackData and URL
// is set.
type Button struct {
	Label        string
	CallbackData string
	URL          string
}

// Message is a rendered message body plus its inline keyboard rows.
type Message struct {
	Text    string
	Buttons [][]Button
}

// Summary renders the compact notification card for one article.
func Summary(a *storage.Article) Message {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📂 <b>%s</b>  %s\n\n", html.EscapeString(a.Category), stars(a.Score))
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(a.TitleLocalized))

	if a.Title != "" && a.Title != a.TitleLocalized {
		fmt.Fprintf(&sb, "<i>%s</i>\n", html.EscapeString(a.Title))
	}

	fmt.Fprintf(&sb, "\n%s\n", html.EscapeString(a.Summary))

	if a.Reason != "" {
		fmt.Fprintf(&sb, "\n💡 <i>%s</i>\n", html.EscapeString(a.Reason))
	}

	if len(a.Keywords) > 0 {
		fmt.Fprintf(&sb, "\n%s", keywordLine(a.Keywords))
	}

	return Message{
		Text: sb.String(),
		Buttons: [][]Button{
			{{Label: "📖 Read full text", CallbackData: CallbackPrefixRead + a.ID}},
			{{Label: "🔗 Open original", URL: a.Link}},
		},
	}
}

// stars renders a five-star rating with round(score/2) filled stars.
func stars(score int) string {
	filled := int(math.Round(float64(score) / 2))
	if filled < 0 {
		filled = 0
	}

	if filled > starsTotal {
		filled = starsTotal
	}

	return strings.Repeat(starFilled, filled) + strings.Repeat(starEmpty, starsTotal-filled)
}

func keywordLine(keywords []string) string {
	escaped := make([]string, len(keywords))
	for i, kw := range keywords {
		escaped[i] = html.EscapeString(kw)
	}

	return "🔖 " + strings.Join(escaped, " · ")
}
