package compose

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FullTextInput is everything the full-text renderer needs from an article.
type FullTextInput struct {
	TitleLocalized string
	Body           string
	Keywords       []string
	Link           string
	SummaryMsgID   *int64
}

var multiNewline = regexp.MustCompile(`\n{3,}`)

// NormalizeBody converts the translated body to consistent paragraph spacing:
// CRLF unified, runs of blank lines collapsed to one blank line, outer
// whitespace trimmed.
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	body = multiNewline.ReplaceAllString(body, "\n\n")

	return strings.TrimSpace(body)
}

// markerReserve is the worst-case part marker added to a segment.
const markerReserve = len("<i>Part 99/99</i>\n")

// FullText renders the translated article as one or more messages, each
// bounded by MaxMessageSize after composition. The header stays on the first
// segment and the footer on the last; only the final segment carries action
// buttons.
func FullText(in FullTextInput) []Message {
	return fullText(in, MaxMessageSize)
}

func fullText(in FullTextInput, limit int) []Message {
	header := fmt.Sprintf("📄 <b>%s</b> 🌐\n\n", html.EscapeString(in.TitleLocalized))

	footer := ""
	if len(in.Keywords) > 0 {
		footer = "\n\n" + keywordLine(in.Keywords)
	}

	// The ceiling bounds the composed message, so the body is escaped before
	// splitting and the fixed parts are charged against the segment budget.
	body := html.EscapeString(NormalizeBody(in.Body))

	headerLen := utf8.RuneCountInString(header)
	footerLen := utf8.RuneCountInString(footer)
	buttons := finalButtons(in)

	if headerLen+utf8.RuneCountInString(body)+footerLen <= limit {
		return []Message{{Text: header + body + footer, Buttons: buttons}}
	}

	budget := limit - markerReserve - headerLen
	if footerLen > headerLen {
		budget = limit - markerReserve - footerLen
	}

	// A pathological title could eat the whole budget; floor it so
	// pagination always advances.
	if budget < limit/4 {
		budget = limit / 4
	}

	segments := Paginate(body, budget)
	total := len(segments)

	messages := make([]Message, 0, total)

	for i, seg := range segments {
		var sb strings.Builder

		if i == 0 {
			sb.WriteString(header)
		}

		fmt.Fprintf(&sb, "<i>Part %d/%d</i>\n", i+1, total)
		sb.WriteString(seg)

		msg := Message{Text: sb.String()}

		if i == total-1 {
			msg.Text += footer
			msg.Buttons = buttons
		}

		messages = append(messages, msg)
	}

	return messages
}

func finalButtons(in FullTextInput) [][]Button {
	var rows [][]Button

	if in.SummaryMsgID != nil {
		rows = append(rows, []Button{{
			Label:        "↩️ Back to summary",
			CallbackData: CallbackPrefixBack + strconv.FormatInt(*in.SummaryMsgID, 10),
		}})
	}

	rows = append(rows, []Button{{Label: "🔗 Open original", URL: in.Link}})

	return rows
}

// Paginate splits body into segments of at most limit runes. Split points are
// searched in tiers: the last paragraph break at or before the limit, falling
// back to the last sentence terminator, then the last whitespace boundary,
// then a hard cut. A tier's split point is rejected as too early when it falls
// in the first half of the limit. The hard cut steps back rather than land
// inside an HTML escape sequence such as &amp;. Concatenating the segments
// reproduces the body exactly.
func Paginate(body string, limit int) []string {
	if utf8.RuneCountInString(body) <= limit {
		return []string{body}
	}

	var segments []string

	remaining := []rune(body)

	for len(remaining) > limit {
		cut := splitPoint(remaining, limit)
		segments = append(segments, string(remaining[:cut]))
		remaining = remaining[cut:]
	}

	if len(remaining) > 0 {
		segments = append(segments, string(remaining))
	}

	return segments
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '…': true,
}

func splitPoint(runes []rune, limit int) int {
	tooEarly := limit / 2

	// Paragraph break: cut after the blank line.
	for i := limit - 2; i >= tooEarly; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}

	// Sentence terminator: cut after it.
	for i := limit - 1; i >= tooEarly; i-- {
		if sentenceEnders[runes[i]] {
			return i + 1
		}
	}

	// Whitespace boundary.
	for i := limit - 1; i >= tooEarly; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	// Hard cut, moved before an escape sequence the limit would bisect. The
	// longest sequence html.EscapeString emits is five runes.
	for i := limit - 1; i >= limit-5 && i > 0; i-- {
		if runes[i] == ';' {
			break
		}

		if runes[i] == '&' {
			return i
		}
	}

	return limit
}
