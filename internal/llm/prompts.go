package llm

import (
	"fmt"
	"strings"
)

const scoringExcerptChars = 1500

// BuildScoringPrompt asks the model to score one feed item and return a single
// JSON object. The response contract matches score.Result.
func BuildScoringPrompt(title, source, content, language string) string {
	var sb strings.Builder

	sb.WriteString("You are a news editor. Score this article for a daily digest and return ONLY a JSON object, no other text.\n\n")
	sb.WriteString("The JSON object MUST have exactly these keys:\n")
	sb.WriteString("- score (integer 1-10): newsworthiness for a general tech-savvy audience\n")
	sb.WriteString("- category (string): one of Technology, Finance, Politics, Science, Health, Business, World, Culture, Sports\n")
	fmt.Fprintf(&sb, "- title (string): the article title translated into %s\n", language)
	fmt.Fprintf(&sb, "- summary (string): 2-3 sentences in %s stating the key facts\n", language)
	sb.WriteString("- keywords (array of 3-5 short strings)\n")
	fmt.Fprintf(&sb, "- reason (string): one line in %s justifying the score\n\n", language)
	fmt.Fprintf(&sb, "Title: %s\n", title)
	fmt.Fprintf(&sb, "Source: %s\n", source)
	fmt.Fprintf(&sb, "Content: %s\n", excerpt(content, scoringExcerptChars))

	return sb.String()
}

// BuildTranslationPrompt asks the model for a plain-text translation of a full
// article body.
func BuildTranslationPrompt(title, content, language string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Translate the following article into %s. ", language)
	sb.WriteString("Keep paragraph structure, translate faithfully without summarizing, and return plain text only, no markup and no commentary.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n\n%s", title, content)

	return sb.String()
}

func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "…"
}
