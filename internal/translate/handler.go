// Package translate reacts to inbound callback events: it translates article
// bodies on demand through the resilient LLM invoker and resolves "back to
// summary" navigation.
//
// Translation is a per-article state machine: untranslated → translating →
// translated, where a failed attempt returns the article to untranslated so
// the next tap can retry. An article whose translation is already present is
// never retranslated.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/compose"
	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/llm"
	"github.com/feedranker/feed-digest-bot/internal/observability"
	"github.com/feedranker/feed-digest-bot/internal/storage"
)

// User-facing notices.
const (
	noticeTranslating   = "🌐 Translating the article, hold on…"
	noticeFailed        = "⚠️ Translation failed. Tap \"Read full text\" to try again."
	noticeInProgress    = "Translation already in progress"
	noticeGone          = "This article is no longer available"
	noticeUnknownAction = "Unknown action"
	noticeFindSummary   = "The summary is in this chat, scroll up to message #%s to find it."
)

const logFieldArticle = "article_id"

// ArticleStore is the persistence surface the handler needs.
type ArticleStore interface {
	GetArticle(ctx context.Context, id string) (*storage.Article, error)
	SetTranslation(ctx context.Context, id, translated string) error
	SetFullTextMsgID(ctx context.Context, id string, msgID int64) error
}

var _ ArticleStore = (*storage.DB)(nil)

// Invoker is the LLM call surface.
type Invoker interface {
	Invoke(ctx context.Context, cfg llm.ResilienceConfig, prompt string, opts ...llm.CallOption) (string, error)
}

// Channel is the messaging surface, implemented by notify.Notifier.
type Channel interface {
	SendNotice(text string) (int64, error)
	DeleteMessage(msgID int64)
	SendFullText(a *storage.Article, msgs []compose.Message) error
	AnswerCallback(callbackID, text string)
	AnswerCallbackAlert(callbackID, text string)
	AnswerCallbackURL(callbackID, url string)
	MessageLink(msgID int64) (string, bool)
}

// SettingsLoader supplies current runtime settings per event.
type SettingsLoader interface {
	LoadSettings(ctx context.Context) (config.Settings, error)
}

type Handler struct {
	store    ArticleStore
	invoker  Invoker
	channel  Channel
	settings SettingsLoader
	logger   *zerolog.Logger

	mu          sync.Mutex
	translating map[string]bool
}

func NewHandler(store ArticleStore, invoker Invoker, channel Channel, settings SettingsLoader, logger *zerolog.Logger) *Handler {
	return &Handler{
		store:       store,
		invoker:     invoker,
		channel:     channel,
		settings:    settings,
		logger:      logger,
		translating: make(map[string]bool),
	}
}

// HandleCallback routes one inbound callback event. Every payload is answered,
// recognized or not, so the client never shows a stuck spinner.
func (h *Handler) HandleCallback(ctx context.Context, callbackID, data string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Str("data", data).Msg("callback handler panicked")
		}
	}()

	switch {
	case strings.HasPrefix(data, compose.CallbackPrefixRead):
		h.handleRead(ctx, callbackID, strings.TrimPrefix(data, compose.CallbackPrefixRead))
	case strings.HasPrefix(data, compose.CallbackPrefixBack):
		h.handleBack(callbackID, strings.TrimPrefix(data, compose.CallbackPrefixBack))
	default:
		h.logger.Debug().Str("data", data).Msg("unrecognized callback payload")
		h.channel.AnswerCallback(callbackID, noticeUnknownAction)
	}
}

func (h *Handler) handleRead(ctx context.Context, callbackID, articleID string) {
	article, err := h.store.GetArticle(ctx, articleID)
	if err != nil {
		if !errors.Is(err, storage.ErrArticleNotFound) {
			h.logger.Error().Err(err).Str(logFieldArticle, articleID).Msg("failed to load article")
		}

		h.channel.AnswerCallbackAlert(callbackID, noticeGone)

		return
	}

	// Idempotent on presence: an already translated article is resent, never
	// retranslated.
	if article.TranslatedContent != nil {
		h.channel.AnswerCallback(callbackID, "")
		h.sendFullText(ctx, article)

		return
	}

	if !h.beginTranslating(articleID) {
		h.channel.AnswerCallback(callbackID, noticeInProgress)

		return
	}
	defer h.endTranslating(articleID)

	h.channel.AnswerCallback(callbackID, "")

	noticeID, noticeErr := h.channel.SendNotice(noticeTranslating)

	translated, err := h.translateBody(ctx, article)

	if noticeErr == nil {
		h.channel.DeleteMessage(noticeID)
	}

	if err != nil {
		observability.TranslationsTotal.WithLabelValues(observability.OutcomeFailure).Inc()
		h.logger.Error().Err(err).Str(logFieldArticle, articleID).Msg("translation failed")

		if _, err := h.channel.SendNotice(noticeFailed); err != nil {
			h.logger.Warn().Err(err).Msg("failed to send translation failure notice")
		}

		return
	}

	if err := h.store.SetTranslation(ctx, articleID, translated); err != nil {
		h.logger.Error().Err(err).Str(logFieldArticle, articleID).Msg("failed to persist translation")
	}

	article.TranslatedContent = &translated
	observability.TranslationsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()

	h.sendFullText(ctx, article)
}

func (h *Handler) translateBody(ctx context.Context, article *storage.Article) (string, error) {
	settings, err := h.settings.LoadSettings(ctx)
	if err != nil {
		return "", err
	}

	rc := llm.ResilienceFromSettings(settings)
	prompt := llm.BuildTranslationPrompt(article.Title, article.Content, settings.Ingest.OutputLanguage)

	return h.invoker.Invoke(ctx, rc, prompt, llm.WithTimeout(rc.TranslationTimeout()))
}

func (h *Handler) sendFullText(ctx context.Context, article *storage.Article) {
	msgs := compose.FullText(compose.FullTextInput{
		TitleLocalized: article.TitleLocalized,
		Body:           *article.TranslatedContent,
		Keywords:       article.Keywords,
		Link:           article.Link,
		SummaryMsgID:   article.SummaryMsgID,
	})

	if err := h.channel.SendFullText(article, msgs); err != nil {
		h.logger.Error().Err(err).Str(logFieldArticle, article.ID).Msg("failed to send full text")

		return
	}

	if article.FullTextMsgID != nil {
		if err := h.store.SetFullTextMsgID(ctx, article.ID, *article.FullTextMsgID); err != nil {
			h.logger.Warn().Err(err).Str(logFieldArticle, article.ID).Msg("failed to persist full text msg id")
		}
	}
}

// handleBack resolves navigation to the stored summary message. The chat is
// classified at callback time from live metadata; private one-to-one chats
// have no deep links, so the user gets a textual hint instead.
func (h *Handler) handleBack(callbackID, rawMsgID string) {
	msgID, err := strconv.ParseInt(rawMsgID, 10, 64)
	if err != nil {
		h.channel.AnswerCallback(callbackID, noticeUnknownAction)

		return
	}

	if link, ok := h.channel.MessageLink(msgID); ok {
		h.channel.AnswerCallbackURL(callbackID, link)

		return
	}

	h.channel.AnswerCallbackAlert(callbackID, fmt.Sprintf(noticeFindSummary, rawMsgID))
}

func (h *Handler) beginTranslating(articleID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.translating[articleID] {
		return false
	}

	h.translating[articleID] = true

	return true
}

func (h *Handler) endTranslating(articleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.translating, articleID)
}
