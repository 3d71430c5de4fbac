// Package notify is the only component that talks to the Telegram channel. It
// sends composed messages, records returned message identifiers on articles,
// answers callbacks and resolves chat metadata for navigation links.
package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/compose"
	"github.com/feedranker/feed-digest-bot/internal/storage"
)

// sleepBetweenParts paces multi-segment sends to respect channel rate limits.
const sleepBetweenParts = 500 * time.Millisecond

// BotAPI is the slice of the Telegram client the notifier uses. *tgbotapi.BotAPI
// satisfies it.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

type Notifier struct {
	api       BotAPI
	chatID    int64
	logger    *zerolog.Logger
	partDelay time.Duration
}

func New(token string, chatID int64, logger *zerolog.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return NewWithAPI(api, chatID, logger), nil
}

// NewWithAPI wires a notifier over an existing client. Used by tests and by
// components sharing one bot connection.
func NewWithAPI(api BotAPI, chatID int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		api:       api,
		chatID:    chatID,
		logger:    logger,
		partDelay: sleepBetweenParts,
	}
}

// ChatID returns the destination chat identifier.
func (n *Notifier) ChatID() int64 {
	return n.chatID
}

// PushSummary sends the article's summary card and records the returned
// message identifier on the article.
func (n *Notifier) PushSummary(a *storage.Article) error {
	sent, err := n.send(compose.Summary(a))
	if err != nil {
		return fmt.Errorf("send summary for %s: %w", a.ID, err)
	}

	msgID := int64(sent.MessageID)
	a.SummaryMsgID = &msgID

	return nil
}

// SendFullText sends a pre-composed message sequence with a short delay
// between segments and records the identifier of the last sent message.
func (n *Notifier) SendFullText(a *storage.Article, msgs []compose.Message) error {
	var lastID int64

	for i, msg := range msgs {
		sent, err := n.send(msg)
		if err != nil {
			return fmt.Errorf("send full text part %d of %d: %w", i+1, len(msgs), err)
		}

		lastID = int64(sent.MessageID)

		if i < len(msgs)-1 {
			time.Sleep(n.partDelay)
		}
	}

	a.FullTextMsgID = &lastID

	return nil
}

// SendNotice sends a transient plain notice and returns its message id so the
// caller can delete it later.
func (n *Notifier) SendNotice(text string) (int64, error) {
	sent, err := n.send(compose.Message{Text: text})
	if err != nil {
		return 0, fmt.Errorf("send notice: %w", err)
	}

	return int64(sent.MessageID), nil
}

// DeleteMessage removes a previously sent message, best effort.
func (n *Notifier) DeleteMessage(msgID int64) {
	if _, err := n.api.Request(tgbotapi.NewDeleteMessage(n.chatID, int(msgID))); err != nil {
		n.logger.Warn().Err(err).Int64("msg_id", msgID).Msg("failed to delete message")
	}
}

// AnswerCallback acknowledges a callback with an optional toast text.
func (n *Notifier) AnswerCallback(callbackID, text string) {
	if _, err := n.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		n.logger.Warn().Err(err).Msg("failed to answer callback")
	}
}

// AnswerCallbackAlert acknowledges a callback with a modal alert.
func (n *Notifier) AnswerCallbackAlert(callbackID, text string) {
	if _, err := n.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		n.logger.Warn().Err(err).Msg("failed to answer callback with alert")
	}
}

// AnswerCallbackURL acknowledges a callback by redirecting the user to a URL.
func (n *Notifier) AnswerCallbackURL(callbackID, url string) {
	callback := tgbotapi.CallbackConfig{CallbackQueryID: callbackID, URL: url}
	if _, err := n.api.Request(callback); err != nil {
		n.logger.Warn().Err(err).Msg("failed to answer callback with URL")
	}
}

func (n *Notifier) send(msg compose.Message) (tgbotapi.Message, error) {
	out := tgbotapi.NewMessage(n.chatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true

	if kb := toKeyboard(msg.Buttons); kb != nil {
		out.ReplyMarkup = kb
	}

	return n.api.Send(out)
}

func toKeyboard(rows [][]compose.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))

	for _, row := range rows {
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))

		for _, btn := range row {
			if btn.URL != "" {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(btn.Label, btn.URL))
			} else {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.CallbackData))
			}
		}

		kbRows = append(kbRows, kbRow)
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)

	return &kb
}
