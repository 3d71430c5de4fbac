// Package bot runs the Telegram update loop. It routes inline-keyboard
// callbacks to the translation handler and accepts a couple of chat commands.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/digest"
)

const updateTimeoutSeconds = 60

// CallbackHandler consumes one inline-keyboard callback.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, callbackID, data string)
}

// RunTrigger starts a digest run on demand.
type RunTrigger interface {
	Run(ctx context.Context) digest.RunOutcome
}

type Bot struct {
	api       *tgbotapi.BotAPI
	callbacks CallbackHandler
	runner    RunTrigger
	chatID    int64
	logger    *zerolog.Logger
}

func New(api *tgbotapi.BotAPI, callbacks CallbackHandler, runner RunTrigger, chatID int64, logger *zerolog.Logger) *Bot {
	return &Bot{
		api:       api,
		callbacks: callbacks,
		runner:    runner,
		chatID:    chatID,
		logger:    logger,
	}
}

// Run consumes updates until ctx is canceled. Callbacks are handled in their
// own goroutines so a long translation never blocks the loop or a concurrent
// digest run.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("bot", b.api.Self.UserName).Msg("telegram update loop started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()

			return ctx.Err()
		case update := <-updates:
			if update.CallbackQuery != nil {
				cb := update.CallbackQuery
				go b.callbacks.HandleCallback(ctx, cb.ID, cb.Data)

				continue
			}

			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	// Commands are only honored in the digest chat itself.
	if msg.Chat == nil {
		return
	}

	if msg.Chat.ID != b.chatID {
		b.logger.Warn().Int64("chat_id", msg.Chat.ID).Str("command", msg.Command()).Msg("command from foreign chat ignored")

		return
	}

	switch msg.Command() {
	case "digest":
		outcome := b.runner.Run(ctx)
		b.reply(msg, runReplyText(outcome))
	case "start", "help":
		b.reply(msg, "Commands:\n/digest - run the digest now\n/help - this message")
	default:
		b.logger.Debug().Str("command", msg.Command()).Msg("unknown command")
	}
}

func runReplyText(outcome digest.RunOutcome) string {
	if outcome.AlreadyRunning {
		return "⏳ A digest run is already in progress."
	}

	if !outcome.Success {
		return fmt.Sprintf("⚠️ Digest run failed: %s", outcome.Message)
	}

	return fmt.Sprintf("✅ Digest done: %s", outcome.Message)
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID

	if _, err := b.api.Send(out); err != nil {
		b.logger.Warn().Err(err).Msg("failed to send command reply")
	}
}
