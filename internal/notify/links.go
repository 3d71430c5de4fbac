package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// supergroupIDOffset converts a bot-API chat id (-100XXXXXXXXXX) to the bare
// channel identifier used in t.me/c/ links.
const supergroupIDOffset = -1000000000000

// MessageLink resolves a deep link to a message in the destination chat by
// querying chat metadata at call time. No persisted message-to-chat map is
// needed. The second return value is false when the chat is a private
// one-to-one conversation, where no deep link exists.
func (n *Notifier) MessageLink(msgID int64) (string, bool) {
	chat, err := n.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: n.chatID},
	})
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to fetch chat metadata")

		return "", false
	}

	return chatMessageLink(chat, msgID)
}

func chatMessageLink(chat tgbotapi.Chat, msgID int64) (string, bool) {
	// Public chat with a handle: link by username.
	if chat.UserName != "" {
		return fmt.Sprintf("https://t.me/%s/%d", chat.UserName, msgID), true
	}

	// Private supergroup or channel: link by normalized identifier.
	if chat.IsSuperGroup() || chat.IsChannel() {
		return fmt.Sprintf("https://t.me/c/%d/%d", supergroupIDOffset-chat.ID, msgID), true
	}

	// One-to-one chat: no deep link is possible.
	return "", false
}
