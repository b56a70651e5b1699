package bot

import (
	"log/slog"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegohandler"
)

// accountRefreshMiddleware upserts the sender's account on every group
// message, so names and handles track their last-seen values and every
// active member ends up on the leaderboard. Failures are logged and the
// update still proceeds: a broken refresh should not eat commands.
func (b *Bot) accountRefreshMiddleware(bot *telego.Bot, update telego.Update, next telegohandler.Handler) {
	message := update.Message
	if message != nil && message.From != nil && !message.From.IsBot &&
		(message.Chat.Type == telego.ChatTypeGroup || message.Chat.Type == telego.ChatTypeSupergroup) {
		_, err := b.storage.EnsureAccount(message.Chat.ID, message.From.ID,
			message.From.FirstName, message.From.Username)
		if err != nil {
			slog.Error("bot: Failed to refresh account", "error", err,
				"chat_id", message.Chat.ID, "user_id", message.From.ID)
		}
	}

	next(bot, update)
}
