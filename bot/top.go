package bot

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

func (b *Bot) topHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	b.sendTopPage(message.Chat.ID, 0, message.From.ID, 0)
}

func (b *Bot) topCallbackHandler(bot *t.Bot, update t.Update) {
	query := update.CallbackQuery
	if query == nil || query.Message == nil {
		return
	}

	// top:<requester>:<page> — only the member who asked for the
	// leaderboard may page through it.
	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 {
		return
	}
	requesterID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}

	if query.From.ID != requesterID {
		b.answerCallback(query.ID, "")
		return
	}

	b.sendTopPage(query.Message.GetChat().ID, page, requesterID, query.Message.GetMessageID())
	b.answerCallback(query.ID, "")
}

// sendTopPage renders one leaderboard page. A non-zero messageID edits
// that message in place instead of sending a new one.
func (b *Bot) sendTopPage(chatID int64, page int, requesterID int64, messageID int) {
	rows, totalPages, err := b.leaderboard.Page(chatID, page)
	if err != nil {
		slog.Error("bot: Failed to get leaderboard page", "error", err, "chat_id", chatID, "page", page)
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	if len(rows) == 0 && page == 0 {
		b.sendMessage(chatID, "💠 No leaderboard yet. Say something!")
		return
	}

	var text strings.Builder
	fmt.Fprintf(&text, "💠 <b>LEADERBOARD</b> (%d/%d)\n\n", page+1, totalPages)
	offset := page * b.leaderboard.PageSize()
	for i := range rows {
		fmt.Fprintf(&text, "%d. %s — <b>%d</b>\n", offset+i+1, accountLink(&rows[i]), rows[i].Balance)
	}

	var buttons []t.InlineKeyboardButton
	if page > 0 {
		buttons = append(buttons, tu.InlineKeyboardButton("⬅️").
			WithCallbackData(fmt.Sprintf("top:%d:%d", requesterID, page-1)))
	}
	if page < totalPages-1 {
		buttons = append(buttons, tu.InlineKeyboardButton("➡️").
			WithCallbackData(fmt.Sprintf("top:%d:%d", requesterID, page+1)))
	}

	var keyboard *t.InlineKeyboardMarkup
	if len(buttons) > 0 {
		keyboard = tu.InlineKeyboard(tu.InlineKeyboardRow(buttons...))
	}

	if messageID != 0 {
		_, err = b.api.EditMessageText(&t.EditMessageTextParams{
			ChatID:      tu.ID(chatID),
			MessageID:   messageID,
			Text:        text.String(),
			ParseMode:   t.ModeHTML,
			ReplyMarkup: keyboard,
		})
		if err != nil {
			slog.Error("bot: Failed to edit leaderboard message", "error", err, "chat_id", chatID)
		}
		return
	}

	params := tu.Message(tu.ID(chatID), text.String())
	params.ParseMode = t.ModeHTML
	params.LinkPreviewOptions = &t.LinkPreviewOptions{IsDisabled: true}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	if _, err := b.api.SendMessage(params); err != nil {
		slog.Error("bot: Failed to send leaderboard message", "error", err, "chat_id", chatID)
	}
}
