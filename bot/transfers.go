package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"telegram-points-bot/points"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

func (b *Bot) giveHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	args := strings.Fields(message.Text)
	if len(args) < 2 {
		b.sendMessage(chatID, fmt.Sprintf("Usage: <code>/give 30 @username</code> or reply to a message. "+
			"The recipient gets 1 point per %d sent.", b.transfers.Rate()))
		return
	}

	amount, err := strconv.Atoi(args[1])
	if err != nil {
		b.sendMessage(chatID, "The first argument must be a number, e.g. <code>30</code>.")
		return
	}

	target, err := b.resolveTarget(message, args[2:])
	if err != nil {
		if errors.Is(err, errNoTarget) {
			b.sendMessage(chatID, "Name a recipient: reply to their message or mention their @handle.")
			return
		}
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	transfer, err := b.transfers.Propose(chatID, message.From.ID, target.UserID, amount)
	if err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Confirm").WithCallbackData("transfer:confirm:"+transfer.Token),
			tu.InlineKeyboardButton("❌ Cancel").WithCallbackData("transfer:cancel:"+transfer.Token),
		),
	)

	text := fmt.Sprintf(
		"%s wants to send %s <b>%d</b> points.\n"+
			"They will receive <b>%d</b> (rate %d:1).\n\n"+
			"Only the sender can confirm. The offer expires in %d minutes.",
		userLink(transfer.SenderName, transfer.SenderID),
		userLink(transfer.RecipientName, transfer.RecipientID),
		transfer.Debit, transfer.Credit, b.transfers.Rate(),
		int(points.TransferTTL.Minutes()))

	params := tu.Message(tu.ID(chatID), text)
	params.ParseMode = t.ModeHTML
	params.ReplyMarkup = keyboard
	if _, err := b.api.SendMessage(params); err != nil {
		slog.Error("bot: Failed to send transfer proposal", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) transferCallbackHandler(bot *t.Bot, update t.Update) {
	query := update.CallbackQuery
	if query == nil || query.Message == nil {
		return
	}

	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 {
		return
	}
	action, token := parts[1], parts[2]

	chatID := query.Message.GetChat().ID
	messageID := query.Message.GetMessageID()

	var text string
	switch action {
	case "confirm":
		receipt, err := b.transfers.Confirm(token, query.From.ID)
		if err != nil {
			if errors.Is(err, points.ErrNotOwner) {
				b.answerCallback(query.ID, rejectionText(err))
				return
			}
			text = rejectionText(err)
			break
		}
		text = fmt.Sprintf("✅ %s sent <b>%d</b> points, %s received <b>%d</b>.\nBalances: <b>%d</b> and <b>%d</b>.",
			userLink(receipt.Transfer.SenderName, receipt.Transfer.SenderID), receipt.Transfer.Debit,
			userLink(receipt.Transfer.RecipientName, receipt.Transfer.RecipientID), receipt.Transfer.Credit,
			receipt.SenderBalance, receipt.RecipientBalance)
	case "cancel":
		transfer, err := b.transfers.Cancel(token, query.From.ID)
		if err != nil {
			if errors.Is(err, points.ErrNotOwner) {
				b.answerCallback(query.ID, rejectionText(err))
				return
			}
			text = rejectionText(err)
			break
		}
		text = fmt.Sprintf("❌ %s cancelled the transfer to %s.",
			userLink(transfer.SenderName, transfer.SenderID),
			userLink(transfer.RecipientName, transfer.RecipientID))
	default:
		return
	}

	_, err := b.api.EditMessageText(&t.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Text:      text,
		ParseMode: t.ModeHTML,
	})
	if err != nil {
		slog.Error("bot: Failed to edit transfer message", "error", err, "chat_id", chatID)
	}

	b.answerCallback(query.ID, "")
}

func (b *Bot) answerCallback(queryID, text string) {
	err := b.api.AnswerCallbackQuery(&t.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		slog.Error("bot: Failed to answer callback query", "error", err)
	}
}
