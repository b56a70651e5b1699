package bot

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"telegram-points-bot/points"
	"telegram-points-bot/storage"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// errNoTarget means the command named no usable target: no reply and no
// @handle argument.
var errNoTarget = errors.New("no target given")

// resolveTarget finds the account a command refers to: the replied-to
// user wins, otherwise the first @handle argument is looked up in this
// chat. Replied-to users are upserted on the way, handles must already
// be known.
func (b *Bot) resolveTarget(message *t.Message, args []string) (*storage.Account, error) {
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		from := message.ReplyToMessage.From
		return b.storage.EnsureAccount(message.Chat.ID, from.ID, from.FirstName, from.Username)
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "@") {
			account, err := b.storage.AccountByUsername(message.Chat.ID, arg)
			if err != nil {
				if errors.Is(err, storage.ErrAccountNotFound) {
					return nil, points.ErrTargetUnknown
				}
				return nil, err
			}
			return account, nil
		}
	}

	return nil, errNoTarget
}

// userLink renders a mention that does not trigger a notification.
func userLink(name string, userID int64) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}

// accountLink prefers a public t.me link when the account has a handle.
func accountLink(account *storage.Account) string {
	if account.Username != "" {
		return fmt.Sprintf(`<a href="https://t.me/%s">%s</a>`, account.Username, html.EscapeString(account.Name))
	}
	return userLink(account.Name, account.UserID)
}

// rejectionText renders the §7-style transfer/adjust rejections with
// the numbers involved, so the user knows exactly which rule fired.
func rejectionText(err error) string {
	var limit *points.LimitExceededError
	var small *points.BelowMinimumTransferError
	var overflow *points.RecipientOverflowError
	var floor *points.SenderFloorError
	var funds *points.InsufficientFundsError

	switch {
	case errors.As(err, &limit):
		return fmt.Sprintf("Balance is <b>%d</b>, change of <b>%+d</b> would cross the bound of <b>%d</b>.",
			limit.Current, limit.Delta, limit.Bound)
	case errors.As(err, &small):
		return fmt.Sprintf("Amount is too small: at the %d:1 rate, <b>%d</b> points buy nothing. Send at least <b>%d</b>.",
			small.Rate, small.Requested, small.Rate)
	case errors.As(err, &overflow):
		return fmt.Sprintf("The recipient cannot accept <b>%d</b> points — they only have room for <b>%d</b>.",
			overflow.Credit, overflow.Headroom)
	case errors.As(err, &floor):
		return fmt.Sprintf("You must keep at least <b>%d</b> points: %d−%d leaves too little.",
			floor.Floor, floor.Balance, floor.Debit)
	case errors.As(err, &funds):
		return fmt.Sprintf("Not enough points: you have <b>%d</b>, this transfer needs <b>%d</b>.",
			funds.Balance, funds.Debit)
	case errors.Is(err, points.ErrSelfTransfer):
		return "You cannot transfer points to yourself."
	case errors.Is(err, points.ErrTargetUnknown):
		return "That user is not known in this chat yet."
	case errors.Is(err, points.ErrNotFound):
		return "This transfer has already been resolved or never existed."
	case errors.Is(err, points.ErrExpired):
		return "This transfer expired. Propose it again."
	case errors.Is(err, points.ErrNotOwner):
		return "Only the person who proposed this transfer can act on it."
	case errors.Is(err, points.ErrUnauthorized):
		return "You are not allowed to do that."
	case errors.Is(err, points.ErrOwnerImmutable):
		return "The owner's level cannot be changed."
	}

	return "Something went wrong on our side. Try again later."
}

func (b *Bot) sendMessage(chatID int64, text string) {
	message := tu.Message(tu.ID(chatID), text)
	message.ParseMode = t.ModeHTML
	message.LinkPreviewOptions = &t.LinkPreviewOptions{IsDisabled: true}

	_, err := b.api.SendMessage(message)
	if err != nil {
		// Check if it's a rate limit error
		if strings.Contains(err.Error(), "Too Many Requests") {
			parts := strings.Split(err.Error(), "retry after: ")
			if len(parts) == 2 {
				var retryAfter int
				if _, _ = fmt.Sscanf(parts[1], "%d", &retryAfter); retryAfter > 0 {
					slog.Info("bot: Rate limit hit, waiting", "seconds", retryAfter)
					time.Sleep(time.Duration(retryAfter) * time.Second)
					_, retryErr := b.api.SendMessage(message)
					if retryErr != nil {
						err = retryErr
					} else {
						err = nil
					}
				}
			}
		}
		if err != nil {
			slog.Error("bot: Failed to send message", "error", err, "chat_id", chatID, "text_length", len(text))
		}
	}
}
