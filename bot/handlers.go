package bot

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"telegram-points-bot/points"

	t "github.com/mymmrac/telego"
)

func (b *Bot) helpHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	level, err := b.authority.Level(message.Chat.ID, message.From.ID)
	if err != nil {
		slog.Error("bot: Failed to resolve level for help", "error", err)
		level = points.LevelMember
	}

	var text strings.Builder
	switch {
	case level >= points.LevelOwner:
		text.WriteString("<b>Owner panel</b>\n\n")
	case level >= points.LevelAdmin:
		text.WriteString("<b>Admin panel</b>\n\n")
	default:
		text.WriteString("<b>Member menu</b>\n\n")
	}

	text.WriteString("• /mypoints — your score in this chat\n")
	text.WriteString("• /top — the leaderboard\n")
	text.WriteString("• /rating — how scores are ranked\n")
	text.WriteString("• /give [amount] @user — transfer points (3:1 rate)\n")

	if level >= points.LevelAdmin {
		text.WriteString("\n<b>Moderation:</b>\n")
		text.WriteString("• /points [+/- number] @user — grant or revoke points\n")
		text.WriteString("• /info @user — check a member's score\n")
	}
	if level >= points.LevelSeniorAdmin {
		text.WriteString("• /pointsall [+/- number] @a @b — bulk grant or revoke\n")
		text.WriteString("• /setstart [value] — starting balance for newcomers\n")
		text.WriteString("• /setrating [text] — chat's rating description\n")
	}
	if level >= points.LevelOwner {
		text.WriteString("\n<b>Access control:</b>\n")
		text.WriteString("• /promote @user [level] — grant admin rights\n")
		text.WriteString("• /demote @user — revoke admin rights\n")
	} else if level >= points.LevelSeniorAdmin {
		text.WriteString("• /promote @user — grant level-1 admin rights\n")
		text.WriteString("• /demote @user — revoke admin rights\n")
	}

	b.sendMessage(message.Chat.ID, text.String())
}

func (b *Bot) myPointsHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	account, err := b.storage.EnsureAccount(message.Chat.ID, message.From.ID,
		message.From.FirstName, message.From.Username)
	if err != nil {
		slog.Error("bot: Failed to get own account", "error", err)
		b.sendMessage(message.Chat.ID, rejectionText(err))
		return
	}

	b.sendMessage(message.Chat.ID, fmt.Sprintf("%s, you have <b>%d</b> points (%s).",
		html.EscapeString(account.Name), account.Balance, points.Tier(account.Balance)))
}

func (b *Bot) ratingHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil {
		return
	}

	info, err := b.storage.RatingInfo(message.Chat.ID)
	if err != nil {
		slog.Error("bot: Failed to get rating info", "error", err)
		b.sendMessage(message.Chat.ID, rejectionText(err))
		return
	}
	if info != "" {
		b.sendMessage(message.Chat.ID, html.EscapeString(info))
		return
	}

	b.sendMessage(message.Chat.ID,
		"<b>Ranks</b>\n"+
			"0–19 — outcast\n"+
			"20–39 — suspect\n"+
			"40–59 — neutral\n"+
			"60–79 — trusted\n"+
			"80–100 — elite\n\n"+
			"Stay active and trade points with /give to climb.")
}

// requireLevel answers with a uniform denial when the caller is below
// min and reports whether the handler may proceed.
func (b *Bot) requireLevel(chatID, userID int64, min int) bool {
	ok, err := b.authority.HasLevel(chatID, userID, min)
	if err != nil {
		slog.Error("bot: Failed to check authority", "error", err, "chat_id", chatID, "user_id", userID)
		b.sendMessage(chatID, rejectionText(err))
		return false
	}
	if !ok {
		b.sendMessage(chatID, rejectionText(points.ErrUnauthorized))
		return false
	}
	return true
}

func (b *Bot) pointsHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if !b.requireLevel(chatID, message.From.ID, points.LevelAdmin) {
		return
	}

	args := strings.Fields(message.Text)
	if len(args) < 2 {
		b.sendMessage(chatID, "Usage: <code>/points +10 @username</code> or reply to a message.")
		return
	}

	delta, err := strconv.Atoi(args[1])
	if err != nil {
		b.sendMessage(chatID, "The first argument must be a number, e.g. <code>+10</code> or <code>-5</code>.")
		return
	}

	target, err := b.resolveTarget(message, args[2:])
	if err != nil {
		if errors.Is(err, errNoTarget) {
			b.sendMessage(chatID, "Name a target: reply to their message or mention their @handle.")
			return
		}
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	balance, err := b.engine.Adjust(chatID, target.UserID, delta, "admin adjustment")
	if err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	admin := userLink(message.From.FirstName, message.From.ID)
	if delta >= 0 {
		b.sendMessage(chatID, fmt.Sprintf("⬆️ %s granted %s <b>%d</b> points. Now: <b>%d</b>.",
			admin, userLink(target.Name, target.UserID), delta, balance))
	} else {
		b.sendMessage(chatID, fmt.Sprintf("⬇️ %s took <b>%d</b> points from %s. Now: <b>%d</b>.",
			admin, -delta, userLink(target.Name, target.UserID), balance))
	}
}

func (b *Bot) pointsAllHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if !b.requireLevel(chatID, message.From.ID, points.LevelSeniorAdmin) {
		return
	}

	args := strings.Fields(message.Text)
	if len(args) < 3 {
		b.sendMessage(chatID, "Usage: <code>/pointsall +5 @one @two @three</code>")
		return
	}

	delta, err := strconv.Atoi(args[1])
	if err != nil {
		b.sendMessage(chatID, "The first argument must be a number, e.g. <code>+5</code>.")
		return
	}

	var targets []int64
	names := make(map[int64]string)
	var unknown []string
	for _, arg := range args[2:] {
		if !strings.HasPrefix(arg, "@") {
			continue
		}
		account, err := b.storage.AccountByUsername(chatID, arg)
		if err != nil {
			unknown = append(unknown, arg)
			continue
		}
		targets = append(targets, account.UserID)
		names[account.UserID] = account.Name
	}

	if len(targets) == 0 && len(unknown) == 0 {
		b.sendMessage(chatID, "Mention at least one @handle.")
		return
	}

	result := b.engine.AdjustMany(chatID, targets, delta, "bulk admin adjustment")

	var text strings.Builder
	if len(result.Applied) > 0 {
		applied := make([]int64, 0, len(result.Applied))
		for userID := range result.Applied {
			applied = append(applied, userID)
		}
		sort.Slice(applied, func(i, j int) bool { return applied[i] < applied[j] })

		fmt.Fprintf(&text, "Applied <b>%+d</b> to:\n", delta)
		for _, userID := range applied {
			fmt.Fprintf(&text, "• %s — now <b>%d</b>\n", userLink(names[userID], userID), result.Applied[userID])
		}
	}
	if len(result.Failed) > 0 {
		text.WriteString("\nSkipped:\n")
		for _, failure := range result.Failed {
			fmt.Fprintf(&text, "• %s — %s\n", userLink(names[failure.UserID], failure.UserID), rejectionText(failure.Err))
		}
	}
	for _, handle := range unknown {
		fmt.Fprintf(&text, "\n%s is not known in this chat.", html.EscapeString(handle))
	}

	b.sendMessage(chatID, text.String())
}

func (b *Bot) infoHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if !b.requireLevel(chatID, message.From.ID, points.LevelAdmin) {
		return
	}

	target, err := b.resolveTarget(message, strings.Fields(message.Text)[1:])
	if err != nil {
		if errors.Is(err, errNoTarget) {
			b.sendMessage(chatID, "Name a target: reply to their message or mention their @handle.")
			return
		}
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	muteDelta, warnDelta := points.PunishmentAdjustment(target.Balance)

	b.sendMessage(chatID, fmt.Sprintf(
		"<b>Member info</b>\n"+
			"👤 Name: %s\n"+
			"💠 Balance: <b>%d</b> points\n"+
			"🏷 Rank: <b>%s</b>\n"+
			"⚖️ Penalty adjustment: mute %+d min, warn %+d days",
		userLink(target.Name, target.UserID), target.Balance,
		points.Tier(target.Balance), muteDelta, warnDelta))
}

func (b *Bot) setStartHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if !b.requireLevel(chatID, message.From.ID, points.LevelSeniorAdmin) {
		return
	}

	args := strings.Fields(message.Text)
	if len(args) < 2 {
		starting, err := b.engine.StartingBalance(chatID)
		if err != nil {
			b.sendMessage(chatID, rejectionText(err))
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("Newcomers currently start with <b>%d</b> points. "+
			"Use <code>/setstart 40</code> to change.", starting))
		return
	}

	value, err := strconv.Atoi(args[1])
	if err != nil {
		b.sendMessage(chatID, "The starting balance must be a number.")
		return
	}

	if err := b.engine.SetStartingBalance(chatID, value); err != nil {
		b.sendMessage(chatID, fmt.Sprintf("Starting balance must stay within %d–%d.",
			points.MinBalance, points.MaxBalance))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("Newcomers now start with <b>%d</b> points.", value))
}

func (b *Bot) setRatingHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if !b.requireLevel(chatID, message.From.ID, points.LevelSeniorAdmin) {
		return
	}

	_, text, _ := strings.Cut(message.Text, " ")
	text = strings.TrimSpace(text)
	if err := b.storage.SetRatingInfo(chatID, text); err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	if text == "" {
		b.sendMessage(chatID, "Rating description reset to the default.")
	} else {
		b.sendMessage(chatID, "Rating description updated.")
	}
}

func (b *Bot) promoteHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	callerLevel, err := b.authority.Level(chatID, message.From.ID)
	if err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}
	if callerLevel < points.LevelSeniorAdmin {
		b.sendMessage(chatID, rejectionText(points.ErrUnauthorized))
		return
	}

	args := strings.Fields(message.Text)
	target, err := b.resolveTarget(message, args[1:])
	if err != nil {
		if errors.Is(err, errNoTarget) {
			b.sendMessage(chatID, "Name a target: reply to their message or mention their @handle.")
			return
		}
		b.sendMessage(chatID, rejectionText(err))
		return
	}
	if b.authority.IsOwner(target.UserID) {
		b.sendMessage(chatID, rejectionText(points.ErrOwnerImmutable))
		return
	}

	// Without an explicit level the grant never demotes: re-promoting a
	// senior admin to level 1 keeps them senior. An explicit level is
	// owner-only and sets exactly what was asked.
	level := points.LevelAdmin
	mode := points.GrantMax
	for _, arg := range args[1:] {
		if n, convErr := strconv.Atoi(arg); convErr == nil {
			level = n
			mode = points.GrantForce
			break
		}
	}

	if level != points.LevelAdmin && level != points.LevelSeniorAdmin {
		b.sendMessage(chatID, fmt.Sprintf("Admin level must be %d or %d.",
			points.LevelAdmin, points.LevelSeniorAdmin))
		return
	}
	if level >= callerLevel || (mode == points.GrantForce && callerLevel < points.LevelOwner) {
		b.sendMessage(chatID, rejectionText(points.ErrUnauthorized))
		return
	}

	if err := b.authority.SetLevel(chatID, target.UserID, level, mode); err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ %s is now a level-%d <b>admin</b>.",
		userLink(target.Name, target.UserID), level))
}

func (b *Bot) demoteHandler(bot *t.Bot, update t.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	callerLevel, err := b.authority.Level(chatID, message.From.ID)
	if err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}
	if callerLevel < points.LevelSeniorAdmin {
		b.sendMessage(chatID, rejectionText(points.ErrUnauthorized))
		return
	}

	target, err := b.resolveTarget(message, strings.Fields(message.Text)[1:])
	if err != nil {
		if errors.Is(err, errNoTarget) {
			b.sendMessage(chatID, "Name a target: reply to their message or mention their @handle.")
			return
		}
		b.sendMessage(chatID, rejectionText(err))
		return
	}
	if b.authority.IsOwner(target.UserID) {
		b.sendMessage(chatID, rejectionText(points.ErrOwnerImmutable))
		return
	}

	targetLevel, err := b.authority.Level(chatID, target.UserID)
	if err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}
	if targetLevel >= callerLevel {
		b.sendMessage(chatID, rejectionText(points.ErrUnauthorized))
		return
	}

	if err := b.authority.RemoveLevel(chatID, target.UserID); err != nil {
		b.sendMessage(chatID, rejectionText(err))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("❌ %s is no longer an <b>admin</b>.",
		userLink(target.Name, target.UserID)))
}
