package bot

import (
	"fmt"
	"log/slog"

	"telegram-points-bot/points"
	"telegram-points-bot/storage"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

type Bot struct {
	api         *telego.Bot
	storage     *storage.Storage
	authority   *points.Authority
	engine      *points.Engine
	transfers   *points.Workflow
	leaderboard *points.Leaderboard
}

func New(token string, ownerID int64, store *storage.Storage) (*Bot, error) {
	api, err := telego.NewBot(token)
	if err != nil {
		slog.Error("bot: Failed to create API client", "error", err)
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return &Bot{
		api:         api,
		storage:     store,
		authority:   points.NewAuthority(store, ownerID),
		engine:      points.NewEngine(store),
		transfers:   points.NewWorkflow(store),
		leaderboard: points.NewLeaderboard(store, points.DefaultPageSize),
	}, nil
}

// Start begins long polling and blocks until the handler stops.
func (b *Bot) Start() error {
	botUser, err := b.api.GetMe()
	if err != nil {
		slog.Error("bot: Failed to retrieve api user", "error", err)
		return fmt.Errorf("failed to retrieve api user: %w", err)
	}

	slog.Info("bot: Running as", "id", botUser.ID, "username", botUser.Username)

	updates, err := b.api.UpdatesViaLongPolling(nil)
	if err != nil {
		slog.Error("bot: Failed to get updates channel", "error", err)
		return fmt.Errorf("failed to get updates channel: %w", err)
	}

	bh, err := th.NewBotHandler(b.api, updates)
	if err != nil {
		slog.Error("bot: Failed to initialize handler", "error", err)
		return fmt.Errorf("failed to initialize handler: %w", err)
	}

	defer bh.Stop()
	defer b.api.StopLongPolling()

	bh.Use(b.accountRefreshMiddleware)

	bh.Handle(b.helpHandler, th.CommandEqual("start"))
	bh.Handle(b.helpHandler, th.CommandEqual("help"))
	bh.Handle(b.myPointsHandler, th.CommandEqual("mypoints"))
	bh.Handle(b.topHandler, th.CommandEqual("top"))
	bh.Handle(b.ratingHandler, th.CommandEqual("rating"))
	bh.Handle(b.pointsHandler, th.CommandEqual("points"))
	bh.Handle(b.pointsAllHandler, th.CommandEqual("pointsall"))
	bh.Handle(b.infoHandler, th.CommandEqual("info"))
	bh.Handle(b.giveHandler, th.CommandEqual("give"))
	bh.Handle(b.promoteHandler, th.CommandEqual("promote"))
	bh.Handle(b.demoteHandler, th.CommandEqual("demote"))
	bh.Handle(b.setStartHandler, th.CommandEqual("setstart"))
	bh.Handle(b.setRatingHandler, th.CommandEqual("setrating"))
	bh.Handle(b.topCallbackHandler, th.CallbackDataPrefix("top:"))
	bh.Handle(b.transferCallbackHandler, th.CallbackDataPrefix("transfer:"))

	bh.Start()

	return nil
}
