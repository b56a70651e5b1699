package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultStartingBalance is assigned to new chats that have not
// configured their own starting balance.
const DefaultStartingBalance = 50

// ErrAccountNotFound is returned when a referenced account does not
// exist within the chat's scope.
var ErrAccountNotFound = errors.New("account not found")

type Storage struct {
	db *gorm.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		slog.Error("storage: Failed to connect to database", "error", err, "path", dbPath)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) migrate() error {
	// The legacy table must be inspected before AutoMigrate touches the
	// schema, otherwise its rows are indistinguishable from a fresh
	// install.
	hasLegacy := s.db.Migrator().HasTable(&legacyAdmin{})

	err := s.db.AutoMigrate(&Account{}, &ChatConfig{}, &AdminGrant{})
	if err != nil {
		slog.Error("storage: Failed to migrate database", "error", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if hasLegacy {
		if err := s.migrateLegacyAdmins(); err != nil {
			return err
		}
	}

	return nil
}

// migrateLegacyAdmins converts rows of the old chat-independent admins
// table into per-chat level-1 grants and drops the old table. Existing
// higher grants are preserved.
func (s *Storage) migrateLegacyAdmins() error {
	var legacy []legacyAdmin
	if err := s.db.Find(&legacy).Error; err != nil {
		slog.Error("storage: Failed to read legacy admins", "error", err)
		return fmt.Errorf("failed to read legacy admins: %w", err)
	}

	var chatIDs []int64
	if err := s.db.Model(&Account{}).Distinct("chat_id").Pluck("chat_id", &chatIDs).Error; err != nil {
		slog.Error("storage: Failed to list chats for admin migration", "error", err)
		return fmt.Errorf("failed to list chats: %w", err)
	}

	userIDs := make([]int64, 0, len(legacy))
	for _, l := range legacy {
		userIDs = append(userIDs, l.UserID)
	}

	for _, grant := range grantsFromLegacy(userIDs, chatIDs) {
		if err := s.RaiseAdminLevel(grant.ChatID, grant.UserID, grant.Level); err != nil {
			return err
		}
	}

	if err := s.db.Migrator().DropTable(&legacyAdmin{}); err != nil {
		slog.Error("storage: Failed to drop legacy admins table", "error", err)
		return fmt.Errorf("failed to drop legacy admins table: %w", err)
	}

	slog.Info("storage: Migrated legacy admins", "admins", len(legacy), "chats", len(chatIDs))
	return nil
}

// grantsFromLegacy expands chat-independent admin user ids into one
// level-1 grant per known chat.
func grantsFromLegacy(userIDs []int64, chatIDs []int64) []AdminGrant {
	grants := make([]AdminGrant, 0, len(userIDs)*len(chatIDs))
	for _, chatID := range chatIDs {
		for _, userID := range userIDs {
			grants = append(grants, AdminGrant{ChatID: chatID, UserID: userID, Level: 1})
		}
	}
	return grants
}

// normalizeUsername strips the @ prefix and lower-cases a handle so
// lookups are case-insensitive.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(username, "@"))
}

// EnsureAccount creates the account at the chat's starting balance on
// first sight and refreshes the display name on every later call. The
// handle is only overwritten when a non-empty value is provided, so the
// last known handle survives messages sent without one.
func (s *Storage) EnsureAccount(chatID, userID int64, name, username string) (*Account, error) {
	username = normalizeUsername(username)

	starting, err := s.StartingBalance(chatID)
	if err != nil {
		return nil, err
	}

	account := Account{
		UserID:   userID,
		ChatID:   chatID,
		Balance:  starting,
		Name:     name,
		Username: username,
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "chat_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":     name,
			"username": gorm.Expr("CASE WHEN excluded.username = '' THEN username ELSE excluded.username END"),
		}),
	}).Create(&account)
	if result.Error != nil {
		slog.Error("storage: Failed to upsert account", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return nil, fmt.Errorf("failed to upsert account: %w", result.Error)
	}

	return s.Account(chatID, userID)
}

// Account retrieves a single account by its (chat, user) key.
func (s *Storage) Account(chatID, userID int64) (*Account, error) {
	var account Account
	result := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		slog.Error("storage: Failed to get account", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return nil, fmt.Errorf("failed to get account: %w", result.Error)
	}
	return &account, nil
}

// AccountByUsername resolves a @handle within one chat.
func (s *Storage) AccountByUsername(chatID int64, username string) (*Account, error) {
	var account Account
	result := s.db.Where("chat_id = ? AND username = ?", chatID, normalizeUsername(username)).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		slog.Error("storage: Failed to get account by username", "error", result.Error,
			"chat_id", chatID, "username", username)
		return nil, fmt.Errorf("failed to get account by username: %w", result.Error)
	}
	return &account, nil
}

// UpdateBalance applies mutate to the current balance of one account
// inside a transaction, so two concurrent updates cannot both validate
// against the same stale value. The account is created at the chat's
// starting balance if absent. Errors returned by mutate abort the
// transaction and are passed through unwrapped.
func (s *Storage) UpdateBalance(chatID, userID int64, mutate func(current int) (int, error)) (int, error) {
	var next int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account Account
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chat_id = ? AND user_id = ?", chatID, userID).First(&account)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to get account: %w", result.Error)
			}

			starting, err := startingBalanceTx(tx, chatID)
			if err != nil {
				return err
			}
			account = Account{UserID: userID, ChatID: chatID, Balance: starting}
			if err := tx.Create(&account).Error; err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}
		}

		n, err := mutate(account.Balance)
		if err != nil {
			return err
		}
		next = n

		return tx.Model(&Account{}).Where("id = ?", account.ID).Update("balance", n).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// TransferBalances debits the sender and credits the recipient in a
// single transaction. validate sees the balances current at commit
// time; any error it returns aborts the transaction with neither
// account changed.
func (s *Storage) TransferBalances(chatID, senderID, recipientID int64, debit, credit int, validate func(senderBalance, recipientBalance int) error) (senderNew, recipientNew int, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var sender, recipient Account
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chat_id = ? AND user_id = ?", chatID, senderID).First(&sender)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to get sender account: %w", result.Error)
		}

		result = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chat_id = ? AND user_id = ?", chatID, recipientID).First(&recipient)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to get recipient account: %w", result.Error)
		}

		if err := validate(sender.Balance, recipient.Balance); err != nil {
			return err
		}

		senderNew = sender.Balance - debit
		recipientNew = recipient.Balance + credit

		if err := tx.Model(&Account{}).Where("id = ?", sender.ID).Update("balance", senderNew).Error; err != nil {
			return fmt.Errorf("failed to debit sender: %w", err)
		}
		if err := tx.Model(&Account{}).Where("id = ?", recipient.ID).Update("balance", recipientNew).Error; err != nil {
			return fmt.Errorf("failed to credit recipient: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return senderNew, recipientNew, nil
}

// TopAccounts returns one leaderboard page ordered by descending
// balance, ties broken by join order (earlier members first).
func (s *Storage) TopAccounts(chatID int64, limit, offset int) ([]Account, error) {
	var accounts []Account
	result := s.db.Where("chat_id = ?", chatID).
		Order("balance DESC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&accounts)
	if result.Error != nil {
		slog.Error("storage: Failed to get top accounts", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get top accounts: %w", result.Error)
	}
	return accounts, nil
}

// CountAccounts returns the number of accounts in a chat.
func (s *Storage) CountAccounts(chatID int64) (int64, error) {
	var count int64
	result := s.db.Model(&Account{}).Where("chat_id = ?", chatID).Count(&count)
	if result.Error != nil {
		slog.Error("storage: Failed to count accounts", "error", result.Error, "chat_id", chatID)
		return 0, fmt.Errorf("failed to count accounts: %w", result.Error)
	}
	return count, nil
}

// AdminLevel returns the stored grant level for a user in a chat, or 0
// when no grant exists.
func (s *Storage) AdminLevel(chatID, userID int64) (int, error) {
	var grant AdminGrant
	result := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&grant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		slog.Error("storage: Failed to get admin level", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return 0, fmt.Errorf("failed to get admin level: %w", result.Error)
	}
	return grant.Level, nil
}

// SetAdminLevel stores exactly the requested level, overwriting any
// existing grant.
func (s *Storage) SetAdminLevel(chatID, userID int64, level int) error {
	grant := AdminGrant{ChatID: chatID, UserID: userID, Level: level}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"level": level}),
	}).Create(&grant)
	if result.Error != nil {
		slog.Error("storage: Failed to set admin level", "error", result.Error,
			"chat_id", chatID, "user_id", userID, "level", level)
		return fmt.Errorf("failed to set admin level: %w", result.Error)
	}
	return nil
}

// RaiseAdminLevel stores the requested level unless a higher grant
// already exists. The max is taken inside the upsert so concurrent
// promotions cannot demote anyone.
func (s *Storage) RaiseAdminLevel(chatID, userID int64, level int) error {
	grant := AdminGrant{ChatID: chatID, UserID: userID, Level: level}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"level": gorm.Expr("MAX(level, excluded.level)")}),
	}).Create(&grant)
	if result.Error != nil {
		slog.Error("storage: Failed to raise admin level", "error", result.Error,
			"chat_id", chatID, "user_id", userID, "level", level)
		return fmt.Errorf("failed to raise admin level: %w", result.Error)
	}
	return nil
}

// RemoveAdminLevel deletes the grant entirely, demoting the user to a
// regular member. The delete is unscoped: a soft-deleted grant would
// still occupy the unique (chat, user) index and block re-promotion.
func (s *Storage) RemoveAdminLevel(chatID, userID int64) error {
	result := s.db.Unscoped().Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&AdminGrant{})
	if result.Error != nil {
		slog.Error("storage: Failed to remove admin level", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return fmt.Errorf("failed to remove admin level: %w", result.Error)
	}
	return nil
}

// chatConfigTx fetches the chat's config row, creating it with
// defaults on first access.
func chatConfigTx(tx *gorm.DB, chatID int64) (*ChatConfig, error) {
	cfg := ChatConfig{ChatID: chatID, StartingBalance: DefaultStartingBalance}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoNothing: true,
	}).Create(&cfg)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create chat config: %w", result.Error)
	}

	result = tx.Where("chat_id = ?", chatID).First(&cfg)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get chat config: %w", result.Error)
	}
	return &cfg, nil
}

func startingBalanceTx(tx *gorm.DB, chatID int64) (int, error) {
	cfg, err := chatConfigTx(tx, chatID)
	if err != nil {
		return 0, err
	}
	return cfg.StartingBalance, nil
}

// StartingBalance returns the balance assigned to new accounts in a
// chat, creating the config row with the default on first access.
func (s *Storage) StartingBalance(chatID int64) (int, error) {
	return startingBalanceTx(s.db, chatID)
}

// SetStartingBalance updates the balance assigned to new accounts.
// Bounds are the caller's concern.
func (s *Storage) SetStartingBalance(chatID int64, value int) error {
	if _, err := chatConfigTx(s.db, chatID); err != nil {
		return err
	}
	result := s.db.Model(&ChatConfig{}).Where("chat_id = ?", chatID).Update("starting_balance", value)
	if result.Error != nil {
		slog.Error("storage: Failed to set starting balance", "error", result.Error,
			"chat_id", chatID, "value", value)
		return fmt.Errorf("failed to set starting balance: %w", result.Error)
	}
	return nil
}

// RatingInfo returns the chat's rating-info override text, empty when
// unset.
func (s *Storage) RatingInfo(chatID int64) (string, error) {
	cfg, err := chatConfigTx(s.db, chatID)
	if err != nil {
		slog.Error("storage: Failed to get rating info", "error", err, "chat_id", chatID)
		return "", err
	}
	return cfg.RatingInfo, nil
}

// SetRatingInfo updates the chat's rating-info override text.
func (s *Storage) SetRatingInfo(chatID int64, text string) error {
	if _, err := chatConfigTx(s.db, chatID); err != nil {
		return err
	}
	result := s.db.Model(&ChatConfig{}).Where("chat_id = ?", chatID).Update("rating_info", text)
	if result.Error != nil {
		slog.Error("storage: Failed to set rating info", "error", result.Error, "chat_id", chatID)
		return fmt.Errorf("failed to set rating info: %w", result.Error)
	}
	return nil
}
