package storage

import (
	"gorm.io/gorm"
)

// Account is a user's point balance scoped to a single chat. The
// autoincremented primary key doubles as the join order: it is assigned
// once when the account is first seen and breaks leaderboard ties in
// favor of earlier members. Accounts are never deleted.
type Account struct {
	gorm.Model
	UserID   int64 `gorm:"uniqueIndex:idx_chat_user"`
	ChatID   int64 `gorm:"uniqueIndex:idx_chat_user"`
	Balance  int
	Name     string
	Username string `gorm:"index"`
}

// ChatConfig holds per-chat settings, created lazily on first access.
type ChatConfig struct {
	gorm.Model
	ChatID          int64 `gorm:"uniqueIndex"`
	StartingBalance int
	RatingInfo      string
}

// AdminGrant is a per-chat privilege tier for a user. Level is 1 or 2;
// the owner is implicit and never stored.
type AdminGrant struct {
	gorm.Model
	ChatID int64 `gorm:"uniqueIndex:idx_chat_admin"`
	UserID int64 `gorm:"uniqueIndex:idx_chat_admin"`
	Level  int
}

// legacyAdmin mirrors the pre-per-chat "admins" table where a single
// row meant chat-independent admin rights. It only exists during
// migration.
type legacyAdmin struct {
	UserID int64 `gorm:"primaryKey;column:user_id"`
}

func (legacyAdmin) TableName() string { return "admins" }
