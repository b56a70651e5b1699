package points

import (
	"telegram-points-bot/storage"
)

// Privilege levels. Grants store only LevelAdmin and LevelSeniorAdmin;
// the owner level is implicit and never persisted.
const (
	LevelMember      = 0
	LevelAdmin       = 1
	LevelSeniorAdmin = 2
	LevelOwner       = 999
)

// GrantMode selects how SetLevel treats an existing grant.
type GrantMode int

const (
	// GrantForce overwrites whatever level is stored.
	GrantForce GrantMode = iota
	// GrantMax keeps the higher of the stored and requested levels, so
	// re-granting level 1 never silently demotes a senior admin.
	GrantMax
)

// Authority resolves per-chat privilege levels. Every check reads the
// store fresh; levels are never cached across requests.
type Authority struct {
	store   *storage.Storage
	ownerID int64
}

func NewAuthority(store *storage.Storage, ownerID int64) *Authority {
	return &Authority{store: store, ownerID: ownerID}
}

// Level returns the caller's privilege level in a chat: 999 for the
// owner, the stored grant level otherwise, 0 without a grant.
func (a *Authority) Level(chatID, userID int64) (int, error) {
	if userID == a.ownerID {
		return LevelOwner, nil
	}
	return a.store.AdminLevel(chatID, userID)
}

// HasLevel reports whether the user's level is at least min.
func (a *Authority) HasLevel(chatID, userID int64, min int) (bool, error) {
	level, err := a.Level(chatID, userID)
	if err != nil {
		return false, err
	}
	return level >= min, nil
}

// SetLevel grants a user an admin level. The owner is not a valid
// target: their level is implicit.
func (a *Authority) SetLevel(chatID, userID int64, level int, mode GrantMode) error {
	if userID == a.ownerID {
		return ErrOwnerImmutable
	}
	if mode == GrantMax {
		return a.store.RaiseAdminLevel(chatID, userID, level)
	}
	return a.store.SetAdminLevel(chatID, userID, level)
}

// RemoveLevel deletes the user's grant, demoting them to member.
func (a *Authority) RemoveLevel(chatID, userID int64) error {
	if userID == a.ownerID {
		return ErrOwnerImmutable
	}
	return a.store.RemoveAdminLevel(chatID, userID)
}

// IsOwner reports whether the user is the distinguished owner
// principal.
func (a *Authority) IsOwner(userID int64) bool {
	return userID == a.ownerID
}
