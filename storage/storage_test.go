package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)

	return s
}

func TestEnsureAccountCreatesAtStartingBalance(t *testing.T) {
	s := newTestStorage(t)

	account, err := s.EnsureAccount(10, 1, "Alice", "Alice_A")
	require.NoError(t, err)
	require.Equal(t, DefaultStartingBalance, account.Balance)
	require.Equal(t, "Alice", account.Name)
	require.Equal(t, "alice_a", account.Username)
}

func TestEnsureAccountUsesConfiguredStartingBalance(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetStartingBalance(10, 30))

	account, err := s.EnsureAccount(10, 1, "Alice", "")
	require.NoError(t, err)
	require.Equal(t, 30, account.Balance)
}

func TestEnsureAccountRefreshesNameKeepsHandle(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.EnsureAccount(10, 1, "Alice", "alice")
	require.NoError(t, err)

	account, err := s.EnsureAccount(10, 1, "Alicia", "")
	require.NoError(t, err)
	require.Equal(t, "Alicia", account.Name)
	require.Equal(t, "alice", account.Username, "empty handle must not erase the stored one")
	require.Equal(t, DefaultStartingBalance, account.Balance, "re-ensure must not reset the balance")
}

func TestEnsureAccountAssignsJoinOrderOnce(t *testing.T) {
	s := newTestStorage(t)

	first, err := s.EnsureAccount(10, 1, "Alice", "")
	require.NoError(t, err)
	second, err := s.EnsureAccount(10, 2, "Bob", "")
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	again, err := s.EnsureAccount(10, 1, "Alice", "")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
}

func TestAccountByUsernameNormalizes(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.EnsureAccount(10, 1, "Alice", "Alice_A")
	require.NoError(t, err)

	account, err := s.AccountByUsername(10, "@Alice_A")
	require.NoError(t, err)
	require.Equal(t, int64(1), account.UserID)

	_, err = s.AccountByUsername(10, "@nobody")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountScopedToChat(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.EnsureAccount(10, 1, "Alice", "alice")
	require.NoError(t, err)

	_, err = s.Account(20, 1)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateBalanceCreatesAbsentAccount(t *testing.T) {
	s := newTestStorage(t)

	balance, err := s.UpdateBalance(10, 1, func(current int) (int, error) {
		return current + 10, nil
	})
	require.NoError(t, err)
	require.Equal(t, DefaultStartingBalance+10, balance)
}

func TestUpdateBalanceMutateErrorAborts(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.EnsureAccount(10, 1, "Alice", "")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.UpdateBalance(10, 1, func(int) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	account, err := s.Account(10, 1)
	require.NoError(t, err)
	require.Equal(t, DefaultStartingBalance, account.Balance)
}

func TestTransferBalancesBothOrNeither(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.EnsureAccount(10, 1, "Alice", "")
	require.NoError(t, err)
	_, err = s.EnsureAccount(10, 2, "Bob", "")
	require.NoError(t, err)

	senderNew, recipientNew, err := s.TransferBalances(10, 1, 2, 30, 10,
		func(senderBalance, recipientBalance int) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 20, senderNew)
	require.Equal(t, 60, recipientNew)

	boom := errors.New("boom")
	_, _, err = s.TransferBalances(10, 1, 2, 10, 3,
		func(senderBalance, recipientBalance int) error { return boom })
	require.ErrorIs(t, err, boom)

	sender, err := s.Account(10, 1)
	require.NoError(t, err)
	recipient, err := s.Account(10, 2)
	require.NoError(t, err)
	require.Equal(t, 20, sender.Balance)
	require.Equal(t, 60, recipient.Balance)
}

func TestTransferBalancesValidateSeesCurrentValues(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.EnsureAccount(10, 1, "Alice", "")
	require.NoError(t, err)
	_, err = s.EnsureAccount(10, 2, "Bob", "")
	require.NoError(t, err)

	var seenSender, seenRecipient int
	_, _, err = s.TransferBalances(10, 1, 2, 0, 0,
		func(senderBalance, recipientBalance int) error {
			seenSender, seenRecipient = senderBalance, recipientBalance
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, DefaultStartingBalance, seenSender)
	require.Equal(t, DefaultStartingBalance, seenRecipient)
}

func TestAdminLevelRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	level, err := s.AdminLevel(10, 1)
	require.NoError(t, err)
	require.Equal(t, 0, level)

	require.NoError(t, s.SetAdminLevel(10, 1, 2))
	level, err = s.AdminLevel(10, 1)
	require.NoError(t, err)
	require.Equal(t, 2, level)

	require.NoError(t, s.RemoveAdminLevel(10, 1))
	level, err = s.AdminLevel(10, 1)
	require.NoError(t, err)
	require.Equal(t, 0, level)
}

func TestRaiseAdminLevelNeverDemotes(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetAdminLevel(10, 1, 2))
	require.NoError(t, s.RaiseAdminLevel(10, 1, 1))

	level, err := s.AdminLevel(10, 1)
	require.NoError(t, err)
	require.Equal(t, 2, level)

	require.NoError(t, s.RaiseAdminLevel(10, 2, 1))
	level, err = s.AdminLevel(10, 2)
	require.NoError(t, err)
	require.Equal(t, 1, level)
}

func TestGrantsFromLegacy(t *testing.T) {
	grants := grantsFromLegacy([]int64{1, 2}, []int64{10, 20})
	require.Len(t, grants, 4)
	for _, grant := range grants {
		require.Equal(t, 1, grant.Level)
	}

	require.Empty(t, grantsFromLegacy([]int64{1}, nil))
	require.Empty(t, grantsFromLegacy(nil, []int64{10}))
}

func TestTopAccountsOrdering(t *testing.T) {
	s := newTestStorage(t)

	for i, balance := range []int{40, 70, 70, 10} {
		userID := int64(i + 1)
		_, err := s.EnsureAccount(10, userID, "user", "")
		require.NoError(t, err)
		_, err = s.UpdateBalance(10, userID, func(int) (int, error) { return balance, nil })
		require.NoError(t, err)
	}

	accounts, err := s.TopAccounts(10, 10, 0)
	require.NoError(t, err)

	ids := make([]int64, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.UserID)
	}
	// 70/70 tie resolves in favor of the earlier join (user 2).
	require.Equal(t, []int64{2, 3, 1, 4}, ids)
}

func TestStartingBalanceDefaultAndOverride(t *testing.T) {
	s := newTestStorage(t)

	starting, err := s.StartingBalance(10)
	require.NoError(t, err)
	require.Equal(t, DefaultStartingBalance, starting)

	require.NoError(t, s.SetStartingBalance(10, 70))
	starting, err = s.StartingBalance(10)
	require.NoError(t, err)
	require.Equal(t, 70, starting)
}

func TestRatingInfoRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	info, err := s.RatingInfo(10)
	require.NoError(t, err)
	require.Empty(t, info)

	require.NoError(t, s.SetRatingInfo(10, "house rules"))
	info, err = s.RatingInfo(10)
	require.NoError(t, err)
	require.Equal(t, "house rules", info)
}
