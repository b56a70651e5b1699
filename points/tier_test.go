package points

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTierRanges(t *testing.T) {
	cases := []struct {
		balance int
		label   string
	}{
		{0, TierOutcast},
		{19, TierOutcast},
		{20, TierSuspect},
		{39, TierSuspect},
		{40, TierNeutral},
		{59, TierNeutral},
		{60, TierTrusted},
		{79, TierTrusted},
		{80, TierElite},
		{100, TierElite},
	}

	for _, c := range cases {
		require.Equal(t, c.label, Tier(c.balance), "balance %d", c.balance)
	}
}

func TestTierClampsOutOfRange(t *testing.T) {
	require.Equal(t, TierOutcast, Tier(-5))
	require.Equal(t, TierElite, Tier(150))
}

func TestPunishmentAdjustmentNeutralBand(t *testing.T) {
	for _, balance := range []int{40, 50, 60} {
		mute, warn := PunishmentAdjustment(balance)
		require.Zero(t, mute, "balance %d", balance)
		require.Zero(t, warn, "balance %d", balance)
	}
}

func TestPunishmentAdjustmentDirectionAndCaps(t *testing.T) {
	// High standing softens penalties, low standing hardens them.
	mute, warn := PunishmentAdjustment(100)
	require.Equal(t, -30, mute)
	require.Equal(t, -3, warn)

	mute, warn = PunishmentAdjustment(0)
	require.Equal(t, 30, mute)
	require.Equal(t, 3, warn)

	mute, warn = PunishmentAdjustment(70)
	require.Equal(t, -7, mute)
	require.Equal(t, 0, warn)

	mute, warn = PunishmentAdjustment(30)
	require.Equal(t, 7, mute)
	require.Equal(t, 0, warn)
}

func TestPunishmentAdjustmentClampsInput(t *testing.T) {
	beyondMute, beyondWarn := PunishmentAdjustment(500)
	atMaxMute, atMaxWarn := PunishmentAdjustment(MaxBalance)
	require.Equal(t, atMaxMute, beyondMute)
	require.Equal(t, atMaxWarn, beyondWarn)
}
