package points

// Tier labels, lowest to highest standing.
const (
	TierOutcast = "outcast"
	TierSuspect = "suspect"
	TierNeutral = "neutral"
	TierTrusted = "trusted"
	TierElite   = "elite"
)

// Neutral band for punishment mitigation: balances inside it neither
// soften nor harden moderation penalties.
const (
	neutralLow  = 40
	neutralHigh = 60

	maxMuteDeltaMinutes = 30
	maxWarnDeltaDays    = 3

	// Largest possible distance from the band on either side.
	maxBandDistance = neutralLow - MinBalance
)

type tierRange struct {
	upTo  int
	label string
}

// Ordered, non-overlapping ranges covering [MinBalance, MaxBalance].
var tierRanges = []tierRange{
	{upTo: 19, label: TierOutcast},
	{upTo: 39, label: TierSuspect},
	{upTo: 59, label: TierNeutral},
	{upTo: 79, label: TierTrusted},
	{upTo: MaxBalance, label: TierElite},
}

// Tier maps a balance to its qualitative standing. Out-of-range values
// clamp to the nearest boundary range instead of erroring.
func Tier(balance int) string {
	if balance < MinBalance {
		balance = MinBalance
	}
	if balance > MaxBalance {
		balance = MaxBalance
	}
	for _, r := range tierRanges {
		if balance <= r.upTo {
			return r.label
		}
	}
	return TierElite
}

// PunishmentAdjustment derives advisory corrections for an external
// moderation system from how far the balance sits outside the neutral
// band. Balances above it soften penalties (negative deltas), balances
// below harden them, each magnitude capped independently. Nothing in
// this core enforces the result.
func PunishmentAdjustment(balance int) (muteMinutesDelta, warnDaysDelta int) {
	if balance < MinBalance {
		balance = MinBalance
	}
	if balance > MaxBalance {
		balance = MaxBalance
	}

	var distance, sign int
	switch {
	case balance > neutralHigh:
		distance = balance - neutralHigh
		sign = -1
	case balance < neutralLow:
		distance = neutralLow - balance
		sign = 1
	default:
		return 0, 0
	}

	muteMinutesDelta = distance * maxMuteDeltaMinutes / maxBandDistance
	if muteMinutesDelta > maxMuteDeltaMinutes {
		muteMinutesDelta = maxMuteDeltaMinutes
	}
	warnDaysDelta = distance * maxWarnDeltaDays / maxBandDistance
	if warnDaysDelta > maxWarnDeltaDays {
		warnDaysDelta = maxWarnDeltaDays
	}

	return sign * muteMinutesDelta, sign * warnDaysDelta
}
