package cost

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eufmd/pprcost/pkg/scenario"
	"github.com/eufmd/pprcost/pkg/validation"
)

// PoliticalMultiplier maps a stability index onto its bracket: the multiplier
// at the position of the smallest threshold strictly greater than index, or
// the last multiplier when index is at or above every threshold.
func PoliticalMultiplier(index decimal.Decimal, thresholds, multipliers []decimal.Decimal) (decimal.Decimal, error) {
	if len(multipliers) != len(thresholds)+1 {
		return decimal.Zero, validation.NewConfigError(validation.LevelSchema, "political_stability.multipliers",
			fmt.Sprintf("need %d multipliers for %d thresholds, got %d", len(thresholds)+1, len(thresholds), len(multipliers)))
	}
	for i, t := range thresholds {
		if t.GreaterThan(index) {
			return multipliers[i], nil
		}
	}
	return multipliers[len(multipliers)-1], nil
}

// DeliveryMultiplier looks up the multiplier of the selected channel.
func DeliveryMultiplier(channel scenario.DeliveryChannel, table map[scenario.DeliveryChannel]decimal.Decimal) (decimal.Decimal, error) {
	m, ok := table[channel]
	if !ok {
		return decimal.Zero, validation.NewConfigError(validation.LevelSchema, fmt.Sprintf("delivery.multipliers.%s", channel),
			fmt.Sprintf("no delivery multiplier for channel %q", channel))
	}
	return m, nil
}
