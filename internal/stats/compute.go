package stats

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultThresholds are the percentile thresholds reported when the
// caller does not supply its own.
var DefaultThresholds = []int{1, 5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

var oneHundred = decimal.NewFromInt(100)

// cutoffRanks maps each threshold to the number of top-ranked traders it
// covers: floor(threshold/100 * totalTraders). Thresholds below one full
// trader produce an empty bucket rather than rounding up.
func cutoffRanks(thresholds []int, totalTraders int64) []int64 {
	ranks := make([]int64, len(thresholds))
	for i, th := range thresholds {
		ranks[i] = int64(th) * totalTraders / 100
	}
	return ranks
}

// sortedThresholds returns a defensively copied ascending threshold list
// with duplicates removed and out-of-range values rejected.
func sortedThresholds(thresholds []int) ([]int, error) {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}

	out := make([]int, 0, len(thresholds))
	seen := make(map[int]bool, len(thresholds))
	for _, th := range thresholds {
		if th < 1 || th > 100 {
			return nil, fmt.Errorf("threshold %d out of range [1,100]", th)
		}
		if !seen[th] {
			seen[th] = true
			out = append(out, th)
		}
	}
	sort.Ints(out)
	return out, nil
}

// rankRange formats the inclusive 1-based rank range of a bucket.
func rankRange(count int64) string {
	if count == 0 {
		return "0"
	}
	return fmt.Sprintf("1-%d", count)
}

// shareOf computes part/total as a percentage, 0 when total is zero.
func shareOf(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(oneHundred).InexactFloat64()
}
