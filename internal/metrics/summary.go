package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/renaobrien/elutio/internal/domain"
)

// Opportunity cost parameters.
const (
	OpportunityAPY          = 0.07
	UnpricedFloorUSDPerItem = 1.0
)

// Summarize computes the derived metrics of a classified token list.
// Sums are taken over values in ascending order so that any permutation of
// tokens yields bit-identical totals.
func Summarize(tokens []*domain.PricedToken, now time.Time) domain.ScanMetrics {
	var (
		all, core, recoverable, dust, unsafe []float64
		m                                    domain.ScanMetrics
	)

	for _, t := range tokens {
		usd := math.Max(0, t.BalanceUSD)
		all = append(all, usd)
		label := t.Classification.Canonical()

		switch label {
		case domain.ClassificationCore:
			core = append(core, usd)
		case domain.ClassificationDust:
			dust = append(dust, usd)
		case domain.ClassificationUnsafe:
			unsafe = append(unsafe, usd)
			m.AlertCount++
		case domain.ClassificationRecoverable:
			if t.PriceKnown {
				recoverable = append(recoverable, usd)
			}
		}

		if !t.PriceKnown {
			switch label {
			case domain.ClassificationRecoverable:
				m.UnpricedRecoverable++
			case domain.ClassificationDust:
				m.UnpricedDust++
			default:
				m.UnpricedOther++
			}
		}

		if IsDormant(t.LastTransferAt, now) {
			m.DormantCount++
		}
	}

	m.TotalBalanceUSD = sumSorted(all)
	m.CoreUSD = sumSorted(core)
	m.RecoverableUSD = sumSorted(recoverable)
	m.DustUSD = sumSorted(dust)
	m.UnsafeUSD = sumSorted(unsafe)
	m.TokensCount = len(tokens)
	m.HygieneScore = HygieneScore(tokens)
	m.OpportunityCostUSD = OpportunityCost(m.DustUSD, m.RecoverableUSD, m.UnpricedCount())
	return m
}

// OpportunityCost estimates yearly yield forgone on idle principal. Each
// unpriced token contributes a conservative one-dollar floor.
func OpportunityCost(dustUSD, recoverableUSD float64, unpriced int) float64 {
	principal := dustUSD + recoverableUSD + UnpricedFloorUSDPerItem*float64(unpriced)
	return math.Floor(OpportunityAPY * principal)
}

// TotalUSD sums token balances the same way Summarize does.
func TotalUSD(tokens []*domain.PricedToken) float64 {
	values := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		values = append(values, math.Max(0, t.BalanceUSD))
	}
	return sumSorted(values)
}

func sumSorted(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return sum
}
