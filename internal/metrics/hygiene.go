// Package metrics computes portfolio metrics over classified token lists.
// All functions are pure and independent of token order.
package metrics

import "github.com/renaobrien/elutio/internal/domain"

// Hygiene score penalties.
const (
	MaxHygieneScore    = 100
	DustPenalty        = 2
	MaxDustDeduction   = 30
	UnsafePenalty      = 10
	MaxUnsafeDeduction = 40
)

// HygieneScore returns 100 minus capped penalties for dust and unsafe tokens,
// clamped to [0, 100].
func HygieneScore(tokens []*domain.PricedToken) int {
	dust, unsafe := 0, 0
	for _, t := range tokens {
		switch t.Classification.Canonical() {
		case domain.ClassificationDust:
			dust++
		case domain.ClassificationUnsafe:
			unsafe++
		}
	}
	return HygieneScoreFromCounts(dust, unsafe)
}

// HygieneScoreFromCounts scores from dust and unsafe counts.
func HygieneScoreFromCounts(dust, unsafe int) int {
	score := MaxHygieneScore - min(DustPenalty*dust, MaxDustDeduction) - min(UnsafePenalty*unsafe, MaxUnsafeDeduction)
	return max(0, min(MaxHygieneScore, score))
}
