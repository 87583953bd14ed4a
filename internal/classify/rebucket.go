package classify

import "github.com/renaobrien/elutio/internal/domain"

// Rebucket recomputes display buckets for a user-chosen dust threshold.
// Core and unsafe tokens keep their label; every other token becomes dust
// below the threshold and recoverable otherwise. The input is not modified.
func Rebucket(tokens []*domain.PricedToken, thresholdUSD float64) []*domain.PricedToken {
	out := make([]*domain.PricedToken, len(tokens))
	for i, t := range tokens {
		cp := *t
		cp.Classification = RebucketLabel(t.Classification, t.BalanceUSD, thresholdUSD)
		out[i] = &cp
	}
	return out
}

// RebucketLabel is the per-token rule used by Rebucket.
func RebucketLabel(current domain.Classification, usdValue, thresholdUSD float64) domain.Classification {
	switch current.Canonical() {
	case domain.ClassificationCore, domain.ClassificationUnsafe:
		return current.Canonical()
	}
	if usdValue < thresholdUSD {
		return domain.ClassificationDust
	}
	return domain.ClassificationRecoverable
}
