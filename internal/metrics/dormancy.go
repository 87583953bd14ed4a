package metrics

import "time"

// DormancyTier buckets holdings by months since their last transfer.
type DormancyTier string

const (
	DormancyUnknown DormancyTier = "unknown"
	DormancyActive  DormancyTier = "active"
	DormancyStale   DormancyTier = "stale"
	DormancyEntropy DormancyTier = "entropy"
)

const (
	staleAfterMonths   = 8
	entropyAfterMonths = 12
	monthLength        = 30 * 24 * time.Hour
)

// MonthsSince returns whole 30-day months between lastMs and now.
func MonthsSince(lastMs int64, now time.Time) int {
	if lastMs <= 0 {
		return 0
	}
	d := now.Sub(time.UnixMilli(lastMs))
	if d <= 0 {
		return 0
	}
	return int(d / monthLength)
}

// Dormancy returns the tier of a holding last moved at lastMs.
// A zero timestamp means no transfer data.
func Dormancy(lastMs int64, now time.Time) DormancyTier {
	if lastMs <= 0 {
		return DormancyUnknown
	}
	months := MonthsSince(lastMs, now)
	switch {
	case months >= entropyAfterMonths:
		return DormancyEntropy
	case months >= staleAfterMonths:
		return DormancyStale
	default:
		return DormancyActive
	}
}

// IsDormant reports whether a holding sits in the entropy tier.
func IsDormant(lastMs int64, now time.Time) bool {
	return Dormancy(lastMs, now) == DormancyEntropy
}
