// Package lookup answers point-in-time questions over recorded price
// observations.
package lookup

import (
	"errors"

	"github.com/renaobrien/elutio/internal/domain"
)

// ErrNoPriceData is returned when there are no observations to look in.
var ErrNoPriceData = errors.New("no price data available")

// ObservationAt returns the closest observation at or before target (ms).
// When every observation is later than target the first one is returned.
// obs must be ordered by ObservedAt ascending.
func ObservationAt(target int64, obs []*domain.PriceObservation) (*domain.PriceObservation, error) {
	if len(obs) == 0 {
		return nil, ErrNoPriceData
	}

	for i := len(obs) - 1; i >= 0; i-- {
		if obs[i].ObservedAt <= target {
			return obs[i], nil
		}
	}
	return obs[0], nil
}

// PriceAt returns the USD price at or before target.
func PriceAt(target int64, obs []*domain.PriceObservation) (float64, error) {
	o, err := ObservationAt(target, obs)
	if err != nil {
		return 0, err
	}
	return o.PriceUSD, nil
}

// LiquidityAt returns the most recent known liquidity at or before target.
// Observations without liquidity are skipped; (nil, nil) means none was
// recorded before target.
func LiquidityAt(target int64, obs []*domain.PriceObservation) (*float64, error) {
	if len(obs) == 0 {
		return nil, ErrNoPriceData
	}

	for i := len(obs) - 1; i >= 0; i-- {
		if obs[i].ObservedAt <= target && obs[i].LiquidityUSD != nil {
			v := *obs[i].LiquidityUSD
			return &v, nil
		}
	}
	return nil, nil
}
