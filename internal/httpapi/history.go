package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/renaobrien/elutio/internal/lookup"
)

type priceView struct {
	PriceUSD     float64  `json:"priceUsd"`
	LiquidityUSD *float64 `json:"liquidityUsd"`
	Source       string   `json:"source"`
	ScanID       string   `json:"scanId"`
	ObservedAt   int64    `json:"observedAt"`
}

type priceHistoryResponse struct {
	Chain        string      `json:"chain"`
	TokenAddress string      `json:"tokenAddress"`
	At           *priceView  `json:"at,omitempty"`
	Observations []priceView `json:"observations"`
}

// handlePriceHistory lists recorded prices of a token. With ?at=<ms> it also
// reports the observation in effect at that time. The native asset is
// addressed with "native".
func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "Price history is not enabled")
		return
	}

	chain := strings.ToLower(r.PathValue("chain"))
	token := r.PathValue("token")
	if token == "native" {
		token = ""
	} else if strings.HasPrefix(token, "0x") {
		token = strings.ToLower(token)
	}

	var at int64
	hasAt := false
	if raw := r.URL.Query().Get("at"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "at must be a unix time in milliseconds")
			return
		}
		at, hasAt = v, true
	}

	obs, err := s.history.GetByToken(r.Context(), chain, token)
	if err != nil {
		s.writeStoreError(w, err, "price history")
		return
	}

	resp := priceHistoryResponse{Chain: chain, TokenAddress: token, Observations: make([]priceView, 0, len(obs))}
	for _, o := range obs {
		resp.Observations = append(resp.Observations, priceView{
			PriceUSD:     o.PriceUSD,
			LiquidityUSD: o.LiquidityUSD,
			Source:       o.Source,
			ScanID:       o.ScanID,
			ObservedAt:   o.ObservedAt,
		})
	}

	if hasAt {
		o, err := lookup.ObservationAt(at, obs)
		if errors.Is(err, lookup.ErrNoPriceData) {
			writeError(w, http.StatusNotFound, "No price data for token")
			return
		}
		liq, _ := lookup.LiquidityAt(at, obs)
		resp.At = &priceView{
			PriceUSD:     o.PriceUSD,
			LiquidityUSD: liq,
			Source:       o.Source,
			ScanID:       o.ScanID,
			ObservedAt:   o.ObservedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
