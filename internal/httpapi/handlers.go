package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/renaobrien/elutio/internal/deposit"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/scan"
	"github.com/renaobrien/elutio/internal/storage"
)

// chainList accepts either a JSON array of chain ids or a single string.
type chainList []string

func (c *chainList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*c = nil
		if one != "" {
			*c = chainList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("chains must be a string or an array of strings")
	}
	*c = many
	return nil
}

type scanRequest struct {
	WalletAddress string    `json:"walletAddress"`
	Chains        chainList `json:"chains"`
	Chain         string    `json:"chain"`
}

type scanMetrics struct {
	TotalBalanceUSD    float64 `json:"totalBalanceUsd"`
	RecoverableUSD     float64 `json:"recoverableUsd"`
	PositionsUSD       float64 `json:"positionsUsd"`
	DustUSD            float64 `json:"dustUsd"`
	OpportunityCostUSD float64 `json:"opportunityCostUsd"`
	HygieneScore       int     `json:"hygieneScore"`
	TokensCount        int     `json:"tokensCount"`
	AlertCount         int     `json:"alertCount"`
	UnpricedCount      int     `json:"unpricedCount"`
	DormantCount       int     `json:"dormantCount"`
}

type scanResponse struct {
	Success      bool        `json:"success"`
	ScanID       string      `json:"scanId"`
	Metrics      scanMetrics `json:"metrics"`
	FailedChains []string    `json:"failedChains"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	chains := []string(req.Chains)
	if len(chains) == 0 && req.Chain != "" {
		chains = []string{req.Chain}
	}

	res, err := s.scanner.Scan(r.Context(), scan.Request{WalletAddress: req.WalletAddress, Chains: chains})
	if err != nil {
		var inputErr *scan.InputError
		switch {
		case errors.As(err, &inputErr):
			writeError(w, http.StatusBadRequest, inputErr.Reason)
		case errors.Is(err, scan.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Invalid scan request")
		default:
			s.log.Error().Err(err).Msg("scan failed")
			writeError(w, http.StatusInternalServerError, "Failed to scan wallet")
		}
		return
	}

	m := res.Metrics
	failed := res.FailedChains
	if failed == nil {
		failed = []string{}
	}
	writeJSON(w, http.StatusOK, scanResponse{
		Success: true,
		ScanID:  res.Scan.ID,
		Metrics: scanMetrics{
			TotalBalanceUSD:    m.TotalBalanceUSD,
			RecoverableUSD:     m.PrincipalUSD(),
			PositionsUSD:       m.PrincipalUSD(),
			DustUSD:            m.DustUSD,
			OpportunityCostUSD: m.OpportunityCostUSD,
			HygieneScore:       m.HygieneScore,
			TokensCount:        m.TokensCount,
			AlertCount:         m.AlertCount,
			UnpricedCount:      m.UnpricedCount(),
			DormantCount:       m.DormantCount,
		},
		FailedChains: failed,
	})
}

type scanSummary struct {
	ID              string   `json:"id"`
	WalletAddress   string   `json:"walletAddress"`
	Chains          []string `json:"chains"`
	TotalBalanceUSD float64  `json:"totalBalanceUsd"`
	RecoverableUSD  float64  `json:"recoverableUsd"`
	DustUSD         float64  `json:"dustUsd"`
	HygieneScore    int      `json:"hygieneScore"`
	AlertCount      int      `json:"alertCount"`
	TokensCount     int      `json:"tokensCount"`
	ScannedAt       int64    `json:"scannedAt"`
}

func summarize(sc *domain.WalletScan) scanSummary {
	chains := sc.Chains
	if chains == nil {
		chains = []string{}
	}
	return scanSummary{
		ID:              sc.ID,
		WalletAddress:   sc.WalletAddress,
		Chains:          chains,
		TotalBalanceUSD: sc.TotalBalanceUSD,
		RecoverableUSD:  sc.RecoverableUSD,
		DustUSD:         sc.DustUSD,
		HygieneScore:    sc.HygieneScore,
		AlertCount:      sc.AlertCount,
		TokensCount:     sc.TokensCount,
		ScannedAt:       sc.ScannedAt,
	}
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scanner.GetScan(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "scan")
		return
	}
	writeJSON(w, http.StatusOK, summarize(sc))
}

type tokenView struct {
	Chain                string   `json:"chain"`
	ContractAddress      string   `json:"contractAddress"`
	Symbol               string   `json:"symbol"`
	Name                 string   `json:"name"`
	Balance              string   `json:"balance"`
	Decimals             int      `json:"decimals"`
	LogoURL              string   `json:"logoUrl,omitempty"`
	PriceUSD             float64  `json:"priceUsd"`
	BalanceUSD           float64  `json:"balanceUsd"`
	LiquidityUSD         *float64 `json:"liquidityUsd"`
	PriceKnown           bool     `json:"priceKnown"`
	PriceSource          string   `json:"priceSource,omitempty"`
	Classification       string   `json:"classification"`
	HasUnlimitedApproval bool     `json:"hasUnlimitedApproval"`
	LastTransferAt       int64    `json:"lastTransferAt,omitempty"`
}

type tokensResponse struct {
	ScanID    string      `json:"scanId"`
	Threshold float64     `json:"threshold,omitempty"`
	Tokens    []tokenView `json:"tokens"`
}

// handleGetTokens re-buckets with the display threshold unless the query
// names one; threshold=0 returns the labels assigned at scan time.
func (s *Server) handleGetTokens(w http.ResponseWriter, r *http.Request) {
	threshold := s.scanner.DisplayThreshold()
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "threshold must be a non-negative number")
			return
		}
		threshold = v
	}

	id := r.PathValue("id")
	tokens, err := s.scanner.GetTokens(r.Context(), id, threshold)
	if err != nil {
		s.writeStoreError(w, err, "scan")
		return
	}

	views := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, tokenView{
			Chain:                t.Chain,
			ContractAddress:      t.ContractAddress,
			Symbol:               t.Symbol,
			Name:                 t.Name,
			Balance:              t.Balance,
			Decimals:             t.Decimals,
			LogoURL:              t.LogoURL,
			PriceUSD:             t.PriceUSD,
			BalanceUSD:           t.BalanceUSD,
			LiquidityUSD:         t.LiquidityUSD,
			PriceKnown:           t.PriceKnown,
			PriceSource:          t.PriceSource,
			Classification:       string(t.Classification),
			HasUnlimitedApproval: t.HasUnlimitedApproval,
			LastTransferAt:       t.LastTransferAt,
		})
	}
	writeJSON(w, http.StatusOK, tokensResponse{ScanID: id, Threshold: threshold, Tokens: views})
}

func (s *Server) handleLatestScan(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scanner.LatestScan(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeStoreError(w, err, "scan")
		return
	}
	writeJSON(w, http.StatusOK, summarize(sc))
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	scans, err := s.scanner.ListScans(r.Context(), r.PathValue("address"), limit)
	if err != nil {
		s.writeStoreError(w, err, "scans")
		return
	}
	out := make([]scanSummary, 0, len(scans))
	for _, sc := range scans {
		out = append(out, summarize(sc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": out})
}

type assetView struct {
	Chain        string   `json:"chain"`
	TokenAddress string   `json:"tokenAddress"`
	TokenSymbol  string   `json:"tokenSymbol"`
	TokenName    string   `json:"tokenName"`
	Decimals     int      `json:"decimals"`
	AssetClass   string   `json:"assetClass"`
	Supported    bool     `json:"supported"`
	USDPrice     *float64 `json:"usdPrice"`
	LiquidityUSD *float64 `json:"liquidityUsd"`
	LogoURL      string   `json:"logoUrl,omitempty"`
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.AssetFilter{
		Chain:         q.Get("chain"),
		Search:        q.Get("search"),
		SupportedOnly: !strings.EqualFold(q.Get("supported"), "false"),
	}

	assets, err := s.assets.List(r.Context(), f)
	if err != nil {
		s.writeStoreError(w, err, "assets")
		return
	}
	out := make([]assetView, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetView{
			Chain:        a.Chain,
			TokenAddress: a.TokenAddress,
			TokenSymbol:  a.TokenSymbol,
			TokenName:    a.TokenName,
			Decimals:     a.DecimalsOrDefault(),
			AssetClass:   string(a.ClassOrDefault()),
			Supported:    a.IsSupported,
			USDPrice:     a.USDPrice,
			LiquidityUSD: a.LiquidityUSD,
			LogoURL:      a.LogoURL,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

func (s *Server) handleSupportedAssets(w http.ResponseWriter, r *http.Request) {
	sup, err := s.assets.SupportedByChain(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "supported tokens")
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *Server) handleValidateDeposit(w http.ResponseWriter, r *http.Request) {
	var req deposit.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, deposit.Result{Reason: "Invalid request body"})
		return
	}

	res, err := s.deposits.Validate(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Msg("deposit validation failed")
		writeJSON(w, http.StatusInternalServerError, deposit.Result{Reason: "Failed to fetch supported assets"})
		return
	}
	status := http.StatusOK
	if !res.Valid {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}
