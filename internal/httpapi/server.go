// Package httpapi exposes scans, the asset registry and deposit validation
// over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/renaobrien/elutio/internal/deposit"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/observability"
	"github.com/renaobrien/elutio/internal/registry"
	"github.com/renaobrien/elutio/internal/scan"
	"github.com/renaobrien/elutio/internal/storage"
	"github.com/renaobrien/elutio/internal/treasury"
)

const maxBodyBytes = 1 << 20

// Scanner runs and reads scans.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (*scan.Result, error)
	GetScan(ctx context.Context, id string) (*domain.WalletScan, error)
	GetTokens(ctx context.Context, id string, thresholdUSD float64) ([]*domain.PricedToken, error)
	DisplayThreshold() float64
	LatestScan(ctx context.Context, wallet string) (*domain.WalletScan, error)
	ListScans(ctx context.Context, wallet string, limit int) ([]*domain.WalletScan, error)
}

// Assets reads the asset registry.
type Assets interface {
	List(ctx context.Context, f storage.AssetFilter) ([]*domain.Asset, error)
	SupportedByChain(ctx context.Context) (*registry.Supported, error)
}

// DepositValidator validates deposit requests.
type DepositValidator interface {
	Validate(ctx context.Context, req deposit.Request) (*deposit.Result, error)
}

// TreasuryStats reports the treasury dust estimate.
type TreasuryStats interface {
	Stats(ctx context.Context) (*treasury.Stats, error)
}

// Options for creating a Server.
type Options struct {
	Scanner     Scanner
	Assets      Assets
	Deposits    DepositValidator
	History     storage.PriceObservationStore // optional
	Treasury    TreasuryStats                 // optional
	AllowOrigin string                        // CORS origin, "*" when empty
	Log         zerolog.Logger
}

// Server serves the JSON API.
type Server struct {
	scanner  Scanner
	assets   Assets
	deposits DepositValidator
	history  storage.PriceObservationStore
	treasury TreasuryStats
	origin   string
	log      zerolog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	origin := opts.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	return &Server{
		scanner:  opts.Scanner,
		assets:   opts.Assets,
		deposits: opts.Deposits,
		history:  opts.History,
		treasury: opts.Treasury,
		origin:   origin,
		log:      opts.Log.With().Str("component", "httpapi").Logger(),
	}
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("GET /api/scans/{id}", s.handleGetScan)
	mux.HandleFunc("GET /api/scans/{id}/tokens", s.handleGetTokens)
	mux.HandleFunc("GET /api/wallets/{address}/latest", s.handleLatestScan)
	mux.HandleFunc("GET /api/wallets/{address}/scans", s.handleListScans)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)
	mux.HandleFunc("GET /api/assets/supported", s.handleSupportedAssets)
	mux.HandleFunc("POST /api/deposits/validate", s.handleValidateDeposit)
	mux.HandleFunc("GET /api/prices/{chain}/{token}", s.handlePriceHistory)
	mux.HandleFunc("GET /api/treasury-stats", s.handleTreasuryStats)

	return s.withCORS(s.withLogging(mux))
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ev := s.log.Debug()
		if rec.status >= http.StatusInternalServerError {
			ev = s.log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps read errors: missing records are 404, the rest 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.log.Error().Err(err).Str("resource", what).Msg("read failed")
	writeError(w, http.StatusInternalServerError, "Failed to load "+what)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
