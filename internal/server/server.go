// Package server exposes read-only informational HTTP endpoints over the
// persisted state: known tokens, bridged liquidity and health.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"bridge-transfer-indexer/internal/observability"
	"bridge-transfer-indexer/internal/storage"
)

// Server serves the informational endpoints.
type Server struct {
	tokens    storage.TokenStore
	transfers storage.TransferStore
	logger    *log.Logger
}

// New creates a new informational server.
func New(tokens storage.TokenStore, transfers storage.TransferStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		tokens:    tokens,
		transfers: transfers,
		logger:    logger,
	}
}

// Handler returns the HTTP mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tokens", s.handleTokens)
	mux.HandleFunc("GET /totalLiquidityForward", s.handleTotalLiquidity)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())
	return mux
}

// handleTokens lists every token known to the registry.
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.tokens.GetAll(r.Context())
	if err != nil {
		s.logger.Printf("Error listing tokens: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type tokenJSON struct {
		ContractAddr string `json:"contract_addr"`
		TokenName    string `json:"token_name"`
		TokenSym     string `json:"token_sym"`
		Decimals     uint32 `json:"decimals"`
	}

	out := make([]tokenJSON, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tokenJSON{
			ContractAddr: t.ContractAddr,
			TokenName:    t.Name,
			TokenSym:     t.Symbol,
			Decimals:     t.Decimals,
		})
	}
	writeJSON(w, s.logger, out)
}

// handleTotalLiquidity returns the per-token bridged liquidity summary.
func (s *Server) handleTotalLiquidity(w http.ResponseWriter, r *http.Request) {
	summary, err := s.transfers.LiquiditySummary(r.Context())
	if err != nil {
		s.logger.Printf("Error computing liquidity summary: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, summary)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Printf("Error encoding response: %v", err)
	}
}
