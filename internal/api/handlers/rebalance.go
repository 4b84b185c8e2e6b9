package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/execution"
	"github.com/wonny/aegis-sri/internal/portfolio"
	"github.com/wonny/aegis-sri/internal/rebalance"
	"github.com/wonny/aegis-sri/pkg/logger"
)

// Previewer runs a rebalance; the handler only ever asks for dry runs
type Previewer interface {
	Run(ctx context.Context, cfg rebalance.RunConfig) (*rebalance.RunResult, error)
}

// RunStore reads journaled runs
type RunStore interface {
	GetRun(ctx context.Context, runID string) (*execution.RunRecord, error)
	GetOrdersByRun(ctx context.Context, runID string) ([]contracts.SubmittedOrder, error)
	GetThemes(ctx context.Context, runID string) ([]contracts.Theme, error)
}

// RebalanceHandler handles holdings and plan preview endpoints
// ⭐ SSOT: 리밸런스 API 핸들러는 이 구조체에서만
type RebalanceHandler struct {
	account   contracts.AccountSource
	previewer Previewer
	catalog   portfolio.Catalog
	runs      RunStore // nil when no database is configured
	logger    *logger.Logger
}

// NewRebalanceHandler creates a new rebalance handler
func NewRebalanceHandler(account contracts.AccountSource, previewer Previewer, catalog portfolio.Catalog, runs RunStore, log *logger.Logger) *RebalanceHandler {
	return &RebalanceHandler{
		account:   account,
		previewer: previewer,
		catalog:   catalog,
		runs:      runs,
		logger:    log,
	}
}

// GetThemes returns the theme catalog
// GET /api/themes
func (h *RebalanceHandler) GetThemes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"themes": h.catalog,
	})
}

// GetHoldings returns the account and its theme holdings
// GET /api/holdings
func (h *RebalanceHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := h.account.GetAccount(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get account")
		respondError(w, http.StatusBadGateway, "Failed to retrieve account")
		return
	}

	positions, err := h.account.ListPositions(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get positions")
		respondError(w, http.StatusBadGateway, "Failed to retrieve positions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"account":        account,
		"available_cash": account.AvailableCash(),
		"positions":      positions,
		"report":         rebalance.BuildCatalogReport(h.catalog, positions, account.Equity),
	})
}

// PlanRequest is the body of a plan preview
type PlanRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Allocations map[string]int   `json:"allocations"`
}

// PostPlan computes a rebalance without submitting any order
// POST /api/plan
func (h *RebalanceHandler) PostPlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.previewer.Run(r.Context(), rebalance.RunConfig{
		RunID:      uuid.NewString(),
		Allocation: portfolio.Allocation(req.Allocations),
		Amount:     req.Amount,
		DryRun:     true,
	})
	if err != nil {
		if errors.Is(err, contracts.ErrAllocationExceeded) || errors.Is(err, contracts.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Plan preview failed")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRun returns a journaled run with its theme targets and orders
// GET /api/runs/{id}
func (h *RebalanceHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Run journal is not configured")
		return
	}

	ctx := r.Context()
	runID := mux.Vars(r)["id"]

	run, err := h.runs.GetRun(ctx, runID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	orders, err := h.runs.GetOrdersByRun(ctx, runID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run orders")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	themes, err := h.runs.GetThemes(ctx, runID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run themes")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve theme targets")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":    run,
		"themes": themes,
		"orders": orders,
	})
}
