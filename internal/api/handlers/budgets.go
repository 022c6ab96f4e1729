package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/budget"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/stats"
	"github.com/dvloznov/finsight/internal/store"
)

// BudgetsHandler handles budget ledger endpoints.
type BudgetsHandler struct {
	ledger *budget.Ledger
	store  *store.Store
	now    func() time.Time
	log    zerolog.Logger
}

// NewBudgetsHandler creates a new budgets handler.
func NewBudgetsHandler(ledger *budget.Ledger, store *store.Store, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{ledger: ledger, store: store, now: time.Now, log: log}
}

// GetBudgets handles GET /api/budgets?month=YYYY-MM
//
// The response carries each budget with its month-to-date spend and the
// summary header figures. The month defaults to the current one.
func (h *BudgetsHandler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().Format("2006-01")
	}

	progress := stats.ComputeBudgetProgress(h.store.List(), h.ledger.Snapshot(), month)
	summary := stats.ComputeBudgetSummary(progress)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": progress,
		"summary": summary,
		"month":   month,
	})
}

// UpdateBudget handles PUT /api/budgets
func (h *BudgetsHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req domain.CategoryBudget
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ledger.Upsert(req.Category, req.Limit); err != nil {
		if domain.IsValidation(err) || errors.Is(err, domain.ErrUnknownCategory) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("category", req.Category).Msg("Failed to update budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": h.ledger.Snapshot(),
	})
}
