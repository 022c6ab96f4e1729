// Package handlers implements the HTTP API surface. Each handler type
// wraps the domain components it needs; routing and method dispatch
// live in cmd/api.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
)

// TransactionsHandler handles transaction log endpoints.
type TransactionsHandler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store *store.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// ListTransactions handles GET /api/transactions?q=&type=
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	typ := r.URL.Query().Get("type")

	txs := h.store.Filter(query, typ)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.store.Add(draft)
	if err != nil {
		if domain.IsValidation(err) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to commit transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if strings.TrimSpace(id) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Transaction %s not found", id))
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
