package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/ai"
	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
)

// Gateway is the slice of the AI client the handlers need. A nil
// Gateway means AI features are disabled; every endpoint then degrades
// to its no-op response instead of erroring.
type Gateway interface {
	ParseTransactionInput(ctx context.Context, input string) (domain.TransactionPatch, error)
	GenerateForecast(ctx context.Context, txs []domain.Transaction, now time.Time) (domain.Forecast, error)
}

// AIHandler handles the assistant endpoints: natural-language parsing,
// category suggestion and the spending forecast.
type AIHandler struct {
	gateway   Gateway
	suggester *ai.Suggester
	store     *store.Store
	now       func() time.Time
	log       zerolog.Logger
}

// NewAIHandler creates a new AI handler. gateway and suggester may be
// nil when no API key is configured.
func NewAIHandler(gateway Gateway, suggester *ai.Suggester, store *store.Store, log zerolog.Logger) *AIHandler {
	return &AIHandler{gateway: gateway, suggester: suggester, store: store, now: time.Now, log: log}
}

// Parse handles POST /api/ai/parse
//
// A model failure is not an error to the caller: the response is an
// empty patch and the draft stays as the user typed it. There are no
// retries.
func (h *AIHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Input == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Input is required")
		return
	}

	patch := domain.TransactionPatch{}
	if h.gateway != nil {
		var err error
		patch, err = h.gateway.ParseTransactionInput(r.Context(), req.Input)
		if err != nil {
			h.log.Warn().Err(err).Msg("Transaction parse degraded to empty patch")
			patch = domain.TransactionPatch{}
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"patch": patch,
	})
}

// Suggest handles GET /api/ai/suggest?q=
//
// Requests race through the suggester so a stale description never
// overrides the suggestion for a newer one.
func (h *AIHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	if h.suggester == nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"category": "", "ok": false})
		return
	}

	category, ok, err := h.suggester.Resolve(r.Context(), q)
	if err != nil {
		h.log.Warn().Err(err).Msg("Category suggestion degraded to none")
		category, ok = "", false
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"ok":       ok,
	})
}

// Forecast handles POST /api/ai/forecast
//
// Failures return the neutral fallback forecast with HTTP 200; the
// dashboard always has something to render.
func (h *AIHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	forecast := domain.FallbackForecast()

	if h.gateway != nil {
		f, err := h.gateway.GenerateForecast(r.Context(), h.store.List(), h.now())
		if err != nil {
			h.log.Warn().Err(err).Msg("Forecast degraded to fallback")
		} else {
			forecast = f
		}
	}

	middleware.WriteJSON(w, http.StatusOK, forecast)
}
