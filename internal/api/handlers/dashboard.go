package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/budget"
	"github.com/dvloznov/finsight/internal/stats"
	"github.com/dvloznov/finsight/internal/store"
)

const (
	// defaultTrendWindow matches the dashboard's 14-bucket trend line.
	defaultTrendWindow = 14

	// dashboardAlertCount is how many budget alerts the dashboard shows.
	dashboardAlertCount = 3
)

// DashboardHandler serves the derived aggregation views. It owns no
// state of its own; every response is recomputed from the current log
// and ledger.
type DashboardHandler struct {
	store  *store.Store
	ledger *budget.Ledger
	now    func() time.Time
	log    zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(store *store.Store, ledger *budget.Ledger, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, ledger: ledger, now: time.Now, log: log}
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	txs := h.store.List()
	month := h.now().Format("2006-01")

	progress := stats.ComputeBudgetProgress(txs, h.ledger.Snapshot(), month)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totals":    stats.ComputeTotals(txs),
		"breakdown": stats.ComputeCategoryBreakdown(txs),
		"alerts":    stats.TopAlerts(progress, dashboardAlertCount),
		"trend":     stats.ComputeTrend(txs, defaultTrendWindow),
	})
}

// GetTrend handles GET /api/trend?window=N
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	window := defaultTrendWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = n
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"trend": stats.ComputeTrend(h.store.List(), window),
	})
}
