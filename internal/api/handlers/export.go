package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/export"
	"github.com/dvloznov/finsight/internal/store"
)

// ExportHandler streams the transaction log as a CSV download.
type ExportHandler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(store *store.Store, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{store: store, log: log}
}

// ExportCSV handles GET /api/export/csv?q=&type=
//
// The same filters as the transaction list apply, so what the user sees
// is what the file contains.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	txs := h.store.Filter(r.URL.Query().Get("q"), r.URL.Query().Get("type"))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	if err := export.WriteCSV(w, txs); err != nil {
		// Headers are already out; all we can do is log.
		h.log.Error().Err(err).Msg("CSV export aborted mid-stream")
	}
}
