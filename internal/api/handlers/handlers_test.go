package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finsight/internal/ai"
	"github.com/dvloznov/finsight/internal/budget"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.Seed(), nil, zerolog.Nop())
}

func newTestLedger(t *testing.T) *budget.Ledger {
	t.Helper()
	return budget.NewLedger(budget.Seed(), nil, zerolog.Nop())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListTransactions(t *testing.T) {
	h := NewTransactionsHandler(newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	h.ListTransactions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(6), body["count"])
}

func TestListTransactions_Filtered(t *testing.T) {
	h := NewTransactionsHandler(newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?q=coffee&type=expense", nil)
	rec := httptest.NewRecorder()
	h.ListTransactions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestCreateTransaction(t *testing.T) {
	s := newTestStore(t)
	h := NewTransactionsHandler(s, zerolog.Nop())

	payload := `{"description":"Bus ticket","amount":3.20,"date":"2024-05-01","category":"Transportation","type":"expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var tx domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "Bus ticket", tx.Description)
	assert.Len(t, s.List(), 7)
	assert.Equal(t, tx.ID, s.List()[0].ID, "new record goes to the head of the log")
}

func TestCreateTransaction_ValidationBlocksCommit(t *testing.T) {
	s := newTestStore(t)
	h := NewTransactionsHandler(s, zerolog.Nop())

	payload := `{"description":"Bad","amount":-5,"date":"2024-05-01","category":"Other","type":"expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, s.List(), 6, "rejected draft must not be committed")
}

func TestCreateTransaction_MalformedBody(t *testing.T) {
	h := NewTransactionsHandler(newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestStore(t)
	h := NewTransactionsHandler(s, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.DeleteTransaction(rec, httptest.NewRequest(http.MethodDelete, "/api/transactions/3", nil), "3")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, s.List(), 5)
}

func TestDeleteTransaction_NotFound(t *testing.T) {
	h := NewTransactionsHandler(newTestStore(t), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.DeleteTransaction(rec, httptest.NewRequest(http.MethodDelete, "/api/transactions/nope", nil), "nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBudgets_MonthDefaultsAndProgress(t *testing.T) {
	s := newTestStore(t)
	h := NewBudgetsHandler(newTestLedger(t), s, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2023, 10, 20, 0, 0, 0, 0, time.UTC) }

	req := httptest.NewRequest(http.MethodGet, "/api/budgets", nil)
	rec := httptest.NewRecorder()
	h.GetBudgets(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "2023-10", body["month"])

	budgets := body["budgets"].([]interface{})
	assert.Len(t, budgets, len(domain.Categories)-1)

	// Seed data spends 1200 on Housing in 2023-10 against a 500 limit.
	var housing map[string]interface{}
	for _, raw := range budgets {
		b := raw.(map[string]interface{})
		if b["category"] == "Housing" {
			housing = b
		}
	}
	require.NotNil(t, housing)
	assert.Equal(t, 1200.0, housing["actual"])
	assert.Equal(t, 240.0, housing["percentage"])
}

func TestGetBudgets_ExplicitMonth(t *testing.T) {
	h := NewBudgetsHandler(newTestLedger(t), newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/budgets?month=2024-01", nil)
	rec := httptest.NewRecorder()
	h.GetBudgets(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "2024-01", body["month"])

	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, 0.0, summary["totalSpent"], "no seed transactions fall in 2024-01")
}

func TestUpdateBudget(t *testing.T) {
	ledger := newTestLedger(t)
	h := NewBudgetsHandler(ledger, newTestStore(t), zerolog.Nop())

	payload := `{"category":"Food & Drink","limit":750}`
	req := httptest.NewRequest(http.MethodPut, "/api/budgets", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.UpdateBudget(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, b := range ledger.Snapshot() {
		if b.Category == "Food & Drink" {
			assert.Equal(t, 750.0, b.Limit)
		}
	}
}

func TestUpdateBudget_RejectsUnknownCategory(t *testing.T) {
	h := NewBudgetsHandler(newTestLedger(t), newTestStore(t), zerolog.Nop())

	payload := `{"category":"Crypto","limit":100}`
	req := httptest.NewRequest(http.MethodPut, "/api/budgets", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.UpdateBudget(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDashboard(t *testing.T) {
	h := NewDashboardHandler(newTestStore(t), newTestLedger(t), zerolog.Nop())
	h.now = func() time.Time { return time.Date(2023, 10, 20, 0, 0, 0, 0, time.UTC) }

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	totals := body["totals"].(map[string]interface{})
	assert.Equal(t, 2500.0, totals["totalIncome"])
	assert.InDelta(t, 1352.24, totals["totalExpense"], 0.001)

	alerts := body["alerts"].([]interface{})
	assert.Len(t, alerts, 3)
	first := alerts[0].(map[string]interface{})
	assert.Equal(t, "Housing", first["category"], "most-exceeded budget leads the alerts")
}

func TestGetTrend_WindowParam(t *testing.T) {
	h := NewDashboardHandler(newTestStore(t), newTestLedger(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/trend?window=2", nil)
	rec := httptest.NewRecorder()
	h.GetTrend(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	trend := body["trend"].([]interface{})
	assert.Len(t, trend, 2, "window caps the bucket count")

	last := trend[1].(map[string]interface{})
	assert.Equal(t, "2023-10-15", last["date"])
}

func TestGetTrend_RejectsBadWindow(t *testing.T) {
	h := NewDashboardHandler(newTestStore(t), newTestLedger(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/trend?window=zero", nil)
	rec := httptest.NewRecorder()
	h.GetTrend(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// fakeGateway implements Gateway for handler tests.
type fakeGateway struct {
	patch    domain.TransactionPatch
	parseErr error

	forecast    domain.Forecast
	forecastErr error
}

func (f *fakeGateway) ParseTransactionInput(ctx context.Context, input string) (domain.TransactionPatch, error) {
	return f.patch, f.parseErr
}

func (f *fakeGateway) GenerateForecast(ctx context.Context, txs []domain.Transaction, now time.Time) (domain.Forecast, error) {
	if f.forecastErr != nil {
		return domain.FallbackForecast(), f.forecastErr
	}
	return f.forecast, nil
}

func TestParse_ReturnsPatch(t *testing.T) {
	amount := 12.5
	category := "Food & Drink"
	gw := &fakeGateway{patch: domain.TransactionPatch{Amount: &amount, Category: &category}}
	h := NewAIHandler(gw, nil, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse", strings.NewReader(`{"input":"lunch for 12.50"}`))
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	patch := body["patch"].(map[string]interface{})
	assert.Equal(t, 12.5, patch["amount"])
	assert.Equal(t, "Food & Drink", patch["category"])
}

func TestParse_ModelFailureDegradesToEmptyPatch(t *testing.T) {
	gw := &fakeGateway{parseErr: errors.New("model unavailable")}
	h := NewAIHandler(gw, nil, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse", strings.NewReader(`{"input":"lunch"}`))
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "AI failure must not surface as an HTTP error")
	body := decodeBody(t, rec)
	assert.Empty(t, body["patch"], "degraded parse carries no fields")
}

func TestParse_DisabledGateway(t *testing.T) {
	h := NewAIHandler(nil, nil, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse", strings.NewReader(`{"input":"lunch"}`))
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["patch"])
}

func TestParse_RequiresInput(t *testing.T) {
	h := NewAIHandler(&fakeGateway{}, nil, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggest(t *testing.T) {
	suggester := ai.NewSuggester(
		func(ctx context.Context, description string) (string, bool, error) {
			return "Health", true, nil
		},
		nil, time.Millisecond, 3, zerolog.Nop())
	h := NewAIHandler(nil, suggester, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/ai/suggest?q=pharmacy", nil)
	rec := httptest.NewRecorder()
	h.Suggest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Health", body["category"])
	assert.Equal(t, true, body["ok"])
}

func TestSuggest_ShortInput(t *testing.T) {
	suggester := ai.NewSuggester(
		func(ctx context.Context, description string) (string, bool, error) {
			t.Fatal("must not be called for short input")
			return "", false, nil
		},
		nil, time.Millisecond, 3, zerolog.Nop())
	h := NewAIHandler(nil, suggester, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/ai/suggest?q=ab", nil)
	rec := httptest.NewRecorder()
	h.Suggest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["ok"])
}

func TestSuggest_Disabled(t *testing.T) {
	h := NewAIHandler(nil, nil, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/ai/suggest?q=pharmacy", nil)
	rec := httptest.NewRecorder()
	h.Suggest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["ok"])
}

func TestForecast(t *testing.T) {
	gw := &fakeGateway{forecast: domain.Forecast{
		PredictedSpendNextMonth: 1340,
		RiskFactor:              domain.RiskMedium,
		Advice:                  []string{"Trim discretionary spending."},
	}}
	h := NewAIHandler(gw, nil, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/forecast", nil)
	rec := httptest.NewRecorder()
	h.Forecast(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var f domain.Forecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, 1340.0, f.PredictedSpendNextMonth)
	assert.Equal(t, domain.RiskMedium, f.RiskFactor)
}

func TestForecast_FailureReturnsFallback(t *testing.T) {
	gw := &fakeGateway{forecastErr: errors.New("model unavailable")}
	h := NewAIHandler(gw, nil, newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/forecast", nil)
	rec := httptest.NewRecorder()
	h.Forecast(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var f domain.Forecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, domain.FallbackForecast(), f)
}

func TestExportCSV(t *testing.T) {
	h := NewExportHandler(newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	rec := httptest.NewRecorder()
	h.ExportCSV(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transactions.csv")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	assert.Equal(t, "ID,Description,Amount,Date,Category,Type", lines[0])
	assert.Len(t, lines, 7)
	assert.Contains(t, lines[1], `"Monthly Rent"`)
}

func TestExportCSV_Filtered(t *testing.T) {
	h := NewExportHandler(newTestStore(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv?type=income", nil)
	rec := httptest.NewRecorder()
	h.ExportCSV(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"Freelance Payment"`)
}
