package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dvloznov/finsight/internal/domain"
)

// forecastHistoryLimit caps how much transaction history is sent to the
// model.
const forecastHistoryLimit = 50

// GenerateForecast analyzes recent spending and produces next month's
// outlook, grounded with Google Search. On any failure the fallback
// forecast is returned alongside the error so callers can degrade
// without blocking the rest of the tracker.
func (c *Client) GenerateForecast(ctx context.Context, txs []domain.Transaction, now time.Time) (domain.Forecast, error) {
	recent := txs
	if len(recent) > forecastHistoryLimit {
		recent = recent[:forecastHistoryLimit]
	}

	var history strings.Builder
	for _, tx := range recent {
		fmt.Fprintf(&history, "%s: %s - $%.2f (%s) [%s]\n", tx.Date, tx.Description, tx.Amount, tx.Category, tx.Type)
	}

	prompt := fmt.Sprintf(
		"Act as a Senior Financial Advisor. Analyze these recent transactions and provide a forecast for the upcoming month.\n\n"+
			"Use Google Search to factor in:\n"+
			"1. Current inflation trends (specifically for food, fuel, or rent).\n"+
			"2. Upcoming seasonal spending patterns based on the current date (assume today is %s).\n"+
			"3. Any economic news that might affect consumer spending.\n\n"+
			"Transactions:\n%s\n"+
			"Return a JSON object exactly with these keys:\n"+
			"{\n"+
			"  \"predictedSpendNextMonth\": number,\n"+
			"  \"savingsPotential\": number,\n"+
			"  \"advice\": [\"Actionable tip 1\", \"Actionable tip 2\", \"Actionable tip 3\"],\n"+
			"  \"riskFactor\": \"Low\" | \"Medium\" | \"High\",\n"+
			"  \"anomalies\": [\"Explanation of unusual spending found\"]\n"+
			"}",
		now.Format("2006-01-02"), history.String())

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
		// No thinking budget: the dashboard wants a fast answer.
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(0))},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return domain.FallbackForecast(), fmt.Errorf("GenerateForecast: generate content: %w", err)
	}

	raw, err := ExtractJSON(resp.Text())
	if err != nil {
		return domain.FallbackForecast(), fmt.Errorf("GenerateForecast: %w", err)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.FallbackForecast(), fmt.Errorf("GenerateForecast: %w", domain.ErrMalformedResponse)
	}

	forecast := reconcileForecast(obj)
	forecast.SearchSources = SourcesFromResponse(resp)
	return forecast, nil
}

// reconcileForecast validates the forecast fields one by one. Missing
// or mistyped fields fall back to safe defaults rather than failing the
// whole forecast.
func reconcileForecast(obj map[string]interface{}) domain.Forecast {
	f := domain.Forecast{
		RiskFactor:    domain.RiskLow,
		Advice:        []string{},
		Anomalies:     []string{},
		SearchSources: []domain.Source{},
	}

	f.PredictedSpendNextMonth = nonNegativeNumber(obj["predictedSpendNextMonth"])
	f.SavingsPotential = nonNegativeNumber(obj["savingsPotential"])
	f.Advice = stringSlice(obj["advice"])
	f.Anomalies = stringSlice(obj["anomalies"])

	if v, ok := obj["riskFactor"].(string); ok {
		if r := domain.RiskFactor(v); r.Valid() {
			f.RiskFactor = r
		}
	}
	return f
}

func nonNegativeNumber(v interface{}) float64 {
	n, ok := v.(float64)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// stringSlice keeps the well-typed entries of a JSON array, preserving
// their order.
func stringSlice(v interface{}) []string {
	out := []string{}
	items, ok := v.([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
