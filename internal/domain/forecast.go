package domain

// RiskFactor grades the forecasted overspend risk for next month.
type RiskFactor string

const (
	RiskLow    RiskFactor = "Low"
	RiskMedium RiskFactor = "Medium"
	RiskHigh   RiskFactor = "High"
)

// Valid reports whether r is one of the three known risk grades.
func (r RiskFactor) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Source is a grounding citation the model used to justify part of its
// forecast.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Forecast is the AI spending outlook for the upcoming month. It is
// derived on demand and never persisted.
type Forecast struct {
	PredictedSpendNextMonth float64    `json:"predictedSpendNextMonth"`
	SavingsPotential        float64    `json:"savingsPotential"`
	Advice                  []string   `json:"advice"`
	RiskFactor              RiskFactor `json:"riskFactor"`
	Anomalies               []string   `json:"anomalies"`
	SearchSources           []Source   `json:"searchSources"`
}

// FallbackForecast is returned when the model is unreachable or its
// output cannot be reconciled. The tracker stays usable without AI.
func FallbackForecast() Forecast {
	return Forecast{
		Advice:        []string{"Connect your bank or add more transactions for better AI forecasting."},
		RiskFactor:    RiskLow,
		Anomalies:     []string{},
		SearchSources: []Source{},
	}
}
