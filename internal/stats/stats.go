// Package stats is the aggregation engine: pure, stateless functions
// that derive dashboard figures from a transaction log, the budget
// ledger and a reference date. Every function is deterministic given
// its inputs and has no side effects.
package stats

import (
	"sort"

	"github.com/dvloznov/finsight/internal/domain"
)

// Totals are the headline dashboard numbers.
type Totals struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	Balance      float64 `json:"balance"`
	SavingsRate  float64 `json:"savingsRate"` // percent, clamped at 0
}

// ComputeTotals sums income and expenses over the whole log.
// The savings rate is floored at zero: months where spending exceeds
// income report 0%, never a negative rate.
func ComputeTotals(txs []domain.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			t.TotalIncome += tx.Amount
		case domain.TypeExpense:
			t.TotalExpense += tx.Amount
		}
	}
	t.Balance = t.TotalIncome - t.TotalExpense
	if t.TotalIncome > 0 {
		rate := (t.TotalIncome - t.TotalExpense) / t.TotalIncome * 100
		if rate > 0 {
			t.SavingsRate = rate
		}
	}
	return t
}

// CategoryTotal is one slice of the expense breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// ComputeCategoryBreakdown sums expense amounts per category, sorted
// descending by amount for display. Income transactions are excluded.
func ComputeCategoryBreakdown(txs []domain.Transaction) []CategoryTotal {
	sums := make(map[string]float64)
	for _, tx := range txs {
		if tx.Type == domain.TypeExpense {
			sums[tx.Category] += tx.Amount
		}
	}

	out := make([]CategoryTotal, 0, len(sums))
	for cat, amount := range sums {
		out = append(out, CategoryTotal{Category: cat, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// BudgetStatus is one budget with its actual spend for the reference
// month attached.
type BudgetStatus struct {
	Category   string  `json:"category"`
	Limit      float64 `json:"limit"`
	Actual     float64 `json:"actual"`
	Percentage float64 `json:"percentage"`
}

// ComputeBudgetProgress derives actual-vs-limit per budget for the
// calendar month containing referenceDate ("YYYY-MM-DD" or "YYYY-MM").
// The month filter is a string-prefix match on "YYYY-MM": calendar
// boundaries, not a rolling 30-day window. A zero limit means the cap
// is undefined, so its percentage is 0 rather than a division by zero.
func ComputeBudgetProgress(txs []domain.Transaction, budgets []domain.CategoryBudget, referenceDate string) []BudgetStatus {
	month := referenceDate
	if len(month) > 7 {
		month = month[:7]
	}

	monthly := make(map[string]float64)
	for _, tx := range txs {
		if tx.Type == domain.TypeExpense && len(tx.Date) >= 7 && tx.Date[:7] == month {
			monthly[tx.Category] += tx.Amount
		}
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		s := BudgetStatus{
			Category: b.Category,
			Limit:    b.Limit,
			Actual:   monthly[b.Category],
		}
		if b.Limit > 0 {
			s.Percentage = s.Actual / b.Limit * 100
		}
		out = append(out, s)
	}
	return out
}

// TopAlerts returns the n budgets closest to (or past) their limit,
// sorted descending by percentage. Used for the dashboard alert strip.
func TopAlerts(progress []BudgetStatus, n int) []BudgetStatus {
	sorted := make([]BudgetStatus, len(progress))
	copy(sorted, progress)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage > sorted[j].Percentage
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// BudgetSummary aggregates the budget view header figures.
type BudgetSummary struct {
	TotalBudget float64 `json:"totalBudget"`
	TotalSpent  float64 `json:"totalSpent"`
}

// ComputeBudgetSummary sums limits and month-to-date actuals across all
// budgets.
func ComputeBudgetSummary(progress []BudgetStatus) BudgetSummary {
	var s BudgetSummary
	for _, b := range progress {
		s.TotalBudget += b.Limit
		s.TotalSpent += b.Actual
	}
	return s
}

// TrendPoint is one bucket of the income/expense trend line.
type TrendPoint struct {
	Date    string  `json:"date"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// ComputeTrend groups transactions by exact date string, sorts the
// buckets ascending, and keeps only the most recent windowSize buckets.
// Days with no transactions produce no bucket: a sparse calendar yields
// a sparse, compressed trend line rather than a dense zero-filled axis.
func ComputeTrend(txs []domain.Transaction, windowSize int) []TrendPoint {
	byDate := make(map[string]*TrendPoint)
	for _, tx := range txs {
		p, ok := byDate[tx.Date]
		if !ok {
			p = &TrendPoint{Date: tx.Date}
			byDate[tx.Date] = p
		}
		switch tx.Type {
		case domain.TypeIncome:
			p.Income += tx.Amount
		case domain.TypeExpense:
			p.Expense += tx.Amount
		}
	}

	out := make([]TrendPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	if windowSize > 0 && len(out) > windowSize {
		out = out[len(out)-windowSize:]
	}
	return out
}
