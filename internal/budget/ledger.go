// Package budget owns the category-to-monthly-limit mapping.
package budget

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/domain"
)

// Writer mirrors the ledger to durable storage. Implementations must be
// synchronous: when SaveBudgets returns, the state survives a reload.
type Writer interface {
	SaveBudgets(budgets []domain.CategoryBudget) error
}

// Ledger holds one CategoryBudget per category, in a stable order.
// All mutations are persisted through the Writer before they are
// considered accepted.
type Ledger struct {
	mu      sync.RWMutex
	budgets []domain.CategoryBudget
	writer  Writer
	log     zerolog.Logger
}

// NewLedger wraps an already-loaded budget list. Call Seed first when
// storage had nothing persisted.
func NewLedger(budgets []domain.CategoryBudget, writer Writer, log zerolog.Logger) *Ledger {
	copied := make([]domain.CategoryBudget, len(budgets))
	copy(copied, budgets)
	return &Ledger{budgets: copied, writer: writer, log: log}
}

// Seed returns the first-run defaults: one budget per non-income
// category at the default limit. It is the caller's job to invoke this
// exactly once, when no persisted state exists; seeding never runs over
// user edits.
func Seed() []domain.CategoryBudget {
	cats := domain.ExpenseCategories()
	out := make([]domain.CategoryBudget, 0, len(cats))
	for _, c := range cats {
		out = append(out, domain.CategoryBudget{Category: c, Limit: domain.DefaultBudgetLimit})
	}
	return out
}

// Upsert updates the limit for category in place, or appends a new
// entry when none exists. Duplicate keys are impossible by
// construction. Invalid input is rejected before any state changes, so
// the prior value survives.
func (l *Ledger) Upsert(category string, limit float64) error {
	if !domain.KnownCategory(category) {
		return fmt.Errorf("budget.Upsert: %q: %w", category, domain.ErrUnknownCategory)
	}
	if category == domain.CategoryIncome {
		return &domain.ValidationError{Field: "category", Reason: "income does not carry a budget"}
	}
	if math.IsNaN(limit) || math.IsInf(limit, 0) {
		return &domain.ValidationError{Field: "limit", Reason: "must be a finite number"}
	}
	if limit < 0 {
		return &domain.ValidationError{Field: "limit", Reason: "must not be negative"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing := -1
	var priorLimit float64
	for i := range l.budgets {
		if l.budgets[i].Category == category {
			existing = i
			priorLimit = l.budgets[i].Limit
			l.budgets[i].Limit = limit
			break
		}
	}
	if existing == -1 {
		l.budgets = append(l.budgets, domain.CategoryBudget{Category: category, Limit: limit})
	}

	if err := l.persistLocked(); err != nil {
		// Roll back so memory never runs ahead of durable state.
		if existing >= 0 {
			l.budgets[existing].Limit = priorLimit
		} else {
			l.budgets = l.budgets[:len(l.budgets)-1]
		}
		return fmt.Errorf("budget.Upsert: persist: %w", err)
	}

	l.log.Info().Str("category", category).Float64("limit", limit).Msg("Budget updated")
	return nil
}

// Snapshot returns a copy of the current budget list.
func (l *Ledger) Snapshot() []domain.CategoryBudget {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.CategoryBudget, len(l.budgets))
	copy(out, l.budgets)
	return out
}

func (l *Ledger) persistLocked() error {
	if l.writer == nil {
		return nil
	}
	copied := make([]domain.CategoryBudget, len(l.budgets))
	copy(copied, l.budgets)
	return l.writer.SaveBudgets(copied)
}
