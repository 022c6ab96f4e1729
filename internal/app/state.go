// Package app loads persisted application state, seeding defaults on
// first run or when storage is unreadable.
package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/budget"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/store"
	"github.com/dvloznov/finsight/internal/store/localdisk"
)

// LoadState reads both persisted documents. A key that has never been
// written, or whose JSON is corrupt, yields seed state; the seeds are
// persisted immediately so seeding happens exactly once and later user
// edits are never overwritten. Corruption is recovered silently and
// logged, per the storage contract.
func LoadState(storage *localdisk.Storage, log zerolog.Logger) ([]domain.Transaction, []domain.CategoryBudget, error) {
	txs, err := storage.LoadTransactions()
	if err != nil {
		if !recoverable(err) {
			return nil, nil, fmt.Errorf("app.LoadState: transactions: %w", err)
		}
		log.Info().Msg("No usable transaction state, seeding sample data")
		txs = store.Seed()
		if err := storage.SaveTransactions(txs); err != nil {
			return nil, nil, fmt.Errorf("app.LoadState: persist seed transactions: %w", err)
		}
	}

	budgets, err := storage.LoadBudgets()
	if err != nil {
		if !recoverable(err) {
			return nil, nil, fmt.Errorf("app.LoadState: budgets: %w", err)
		}
		log.Info().Msg("No usable budget state, seeding defaults")
		budgets = budget.Seed()
		if err := storage.SaveBudgets(budgets); err != nil {
			return nil, nil, fmt.Errorf("app.LoadState: persist seed budgets: %w", err)
		}
	}

	return txs, budgets, nil
}

// recoverable distinguishes "fall back to seeds" from real I/O errors.
func recoverable(err error) bool {
	return errors.Is(err, localdisk.ErrUninitialized) || errors.Is(err, localdisk.ErrCorrupt)
}
