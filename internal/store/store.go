// Package store owns the in-memory transaction log and mirrors every
// accepted mutation to durable local storage.
package store

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/domain"
)

// Writer mirrors the log to durable storage. Saves are synchronous from
// the store's perspective so state is never lost between a mutation and
// a reload.
type Writer interface {
	SaveTransactions(txs []domain.Transaction) error
}

// Store is the sole owner of committed transactions. Records are
// immutable after creation; the only mutations are Add and Delete.
// Newest entries are kept first by convention.
type Store struct {
	mu     sync.RWMutex
	txs    []domain.Transaction
	writer Writer
	log    zerolog.Logger
}

// New wraps an already-loaded transaction list.
func New(txs []domain.Transaction, writer Writer, log zerolog.Logger) *Store {
	copied := make([]domain.Transaction, len(txs))
	copy(copied, txs)
	return &Store{txs: copied, writer: writer, log: log}
}

// Seed returns the built-in sample transactions used when storage is
// uninitialized.
func Seed() []domain.Transaction {
	return []domain.Transaction{
		{ID: "1", Description: "Monthly Rent", Amount: 1200, Date: "2023-10-01", Category: "Housing", Type: domain.TypeExpense},
		{ID: "2", Description: "Grocery Store Run", Amount: 85.50, Date: "2023-10-03", Category: "Food & Drink", Type: domain.TypeExpense},
		{ID: "3", Description: "Gas Station", Amount: 45.00, Date: "2023-10-05", Category: "Transportation", Type: domain.TypeExpense},
		{ID: "4", Description: "Freelance Payment", Amount: 2500, Date: "2023-10-10", Category: "Income", Type: domain.TypeIncome},
		{ID: "5", Description: "Netflix Subscription", Amount: 15.99, Date: "2023-10-12", Category: "Entertainment", Type: domain.TypeExpense},
		{ID: "6", Description: "Coffee Shop", Amount: 5.75, Date: "2023-10-15", Category: "Food & Drink", Type: domain.TypeExpense},
	}
}

// Add validates the draft, assigns an ID and commits it at the head of
// the log. Validation failures block the commit and change nothing.
func (s *Store) Add(d domain.Draft) (domain.Transaction, error) {
	if err := validateDraft(d); err != nil {
		return domain.Transaction{}, err
	}

	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = domain.DefaultDescription
	}

	tx := domain.Transaction{
		ID:          uuid.New().String(),
		Description: desc,
		Amount:      d.Amount,
		Date:        d.Date,
		Category:    d.Category,
		Type:        d.Type,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = append([]domain.Transaction{tx}, s.txs...)
	if err := s.persistLocked(); err != nil {
		// Roll back so memory never runs ahead of durable state.
		s.txs = s.txs[1:]
		return domain.Transaction{}, fmt.Errorf("store.Add: persist: %w", err)
	}

	s.log.Info().
		Str("id", tx.ID).
		Str("category", tx.Category).
		Str("type", string(tx.Type)).
		Float64("amount", tx.Amount).
		Msg("Transaction committed")
	return tx, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tx := range s.txs {
		if tx.ID == id {
			remaining := make([]domain.Transaction, 0, len(s.txs)-1)
			remaining = append(remaining, s.txs[:i]...)
			remaining = append(remaining, s.txs[i+1:]...)

			prior := s.txs
			s.txs = remaining
			if err := s.persistLocked(); err != nil {
				s.txs = prior
				return fmt.Errorf("store.Delete: persist: %w", err)
			}
			s.log.Info().Str("id", id).Msg("Transaction deleted")
			return nil
		}
	}
	return fmt.Errorf("store.Delete: transaction %s: %w", id, domain.ErrNotFound)
}

// List returns a copy of the log, newest first.
func (s *Store) List() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Filter returns the transactions whose description or category
// contains query (case-insensitive) and whose type matches typ. An
// empty query matches everything; typ "all" or "" disables the type
// filter. Order is preserved.
func (s *Store) Filter(query, typ string) []domain.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if q != "" &&
			!strings.Contains(strings.ToLower(tx.Description), q) &&
			!strings.Contains(strings.ToLower(tx.Category), q) {
			continue
		}
		if typ != "" && typ != "all" && string(tx.Type) != typ {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (s *Store) persistLocked() error {
	if s.writer == nil {
		return nil
	}
	copied := make([]domain.Transaction, len(s.txs))
	copy(copied, s.txs)
	return s.writer.SaveTransactions(copied)
}

func validateDraft(d domain.Draft) error {
	if math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) || d.Amount <= 0 {
		return &domain.ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return &domain.ValidationError{Field: "date", Reason: "must be a calendar date in YYYY-MM-DD form"}
	}
	if !domain.KnownCategory(d.Category) {
		return &domain.ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not a known category", d.Category)}
	}
	if !d.Type.Valid() {
		return &domain.ValidationError{Field: "type", Reason: "must be expense or income"}
	}
	return nil
}
