// Package localdisk is the durable local-storage collaborator: two
// independent JSON documents, one for transactions and one for budgets,
// each under a distinct stable key inside a state directory.
package localdisk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/domain"
)

// Stable storage keys. Each key maps to one JSON file in the state dir.
const (
	KeyTransactions = "finsight_transactions"
	KeyBudgets      = "finsight_budgets"
)

// ErrUninitialized means the key has never been written. Callers seed
// default state in response.
var ErrUninitialized = errors.New("storage key uninitialized")

// ErrCorrupt means the persisted JSON failed to parse. Callers recover
// silently by falling back to seed state; the condition is logged, not
// surfaced destructively.
var ErrCorrupt = errors.New("storage corrupt")

// Storage reads and writes the two persisted documents.
type Storage struct {
	dir string
	log zerolog.Logger
}

// New creates the state directory if needed and returns a Storage
// rooted at it.
func New(dir string, log zerolog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localdisk.New: create state dir: %w", err)
	}
	return &Storage{dir: dir, log: log}, nil
}

// LoadTransactions reads the transaction document.
func (s *Storage) LoadTransactions() ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := s.load(KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// SaveTransactions implements store.Writer.
func (s *Storage) SaveTransactions(txs []domain.Transaction) error {
	return s.save(KeyTransactions, txs)
}

// LoadBudgets reads the budget document.
func (s *Storage) LoadBudgets() ([]domain.CategoryBudget, error) {
	var budgets []domain.CategoryBudget
	if err := s.load(KeyBudgets, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// SaveBudgets implements budget.Writer.
func (s *Storage) SaveBudgets(budgets []domain.CategoryBudget) error {
	return s.save(KeyBudgets, budgets)
}

func (s *Storage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Storage) load(key string, v interface{}) error {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localdisk: %q: %w", key, ErrUninitialized)
	}
	if err != nil {
		return fmt.Errorf("localdisk: read %q: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Persisted state failed to parse, falling back to defaults")
		return fmt.Errorf("localdisk: %q: %w", key, ErrCorrupt)
	}
	return nil
}

// save writes via a temp file and rename so a crash mid-write never
// leaves a half-written document behind.
func (s *Storage) save(key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("localdisk: marshal %q: %w", key, err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("localdisk: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("localdisk: finalize %q: %w", key, err)
	}
	return nil
}
