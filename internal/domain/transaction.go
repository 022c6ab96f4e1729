package domain

// TxType distinguishes money flowing in from money flowing out.
// Expenses subtract from the balance, income adds to it.
type TxType string

const (
	TypeExpense TxType = "expense"
	TypeIncome  TxType = "income"
)

// Valid reports whether t is one of the two known transaction types.
func (t TxType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// DefaultDescription is used when a transaction is logged without one.
const DefaultDescription = "Untitled Transaction"

// Transaction is one committed ledger entry. Records are immutable after
// creation; the store only ever appends or deletes them.
// The JSON layout matches the persisted document format.
type Transaction struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"` // always positive; sign comes from Type
	Date        string  `json:"date"`   // calendar date, "YYYY-MM-DD"
	Category    string  `json:"category"`
	Type        TxType  `json:"type"`
}

// CategoryBudget is the monthly spending cap for a single category.
// There is at most one per category, and none for Income.
type CategoryBudget struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"` // non-negative; 0 means no cap defined
}

// DefaultBudgetLimit seeds every non-income category on first run.
const DefaultBudgetLimit = 500

// Draft is an in-progress, unconfirmed transaction being edited. It is
// distinct from committed Transaction records: AI suggestions are merged
// into a Draft and only become a Transaction on explicit confirmation.
type Draft struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Type        TxType  `json:"type"`
}

// TransactionPatch carries the fields an AI parse managed to extract.
// Nil means "the model said nothing usable about this field"; applying a
// patch never clears a field the user already filled in.
type TransactionPatch struct {
	Amount      *float64 `json:"amount,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	Type        *TxType  `json:"type,omitempty"`
}

// Empty reports whether the patch carries no accepted fields at all.
func (p TransactionPatch) Empty() bool {
	return p.Amount == nil && p.Category == nil && p.Description == nil && p.Type == nil
}

// Apply merges the patch into a draft. Only non-nil fields overwrite;
// everything else is left untouched.
func (p TransactionPatch) Apply(d *Draft) {
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
}
