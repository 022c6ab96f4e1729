package domain

// Categories is the closed set of labels shared by transactions and
// budgets. The order is the display order.
var Categories = []string{
	"Food & Drink",
	"Housing",
	"Transportation",
	"Entertainment",
	"Shopping",
	"Health",
	"Income",
	"Utilities",
	"Other",
}

// CategoryIncome is the one category that never carries a budget.
const CategoryIncome = "Income"

// KnownCategory reports whether name is a member of the closed set.
// Matching is exact: no trimming, no case folding, no fuzzy matching.
func KnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// ExpenseCategories returns every category that can carry a budget,
// i.e. all categories except Income.
func ExpenseCategories() []string {
	out := make([]string, 0, len(Categories)-1)
	for _, c := range Categories {
		if c != CategoryIncome {
			out = append(out, c)
		}
	}
	return out
}
