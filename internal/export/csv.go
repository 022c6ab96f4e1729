// Package export renders the transaction log for download.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/finsight/internal/domain"
)

// csvHeader is the fixed first row of every export.
const csvHeader = "ID,Description,Amount,Date,Category,Type"

// WriteCSV streams transactions as CSV in the given order. The
// description field is always double-quoted with internal quotes
// doubled; the other fields never contain commas or quotes. Amounts are
// written with two decimal places.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	if _, err := io.WriteString(w, csvHeader+"\n"); err != nil {
		return fmt.Errorf("export.WriteCSV: write header: %w", err)
	}

	for _, tx := range txs {
		desc := strings.ReplaceAll(tx.Description, `"`, `""`)
		_, err := fmt.Fprintf(w, "%s,\"%s\",%.2f,%s,%s,%s\n",
			tx.ID, desc, tx.Amount, tx.Date, tx.Category, tx.Type)
		if err != nil {
			return fmt.Errorf("export.WriteCSV: write row: %w", err)
		}
	}
	return nil
}
