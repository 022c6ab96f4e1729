package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finsight/internal/domain"
)

func TestWriteCSV(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "a1", Description: "Monthly Rent", Amount: 1200, Date: "2024-05-01", Category: "Housing", Type: domain.TypeExpense},
		{ID: "b2", Description: "Freelance Payment", Amount: 2500.5, Date: "2024-05-10", Category: "Income", Type: domain.TypeIncome},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	want := "ID,Description,Amount,Date,Category,Type\n" +
		"a1,\"Monthly Rent\",1200.00,2024-05-01,Housing,expense\n" +
		"b2,\"Freelance Payment\",2500.50,2024-05-10,Income,income\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_QuoteEscaping(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "q", Description: `He said "hi"`, Amount: 5, Date: "2024-05-01", Category: "Other", Type: domain.TypeExpense},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	assert.Contains(t, buf.String(), `"He said ""hi"""`)

	// The escaped output must round-trip through a standard CSV reader.
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `He said "hi"`, records[1][1])
}

func TestWriteCSV_EmptyLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "ID,Description,Amount,Date,Category,Type\n", buf.String())
}

func TestWriteCSV_PreservesOrder(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "3", Description: "c", Amount: 1, Date: "2024-05-03", Category: "Other", Type: domain.TypeExpense},
		{ID: "1", Description: "a", Amount: 1, Date: "2024-05-01", Category: "Other", Type: domain.TypeExpense},
		{ID: "2", Description: "b", Amount: 1, Date: "2024-05-02", Category: "Other", Type: domain.TypeExpense},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "3,"))
	assert.True(t, strings.HasPrefix(lines[2], "1,"))
	assert.True(t, strings.HasPrefix(lines[3], "2,"))
}
