package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/insights"
	"github.com/insightdelivered/statement-insights/internal/models"
)

// CSVWriter writes transactions and category reports as CSV.
type CSVWriter struct {
	// IncludeHeader adds "# key,value" summary rows before the table when a
	// summary is given.
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, txns []models.Transaction, summary *insights.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.WriteTransactions(f, txns, summary)
}

// WriteTransactions writes one row per transaction in input order.
func (w *CSVWriter) WriteTransactions(out io.Writer, txns []models.Transaction, summary *insights.Summary) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader && summary != nil {
		meta := [][]string{
			{"# Transactions", strconv.Itoa(len(txns))},
			{"# Total Debit", formatAmount(summary.TotalDebit)},
			{"# Total Credit", formatAmount(summary.TotalCredit)},
			{"# Top Category", summary.TopCategory},
			{"# Net Status", summary.NetStatus},
		}
		if summary.HighestSpendingMonth != nil {
			meta = append(meta, []string{"# Highest Spending Month", *summary.HighestSpendingMonth})
		}
		if err := writer.WriteAll(meta); err != nil {
			return fmt.Errorf("failed to write CSV metadata: %w", err)
		}
	}

	header := []string{"Date", "Description", "Type", "Category", "Amount"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range txns {
		row := []string{
			txn.Date,
			txn.Description,
			string(txn.Type),
			txn.Category,
			formatAmount(txn.Amount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCategoryReport writes the transactions of one type grouped by
// category in first-seen order, each group followed by a subtotal row, and
// a grand total row at the end.
func (w *CSVWriter) WriteCategoryReport(out io.Writer, txns []models.Transaction, typ models.TxnType) error {
	var order []string
	groups := make(map[string][]models.Transaction)
	for _, txn := range txns {
		if txn.Type != typ {
			continue
		}
		if _, ok := groups[txn.Category]; !ok {
			order = append(order, txn.Category)
		}
		groups[txn.Category] = append(groups[txn.Category], txn)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"Category", "Date", "Description", "Amount"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	grand := decimal.Zero
	for _, cat := range order {
		subtotal := decimal.Zero
		for _, txn := range groups[cat] {
			subtotal = subtotal.Add(txn.Amount)
			if err := writer.Write([]string{cat, txn.Date, txn.Description, formatAmount(txn.Amount)}); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		grand = grand.Add(subtotal)
		if err := writer.Write([]string{cat, "", "Subtotal", formatAmount(subtotal)}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if err := writer.Write([]string{"", "", "Grand Total", formatAmount(grand)}); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
