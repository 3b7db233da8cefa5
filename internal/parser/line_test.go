package parser

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-insights/internal/categorizer"
	"github.com/insightdelivered/statement-insights/internal/models"
)

func TestParseLine_SuffixMarker(t *testing.T) {
	p := NewLineParser(categorizer.Default(), false)

	txn, err := p.ParseLine("15-06-2024 UPI Payment to John 2,500.00(Dr)")
	require.NoError(t, err)

	assert.Equal(t, "15-06-2024", txn.Date)
	assert.Equal(t, "UPI Payment to John", txn.Description)
	assertAmount(t, "2500.00", txn.Amount)
	assert.Equal(t, models.Debit, txn.Type)
	assert.Equal(t, categorizer.UPI, txn.Category)
}

func TestParseLine(t *testing.T) {
	p := NewLineParser(categorizer.Default(), false)

	tests := []struct {
		name       string
		line       string
		wantDate   string
		wantDesc   string
		wantAmount string
		wantType   models.TxnType
	}{
		{
			name:       "slash date and credit keyword",
			line:       "15/06/2024 Salary credit 50,000.00",
			wantDate:   "15-06-2024",
			wantDesc:   "Salary",
			wantAmount: "50000",
			wantType:   models.Credit,
		},
		{
			name:       "trailing DR keyword",
			line:       "01-07-2024 AMAZON PAY 1,299.00 DR",
			wantDate:   "01-07-2024",
			wantDesc:   "AMAZON PAY",
			wantAmount: "1299",
			wantType:   models.Debit,
		},
		{
			name:       "suffix with space",
			line:       "01-07-2024 Refund 99.5 (Cr)",
			wantDate:   "01-07-2024",
			wantDesc:   "Refund",
			wantAmount: "99.5",
			wantType:   models.Credit,
		},
		{
			name:       "suffix beats keywords",
			line:       "01-07-2024 Credit card bill 5,000.00(Dr)",
			wantDate:   "01-07-2024",
			wantDesc:   "Credit card bill",
			wantAmount: "5000",
			wantType:   models.Debit,
		},
		{
			name:       "reference number is not the amount",
			line:       "02-07-2024 NEFT 123456 ACME 1,500.00 Cr",
			wantDate:   "02-07-2024",
			wantDesc:   "NEFT 123456 ACME",
			wantAmount: "1500",
			wantType:   models.Credit,
		},
		{
			name:       "indian grouping",
			line:       "03-07-2024 Debit transfer 1,00,000",
			wantDate:   "03-07-2024",
			wantDesc:   "transfer",
			wantAmount: "100000",
			wantType:   models.Debit,
		},
		{
			name:       "dash date has priority",
			line:       "01/07/2024 value 02-07-2024 Refund 100.00 Cr",
			wantDate:   "02-07-2024",
			wantDesc:   "01/07/2024 value Refund",
			wantAmount: "100",
			wantType:   models.Credit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := p.ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, txn.Date)
			assert.Equal(t, tt.wantDesc, txn.Description)
			assertAmount(t, tt.wantAmount, txn.Amount)
			assert.Equal(t, tt.wantType, txn.Type)
		})
	}
}

func TestParseLine_Rejects(t *testing.T) {
	p := NewLineParser(categorizer.Default(), false)

	tests := []struct {
		line string
		want error
	}{
		{"Opening balance 1,000.00 Cr", ErrNoDate},
		{"1-7-2024 Coffee 120.00 Dr", ErrNoDate},
		{"01-07-2024 Statement header", ErrNoAmount},
		{"01-07-2024 Coffee 120.00", ErrNoTypeMarker},
		{"01-07-2024 Credit card payment 5,000.00 Dr", ErrAmbiguousType},
		{"01-07-2024 DRAFT CREDITOR 10.00", ErrNoTypeMarker},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := p.ParseLine(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseLine_OCRCleanup(t *testing.T) {
	line := "03-07-2024 Zomato 1,250;50 Dr"

	txn, err := NewLineParser(categorizer.Default(), true).ParseLine(line)
	require.NoError(t, err)
	assertAmount(t, "1250.50", txn.Amount)
	assert.Equal(t, "Zomato", txn.Description)
	assert.Equal(t, categorizer.Food, txn.Category)
}

func TestParseLine_OCRTimeColumn(t *testing.T) {
	p := NewLineParser(categorizer.Default(), true)

	tests := []struct {
		line   string
		amount string
		typ    models.TxnType
	}{
		{"15-06-2024 10:30 Swiggy order 450.00 Dr", "450", models.Debit},
		{"15-06-2024 23:59:01 Swiggy order 450:00 Dr", "450", models.Debit},
		{"16-06-2024 9:15 Salary ACME 85,000.00 Cr", "85000", models.Credit},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			txn, err := p.ParseLine(tt.line)
			require.NoError(t, err)
			assertAmount(t, tt.amount, txn.Amount)
			assert.Equal(t, tt.typ, txn.Type)
		})
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	p := NewLineParser(categorizer.Default(), false)
	known := []models.Transaction{
		models.NewTransaction("05-08-2024", "Swiggy order", decimal.RequireFromString("249.5"), models.Debit, ""),
		models.NewTransaction("06-08-2024", "Salary ACME", decimal.RequireFromString("85000"), models.Credit, ""),
		models.NewTransaction("07-08-2024", "Electricity bill", decimal.RequireFromString("1234.56"), models.Debit, ""),
	}

	for _, want := range known {
		marker := "Dr"
		if want.Type == models.Credit {
			marker = "Cr"
		}
		line := fmt.Sprintf("%s %s %s(%s)", want.Date, want.Description, want.Amount.StringFixed(2), marker)

		got, err := p.ParseLine(line)
		require.NoError(t, err, line)
		assert.Equal(t, want.Date, got.Date)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Amount.StringFixed(2), got.Amount.StringFixed(2))
	}
}

func TestParseText(t *testing.T) {
	text := `ACME BANK STATEMENT
Date Description Amount

01-05-2024 Swiggy order 450.00(Dr)
02-05-2024 Salary 60,000.00(Cr)
03-05-2024 Credit card payment 2,000.00 Dr
`
	txns, skipped := NewLineParser(categorizer.Default(), false).ParseText(text)

	require.Len(t, txns, 2)
	assert.Equal(t, "Swiggy order", txns[0].Description)
	assert.Equal(t, models.Credit, txns[1].Type)

	require.Len(t, skipped, 3)
	assert.Equal(t, 1, skipped[0].Number)
	assert.ErrorIs(t, skipped[0].Err, ErrNoDate)
	assert.ErrorIs(t, skipped[1].Err, ErrNoDate)
	assert.Equal(t, 6, skipped[2].Number)
	assert.ErrorIs(t, skipped[2].Err, ErrAmbiguousType)
}
