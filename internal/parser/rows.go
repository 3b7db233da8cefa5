package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// Recognized tabular field names. Matching is case-sensitive.
const (
	FieldDate        = "Date"
	FieldDescription = "Description"
	FieldDebit       = "Debit"
	FieldWithdrawal  = "Withdrawal"
	FieldCredit      = "Credit"
	FieldDeposit     = "Deposit"
	FieldAmount      = "Amount"
	FieldType        = "Type"
	FieldDrCr        = "Dr/Cr"
	FieldDRCR        = "DRCR"
)

var (
	debitFields  = []string{FieldDebit, FieldWithdrawal}
	creditFields = []string{FieldCredit, FieldDeposit}
	typeFields   = []string{FieldType, FieldDrCr, FieldDRCR}
)

// Row skip reasons. A skipped row is not an error for the batch.
var (
	ErrNoAmountField = errors.New("row has no debit, credit or amount value")
	ErrInvalidAmount = errors.New("row amount is not a number")
)

// SchemaKind classifies the column layout of a tabular statement.
type SchemaKind int

const (
	// SchemaUnrecognized has none of the amount columns.
	SchemaUnrecognized SchemaKind = iota
	// SchemaSplitColumns has Debit/Withdrawal and/or Credit/Deposit columns.
	SchemaSplitColumns
	// SchemaSignedAmount has a single Amount column whose sign gives the type.
	SchemaSignedAmount
	// SchemaTypedAmount has an Amount column plus a Type / Dr/Cr / DRCR column.
	SchemaTypedAmount
	// SchemaMixed has split columns and an Amount column.
	SchemaMixed
)

func (k SchemaKind) String() string {
	switch k {
	case SchemaSplitColumns:
		return "split-columns"
	case SchemaSignedAmount:
		return "signed-amount"
	case SchemaTypedAmount:
		return "typed-amount"
	case SchemaMixed:
		return "mixed"
	default:
		return "unrecognized"
	}
}

// Schema lists which recognized amount columns a statement carries. It is
// resolved once per batch from the header row.
type Schema struct {
	Kind         SchemaKind
	DebitFields  []string
	CreditFields []string
	HasAmount    bool
	TypeFields   []string
}

// DetectSchema inspects the header names of a statement.
func DetectSchema(headers []string) Schema {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	var s Schema
	for _, f := range debitFields {
		if present[f] {
			s.DebitFields = append(s.DebitFields, f)
		}
	}
	for _, f := range creditFields {
		if present[f] {
			s.CreditFields = append(s.CreditFields, f)
		}
	}
	for _, f := range typeFields {
		if present[f] {
			s.TypeFields = append(s.TypeFields, f)
		}
	}
	s.HasAmount = present[FieldAmount]

	split := len(s.DebitFields) > 0 || len(s.CreditFields) > 0
	switch {
	case split && s.HasAmount:
		s.Kind = SchemaMixed
	case split:
		s.Kind = SchemaSplitColumns
	case s.HasAmount && len(s.TypeFields) > 0:
		s.Kind = SchemaTypedAmount
	case s.HasAmount:
		s.Kind = SchemaSignedAmount
	default:
		s.Kind = SchemaUnrecognized
	}
	return s
}

// fullSchema is used for records normalized without a known header.
var fullSchema = Schema{
	Kind:         SchemaMixed,
	DebitFields:  debitFields,
	CreditFields: creditFields,
	HasAmount:    true,
	TypeFields:   typeFields,
}

// Categorizer assigns a category to a description of the given type.
type Categorizer interface {
	Categorize(description string, typ models.TxnType) string
}

// RowNormalizer turns tabular records into transactions.
type RowNormalizer struct {
	schema Schema
	cat    Categorizer
}

// NewRowNormalizer returns a normalizer bound to a batch schema. Pass the zero
// Schema to check every recognized column on every row.
func NewRowNormalizer(schema Schema, cat Categorizer) *RowNormalizer {
	if schema.Kind == SchemaUnrecognized && len(schema.DebitFields) == 0 &&
		len(schema.CreditFields) == 0 && !schema.HasAmount {
		schema = fullSchema
	}
	return &RowNormalizer{schema: schema, cat: cat}
}

// Normalize resolves one record. The first matching rule wins:
// debit columns, then credit columns, then Amount with a type indicator or
// its sign. A skipped record returns ErrNoAmountField or ErrInvalidAmount.
func (n *RowNormalizer) Normalize(record map[string]string) (models.Transaction, error) {
	amount, typ, err := n.resolve(record)
	if err != nil {
		return models.Transaction{}, err
	}

	date := record[FieldDate]
	desc := strings.TrimSpace(record[FieldDescription])
	return models.NewTransaction(date, desc, amount, typ, n.cat.Categorize(desc, typ)), nil
}

func (n *RowNormalizer) resolve(record map[string]string) (decimal.Decimal, models.TxnType, error) {
	for _, f := range n.schema.DebitFields {
		if v, ok := record[f]; ok && !isBlank(v) {
			amt, err := parseField(f, v)
			return amt.Abs(), models.Debit, err
		}
	}
	for _, f := range n.schema.CreditFields {
		if v, ok := record[f]; ok && !isBlank(v) {
			amt, err := parseField(f, v)
			return amt.Abs(), models.Credit, err
		}
	}

	if !n.schema.HasAmount {
		return decimal.Zero, "", ErrNoAmountField
	}
	v, ok := record[FieldAmount]
	if !ok || isBlank(v) {
		return decimal.Zero, "", ErrNoAmountField
	}
	amt, err := parseField(FieldAmount, v)
	if err != nil {
		return decimal.Zero, "", err
	}

	for _, f := range n.schema.TypeFields {
		indicator, ok := record[f]
		if !ok {
			continue
		}
		switch upper := strings.ToUpper(indicator); {
		case strings.Contains(upper, "DR"), strings.Contains(upper, "DEBIT"):
			return amt.Abs(), models.Debit, nil
		case strings.Contains(upper, "CR"), strings.Contains(upper, "CREDIT"):
			return amt.Abs(), models.Credit, nil
		}
	}

	if amt.IsNegative() {
		return amt.Abs(), models.Debit, nil
	}
	return amt, models.Credit, nil
}

func parseField(field, value string) (decimal.Decimal, error) {
	amt, err := parseAmount(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s=%q", ErrInvalidAmount, field, value)
	}
	return amt, nil
}

// SkippedRow records a record that produced no transaction.
type SkippedRow struct {
	Index int // zero-based data row index
	Err   error
}

// NormalizeRows normalizes a batch sharing one header. Skipped rows are
// reported, never fatal.
func NormalizeRows(headers []string, records []map[string]string, cat Categorizer) ([]models.Transaction, []SkippedRow) {
	n := NewRowNormalizer(DetectSchema(headers), cat)

	var txns []models.Transaction
	var skipped []SkippedRow
	for i, rec := range records {
		txn, err := n.Normalize(rec)
		if err != nil {
			skipped = append(skipped, SkippedRow{Index: i, Err: err})
			continue
		}
		txns = append(txns, txn)
	}
	return txns, skipped
}
