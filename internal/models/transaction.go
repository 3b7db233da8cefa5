package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxnType is the direction of a money movement.
type TxnType string

const (
	Debit  TxnType = "debit"
	Credit TxnType = "credit"
)

// Valid reports whether t is one of the two canonical types.
func (t TxnType) Valid() bool {
	return t == Debit || t == Credit
}

// DefaultCategory is assigned when no categorization rule matches.
const DefaultCategory = "Others"

// Transaction represents a single normalized statement transaction.
// Amount is never negative; the direction is carried by Type.
type Transaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TxnType         `json:"type"`
	Category    string          `json:"category"`
}

// NewTransaction builds a Transaction, trimming the description, dropping the
// sign of amount and defaulting an empty category.
func NewTransaction(date, description string, amount decimal.Decimal, typ TxnType, category string) Transaction {
	if category == "" {
		category = DefaultCategory
	}
	return Transaction{
		Date:        strings.TrimSpace(date),
		Description: strings.TrimSpace(description),
		Amount:      amount.Abs(),
		Type:        typ,
		Category:    category,
	}
}

// dateLayouts are the statement date formats we know how to read.
var dateLayouts = []string{
	"02-01-2006", // DD-MM-YYYY
	"02/01/2006", // DD/MM/YYYY
	"2006-01-02", // YYYY-MM-DD
}

// ParseDate tries each known statement layout in turn.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsedDate returns the transaction date as a calendar date, or false when
// the source date could not be read.
func (t Transaction) ParsedDate() (time.Time, bool) {
	return ParseDate(t.Date)
}

// Month returns the YYYY-MM key of the transaction date.
func (t Transaction) Month() (string, bool) {
	d, ok := t.ParsedDate()
	if !ok {
		return "", false
	}
	return d.Format("2006-01"), true
}
