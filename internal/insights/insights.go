// Package insights reduces a statement's transactions to totals per type,
// category, month and merchant, plus a few derived indicators.
package insights

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/categorizer"
	"github.com/insightdelivered/statement-insights/internal/models"
)

// DefaultLargeThreshold is the amount at or above which a transaction of
// either type counts as large.
var DefaultLargeThreshold = decimal.NewFromInt(5000)

// NoCategory is reported as the top category when nothing was spent.
const NoCategory = "—"

const (
	Saver   = "Saver"
	Spender = "Spender"
)

var hundred = decimal.NewFromInt(100)

// Options configure Aggregate. The zero value uses CreditByKeyword and
// DefaultLargeThreshold.
type Options struct {
	CreditPolicy   categorizer.CreditPolicy
	LargeThreshold decimal.Decimal
}

// MerchantTotal is the debit activity for one merchant.
type MerchantTotal struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Summary is the aggregate of one statement.
type Summary struct {
	TotalExpense          decimal.Decimal                       `json:"total_expense"`
	TotalDebit            decimal.Decimal                       `json:"total_debit"`
	TotalCredit           decimal.Decimal                       `json:"total_credit"`
	TopCategory           string                                `json:"top_category"`
	CategoryTotals        map[string]decimal.Decimal            `json:"category_totals"`
	CategoryPercentages   map[string]decimal.Decimal            `json:"category_percentages"`
	MonthlyExpense        map[string]decimal.Decimal            `json:"monthly_expense"`
	MonthlyCredit         map[string]decimal.Decimal            `json:"monthly_credit"`
	MonthlyCategory       map[string]map[string]decimal.Decimal `json:"monthly_category"`
	MerchantTotals        map[string]MerchantTotal              `json:"merchant_totals"`
	HighestSpendingMonth  *string                               `json:"highest_spending_month"`
	NetStatus             string                                `json:"net_status"`
	ExpenseRatio          *decimal.Decimal                      `json:"expense_ratio"`
	LargeTransactionCount int                                   `json:"large_transaction_count"`
}

// orderedSums keeps first-seen key order for deterministic tie-breaks.
type orderedSums struct {
	keys []string
	sums map[string]decimal.Decimal
}

func newOrderedSums() *orderedSums {
	return &orderedSums{sums: make(map[string]decimal.Decimal)}
}

func (o *orderedSums) add(key string, amt decimal.Decimal) {
	cur, ok := o.sums[key]
	if !ok {
		o.keys = append(o.keys, key)
	}
	o.sums[key] = cur.Add(amt)
}

// max returns the key with the largest sum; the first key seen wins ties.
func (o *orderedSums) max() (string, bool) {
	var best string
	var bestSum decimal.Decimal
	for i, k := range o.keys {
		if i == 0 || o.sums[k].GreaterThan(bestSum) {
			best, bestSum = k, o.sums[k]
		}
	}
	return best, len(o.keys) > 0
}

func (o *orderedSums) total() decimal.Decimal {
	t := decimal.Zero
	for _, v := range o.sums {
		t = t.Add(v)
	}
	return t
}

// Aggregate summarizes txns in one pass. Transactions whose dates do not
// parse still count towards the totals but not towards any monthly map.
func Aggregate(txns []models.Transaction, opts Options) Summary {
	threshold := opts.LargeThreshold
	if threshold.IsZero() {
		threshold = DefaultLargeThreshold
	}
	countCredits := opts.CreditPolicy.CountsCredits()

	debit, credit := decimal.Zero, decimal.Zero
	categories := newOrderedSums()
	monthly := newOrderedSums()
	monthlyCredit := make(map[string]decimal.Decimal)
	monthlyCat := make(map[string]map[string]decimal.Decimal)
	merchants := make(map[string]MerchantTotal)
	largeCount := 0

	for _, t := range txns {
		month, dated := t.Month()
		inCategories := t.Type == models.Debit || countCredits

		switch t.Type {
		case models.Debit:
			debit = debit.Add(t.Amount)
			if dated {
				monthly.add(month, t.Amount)
			}
			if name := merchantName(t.Description); name != "" {
				m := merchants[name]
				m.Count++
				m.Total = m.Total.Add(t.Amount)
				merchants[name] = m
			}
		case models.Credit:
			credit = credit.Add(t.Amount)
			if dated {
				monthlyCredit[month] = monthlyCredit[month].Add(t.Amount)
			}
		}

		if inCategories {
			categories.add(t.Category, t.Amount)
			if dated {
				byCat, ok := monthlyCat[month]
				if !ok {
					byCat = make(map[string]decimal.Decimal)
					monthlyCat[month] = byCat
				}
				byCat[t.Category] = byCat[t.Category].Add(t.Amount)
			}
		}

		if t.Amount.GreaterThanOrEqual(threshold) {
			largeCount++
		}
	}

	s := Summary{
		TotalExpense:          debit,
		TotalDebit:            debit,
		TotalCredit:           credit,
		TopCategory:           NoCategory,
		CategoryTotals:        categories.sums,
		CategoryPercentages:   percentages(categories),
		MonthlyExpense:        monthly.sums,
		MonthlyCredit:         monthlyCredit,
		MonthlyCategory:       monthlyCat,
		MerchantTotals:        merchants,
		NetStatus:             Spender,
		LargeTransactionCount: largeCount,
	}

	if top, ok := categories.max(); ok {
		s.TopCategory = top
	}
	if month, ok := monthly.max(); ok {
		s.HighestSpendingMonth = &month
	}
	if credit.GreaterThan(debit) {
		s.NetStatus = Saver
	}
	if credit.IsPositive() {
		ratio := debit.Mul(hundred).Div(credit).Round(2)
		s.ExpenseRatio = &ratio
	}
	return s
}

func percentages(categories *orderedSums) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(categories.keys))
	total := categories.total()
	if !total.IsPositive() {
		return out
	}
	for k, v := range categories.sums {
		out[k] = v.Mul(hundred).Div(total).Round(2)
	}
	return out
}

// merchantName is the first word of a description.
func merchantName(desc string) string {
	fields := strings.Fields(desc)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
