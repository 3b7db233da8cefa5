// Package categorizer assigns spending categories to transactions using an
// ordered keyword table. Matching is deterministic: the first rule whose
// keyword appears in the description wins.
package categorizer

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// Category labels produced by the default rule table.
const (
	Food      = "Food"
	Shopping  = "Shopping"
	Travel    = "Travel"
	Utilities = "Utilities"
	Rent      = "Rent"
	Income    = "Income"
	UPI       = "UPI"
	Others    = models.DefaultCategory
)

// Rule maps a set of case-insensitive keywords to a category.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules is the fixed keyword table, in priority order.
var DefaultRules = []Rule{
	{Category: Food, Keywords: []string{"swiggy", "zomato"}},
	{Category: Shopping, Keywords: []string{"amazon", "flipkart"}},
	{Category: Travel, Keywords: []string{"uber", "ola"}},
	{Category: Utilities, Keywords: []string{"recharge"}},
	{Category: Rent, Keywords: []string{"rent"}},
	{Category: Income, Keywords: []string{"salary"}},
	{Category: UPI, Keywords: []string{"upi"}},
}

// CreditPolicy decides how credit transactions are categorized and whether
// they take part in category aggregation.
type CreditPolicy string

const (
	// CreditByKeyword categorizes credits like debits; they are left out of
	// category totals.
	CreditByKeyword CreditPolicy = "keyword"
	// CreditAsIncome files every credit under Income and counts it in
	// category totals.
	CreditAsIncome CreditPolicy = "income"
	// CreditUncategorized gives credits the default category and leaves them
	// out of category totals.
	CreditUncategorized CreditPolicy = "none"
)

// ParseCreditPolicy converts a configuration value into a CreditPolicy.
func ParseCreditPolicy(s string) (CreditPolicy, error) {
	switch p := CreditPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CreditByKeyword, CreditAsIncome, CreditUncategorized:
		return p, nil
	case "":
		return CreditByKeyword, nil
	default:
		return "", fmt.Errorf("unknown credit policy %q (want keyword, income or none)", s)
	}
}

// CountsCredits reports whether credits contribute to category totals.
func (p CreditPolicy) CountsCredits() bool {
	return p == CreditAsIncome
}

// Categorizer is safe for concurrent use; it holds no mutable state.
type Categorizer struct {
	policy CreditPolicy
	rules  []Rule
}

// New returns a Categorizer with the given credit policy. When no rules are
// passed, DefaultRules is used.
func New(policy CreditPolicy, rules ...Rule) *Categorizer {
	if policy == "" {
		policy = CreditByKeyword
	}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	lowered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		lowered = append(lowered, Rule{Category: r.Category, Keywords: kws})
	}
	return &Categorizer{policy: policy, rules: lowered}
}

// Default returns a Categorizer using DefaultRules and CreditByKeyword.
func Default() *Categorizer {
	return New(CreditByKeyword)
}

// Policy returns the credit policy in effect.
func (c *Categorizer) Policy() CreditPolicy {
	return c.policy
}

// Categorize returns the category label for a description of the given type.
func (c *Categorizer) Categorize(description string, typ models.TxnType) string {
	if typ == models.Credit {
		switch c.policy {
		case CreditAsIncome:
			return Income
		case CreditUncategorized:
			return Others
		}
	}

	desc := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Category
			}
		}
	}
	return Others
}
