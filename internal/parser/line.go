package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// Line skip reasons.
var (
	ErrNoDate        = errors.New("line has no date")
	ErrNoAmount      = errors.New("line has no amount")
	ErrNoTypeMarker  = errors.New("line has no debit/credit marker")
	ErrAmbiguousType = errors.New("line has both debit and credit markers")
)

var (
	// 2,500.00(Dr) or 2,500.00 (Cr)
	suffixAmountPattern = regexp.MustCompile(`(?i)\b((?:\d{1,3}(?:,\d{2,3})+|\d+)(?:\.\d{1,2})?)\s*\((dr|cr)\)`)
	typeKeywordPattern  = regexp.MustCompile(`(?i)\b(dr|debit|cr|credit)\b`)
)

// LineParser turns lines of extracted statement text into transactions.
type LineParser struct {
	cat Categorizer
	ocr bool
}

// NewLineParser returns a LineParser. When ocr is set, each line is cleaned of
// common recognition errors in amounts before matching.
func NewLineParser(cat Categorizer, ocr bool) *LineParser {
	return &LineParser{cat: cat, ocr: ocr}
}

// ParseLine extracts at most one transaction from a line. Lines without a
// date, an amount or an unambiguous debit/credit marker are rejected with
// the matching sentinel error; the parser never guesses a type.
func (p *LineParser) ParseLine(line string) (models.Transaction, error) {
	if p.ocr {
		line = sanitizeOCRAmounts(line)
	}

	loc := datePatternDash.FindStringIndex(line)
	if loc == nil {
		loc = datePatternSlash.FindStringIndex(line)
	}
	if loc == nil {
		return models.Transaction{}, ErrNoDate
	}
	date := strings.ReplaceAll(line[loc[0]:loc[1]], "/", "-")
	rest := cut(line, loc[0], loc[1])

	var (
		amountText string
		typ        models.TxnType
	)

	if m := suffixAmountPattern.FindStringSubmatchIndex(rest); m != nil {
		amountText = rest[m[2]:m[3]]
		if strings.EqualFold(rest[m[4]:m[5]], "dr") {
			typ = models.Debit
		} else {
			typ = models.Credit
		}
		rest = cut(rest, m[0], m[1])
	} else {
		am := pickAmount(rest)
		if am == nil {
			return models.Transaction{}, ErrNoAmount
		}
		amountText = rest[am[0]:am[1]]
		rest = cut(rest, am[0], am[1])

		var err error
		typ, rest, err = keywordType(rest)
		if err != nil {
			return models.Transaction{}, err
		}
	}

	amount, err := parseAmount(amountText)
	if err != nil {
		return models.Transaction{}, ErrNoAmount
	}

	desc := collapseSpaces(rest)
	return models.NewTransaction(date, desc, amount, typ, p.cat.Categorize(desc, typ)), nil
}

// pickAmount prefers an amount written with cents or separators over a bare
// number, which is often a reference or cheque number.
func pickAmount(s string) []int {
	all := amountPattern.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	for _, m := range all {
		if strings.ContainsAny(s[m[0]:m[1]], ".,") {
			return m
		}
	}
	return all[0]
}

func keywordType(s string) (models.TxnType, string, error) {
	matches := typeKeywordPattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return "", s, ErrNoTypeMarker
	}

	var debit, credit bool
	for _, m := range matches {
		switch strings.ToLower(s[m[0]:m[1]]) {
		case "dr", "debit":
			debit = true
		default:
			credit = true
		}
	}
	if debit && credit {
		return "", s, ErrAmbiguousType
	}

	s = typeKeywordPattern.ReplaceAllString(s, " ")
	if debit {
		return models.Debit, s, nil
	}
	return models.Credit, s, nil
}

// cut removes s[i:j], leaving a space so neighbouring words stay apart.
func cut(s string, i, j int) string {
	return s[:i] + " " + s[j:]
}

// SkippedLine records a non-blank line that produced no transaction.
type SkippedLine struct {
	Number int // 1-based
	Line   string
	Err    error
}

// ParseText parses every line of text. Blank lines are ignored; other lines
// that yield nothing are reported with their reason.
func (p *LineParser) ParseText(text string) ([]models.Transaction, []SkippedLine) {
	var txns []models.Transaction
	var skipped []SkippedLine

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		txn, err := p.ParseLine(line)
		if err != nil {
			skipped = append(skipped, SkippedLine{Number: i + 1, Line: line, Err: err})
			continue
		}
		txns = append(txns, txn)
	}
	return txns, skipped
}
