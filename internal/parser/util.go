package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// errEmptyAmount is returned by parseAmount for blank or placeholder cells.
var errEmptyAmount = errors.New("empty amount")

// Statement date patterns, tried in priority order.
var (
	// DD-MM-YYYY
	datePatternDash = regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`)
	// DD/MM/YYYY
	datePatternSlash = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
)

// amountPattern matches 1,234.56, 1,00,000, 250.5 or 42. Grouped numbers
// accept both western (3-digit) and Indian (2-digit) grouping.
var amountPattern = regexp.MustCompile(`\b(?:\d{1,3}(?:,\d{2,3})+|\d+)(?:\.\d{1,2})?\b`)

// parseAmount converts a string like "1,234.56" or "-₹1,234.56" to a decimal.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	// Remove currency symbols and whitespace (including Unicode variants)
	for _, sym := range []string{"₹", "Rs.", "INR", "£", "$", "€", ",", " ", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}

	if s == "" || s == "-" {
		return decimal.Zero, errEmptyAmount
	}

	// Accounting negatives: (1,234.56)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}

	return decimal.NewFromString(s)
}

// isBlank reports whether a cell carries no value.
func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-"
}

// ocr fixes, compiled once
var (
	ocrSemicolonDecimal = regexp.MustCompile(`(\d);(\s*)(\d)`)
	ocrColonDecimal     = regexp.MustCompile(`(\d):(\d)`)
	ocrTrailingColon    = regexp.MustCompile(`(\d):$`)
	ocrTrailingNA       = regexp.MustCompile(`\s+NA\b`)
	ocrToken            = regexp.MustCompile(`\S+`)
	timeOfDay           = regexp.MustCompile(`^(?:[01]?\d|2[0-3]):[0-5]\d(?::[0-5]\d)?$`)
)

// sanitizeOCRAmounts fixes common OCR errors in amount strings.
// Tesseract often misreads periods as semicolons or colons in numbers.
// E.g., "19,720; 15" → "19,720.15", "1.00" stays "1.00".
// Tokens shaped like a time of day ("10:30", "23:05:59") keep their colons.
func sanitizeOCRAmounts(line string) string {
	line = ocrSemicolonDecimal.ReplaceAllString(line, "$1.$3")
	line = ocrToken.ReplaceAllStringFunc(line, func(tok string) string {
		if timeOfDay.MatchString(tok) {
			return tok
		}
		tok = ocrColonDecimal.ReplaceAllString(tok, "$1.$2")
		return ocrTrailingColon.ReplaceAllString(tok, "$1")
	})
	// Strip "NA" that OCR appends after amounts
	line = ocrTrailingNA.ReplaceAllString(line, "")
	return line
}

// collapseSpaces squeezes runs of whitespace into single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
