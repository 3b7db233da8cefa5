// Package analyzer runs one statement through the whole pipeline: format
// resolution, text extraction or CSV reading, parsing, categorization and
// aggregation. Expected failures come back as *Error with a Code.
package analyzer

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-insights/internal/categorizer"
	"github.com/insightdelivered/statement-insights/internal/extractor"
	"github.com/insightdelivered/statement-insights/internal/insights"
	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/parser"
)

// TextExtractor is implemented by *extractor.Extractor.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, password string) extractor.Result
}

// Input is one uploaded statement.
type Input struct {
	Data     []byte
	Filename string
	Format   Format
	Password string
}

// Source says where transactions were read from.
type Source string

const (
	SourceCSV  Source = "csv"
	SourceText Source = "text"
	SourceOCR  Source = "ocr"
)

// Report is a successful analysis.
type Report struct {
	Format       Format
	Source       Source
	Transactions []models.Transaction
	Summary      insights.Summary
	SkippedRows  []parser.SkippedRow
	SkippedLines []parser.SkippedLine
}

// Analyzer holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	extractor TextExtractor
	cat       *categorizer.Categorizer
	opts      insights.Options
	log       zerolog.Logger
}

// New returns an Analyzer. The credit policy of cat also drives aggregation.
func New(ext TextExtractor, cat *categorizer.Categorizer, opts insights.Options, log zerolog.Logger) *Analyzer {
	opts.CreditPolicy = cat.Policy()
	return &Analyzer{extractor: ext, cat: cat, opts: opts, log: log}
}

// Analyze parses and summarizes one statement. Every expected failure is
// an *Error; zero transactions is ErrNoTransactions, never an empty report.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Report, error) {
	format, err := resolveFormat(in.Format, in.Filename, in.Data)
	if err != nil {
		return nil, newError(CodeUnsupportedFormat, err)
	}

	log := a.log.With().Str("file", in.Filename).Str("format", string(format)).Logger()
	report := &Report{Format: format}

	switch format {
	case FormatTabular:
		headers, records, err := parser.ReadCSV(in.Data)
		if errors.Is(err, parser.ErrNoHeader) {
			return nil, newError(CodeNoTransactions, err)
		}
		if err != nil {
			return nil, newError(CodeUnreadableDocument, err)
		}
		report.Source = SourceCSV
		report.Transactions, report.SkippedRows = parser.NormalizeRows(headers, records, a.cat)

	case FormatDocument:
		res := a.extractor.Extract(ctx, in.Data, in.Password)
		if err := resultError(res); err != nil {
			log.Info().Str("status", res.Status.String()).Str("reason", res.Reason).Msg("extraction did not yield text")
			return nil, err
		}
		ocr := res.Source == extractor.SourceOCR
		report.Source = SourceText
		if ocr {
			report.Source = SourceOCR
		}
		lp := parser.NewLineParser(a.cat, ocr)
		report.Transactions, report.SkippedLines = lp.ParseText(res.Text)

	default:
		return nil, newError(CodeUnsupportedFormat, nil)
	}

	log.Info().
		Str("source", string(report.Source)).
		Int("transactions", len(report.Transactions)).
		Int("skipped", len(report.SkippedRows)+len(report.SkippedLines)).
		Msg("statement parsed")

	if len(report.Transactions) == 0 {
		return nil, newError(CodeNoTransactions, nil)
	}

	report.Summary = insights.Aggregate(report.Transactions, a.opts)
	return report, nil
}

func resultError(res extractor.Result) error {
	switch res.Status {
	case extractor.StatusText:
		return nil
	case extractor.StatusNeedsPassword:
		return newError(CodePasswordRequired, nil)
	case extractor.StatusWrongPassword:
		return newError(CodeIncorrectPassword, nil)
	case extractor.StatusEmpty:
		return newError(CodeNoTextFound, nil)
	case extractor.StatusCancelled:
		return newError(CodeCancelled, errors.New(res.Reason))
	default:
		return newError(CodeUnreadableDocument, errors.New(res.Reason))
	}
}
