// Package extractor turns statement documents into text. It opens the
// document (decrypting it when a password is supplied), reads the embedded
// text layer and falls back to OCR when there is none.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Status is the outcome of one extraction.
type Status int

const (
	StatusText Status = iota
	StatusNeedsPassword
	StatusWrongPassword
	StatusEmpty
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusText:
		return "text"
	case StatusNeedsPassword:
		return "needs-password"
	case StatusWrongPassword:
		return "wrong-password"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Source tells where the text of a StatusText result came from.
type Source string

const (
	SourceText Source = "text"
	SourceOCR  Source = "ocr"
)

// Result is the outcome of Extract. Text and Pages are set only for
// StatusText; Reason only for StatusFailed and StatusCancelled.
type Result struct {
	Status Status
	Text   string
	Pages  []string
	Source Source
	Reason string
}

// OCREngine rasterizes every page of a document and recognizes its text,
// returning one string per page in page order.
type OCREngine interface {
	RecognizePages(ctx context.Context, data []byte, password string) ([]string, error)
}

// Options tune when the embedded text layer is considered good enough to
// skip OCR.
type Options struct {
	// MinTextChars is the minimum number of non-whitespace characters.
	// Values below 1 are treated as 1.
	MinTextChars int
	// MinReadableRatio, when positive, also requires that share of
	// characters to be plain readable text (see textQuality).
	MinReadableRatio float64
}

// Extractor is safe for concurrent use.
type Extractor struct {
	opts     Options
	ocr      OCREngine
	fallback TextFallback
	log      zerolog.Logger
}

// New returns an Extractor. A nil ocr disables the fallback; documents
// without a text layer then fail. Encrypted documents the pdf library cannot
// decrypt are read with PopplerText.
func New(opts Options, ocr OCREngine, log zerolog.Logger) *Extractor {
	if opts.MinTextChars < 1 {
		opts.MinTextChars = 1
	}
	return &Extractor{opts: opts, ocr: ocr, fallback: PopplerText{}, log: log}
}

// Extract runs the fallback pipeline on one document. It never panics and
// never returns an error: every outcome is a distinct Status.
func (e *Extractor) Extract(ctx context.Context, data []byte, password string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("pdf library crashed")
			res = failed("document could not be decoded: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}

	r, err := openDocument(data, password)
	switch {
	case errors.Is(err, pdf.ErrInvalidPassword) && password == "":
		e.log.Debug().Msg("document is encrypted, no password supplied")
		return Result{Status: StatusNeedsPassword}
	case errors.Is(err, pdf.ErrInvalidPassword):
		e.log.Debug().Msg("document password rejected")
		return Result{Status: StatusWrongPassword}
	case err != nil && isEncrypted(data):
		e.log.Debug().Err(err).Msg("encryption not supported by pdf library, using fallback reader")
		return e.extractFallback(ctx, data, password)
	case err != nil:
		return failed("opening document: %v", err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return failed("document has no pages")
	}

	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}

	pages := readPages(r, rowText)
	if !e.sufficient(pages) {
		e.log.Debug().Int("pages", numPages).Msg("row extraction insufficient, trying content layout")
		pages = readPages(r, layoutText)
	}
	if e.sufficient(pages) {
		return Result{Status: StatusText, Text: strings.Join(pages, "\n"), Pages: pages, Source: SourceText}
	}

	return e.recognize(ctx, data, password)
}

// extractFallback handles encrypted documents the pdf library rejects.
func (e *Extractor) extractFallback(ctx context.Context, data []byte, password string) Result {
	if e.fallback == nil {
		if password == "" {
			return Result{Status: StatusNeedsPassword}
		}
		return failed("document encryption is not supported")
	}

	pages, err := e.fallback.ReadText(ctx, data, password)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cancelled(ctxErr)
	}
	switch {
	case errors.Is(err, ErrIncorrectPassword) && password == "":
		return Result{Status: StatusNeedsPassword}
	case errors.Is(err, ErrIncorrectPassword):
		return Result{Status: StatusWrongPassword}
	case errors.Is(err, ErrPopplerUnavailable) && password == "":
		return Result{Status: StatusNeedsPassword}
	case err != nil:
		return failed("reading encrypted document: %v", err)
	}

	if e.sufficient(pages) {
		return Result{Status: StatusText, Text: strings.Join(pages, "\n"), Pages: pages, Source: SourceText}
	}
	return e.recognize(ctx, data, password)
}

// recognize runs OCR over the whole document.
func (e *Extractor) recognize(ctx context.Context, data []byte, password string) Result {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	if e.ocr == nil {
		return failed("no embedded text and OCR is not configured")
	}

	e.log.Debug().Msg("no embedded text, running OCR")
	pages, err := e.ocr.RecognizePages(ctx, data, password)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cancelled(ctxErr)
	}
	if err != nil {
		return failed("ocr: %v", err)
	}

	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return Result{Status: StatusEmpty}
	}
	return Result{Status: StatusText, Text: text, Pages: pages, Source: SourceOCR}
}

// isEncrypted reports whether the document declares an encryption
// dictionary. Only consulted after the pdf library failed to open it.
func isEncrypted(data []byte) bool {
	return bytes.Contains(data, []byte("/Encrypt"))
}

// sufficient reports whether the text layer is enough to skip OCR.
func (e *Extractor) sufficient(pages []string) bool {
	if nonSpaceCount(pages) < e.opts.MinTextChars {
		return false
	}
	if e.opts.MinReadableRatio > 0 && textQuality(pages) < e.opts.MinReadableRatio {
		return false
	}
	return true
}

func nonSpaceCount(pages []string) int {
	n := 0
	for _, p := range pages {
		for _, r := range p {
			if !unicode.IsSpace(r) {
				n++
			}
		}
	}
	return n
}

func failed(format string, args ...any) Result {
	return Result{Status: StatusFailed, Reason: fmt.Sprintf(format, args...)}
}

func cancelled(err error) Result {
	return Result{Status: StatusCancelled, Reason: err.Error()}
}
