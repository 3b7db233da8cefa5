package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrPopplerUnavailable is returned when pdftotext is not installed.
	ErrPopplerUnavailable = errors.New("pdftotext not available (install poppler-utils)")
	// ErrIncorrectPassword is returned when poppler rejects the password,
	// including the empty one.
	ErrIncorrectPassword = errors.New("incorrect password")
)

// TextFallback reads the text layer of documents the pdf library cannot
// open, such as AES-256 encrypted ones.
type TextFallback interface {
	ReadText(ctx context.Context, data []byte, password string) ([]string, error)
}

// PopplerText extracts text with pdftotext, one entry per page.
type PopplerText struct{}

// ReadText implements TextFallback.
func (PopplerText) ReadText(ctx context.Context, data []byte, password string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, ErrPopplerUnavailable
	}

	f, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing document: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}

	args := []string{"-layout"}
	if password != "" {
		args = append(args, "-upw", password)
	}
	args = append(args, f.Name(), "-")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pdftotext", args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, popplerError(err, stderr.String())
	}
	return splitPages(string(out)), nil
}

func popplerError(err error, stderr string) error {
	if strings.Contains(stderr, "Incorrect password") {
		return ErrIncorrectPassword
	}
	return fmt.Errorf("pdftotext failed: %w (output: %s)", err, strings.TrimSpace(stderr))
}

// splitPages splits pdftotext output on form feeds. The feed after the last
// page does not start another page.
func splitPages(out string) []string {
	pages := strings.Split(out, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	for i := range pages {
		pages[i] = strings.TrimSpace(pages[i])
	}
	return pages
}
