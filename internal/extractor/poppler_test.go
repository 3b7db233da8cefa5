package extractor

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two pages", "page one\n\fpage two\n\f", []string{"page one", "page two"}},
		{"no trailing feed", "only page\n", []string{"only page"}},
		{"blank middle page", "a\f\fb\f", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitPages(tt.in))
		})
	}
}

func TestPopplerError(t *testing.T) {
	exit := errors.New("exit status 1")

	err := popplerError(exit, "Command Line Error: Incorrect password\n")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	err = popplerError(exit, "Syntax Error: Couldn't find trailer dictionary\n")
	assert.NotErrorIs(t, err, ErrIncorrectPassword)
	assert.ErrorIs(t, err, exit)
	assert.Contains(t, err.Error(), "trailer dictionary")
}

func TestPopplerText_Unencrypted(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not installed; skipping")
	}

	pages, err := PopplerText{}.ReadText(context.Background(), buildPDF([][]string{{"01-05-2024 Rent 9,000.00 Dr"}}, ""), "")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0], "Rent")
}

func TestPopplerText_Missing(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err == nil {
		t.Skip("pdftotext is installed; cannot test missing-tool error path")
	}

	_, err := PopplerText{}.ReadText(context.Background(), buildPDF([][]string{nil}, ""), "")
	assert.ErrorIs(t, err, ErrPopplerUnavailable)
}
