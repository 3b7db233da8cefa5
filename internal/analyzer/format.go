package analyzer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format selects the parsing mode for an upload.
type Format string

const (
	FormatAuto     Format = ""
	FormatTabular  Format = "tabular"
	FormatDocument Format = "document"
)

// ParseFormat accepts "", "auto", "tabular"/"csv" and "document"/"pdf".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "tabular", "csv":
		return FormatTabular, nil
	case "document", "pdf":
		return FormatDocument, nil
	default:
		return "", fmt.Errorf("unknown format %q (want tabular or document)", s)
	}
}

// resolveFormat picks the mode from an explicit tag, then the file
// extension, then the content itself.
func resolveFormat(tag Format, filename string, data []byte) (Format, error) {
	if tag != FormatAuto {
		return tag, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatTabular, nil
	case ".pdf":
		return FormatDocument, nil
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		return FormatDocument, nil
	case mtype.Is("text/csv"):
		return FormatTabular, nil
	}
	return "", fmt.Errorf("cannot analyze %q (detected %s)", filename, mtype.String())
}
