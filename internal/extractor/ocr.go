package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrOCRUnavailable is returned when pdftoppm or tesseract is not installed.
var ErrOCRUnavailable = errors.New("ocr tools not available (install poppler-utils and tesseract-ocr)")

// IsOCRAvailable reports whether pdftoppm and tesseract are on PATH.
func IsOCRAvailable() bool {
	_, err1 := exec.LookPath("pdftoppm")
	_, err2 := exec.LookPath("tesseract")
	return err1 == nil && err2 == nil
}

// TesseractOCR rasterizes pages with pdftoppm and recognizes them with
// tesseract.
type TesseractOCR struct {
	Language string // tesseract -l, default "eng"
	DPI      int    // pdftoppm -r, default 300
	PSM      int    // tesseract --psm, default 4 (single column of variable-size text)
	Log      zerolog.Logger
}

// RecognizePages implements OCREngine. Pages that tesseract fails on are
// logged and come back empty so page order is kept.
func (t *TesseractOCR) RecognizePages(ctx context.Context, data []byte, password string) ([]string, error) {
	if !IsOCRAvailable() {
		return nil, ErrOCRUnavailable
	}

	tmpDir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}

	images, err := t.rasterize(ctx, input, password, tmpDir)
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := t.recognize(ctx, img)
		if err != nil {
			t.Log.Warn().Err(err).Int("page", i+1).Msg("tesseract failed on page")
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func (t *TesseractOCR) rasterize(ctx context.Context, input, password, dir string) ([]string, error) {
	dpi := t.DPI
	if dpi <= 0 {
		dpi = 300
	}

	args := []string{"-r", strconv.Itoa(dpi), "-png"}
	if password != "" {
		args = append(args, "-upw", password)
	}
	args = append(args, input, filepath.Join(dir, "page"))

	cmd := exec.CommandContext(ctx, "pdftoppm", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading temp dir: %w", err)
	}

	// pdftoppm zero-pads page numbers, so name order is page order.
	var images []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)

	if len(images) == 0 {
		return nil, errors.New("pdftoppm produced no page images")
	}
	return images, nil
}

func (t *TesseractOCR) recognize(ctx context.Context, img string) (string, error) {
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	psm := t.PSM
	if psm <= 0 {
		psm = 4
	}

	cmd := exec.CommandContext(ctx, "tesseract", img, "stdout", "-l", lang, "--psm", strconv.Itoa(psm))
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
