package extractor

import (
	"bytes"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// columnGap is the horizontal distance, in text space units, above which two
// glyph runs on one line are treated as separate columns.
const columnGap = 15

// openDocument opens a PDF held in memory. For an encrypted document the
// library reports pdf.ErrInvalidPassword both when no password is given and
// when the given one is rejected.
func openDocument(data []byte, password string) (*pdf.Reader, error) {
	var pw func() string
	if password != "" {
		offered := false
		pw = func() string {
			if offered {
				return ""
			}
			offered = true
			return password
		}
	}
	return pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), pw)
}

// pageText renders one page as newline separated lines.
type pageText func(p pdf.Page) string

// readPages applies read to every page in order. Missing pages come back
// empty so indexes keep matching page numbers.
func readPages(r *pdf.Reader, read pageText) []string {
	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, read(p))
	}
	return pages
}

// rowText relies on the library's own row grouping.
func rowText(p pdf.Page) string {
	rows, err := p.GetTextByRow()
	if err != nil {
		return ""
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, w := range row.Content {
			words = append(words, w.S)
		}
		lines = appendLine(lines, strings.Join(words, " "))
	}
	return strings.Join(lines, "\n")
}

// layoutText rebuilds lines from positioned glyph runs: runs sharing a
// rounded baseline form one line, top of the page first, left to right.
func layoutText(p pdf.Page) string {
	type run struct {
		x float64
		s string
	}
	type line struct {
		y    int
		runs []run
	}

	var lines []*line
	byY := make(map[int]*line)
	for _, t := range p.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		y := int(math.Round(t.Y))
		l, ok := byY[y]
		if !ok {
			l = &line{y: y}
			byY[y] = l
			lines = append(lines, l)
		}
		l.runs = append(l.runs, run{x: t.X, s: t.S})
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.runs, func(i, j int) bool { return l.runs[i].x < l.runs[j].x })
		var sb strings.Builder
		for i, r := range l.runs {
			if i > 0 && r.x-l.runs[i-1].x > columnGap {
				sb.WriteString("  ")
			}
			sb.WriteString(r.s)
		}
		out = appendLine(out, sb.String())
	}
	return strings.Join(out, "\n")
}

func appendLine(lines []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(lines, s)
	}
	return lines
}

// textQuality returns the share (0.0-1.0) of characters that are ASCII
// letters, digits, whitespace or common statement punctuation. Glyphs from
// identity-encoded fonts without a ToUnicode map decode to accented letters,
// so unicode.IsLetter would count them as readable.
func textQuality(pages []string) float64 {
	var total, readable int
	for _, page := range pages {
		for _, r := range page {
			total++
			if readableRune(r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func readableRune(r rune) bool {
	switch {
	case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return true
	case unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(".,-/:;()'\"£$€₹%&@#!?+=*", r)
}
