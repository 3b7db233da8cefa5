package extractor

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"encoding/hex"
	"fmt"
	"strings"
)

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// buildPDF writes a minimal PDF with one page per entry in pages. Each line
// of a page is drawn on its own baseline. A page with no lines has no content
// stream, like a scanned image-only page. A non-empty userPassword encrypts
// the document with 40-bit RC4 (revision 2), content streams included.
func buildPDF(pages [][]string, userPassword string) []byte {
	if userPassword == "" {
		return writePDF(pages, security{})
	}
	return writePDF(pages, rc4Security(userPassword))
}

// buildAES256PDF declares AES-256 encryption (V5/R6). Streams are left in
// the clear; readers without AES-256 support fail before reaching them.
func buildAES256PDF(pages [][]string) []byte {
	o := hex.EncodeToString(bytes.Repeat([]byte{0x11}, 48))
	u := hex.EncodeToString(bytes.Repeat([]byte{0x22}, 48))
	e := hex.EncodeToString(bytes.Repeat([]byte{0x33}, 32))
	id := hex.EncodeToString([]byte("0123456789abcdef"))
	return writePDF(pages, security{entries: fmt.Sprintf(
		" /Encrypt << /Filter /Standard /V 5 /R 6 /Length 256 /O <%s> /U <%s> /OE <%s> /UE <%s> /P -4 >> /ID [<%s> <%s>]",
		o, u, e, e, id, id)})
}

// security holds the trailer entries of an encrypted document and, for
// RC4, the file key used to encrypt content streams.
type security struct {
	key     []byte
	entries string
}

// encryptStream encrypts a stream of object num with the per-object RC4 key.
func (s security) encryptStream(num int, data string) string {
	if s.key == nil {
		return data
	}
	h := md5.New()
	h.Write(s.key)
	h.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), 0, 0})
	c, _ := rc4.NewCipher(h.Sum(nil))
	out := []byte(data)
	c.XORKeyStream(out, out)
	return string(out)
}

func writePDF(pages [][]string, sec security) []byte {
	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}

	catalog := add("")
	pagesObj := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, lines := range pages {
		page := "<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >>%s >>"
		contents := ""
		if len(lines) > 0 {
			var sb strings.Builder
			sb.WriteString("BT /F1 12 Tf\n")
			for i, line := range lines {
				fmt.Fprintf(&sb, "1 0 0 1 72 %d Tm (%s) Tj\n", 720-i*20, escapePDFString(line))
			}
			sb.WriteString("ET")
			stream := sec.encryptStream(len(objs)+1, sb.String())
			c := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
			contents = fmt.Sprintf(" /Contents %d 0 R", c)
		}
		p := add(fmt.Sprintf(page, pagesObj, font, contents))
		kids = append(kids, fmt.Sprintf("%d 0 R", p))
	}
	objs[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objs[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("/Size %d /Root %d 0 R", len(objs)+1, catalog)
	trailer += sec.entries
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

// rc4Security derives the file key and the /Encrypt and /ID trailer entries
// for a Standard security handler, revision 2.
func rc4Security(userPassword string) security {
	id := []byte("0123456789abcdef")
	owner := bytes.Repeat([]byte{0x5A}, 32)
	var perms int32 = -4

	pw := []byte(userPassword)
	h := md5.New()
	h.Write(pw)
	h.Write(passwordPad[:32-len(pw)])
	h.Write(owner)
	p := uint32(perms)
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	h.Write(id)
	key := h.Sum(nil)[:5]

	c, _ := rc4.NewCipher(key)
	user := make([]byte, 32)
	c.XORKeyStream(user, passwordPad)

	return security{
		key: key,
		entries: fmt.Sprintf(" /Encrypt << /Filter /Standard /V 1 /R 2 /O <%s> /U <%s> /P %d >> /ID [<%s> <%s>]",
			hex.EncodeToString(owner), hex.EncodeToString(user), perms,
			hex.EncodeToString(id), hex.EncodeToString(id)),
	}
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
