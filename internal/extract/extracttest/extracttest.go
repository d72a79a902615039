// Package extracttest builds minimal but well-formed PDF files for tests.
// Handwritten PDFs keep the test suite free of binary fixtures and make
// the page contents explicit at the call site.
package extracttest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// MakePDF returns a complete single-font PDF with one page per entry in
// pageTexts. Each page draws its text with a single Tj operator, which is
// enough for plain-text extraction.
func MakePDF(pageTexts []string) []byte {
	var body bytes.Buffer
	offsets := map[int]int{}

	writeObj := func(num int, content string) {
		offsets[num] = body.Len()
		fmt.Fprintf(&body, "%d 0 obj\n%s\nendobj\n", num, content)
	}

	n := len(pageTexts)
	fontObj := 3 + 2*n

	body.WriteString("%PDF-1.4\n")
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))

	for i, text := range pageTexts {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1
		writeObj(pageObj, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, contentObj))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escapePDFString(text))
		writeObj(contentObj, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	writeObj(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	size := fontObj + 1
	xrefOffset := body.Len()
	fmt.Fprintf(&body, "xref\n0 %d\n", size)
	body.WriteString("0000000000 65535 f \n")
	for num := 1; num < size; num++ {
		fmt.Fprintf(&body, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&body, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xrefOffset)

	return body.Bytes()
}

// WritePDF writes a generated PDF to path.
func WritePDF(path string, pageTexts []string) error {
	return os.WriteFile(path, MakePDF(pageTexts), 0o644)
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\n", `\n`)
	return r.Replace(s)
}
