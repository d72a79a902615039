package extract

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// ErrEncrypted reports a password-protected PDF. Encrypted documents are
// not supported; callers treat this as invalid input, not a retry case.
var ErrEncrypted = errors.New("pdf is encrypted")

// Document is an open PDF positioned for page-by-page text extraction.
// Pages are pulled one at a time so a large document never has to be
// materialized in memory at once.
type Document struct {
	f *os.File
	r *pdf.Reader
}

// Open opens a PDF for extraction. The file handle is opened here, not
// inside the pdf library, so it gets closed on every failure path. The
// library panics on some malformed inputs; parsing is fenced with a
// recover and surfaces as a regular error.
func Open(path string) (doc *Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			f.Close()
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrEncrypted
		}
		return nil, err
	}
	return &Document{f: f, r: r}, nil
}

// NumPages returns the page count of the document.
func (d *Document) NumPages() int { return d.r.NumPage() }

// PageText extracts the plain text of page n (1-based). Pages the reader
// cannot resolve yield an empty string rather than an error, matching how
// image-only or damaged pages are skipped downstream.
func (d *Document) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: malformed content: %v", n, r)
		}
	}()
	p := d.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// Close releases the underlying file.
func (d *Document) Close() error { return d.f.Close() }
