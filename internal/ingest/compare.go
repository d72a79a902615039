package ingest

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/docportal/internal/docstore"
	"github.com/mohammad-safakhou/docportal/internal/extract"
	"github.com/mohammad-safakhou/docportal/internal/telemetry"
)

// CompareIngestor persists a reference/actual pair of PDFs into one
// session and combines their extracted texts into a single corpus for the
// comparison callout.
type CompareIngestor struct {
	session *docstore.Session
	logger  *log.Logger
	tele    *telemetry.Telemetry
}

// NewCompareIngestor creates an ingestor bound to baseDir/sessionID. An
// empty sessionID starts a fresh session.
func NewCompareIngestor(baseDir, sessionID string, logger *log.Logger) (*CompareIngestor, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[COMPARE] ", log.LstdFlags)
	}
	session, err := docstore.New(baseDir, sessionID, logger)
	if err != nil {
		if errors.Is(err, docstore.ErrInvalidSessionID) {
			return nil, newError(KindValidation, "init", sessionID, baseDir, err)
		}
		return nil, newError(KindStorage, "init", sessionID, baseDir, err)
	}
	return &CompareIngestor{session: session, logger: logger}, nil
}

// WithTelemetry attaches a telemetry sink. Safe to skip.
func (ci *CompareIngestor) WithTelemetry(t *telemetry.Telemetry) *CompareIngestor {
	ci.tele = t
	return ci
}

// Session exposes the underlying session store.
func (ci *CompareIngestor) Session() *docstore.Session { return ci.session }

// SavePair persists the reference and actual documents under their
// sanitized original names. Both names must end in .pdf and must not
// resolve to the same destination; those failures are validation errors,
// distinct from storage failures, and nothing is written. Writes go
// through the same atomic temp-file discipline as single-document saves.
func (ci *CompareIngestor) SavePair(ref, actual Upload, maxSizeMB int) (string, string, error) {
	const op = "save_pair"
	for _, u := range []Upload{ref, actual} {
		if !strings.HasSuffix(strings.ToLower(u.Name()), ".pdf") {
			ci.tele.RecordFailure(string(KindValidation))
			return "", "", validationError(op, ci.session.ID(), "", "file must be a PDF, got %q", u.Name())
		}
	}

	refPath := filepath.Join(ci.session.Path(), SanitizeFilename(ref.Name()))
	actualPath := filepath.Join(ci.session.Path(), SanitizeFilename(actual.Name()))
	if refPath == actualPath {
		ci.tele.RecordFailure(string(KindValidation))
		return "", "", validationError(op, ci.session.ID(), refPath,
			"reference and actual files cannot have the same name")
	}

	maxBytes := int64(maxSizeMB) * 1024 * 1024
	refSize, err := streamToFile(op, ci.session.ID(), ref, refPath, maxBytes)
	if err != nil {
		ci.recordStreamFailure(err)
		return "", "", err
	}
	actualSize, err := streamToFile(op, ci.session.ID(), actual, actualPath, maxBytes)
	if err != nil {
		ci.recordStreamFailure(err)
		return "", "", err
	}

	ci.tele.RecordUpload(refSize)
	ci.tele.RecordUpload(actualSize)
	ci.logger.Printf("pair saved session=%s ref=%s (%d bytes) actual=%s (%d bytes)",
		ci.session.ID(), refPath, refSize, actualPath, actualSize)
	return refPath, actualPath, nil
}

func (ci *CompareIngestor) recordStreamFailure(err error) {
	var ie *Error
	if errors.As(err, &ie) {
		ci.tele.RecordFailure(string(ie.Kind))
	}
}

// ReadPDF extracts the text of every non-blank page, each preceded by a
// page header. Missing paths, non-regular files and encrypted documents
// are validation errors; a zero-page document yields an empty string, not
// an error. Pages whose text is empty or whitespace-only are skipped
// entirely.
func (ci *CompareIngestor) ReadPDF(path string) (string, error) {
	const op = "read_pdf"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", validationError(op, ci.session.ID(), path, "pdf file does not exist")
		}
		return "", newError(KindStorage, op, ci.session.ID(), path, err)
	}
	if !info.Mode().IsRegular() {
		return "", validationError(op, ci.session.ID(), path, "path is not a regular file")
	}

	doc, err := extract.Open(path)
	if err != nil {
		if errors.Is(err, extract.ErrEncrypted) {
			return "", validationError(op, ci.session.ID(), path, "pdf is encrypted")
		}
		return "", newError(KindStorage, op, ci.session.ID(), path, err)
	}
	defer doc.Close()

	total := doc.NumPages()
	if total == 0 {
		ci.logger.Printf("pdf has no pages session=%s path=%s", ci.session.ID(), path)
		return "", nil
	}

	var pageTexts []string
	for n := 1; n <= total; n++ {
		text, err := doc.PageText(n)
		if err != nil {
			return "", newError(KindStorage, op, ci.session.ID(), path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pageTexts = append(pageTexts, fmt.Sprintf("\n--- Page %d ---\n%s", n, text))
	}

	combined := strings.Join(pageTexts, "\n")
	ci.logger.Printf("pdf read session=%s path=%s pages=%d pages_with_text=%d text_bytes=%d",
		ci.session.ID(), path, total, len(pageTexts), len(combined))
	return combined, nil
}

// documentContent is one successfully read document inside a combine run.
type documentContent struct {
	name      string
	content   string
	sizeBytes int64
	charCount int
}

// Combine reads every .pdf in the session directory in filename order and
// joins the usable ones into a single corpus with document-name headers.
// Per-document failures are logged and skipped; only when every document
// fails does Combine fail. No documents at all yields an empty string.
func (ci *CompareIngestor) Combine() (string, error) {
	const op = "combine"
	entries, err := os.ReadDir(ci.session.Path())
	if err != nil {
		return "", newError(KindStorage, op, ci.session.ID(), ci.session.Path(), err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		ci.logger.Printf("no pdf files to combine session=%s", ci.session.ID())
		return "", nil
	}

	var docs []documentContent
	failed := 0
	for _, name := range names {
		path := filepath.Join(ci.session.Path(), name)
		content, err := ci.ReadPDF(path)
		if err != nil {
			ci.logger.Printf("skipping %s: %v", name, err)
			failed++
			continue
		}
		if strings.TrimSpace(content) == "" {
			ci.logger.Printf("no content extracted from %s", name)
			failed++
			continue
		}
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		docs = append(docs, documentContent{
			name:      name,
			content:   content,
			sizeBytes: size,
			charCount: len(content),
		})
	}

	if len(docs) == 0 {
		ci.tele.RecordFailure(string(KindPartialBatch))
		return "", newError(KindPartialBatch, op, ci.session.ID(), ci.session.Path(),
			fmt.Errorf("no documents could be processed, %d failed", failed))
	}

	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = fmt.Sprintf("Document: %s\n%s", d.name, d.content)
	}
	ci.logger.Printf("documents combined session=%s succeeded=%d failed=%d", ci.session.ID(), len(docs), failed)
	return strings.Join(parts, "\n\n"), nil
}

// CleanupSession tears down the session directory, returning the number
// of files deleted.
func (ci *CompareIngestor) CleanupSession() (int, error) {
	deleted, err := ci.session.Cleanup()
	if err != nil {
		return deleted, newError(KindStorage, "cleanup", ci.session.ID(), ci.session.Path(), err)
	}
	return deleted, nil
}
