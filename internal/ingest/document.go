package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/docportal/internal/docstore"
	"github.com/mohammad-safakhou/docportal/internal/extract"
	"github.com/mohammad-safakhou/docportal/internal/telemetry"
)

const (
	// chunkSize is the streaming unit for uploads; peak memory per save is
	// bounded by it regardless of upload size.
	chunkSize = 64 * 1024

	// defaultMaxTextBytes is the extraction soft cap: accumulation stops,
	// without failing, once it would be exceeded.
	defaultMaxTextBytes = 1 << 20
)

var pdfMagic = []byte("%PDF-")

// DocumentHandler ingests single uploaded PDFs into one session: it
// validates, atomically persists and extracts text with size and format
// guards.
type DocumentHandler struct {
	session      *docstore.Session
	maxTextBytes int64
	logger       *log.Logger
	tele         *telemetry.Telemetry
}

// NewDocumentHandler creates a handler bound to baseDir/sessionID. An
// empty sessionID starts a fresh session. maxTextBytes <= 0 selects the
// 1 MiB default.
func NewDocumentHandler(baseDir, sessionID string, maxTextBytes int64, logger *log.Logger) (*DocumentHandler, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	if maxTextBytes <= 0 {
		maxTextBytes = defaultMaxTextBytes
	}
	session, err := docstore.New(baseDir, sessionID, logger)
	if err != nil {
		if errors.Is(err, docstore.ErrInvalidSessionID) {
			return nil, newError(KindValidation, "init", sessionID, baseDir, err)
		}
		return nil, newError(KindStorage, "init", sessionID, baseDir, err)
	}
	return &DocumentHandler{session: session, maxTextBytes: maxTextBytes, logger: logger}, nil
}

// WithTelemetry attaches a telemetry sink. Safe to skip.
func (h *DocumentHandler) WithTelemetry(t *telemetry.Telemetry) *DocumentHandler {
	h.tele = t
	return h
}

// Session exposes the underlying session store.
func (h *DocumentHandler) Session() *docstore.Session { return h.session }

// Save validates and persists one uploaded PDF into the session
// directory, streaming in 64 KiB chunks through a temp file that is
// atomically renamed into place. The final file never exists unless fully
// written; any failure removes the temp file before returning. Returns
// the absolute path of the stored document.
func (h *DocumentHandler) Save(u Upload, maxSizeMB int) (string, error) {
	const op = "save"
	clean := SanitizeFilename(u.Name())
	if !strings.HasSuffix(strings.ToLower(clean), ".pdf") {
		err := validationError(op, h.session.ID(), "", "only PDF files are supported, got %q", u.Name())
		h.tele.RecordFailure(string(KindValidation))
		return "", err
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	unique := fmt.Sprintf("%s_%s.pdf", stemOf(clean), suffix)
	finalPath := filepath.Join(h.session.Path(), unique)

	size, err := streamToFile(op, h.session.ID(), u, finalPath, int64(maxSizeMB)*1024*1024)
	if err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			h.tele.RecordFailure(string(ie.Kind))
		}
		h.logger.Printf("save failed session=%s file=%q: %v", h.session.ID(), u.Name(), err)
		return "", err
	}

	h.tele.RecordUpload(size)
	h.logger.Printf("document saved session=%s file=%q path=%s size_bytes=%d",
		h.session.ID(), u.Name(), finalPath, size)
	return finalPath, nil
}

// Read extracts text from a stored PDF with page markers, one page at a
// time. maxPages <= 0 reads all pages. Accumulation stops silently once
// the soft cap would be exceeded; truncation is logged, not failed.
func (h *DocumentHandler) Read(path string, maxPages int) (string, error) {
	const op = "read"
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", validationError(op, h.session.ID(), path, "document does not exist")
		}
		return "", newError(KindStorage, op, h.session.ID(), path, err)
	}

	doc, err := extract.Open(path)
	if err != nil {
		if errors.Is(err, extract.ErrEncrypted) {
			return "", validationError(op, h.session.ID(), path, "pdf is encrypted")
		}
		return "", newError(KindStorage, op, h.session.ID(), path, err)
	}
	defer doc.Close()

	total := doc.NumPages()
	pages := total
	if maxPages > 0 && maxPages < total {
		pages = maxPages
	}

	var out strings.Builder
	var size int64
	truncated := false
	for n := 1; n <= pages && !truncated; n++ {
		text, err := doc.PageText(n)
		if err != nil {
			return "", newError(KindStorage, op, h.session.ID(), path, err)
		}
		for _, frag := range []string{fmt.Sprintf("\n--- Page %d ---\n", n), text, "\n"} {
			if size+int64(len(frag)) > h.maxTextBytes {
				h.logger.Printf("extraction truncated session=%s path=%s at_page=%d size_bytes=%d cap=%d",
					h.session.ID(), path, n, size, h.maxTextBytes)
				h.tele.RecordTruncation()
				truncated = true
				break
			}
			out.WriteString(frag)
			size += int64(len(frag))
		}
	}

	h.logger.Printf("document read session=%s path=%s pages=%d text_bytes=%d", h.session.ID(), path, pages, size)
	return out.String(), nil
}

// CleanupSession tears down the session directory, returning the number
// of files deleted. Unlike pruning, partial failure here is an error.
func (h *DocumentHandler) CleanupSession() (int, error) {
	deleted, err := h.session.Cleanup()
	if err != nil {
		return deleted, newError(KindStorage, "cleanup", h.session.ID(), h.session.Path(), err)
	}
	return deleted, nil
}

// streamToFile streams the upload into dst via a temp file in the same
// directory: the first chunk must carry the %PDF- signature, the running
// total may never exceed maxBytes, and only a fully written, fsynced file
// is renamed into place. Every failure path removes the temp file.
func streamToFile(op, sessionID string, u Upload, dst string, maxBytes int64) (size int64, err error) {
	src, err := u.Open()
	if err != nil {
		return 0, newError(KindStorage, op, sessionID, dst, err)
	}
	defer src.Close()

	tmp := dst + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, newError(KindStorage, op, sessionID, tmp, err)
	}
	committed := false
	defer func() {
		f.Close()
		if !committed {
			os.Remove(tmp)
		}
	}()

	buf := make([]byte, chunkSize)
	var header []byte
	headerChecked := false
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if !headerChecked {
				header = append(header, chunk[:min(n, len(pdfMagic))]...)
				if len(header) >= len(pdfMagic) {
					if !bytes.HasPrefix(header, pdfMagic) {
						return 0, newError(KindFormat, op, sessionID, dst,
							errors.New("file content is not a valid PDF"))
					}
					headerChecked = true
				}
			}
			total += int64(n)
			if total > maxBytes {
				return 0, newError(KindSizeLimit, op, sessionID, dst,
					fmt.Errorf("file too large: %d bytes exceeds limit of %d", total, maxBytes))
			}
			if _, werr := f.Write(chunk); werr != nil {
				return 0, newError(KindStorage, op, sessionID, tmp, werr)
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				break
			}
			return 0, newError(KindStorage, op, sessionID, tmp, rerr)
		}
	}
	if !headerChecked {
		return 0, newError(KindFormat, op, sessionID, dst,
			errors.New("file content is not a valid PDF"))
	}

	if err := f.Sync(); err != nil {
		return 0, newError(KindStorage, op, sessionID, tmp, err)
	}
	if err := f.Close(); err != nil {
		return 0, newError(KindStorage, op, sessionID, tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return 0, newError(KindStorage, op, sessionID, dst, err)
	}
	committed = true
	return total, nil
}
