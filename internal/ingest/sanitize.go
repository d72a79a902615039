package ingest

import (
	"path"
	"regexp"
	"strings"
)

const maxFilenameLen = 255

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9 _.\-()]`)

// SanitizeFilename maps an arbitrary untrusted filename to a safe on-disk
// name. It strips directory components (including Windows separators),
// replaces every character outside [A-Za-z0-9 _.-()] with an underscore,
// trims surrounding whitespace, forces a .pdf extension and caps the
// result at 255 characters. Total: any input, including empty strings and
// path-traversal payloads, yields a usable filename.
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" {
		base = ""
	}
	safe := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(base, "_"))
	if !strings.HasSuffix(strings.ToLower(safe), ".pdf") {
		safe += ".pdf"
	}
	if len(safe) > maxFilenameLen {
		// keep the extension when truncating
		stem := safe[:maxFilenameLen-len(".pdf")]
		safe = stem + ".pdf"
	}
	return safe
}

// stemOf returns the filename without its extension.
func stemOf(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
