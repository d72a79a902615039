package ingest

import (
	"errors"
	"fmt"
)

// Kind discriminates ingestion failures so callers can branch on "bad
// input" versus "system failure" without inspecting error strings.
type Kind string

const (
	// KindValidation marks caller-supplied input violating a precondition:
	// wrong extension, duplicate destination names, encrypted PDF,
	// non-existent path, not a regular file. Never wrapped in another kind.
	KindValidation Kind = "validation"
	// KindStorage marks filesystem failures while writing, reading or
	// deleting. Always wraps the underlying cause.
	KindStorage Kind = "storage"
	// KindFormat marks content failing the %PDF- magic-byte check. Raised
	// on the very first chunk, before further bytes are written.
	KindFormat Kind = "format"
	// KindSizeLimit marks an upload exceeding its configured maximum.
	// Raised before the offending bytes are persisted.
	KindSizeLimit Kind = "size_limit"
	// KindPartialBatch marks a combine call where every document failed.
	KindPartialBatch Kind = "partial_batch"
)

// Error is the tagged error type for all ingestion operations. It carries
// enough context (operation, session, path) to diagnose a failure without
// reading logs.
type Error struct {
	Kind    Kind
	Op      string
	Session string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Session != "" {
		msg += " session=" + e.Session
	}
	if e.Path != "" {
		msg += " path=" + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an ingestion *Error of exactly the given kind.
func IsKind(err error, kind Kind) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Kind == kind
}

// IsStorage reports whether err is a storage failure, including the
// size-limit and format specializations.
func IsStorage(err error) bool {
	var ie *Error
	if !errors.As(err, &ie) {
		return false
	}
	return ie.Kind == KindStorage || ie.Kind == KindSizeLimit || ie.Kind == KindFormat
}

func newError(kind Kind, op, session, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Session: session, Path: path, Err: err}
}

func validationError(op, session, path, format string, args ...any) *Error {
	return newError(KindValidation, op, session, path, fmt.Errorf(format, args...))
}
