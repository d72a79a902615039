package docstore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSessionID reports a caller-supplied session identifier that
// could resolve outside its base directory.
var ErrInvalidSessionID = errors.New("invalid session id")

// DefaultKeepLatest is the retention fallback when a caller asks Prune to
// keep fewer than one session.
const DefaultKeepLatest = 3

// Session owns one isolated working directory under a base dir. All file
// operations for one logical ingestion task happen inside it; two
// sessions with different ids never resolve to overlapping paths.
type Session struct {
	id     string
	base   string
	path   string
	logger *log.Logger
}

// NewSessionID generates a session identifier from the current UTC time
// and a short random suffix. Collisions are treated as negligible.
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("session_%s_%s", time.Now().UTC().Format("20060102_150405"), suffix)
}

// validSessionID reports whether id names exactly one directory entry
// under the base dir. Anything carrying path separators or dot
// components could resolve outside the base after joining, so it is
// rejected rather than cleaned.
func validSessionID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) {
		return false
	}
	return id == filepath.Base(id)
}

// New creates (or reattaches to) the session directory base/sessionID.
// An empty sessionID gets a generated one; a non-empty one must be a
// plain directory name, never a path. Creating an already existing
// directory is fine.
func New(baseDir, sessionID string, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[DOCSTORE] ", log.LstdFlags)
	}
	if sessionID == "" {
		sessionID = NewSessionID()
	} else if !validSessionID(sessionID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	path := filepath.Join(baseDir, sessionID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory %s: %w", path, err)
	}
	logger.Printf("session ready id=%s path=%s", sessionID, path)
	return &Session{id: sessionID, base: baseDir, path: path, logger: logger}, nil
}

// Exists reports whether the session directory base/sessionID is
// already present, without creating it. Invalid identifiers are an
// error, not a negative answer.
func Exists(baseDir, sessionID string) (bool, error) {
	if !validSessionID(sessionID) {
		return false, fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	info, err := os.Stat(filepath.Join(baseDir, sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Path returns the session directory.
func (s *Session) Path() string { return s.path }

// BaseDir returns the storage base directory the session lives under.
func (s *Session) BaseDir() string { return s.base }

// Cleanup deletes every regular file directly inside the session
// directory, then removes the directory itself. Unlike Prune this is a
// caller-requested teardown, so any failure is reported instead of being
// tolerated. Returns the number of files deleted.
func (s *Session) Cleanup() (int, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return 0, fmt.Errorf("listing session %s: %w", s.id, err)
	}
	deleted := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(s.path, e.Name())
		if err := os.Remove(p); err != nil {
			return deleted, fmt.Errorf("deleting %s: %w", p, err)
		}
		deleted++
	}
	if err := os.Remove(s.path); err != nil {
		return deleted, fmt.Errorf("removing session directory %s: %w", s.path, err)
	}
	s.logger.Printf("session cleaned id=%s files_deleted=%d", s.id, deleted)
	return deleted, nil
}

// Prune removes old session directories under baseDir, keeping the
// keepLatest most recently modified ones. Individual deletion failures
// are logged and skipped so one stuck session does not block pruning of
// the others. keepLatest below 1 is clamped to DefaultKeepLatest rather
// than rejected. Returns the number of sessions removed.
func Prune(baseDir string, keepLatest int, logger *log.Logger) (int, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[DOCSTORE] ", log.LstdFlags)
	}
	if keepLatest < 1 {
		logger.Printf("prune: keep_latest %d is invalid, using default %d", keepLatest, DefaultKeepLatest)
		keepLatest = DefaultKeepLatest
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing base directory %s: %w", baseDir, err)
	}

	type sessionDir struct {
		name string
		mod  time.Time
	}
	var dirs []sessionDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			logger.Printf("prune: skipping %s: %v", e.Name(), err)
			continue
		}
		dirs = append(dirs, sessionDir{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mod.After(dirs[j].mod) })

	removed := 0
	for _, d := range dirs[min(keepLatest, len(dirs)):] {
		p := filepath.Join(baseDir, d.name)
		if err := os.RemoveAll(p); err != nil {
			logger.Printf("prune: could not remove %s: %v", p, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Printf("prune: removed %d of %d sessions under %s", removed, len(dirs), baseDir)
	}
	return removed, nil
}
