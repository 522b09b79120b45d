package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Artifact file names inside a run directory.
const (
	SummariesFile  = "chunk_summaries.json"
	ContextFile    = "conversation_context.json"
	HighlightsFile = "highlights.json"
	TranscriptFile = "transcript.json"
	RunLogFile     = "run.log"
	lockFile       = ".rexpaces.lock"
)

// ErrLocked is returned by Open when another process holds the directory.
var ErrLocked = errors.New("artifact directory is locked by another run")

// Store reads and writes the JSON artifacts of one run directory. It holds an
// advisory lock on the directory until Close.
type Store struct {
	dir  string
	lock *flock.Flock
}

// Open creates dir if needed and takes its lock without blocking.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("artifact directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire artifact lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &Store{dir: dir, lock: lock}, nil
}

// Close releases the directory lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Dir returns the run directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of an artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named artifact is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// CanResume reports whether both pass-one artifacts exist.
func (s *Store) CanResume() bool {
	return s.Exists(SummariesFile) && s.Exists(ContextFile)
}

// Save writes v as two-space indented JSON, replacing the file atomically.
func (s *Store) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := writeFileAtomic(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Load decodes the named artifact into v.
func (s *Store) Load(name string, v any) error {
	return ReadJSON(s.dir, name, v)
}

// ReadJSON decodes an artifact without taking the directory lock, for
// read-only inspection.
func ReadJSON(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s not found in %s: %w", name, dir, err)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
