package tables

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"lotwatch/internal/fileutil"
	"lotwatch/internal/logging"
	"lotwatch/internal/scan"
	"lotwatch/internal/traceability"
)

const (
	tableExt       = ".txt"
	lockRetryDelay = 25 * time.Millisecond
)

// Store owns the table files under one directory.
type Store struct {
	dir       string
	codec     *scan.Codec
	validator *traceability.Validator
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string, codec *scan.Codec, validator *traceability.Validator, logger *slog.Logger) *Store {
	return &Store{
		dir:       dir,
		codec:     codec,
		validator: validator,
		logger:    logging.NewComponentLogger(logger, "tables"),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Path returns the table file for process.
func (s *Store) Path(process string) string {
	return filepath.Join(s.dir, process+tableExt)
}

func (s *Store) lockPath(process string) string {
	return filepath.Join(s.dir, "."+process+".lock")
}

func (s *Store) processMutex(process string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[process]
	if !ok {
		m = &sync.Mutex{}
		s.locks[process] = m
	}
	return m
}

// Append validates event against the current table contents and persists it
// when valid. DuplicateScan and MissingPrevious leave the table untouched.
func (s *Store) Append(ctx context.Context, processName string, event scan.Event) (Outcome, error) {
	m := s.processMutex(processName)
	m.Lock()
	defer m.Unlock()

	unlock, err := s.lockFile(ctx, processName)
	if err != nil {
		return Valid, err
	}
	defer unlock()

	lines, rows, err := s.load(ctx, processName)
	if err != nil {
		return Valid, err
	}

	if previous, ok := event.Process.PreviousProcess(); ok {
		_, previousRows, err := s.load(ctx, previous)
		if err != nil {
			return Valid, err
		}
		if !s.validator.HasPreviousProcessMatch(event, previousRows) {
			return MissingPrevious, nil
		}
	}

	if s.validator.IsDuplicate(event, rows) {
		return DuplicateScan, nil
	}

	lines = append(lines, scan.Encode(event))
	path := s.Path(processName)
	if err := fileutil.WriteLinesAtomic(path, lines, 0o644); err != nil {
		return Valid, &StorageError{Process: processName, Op: "write", Path: path, Err: err}
	}
	return Valid, nil
}

// Load returns the decoded rows of a process table.
func (s *Store) Load(ctx context.Context, process string) ([]scan.Event, error) {
	_, rows, err := s.load(ctx, process)
	return rows, err
}

// load returns raw lines alongside the rows that decoded. Raw lines are
// rewritten verbatim so unreadable history is never lost.
func (s *Store) load(ctx context.Context, process string) ([]string, []scan.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	path := s.Path(process)
	lines, err := fileutil.ReadLines(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &StorageError{Process: process, Op: "load", Path: path, Err: ErrTableNotFound}
		}
		return nil, nil, &StorageError{Process: process, Op: "load", Path: path, Err: err}
	}
	rows := make([]scan.Event, 0, len(lines))
	for idx, line := range lines {
		row, err := s.codec.DecodeRow(line)
		if err != nil {
			logging.WarnWithContext(s.logger, "table row skipped", "table_row_invalid",
				logging.String(logging.FieldProcess, process),
				logging.Int("line", idx+1),
				logging.Error(err),
				logging.String(logging.FieldImpact, "row is ignored during validation"),
				logging.String(logging.FieldErrorHint, "inspect the table file for manual edits"),
			)
			continue
		}
		rows = append(rows, row)
	}
	return lines, rows, nil
}

func (s *Store) lockFile(ctx context.Context, process string) (func(), error) {
	path := s.lockPath(process)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, &StorageError{Process: process, Op: "lock", Path: path, Err: err}
	}
	lock := flock.New(path)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &StorageError{Process: process, Op: "lock", Path: path, Err: err}
	}
	if !locked {
		return nil, &StorageError{Process: process, Op: "lock", Path: path, Err: errors.New("lock not acquired")}
	}
	return func() { _ = lock.Unlock() }, nil
}

// Summary describes one table file.
type Summary struct {
	Process  string
	Path     string
	Exists   bool
	Rows     int
	Modified time.Time
}

// Summarize reports row counts for the named processes.
func (s *Store) Summarize(processes []string) ([]Summary, error) {
	out := make([]Summary, 0, len(processes))
	for _, process := range processes {
		summary := Summary{Process: process, Path: s.Path(process)}
		info, err := os.Stat(summary.Path)
		switch {
		case err == nil:
			summary.Exists = true
			summary.Modified = info.ModTime()
			lines, err := fileutil.ReadLines(summary.Path)
			if err != nil {
				return nil, &StorageError{Process: process, Op: "load", Path: summary.Path, Err: err}
			}
			summary.Rows = len(lines)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, &StorageError{Process: process, Op: "stat", Path: summary.Path, Err: err}
		}
		out = append(out, summary)
	}
	return out, nil
}

// Create makes an empty table for process. It reports false when the table already exists.
func (s *Store) Create(process string) (bool, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("create tables directory: %w", err)
	}
	path := s.Path(process)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, &StorageError{Process: process, Op: "create", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return false, &StorageError{Process: process, Op: "create", Path: path, Err: err}
	}
	return true, nil
}
