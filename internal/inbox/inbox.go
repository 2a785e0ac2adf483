// Package inbox claims raw scanner output lines from the shared inbox file.
//
// The drain lock only excludes other lotwatch instances. A scanner writer that
// appends between the read and the truncate loses its line; writers that
// honor the same "<inbox>.lock" flock are safe.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/gofrs/flock"

	"lotwatch/internal/fileutil"
)

const lockRetryDelay = 20 * time.Millisecond

// Reader drains one inbox file.
type Reader struct {
	path string
	lock *flock.Flock
}

// New returns a Reader for path. A sibling "<path>.lock" file guards each drain.
func New(path string) *Reader {
	return &Reader{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the inbox file location.
func (r *Reader) Path() string {
	return r.path
}

// Drain returns every queued line and truncates the inbox so each line is
// claimed exactly once. A missing inbox is treated as empty.
func (r *Reader) Drain(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(r.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	locked, err := r.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock inbox: %w", err)
	}
	if !locked {
		return nil, errors.New("lock inbox: not acquired")
	}
	defer func() { _ = r.lock.Unlock() }()

	file, err := os.OpenFile(r.path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open inbox: %w", err)
	}
	defer file.Close()

	lines, err := fileutil.ScanLines(file)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	if err := file.Truncate(0); err != nil {
		return nil, fmt.Errorf("truncate inbox: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind inbox: %w", err)
	}
	return lines, nil
}
