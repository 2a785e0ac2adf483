package tables

import (
	"errors"
	"fmt"
)

// ErrTableNotFound reports a process table file that does not exist.
var ErrTableNotFound = errors.New("table not found")

// StorageError reports an I/O failure against a process table.
type StorageError struct {
	Process string
	Op      string
	Path    string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s table %s (%s): %v", e.Op, e.Process, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
