package pipeline

import (
	"errors"
	"fmt"

	"lotwatch/internal/device"
	"lotwatch/internal/scan"
	"lotwatch/internal/tables"
)

// ErrorClass groups errors by how far their effect reaches.
type ErrorClass int

const (
	// ClassFatal stops the pipeline.
	ClassFatal ErrorClass = iota
	// ClassRecord drops one record.
	ClassRecord
	// ClassTable stops routing for one process this cycle.
	ClassTable
	// ClassNotification is logged only.
	ClassNotification
)

func (c ErrorClass) String() string {
	switch c {
	case ClassRecord:
		return "record"
	case ClassTable:
		return "table"
	case ClassNotification:
		return "notification"
	default:
		return "fatal"
	}
}

// Classify maps err onto the pipeline's error taxonomy.
func Classify(err error) ErrorClass {
	var (
		lookupErr  *scan.SchemaLookupError
		formatErr  *scan.FieldFormatError
		storageErr *tables.StorageError
		notifyErr  *device.NotificationError
	)
	switch {
	case err == nil:
		return ClassFatal
	case errors.As(err, &lookupErr), errors.As(err, &formatErr):
		return ClassRecord
	case errors.As(err, &storageErr), errors.Is(err, tables.ErrTableNotFound):
		return ClassTable
	case errors.As(err, &notifyErr):
		return ClassNotification
	default:
		return ClassFatal
	}
}

// ErrorType names err for the failure log.
func ErrorType(err error) string {
	var (
		lookupErr  *scan.SchemaLookupError
		formatErr  *scan.FieldFormatError
		storageErr *tables.StorageError
		notifyErr  *device.NotificationError
	)
	switch {
	case errors.As(err, &lookupErr):
		return "SchemaLookupError"
	case errors.As(err, &formatErr):
		return "FieldFormatError"
	case errors.Is(err, tables.ErrTableNotFound):
		return "TableNotFound"
	case errors.As(err, &storageErr):
		return "StorageError"
	case errors.As(err, &notifyErr):
		return "NotificationError"
	default:
		return fmt.Sprintf("%T", err)
	}
}
