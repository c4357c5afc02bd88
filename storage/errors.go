package storage

import (
	"errors"
	"fmt"
)

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrIndexNotFound    = errors.New("index not found")
	ErrUniqueConstraint = errors.New("unique constraint violation")
)

// StorageError reports a failure inside the storage engine. The
// operation is terminal; on-disk structures stay consistent.
type StorageError struct {
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return "storage: " + e.Message + ": " + e.Err.Error()
	}
	return "storage: " + e.Message
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErrorf(err error, format string, args ...any) error {
	return &StorageError{Message: fmt.Sprintf(format, args...), Err: err}
}
