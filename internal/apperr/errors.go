// Package apperr holds the error taxonomy of the exporter. Callers check
// kinds with errors.Is, never by message text.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPathAmbiguous = errors.New("path ambiguous")
	ErrIO            = errors.New("io failure")
)

// DocumentError reports a failed document export.
type DocumentError struct {
	Path string
	Op   string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("export %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Wrap annotates err with op and tags it as ErrIO unless it already
// carries a known kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrIO) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}
