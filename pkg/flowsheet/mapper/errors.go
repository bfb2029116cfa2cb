package mapper

import (
	"errors"
	"fmt"
)

var (
	// ErrAnchorOutOfRange indicates a record anchor row with no row slot in the grid.
	ErrAnchorOutOfRange = errors.New("anchor row out of range")
	// ErrAnchorInHeader indicates a record anchored inside the header rows.
	ErrAnchorInHeader = errors.New("anchor row inside header")
	// ErrDuplicateAnchor indicates two records anchored to the same row.
	ErrDuplicateAnchor = errors.New("duplicate anchor row")
	// ErrUnanchored indicates a record that was never read from a grid.
	ErrUnanchored = errors.New("record has no anchor row")
	// ErrUnknownStatus indicates a status outside the internal set.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrInvalidLayout indicates an unusable layout configuration.
	ErrInvalidLayout = errors.New("invalid layout")
)

// WriteBackError represents a record that cannot be written into the target grid.
type WriteBackError struct {
	RecordID string
	Row      int
	Err      error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write-back error for record %q (row %d): %v", e.RecordID, e.Row, e.Err)
}

func (e *WriteBackError) Unwrap() error {
	return e.Err
}

// NewWriteBackError creates a new WriteBackError.
func NewWriteBackError(recordID string, row int, err error) *WriteBackError {
	return &WriteBackError{
		RecordID: recordID,
		Row:      row,
		Err:      err,
	}
}

func fmtDuplicate(otherID string) error {
	return fmt.Errorf("%w: row already written by record %q", ErrDuplicateAnchor, otherID)
}
