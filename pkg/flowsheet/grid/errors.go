package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat indicates the input bytes are not a readable xlsx container.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrNoWorksheet indicates the container holds no worksheet.
var ErrNoWorksheet = errors.New("no worksheet")

// DecodeError represents a failure to turn spreadsheet bytes into a Document.
type DecodeError struct {
	SheetName string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.SheetName == "" {
		return fmt.Sprintf("decode error: %v", e.Err)
	}
	return fmt.Sprintf("decode error in sheet %q: %v", e.SheetName, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(sheetName string, err error) *DecodeError {
	return &DecodeError{
		SheetName: sheetName,
		Err:       err,
	}
}
