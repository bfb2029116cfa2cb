package flowsheet

import (
	"errors"

	"github.com/Tegakist/DSS/pkg/flowsheet/grid"
	"github.com/Tegakist/DSS/pkg/flowsheet/layout"
	"github.com/Tegakist/DSS/pkg/flowsheet/mapper"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input is not a valid xlsx container.
var ErrInvalidFormat = grid.ErrInvalidFormat

// ErrNoWorksheet indicates a workbook without worksheets.
var ErrNoWorksheet = grid.ErrNoWorksheet

// ErrUnknownRecord indicates a record id that is not part of the session.
var ErrUnknownRecord = errors.New("unknown record")

// ErrUnknownField indicates a field name the layout does not declare.
var ErrUnknownField = errors.New("unknown field")

// ErrEmptyLabel indicates an attempt to store a record without a label.
var ErrEmptyLabel = errors.New("record label is empty")

// ErrUnknownStatus indicates a status outside the internal set.
var ErrUnknownStatus = mapper.ErrUnknownStatus

// DecodeError represents a malformed or empty spreadsheet container.
type DecodeError = grid.DecodeError

// WriteBackError represents a record that cannot be written into the workbook.
type WriteBackError = mapper.WriteBackError

// ConfigError represents an invalid layout configuration.
type ConfigError = layout.ConfigError
