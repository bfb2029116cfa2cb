// Package models defines data structures for spreadsheet record synchronization.
package models

import "strconv"

// CellKind is the storage kind of a single grid position.
type CellKind string

const (
	// KindEmpty marks an unpopulated position.
	KindEmpty CellKind = ""
	// KindText is a string value (shared, inline or formula string).
	KindText CellKind = "text"
	// KindNumber is a plain numeric value.
	KindNumber CellKind = "number"
	// KindDate is a numeric serial day count carrying a date-like number format.
	KindDate CellKind = "date"
)

// NumFormat is the number-format annotation of a numeric cell.
// Built-in formats are identified by ID, custom ones by their format code.
type NumFormat struct {
	// ID is the built-in number format id (1-163), zero when unset.
	ID int `json:"id,omitempty"`
	// Code is the custom format code, e.g. "yyyy/m/d".
	Code string `json:"code,omitempty"`
}

// IsZero reports whether no number format is set.
func (f NumFormat) IsZero() bool {
	return f.ID == 0 && f.Code == ""
}

// DefaultDateFormat is the built-in short date format (m/d/yyyy, localized by the reader).
var DefaultDateFormat = NumFormat{ID: 14}

// Cell is a single grid position's typed value.
type Cell struct {
	// Kind is the storage kind.
	Kind CellKind `json:"kind,omitempty"`
	// Text holds the value of text cells.
	Text string `json:"text,omitempty"`
	// Number holds the value of number cells and the serial of date cells.
	Number float64 `json:"number,omitempty"`
	// Format is the number format of number and date cells.
	Format NumFormat `json:"format,omitempty"`
}

// EmptyCell returns an empty cell.
func EmptyCell() Cell {
	return Cell{}
}

// TextCell returns a text cell.
func TextCell(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

// NumberCell returns a number cell with an optional number format.
func NumberCell(v float64, format NumFormat) Cell {
	return Cell{Kind: KindNumber, Number: v, Format: format}
}

// DateCell returns a date cell. A zero format falls back to DefaultDateFormat.
func DateCell(serial float64, format NumFormat) Cell {
	if format.IsZero() {
		format = DefaultDateFormat
	}
	return Cell{Kind: KindDate, Number: serial, Format: format}
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty || (c.Kind == KindText && c.Text == "")
}

// IsNumeric reports whether the cell holds a number or a date serial.
func (c Cell) IsNumeric() bool {
	return c.Kind == KindNumber || c.Kind == KindDate
}

// String returns the raw value as text. Numbers and date serials use the
// shortest decimal representation.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber, KindDate:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}
