// Package mapper maps worksheet rows to status-tracked records and merges
// edited records back into the worksheet.
package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/Tegakist/DSS/pkg/flowsheet/serial"
)

// FieldKind is the value kind of an optional column.
type FieldKind string

const (
	// FieldText reads the cell as text.
	FieldText FieldKind = "text"
	// FieldNumber keeps numeric cells as numbers.
	FieldNumber FieldKind = "number"
	// FieldDate keeps numeric cells as raw date serials.
	FieldDate FieldKind = "date"
)

// Valid reports whether k is a known field kind.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldText, FieldNumber, FieldDate:
		return true
	}
	return false
}

// DefaultDisplayLayout is the time layout used to show date fields.
const DefaultDisplayLayout = "2006-01-02"

// Field is an optional descriptive column.
type Field struct {
	Name   string    `json:"name"`
	Column int       `json:"column"`
	Kind   FieldKind `json:"kind"`
}

// Layout fixes where records live in the worksheet and how statuses are spelled.
type Layout struct {
	// HeaderRowOffset is the zero-based index of the last header row.
	// Records are read from the rows after it; -1 means no header.
	HeaderRowOffset int
	// StatusColumn is the zero-based column holding the status token.
	StatusColumn int
	// LabelColumn is the zero-based column holding the record label.
	LabelColumn int
	// Fields are the optional columns.
	Fields []Field
	// Vocabulary translates statuses to grid tokens.
	Vocabulary *Vocabulary
	// DateFormat is the number format written into date cells that had none.
	DateFormat models.NumFormat
	// DisplayLayout is the time layout used by Display for date fields.
	DisplayLayout string
}

// DataStart returns the first row that may hold a record.
func (l *Layout) DataStart() int {
	return l.HeaderRowOffset + 1
}

// Field returns the optional column with the given name.
func (l *Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the layout: columns must be non-negative and pairwise
// distinct, field names unique and non-empty, and a vocabulary present.
func (l *Layout) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: nil layout", ErrInvalidLayout)
	}
	if l.HeaderRowOffset < -1 {
		return fmt.Errorf("%w: header row offset %d", ErrInvalidLayout, l.HeaderRowOffset)
	}
	if l.Vocabulary == nil {
		return fmt.Errorf("%w: no status vocabulary", ErrInvalidLayout)
	}

	columns := map[int]string{}
	claim := func(name string, col int) error {
		if col < 0 {
			return fmt.Errorf("%w: column of %q is negative (%d)", ErrInvalidLayout, name, col)
		}
		if other, taken := columns[col]; taken {
			return fmt.Errorf("%w: %q and %q share column %d", ErrInvalidLayout, other, name, col)
		}
		columns[col] = name
		return nil
	}
	if err := claim("status", l.StatusColumn); err != nil {
		return err
	}
	if err := claim("label", l.LabelColumn); err != nil {
		return err
	}

	names := map[string]bool{}
	for _, f := range l.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("%w: field at column %d has no name", ErrInvalidLayout, f.Column)
		}
		if names[name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidLayout, name)
		}
		names[name] = true
		if !f.Kind.Valid() {
			return fmt.Errorf("%w: field %q has unknown kind %q", ErrInvalidLayout, name, f.Kind)
		}
		if err := claim(name, f.Column); err != nil {
			return err
		}
	}
	return nil
}

// Display renders a record field for presentation. Date serials are
// formatted as calendar dates in the given date system; anything that is
// not a valid serial is shown as its raw value.
func (l *Layout) Display(r models.Record, name string, sys serial.System) string {
	v, ok := r.Field(name)
	if !ok {
		return ""
	}
	if !v.IsNumber() {
		return v.Text
	}
	if f, ok := l.Field(name); ok && f.Kind == FieldDate {
		layout := l.DisplayLayout
		if layout == "" {
			layout = DefaultDisplayLayout
		}
		if s, err := serial.Format(*v.Number, sys, layout); err == nil {
			return s
		}
	}
	return strconv.FormatFloat(*v.Number, 'f', -1, 64)
}
