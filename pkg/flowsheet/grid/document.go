// Package grid holds the in-memory cell grid of a single worksheet and its
// xlsx encoding.
package grid

import (
	"fmt"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/Tegakist/DSS/pkg/flowsheet/serial"
)

// DefaultSheetID names the worksheet of documents created without a source.
const DefaultSheetID = "Sheet1"

// Document is the typed cell grid of one worksheet. Rows are sparse: a row
// may hold fewer cells than the widest row, and missing positions read as
// empty cells.
type Document struct {
	// SheetID is the worksheet name the grid was decoded from.
	SheetID string
	// Date1904 is set when the workbook uses the 1904 date system.
	Date1904 bool

	rows [][]models.Cell
}

// New creates an empty document for the named sheet.
func New(sheetID string) *Document {
	if sheetID == "" {
		sheetID = DefaultSheetID
	}
	return &Document{SheetID: sheetID}
}

// FromRows builds a document from literal rows. The rows are copied.
func FromRows(sheetID string, rows [][]models.Cell) *Document {
	d := New(sheetID)
	d.rows = make([][]models.Cell, len(rows))
	for i, row := range rows {
		d.rows[i] = append([]models.Cell(nil), row...)
	}
	return d
}

// RowCount returns the number of row slots in the grid.
func (d *Document) RowCount() int {
	return len(d.rows)
}

// ColumnCount returns the width of the widest row.
func (d *Document) ColumnCount() int {
	width := 0
	for _, row := range d.rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// DateSystem returns the serial date system of the workbook.
func (d *Document) DateSystem() serial.System {
	if d.Date1904 {
		return serial.System1904
	}
	return serial.System1900
}

// Cell returns the cell at the zero-based position. Positions outside the
// grid read as empty.
func (d *Document) Cell(row, col int) models.Cell {
	if row < 0 || row >= len(d.rows) || col < 0 || col >= len(d.rows[row]) {
		return models.EmptyCell()
	}
	return d.rows[row][col]
}

// Row returns a copy of the cells of a row.
func (d *Document) Row(row int) []models.Cell {
	if row < 0 || row >= len(d.rows) {
		return nil
	}
	return append([]models.Cell(nil), d.rows[row]...)
}

// SetCell stores a cell at the zero-based position, extending the grid as
// needed. The grid never shrinks; only negative coordinates are rejected.
func (d *Document) SetCell(row, col int, c models.Cell) error {
	if row < 0 || col < 0 {
		return fmt.Errorf("grid: invalid position (%d, %d)", row, col)
	}
	for len(d.rows) <= row {
		d.rows = append(d.rows, nil)
	}
	for len(d.rows[row]) <= col {
		d.rows[row] = append(d.rows[row], models.EmptyCell())
	}
	d.rows[row][col] = c
	return nil
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{SheetID: d.SheetID, Date1904: d.Date1904}
	out.rows = make([][]models.Cell, len(d.rows))
	for i, row := range d.rows {
		out.rows[i] = append([]models.Cell(nil), row...)
	}
	return out
}

// Equal compares two documents cell for cell. Trailing empty cells and
// trailing empty rows are insignificant.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.SheetID != o.SheetID || d.Date1904 != o.Date1904 {
		return false
	}
	rows := max(len(d.rows), len(o.rows))
	for r := 0; r < rows; r++ {
		cols := max(d.width(r), o.width(r))
		for c := 0; c < cols; c++ {
			if !sameCell(d.Cell(r, c), o.Cell(r, c)) {
				return false
			}
		}
	}
	return true
}

// Diff returns the positions whose cells differ between two documents.
func (d *Document) Diff(o *Document) [][2]int {
	var out [][2]int
	rows := max(d.RowCount(), o.RowCount())
	for r := 0; r < rows; r++ {
		cols := max(d.width(r), o.width(r))
		for c := 0; c < cols; c++ {
			if !sameCell(d.Cell(r, c), o.Cell(r, c)) {
				out = append(out, [2]int{r, c})
			}
		}
	}
	return out
}

func (d *Document) width(row int) int {
	if row < 0 || row >= len(d.rows) {
		return 0
	}
	return len(d.rows[row])
}

func sameCell(a, b models.Cell) bool {
	if a.IsEmpty() && b.IsEmpty() {
		return true
	}
	return a == b
}
