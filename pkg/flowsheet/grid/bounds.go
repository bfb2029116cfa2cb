package grid

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Bounds is the zero-based bounding box of the non-empty cells of a grid.
type Bounds struct {
	MinRow, MaxRow int
	MinCol, MaxCol int
	// Filled is the number of non-empty cells inside the box.
	Filled int
}

// Bounds returns the used range of the document; ok is false for a grid
// without any non-empty cell.
func (d *Document) Bounds() (b Bounds, ok bool) {
	b = Bounds{MinRow: -1, MaxRow: -1, MinCol: -1, MaxCol: -1}
	for rowIdx, row := range d.rows {
		for colIdx, cell := range row {
			if cell.IsEmpty() {
				continue
			}
			if b.MinRow < 0 || rowIdx < b.MinRow {
				b.MinRow = rowIdx
			}
			if rowIdx > b.MaxRow {
				b.MaxRow = rowIdx
			}
			if b.MinCol < 0 || colIdx < b.MinCol {
				b.MinCol = colIdx
			}
			if colIdx > b.MaxCol {
				b.MaxCol = colIdx
			}
			b.Filled++
		}
	}
	return b, b.Filled > 0
}

// Density is the share of non-empty cells in the box.
func (b Bounds) Density() float64 {
	total := (b.MaxRow - b.MinRow + 1) * (b.MaxCol - b.MinCol + 1)
	if total <= 0 {
		return 0
	}
	return float64(b.Filled) / float64(total)
}

// String returns the box in range notation, e.g. "A1:D10".
func (b Bounds) String() string {
	start, err := excelize.CoordinatesToCellName(b.MinCol+1, b.MinRow+1)
	if err != nil {
		return ""
	}
	end, err := excelize.CoordinatesToCellName(b.MaxCol+1, b.MaxRow+1)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s:%s", start, end)
}

// UsedRange returns the range notation of the used range, or "" for an
// empty grid.
func (d *Document) UsedRange() string {
	b, ok := d.Bounds()
	if !ok {
		return ""
	}
	return b.String()
}
