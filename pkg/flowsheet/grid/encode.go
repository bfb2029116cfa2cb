package grid

import (
	"bytes"
	"fmt"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/xuri/excelize/v2"
)

// Encode serializes the document into a new single-worksheet xlsx container.
// Number formats of number and date cells are written as cell styles so that
// Decode reproduces the same kinds, values and annotations.
func Encode(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := doc.SheetID
	if sheetName == "" {
		sheetName = DefaultSheetID
	}
	if defaultName := f.GetSheetName(0); defaultName != sheetName {
		if err := f.SetSheetName(defaultName, sheetName); err != nil {
			return nil, fmt.Errorf("grid: rename sheet: %w", err)
		}
	}
	if doc.Date1904 {
		if err := setDate1904(f, true); err != nil {
			return nil, err
		}
	}

	w := newCellWriter(f, sheetName, false)
	for rowIdx, row := range doc.rows {
		for colIdx, cell := range row {
			if cell.IsEmpty() {
				continue
			}
			if err := w.write(rowIdx, colIdx, cell); err != nil {
				return nil, err
			}
		}
	}

	return writeBuffer(f)
}

// EncodeOnto writes the document over the workbook it was decoded from.
// Only cells of the first worksheet whose decoded value differs from doc
// are rewritten; styles, other sheets, formulas and layout of the base
// workbook are left as they were.
func EncodeOnto(base []byte, doc *Document) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(base))
	if err != nil {
		return nil, NewDecodeError("", fmt.Errorf("%w: %v", ErrInvalidFormat, err))
	}
	defer f.Close()

	orig, err := decodeFile(f)
	if err != nil {
		return nil, err
	}
	if orig.SheetID != doc.SheetID {
		return nil, fmt.Errorf("grid: document sheet %q does not match base sheet %q", doc.SheetID, orig.SheetID)
	}
	if orig.Date1904 != doc.Date1904 {
		if err := setDate1904(f, doc.Date1904); err != nil {
			return nil, err
		}
	}

	w := newCellWriter(f, orig.SheetID, true)
	for _, pos := range orig.Diff(doc) {
		if err := w.write(pos[0], pos[1], doc.Cell(pos[0], pos[1])); err != nil {
			return nil, err
		}
	}

	return writeBuffer(f)
}

func setDate1904(f *excelize.File, on bool) error {
	if err := f.SetWorkbookProps(&excelize.WorkbookPropsOptions{Date1904: &on}); err != nil {
		return fmt.Errorf("grid: set date system: %w", err)
	}
	return nil
}

func writeBuffer(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("grid: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type styleKey struct {
	base   int
	format models.NumFormat
}

// cellWriter writes typed cells into an excelize sheet. With keepStyle set,
// a number format change is applied on top of the cell's existing style
// instead of replacing it.
type cellWriter struct {
	f         *excelize.File
	sheetName string
	keepStyle bool
	styles    map[styleKey]int
}

func newCellWriter(f *excelize.File, sheetName string, keepStyle bool) *cellWriter {
	return &cellWriter{
		f:         f,
		sheetName: sheetName,
		keepStyle: keepStyle,
		styles:    make(map[styleKey]int),
	}
}

func (w *cellWriter) write(row, col int, cell models.Cell) error {
	cellName, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}

	switch cell.Kind {
	case models.KindText:
		err = w.f.SetCellStr(w.sheetName, cellName, cell.Text)
	case models.KindNumber, models.KindDate:
		if err = w.f.SetCellFloat(w.sheetName, cellName, cell.Number, -1, 64); err == nil {
			err = w.setFormat(cellName, cell.Format)
		}
	default:
		err = w.f.SetCellDefault(w.sheetName, cellName, "")
	}
	if err != nil {
		return fmt.Errorf("grid: write %s: %w", cellName, err)
	}
	return nil
}

func (w *cellWriter) setFormat(cellName string, format models.NumFormat) error {
	base := 0
	if w.keepStyle {
		id, err := w.f.GetCellStyle(w.sheetName, cellName)
		if err != nil {
			return err
		}
		base = id
	} else if format.IsZero() {
		return nil
	}

	key := styleKey{base: base, format: format}
	styleID, ok := w.styles[key]
	if !ok {
		style := &excelize.Style{}
		if w.keepStyle {
			current, err := w.f.GetStyle(base)
			if err != nil {
				return err
			}
			if numFormatOf(current) == format {
				w.styles[key] = base
				return nil
			}
			style = current
		}
		applyNumFormat(style, format)
		id, err := w.f.NewStyle(style)
		if err != nil {
			return err
		}
		styleID = id
		w.styles[key] = styleID
	}
	if w.keepStyle && styleID == base {
		return nil
	}
	return w.f.SetCellStyle(w.sheetName, cellName, cellName, styleID)
}
