package mapper

import (
	"github.com/Tegakist/DSS/pkg/flowsheet/grid"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// Merge returns a copy of doc with the records written back at their anchor
// rows. Only the status, label and present optional fields of each record
// are addressed, and a cell is rewritten only when its content does not
// already represent the record's value. Every record is checked before
// anything is written; on error no document is returned and doc is never
// modified.
func Merge(doc *grid.Document, records []models.Record, layout *Layout) (*grid.Document, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[int]string, len(records))
	for _, r := range records {
		if err := checkAnchor(doc, r, layout); err != nil {
			return nil, err
		}
		if other, dup := seen[r.AnchorRow]; dup {
			return nil, NewWriteBackError(r.ID, r.AnchorRow, fmtDuplicate(other))
		}
		seen[r.AnchorRow] = r.ID
	}

	out := doc.Clone()
	for _, r := range records {
		if err := writeRecord(out, r, layout, false); err != nil {
			return nil, NewWriteBackError(r.ID, r.AnchorRow, err)
		}
	}
	return out, nil
}

// Append writes unanchored records into fresh rows after the last row of
// doc and returns the new document together with the records, now anchored.
// Records that already carry an anchor row are returned unchanged and are
// not written; use Merge for them.
func Append(doc *grid.Document, records []models.Record, layout *Layout) (*grid.Document, []models.Record, error) {
	if err := layout.Validate(); err != nil {
		return nil, nil, err
	}
	for _, r := range records {
		if !r.Anchored() && !r.Status.Valid() {
			return nil, nil, NewWriteBackError(r.ID, r.AnchorRow, ErrUnknownStatus)
		}
	}

	out := doc.Clone()
	next := max(out.RowCount(), layout.DataStart())
	placed := models.CloneRecords(records)
	for i := range placed {
		if placed[i].Anchored() {
			continue
		}
		placed[i].AnchorRow = next
		if err := writeRecord(out, placed[i], layout, true); err != nil {
			return nil, nil, NewWriteBackError(placed[i].ID, next, err)
		}
		next++
	}
	return out, placed, nil
}

func checkAnchor(doc *grid.Document, r models.Record, layout *Layout) error {
	switch {
	case !r.Anchored():
		return NewWriteBackError(r.ID, r.AnchorRow, ErrUnanchored)
	case r.AnchorRow < layout.DataStart():
		return NewWriteBackError(r.ID, r.AnchorRow, ErrAnchorInHeader)
	case r.AnchorRow >= doc.RowCount():
		return NewWriteBackError(r.ID, r.AnchorRow, ErrAnchorOutOfRange)
	case !r.Status.Valid():
		return NewWriteBackError(r.ID, r.AnchorRow, ErrUnknownStatus)
	}
	return nil
}

// writeRecord stores the owned cells of one record. Without force, cells
// whose content already represents the value are left alone, which keeps
// tokens outside the vocabulary and existing formats untouched.
func writeRecord(doc *grid.Document, r models.Record, layout *Layout, force bool) error {
	row := r.AnchorRow

	status := doc.Cell(row, layout.StatusColumn)
	if force || layout.Vocabulary.Decode(status.String()) != r.Status {
		if err := doc.SetCell(row, layout.StatusColumn, models.TextCell(layout.Vocabulary.Encode(r.Status))); err != nil {
			return err
		}
	}

	label := doc.Cell(row, layout.LabelColumn)
	if force || label.String() != r.Label {
		if err := doc.SetCell(row, layout.LabelColumn, models.TextCell(r.Label)); err != nil {
			return err
		}
	}

	for _, f := range layout.Fields {
		v, ok := r.Field(f.Name)
		if !ok {
			continue
		}
		existing := doc.Cell(row, f.Column)
		if !force && represents(existing, v) {
			continue
		}
		if err := doc.SetCell(row, f.Column, fieldCell(existing, v, f.Kind, layout)); err != nil {
			return err
		}
	}
	return nil
}

func represents(cell models.Cell, v models.Value) bool {
	if v.IsNumber() {
		return cell.IsNumeric() && cell.Number == *v.Number
	}
	return cell.String() == v.Text
}

// fieldCell builds the cell for a field value. Numbers in date fields become
// date cells, keeping the date format already on the cell when there is one;
// text is always written as text.
func fieldCell(existing models.Cell, v models.Value, kind FieldKind, layout *Layout) models.Cell {
	if v.IsZero() {
		return models.EmptyCell()
	}
	if !v.IsNumber() {
		return models.TextCell(v.Text)
	}
	switch kind {
	case FieldDate:
		format := layout.DateFormat
		if existing.Kind == models.KindDate {
			format = existing.Format
		}
		return models.DateCell(*v.Number, format)
	default:
		var format models.NumFormat
		if existing.IsNumeric() {
			format = existing.Format
		}
		return models.NumberCell(*v.Number, format)
	}
}
