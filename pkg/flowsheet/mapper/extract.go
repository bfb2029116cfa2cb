package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Tegakist/DSS/pkg/flowsheet/grid"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// RecordID returns the identifier of the n-th record (1-based) of an extraction.
func RecordID(n int) string {
	return fmt.Sprintf("node-%d", n)
}

// RecordNumber parses an identifier produced by RecordID.
func RecordNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "node-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Extract reads the records below the header. Rows with a blank label are
// skipped. Identifiers follow iteration order, so extracting an unchanged
// document twice yields equal lists. The document is not modified.
func Extract(doc *grid.Document, layout *Layout) ([]models.Record, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	records := []models.Record{}
	for row := layout.DataStart(); row < doc.RowCount(); row++ {
		label := doc.Cell(row, layout.LabelColumn).String()
		if strings.TrimSpace(label) == "" {
			continue
		}

		record := models.Record{
			ID:        RecordID(len(records) + 1),
			Label:     label,
			Status:    layout.Vocabulary.Decode(doc.Cell(row, layout.StatusColumn).String()),
			AnchorRow: row,
		}
		for _, f := range layout.Fields {
			cell := doc.Cell(row, f.Column)
			if cell.IsEmpty() {
				continue
			}
			if record.Fields == nil {
				record.Fields = make(map[string]models.Value, len(layout.Fields))
			}
			record.Fields[f.Name] = fieldValue(cell, f.Kind)
		}
		records = append(records, record)
	}
	return records, nil
}

func fieldValue(cell models.Cell, kind FieldKind) models.Value {
	if kind != FieldText && cell.IsNumeric() {
		return models.NumberValue(cell.Number)
	}
	return models.TextValue(cell.String())
}
