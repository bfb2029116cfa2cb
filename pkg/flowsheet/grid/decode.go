package grid

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/Tegakist/DSS/pkg/flowsheet/serial"
	"github.com/xuri/excelize/v2"
)

// Decode parses xlsx bytes into the Document of the first worksheet.
// No partial document is returned on failure.
func Decode(data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewDecodeError("", fmt.Errorf("%w: %v", ErrInvalidFormat, err))
	}
	defer f.Close()

	return decodeFile(f)
}

func decodeFile(f *excelize.File) (*Document, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, NewDecodeError("", ErrNoWorksheet)
	}
	sheetName := sheetList[0]

	doc := New(sheetName)
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		doc.Date1904 = *props.Date1904
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, NewDecodeError(sheetName, err)
	}

	formats := newFormatCache(f)
	doc.rows = make([][]models.Cell, len(rows))
	for rowIdx, row := range rows {
		cells := make([]models.Cell, len(row))
		for colIdx, cellValue := range row {
			if cellValue == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, NewDecodeError(sheetName, err)
			}
			cell, err := decodeCell(f, formats, sheetName, cellName, cellValue, doc.DateSystem())
			if err != nil {
				return nil, NewDecodeError(sheetName, fmt.Errorf("cell %s: %w", cellName, err))
			}
			cells[colIdx] = cell
		}
		doc.rows[rowIdx] = cells
	}

	return doc, nil
}

// decodeCell infers the cell kind from the storage type and number format.
func decodeCell(f *excelize.File, formats *formatCache, sheetName, cellName, raw string, sys serial.System) (models.Cell, error) {
	cellType, err := f.GetCellType(sheetName, cellName)
	if err != nil {
		return models.Cell{}, err
	}

	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.TextCell(raw), nil
		}
		format, err := formats.lookup(sheetName, cellName)
		if err != nil {
			return models.Cell{}, err
		}
		if IsDateFormat(format) {
			return models.DateCell(v, format), nil
		}
		return models.NumberCell(v, format), nil

	case excelize.CellTypeDate:
		v, ok := isoToSerial(raw, sys)
		if !ok {
			return models.TextCell(raw), nil
		}
		format, err := formats.lookup(sheetName, cellName)
		if err != nil {
			return models.Cell{}, err
		}
		if !IsDateFormat(format) {
			format = models.DefaultDateFormat
		}
		return models.DateCell(v, format), nil

	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return models.TextCell("TRUE"), nil
		}
		return models.TextCell("FALSE"), nil

	default:
		// Shared and inline strings, cached formula strings and errors.
		return models.TextCell(raw), nil
	}
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// isoToSerial converts an ISO 8601 date cell value (t="d") to a serial.
func isoToSerial(raw string, sys serial.System) (float64, bool) {
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		days, err := sys.FromDate(serial.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()})
		if err != nil {
			return 0, false
		}
		secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
		return days + float64(secs)/86400, true
	}
	return 0, false
}
