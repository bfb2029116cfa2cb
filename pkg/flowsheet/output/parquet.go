package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// RecordRow is the Parquet row of one record.
type RecordRow struct {
	ID        string     `parquet:"id"`
	Label     string     `parquet:"label"`
	Status    string     `parquet:"status,dict"`
	AnchorRow int32      `parquet:"anchor_row"`
	Fields    []FieldRow `parquet:"fields"`
}

// FieldRow is one optional field of a record.
type FieldRow struct {
	Name   string   `parquet:"name,dict"`
	Text   string   `parquet:"text"`
	Number *float64 `parquet:"number,optional"`
}

// ToRows flattens records into Parquet rows, fields sorted by name.
func ToRows(records []models.Record) []RecordRow {
	rows := make([]RecordRow, 0, len(records))
	for _, r := range records {
		row := RecordRow{
			ID:        r.ID,
			Label:     r.Label,
			Status:    string(r.Status),
			AnchorRow: int32(r.AnchorRow),
		}
		names := make([]string, 0, len(r.Fields))
		for name := range r.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := r.Fields[name]
			row.Fields = append(row.Fields, FieldRow{Name: name, Text: v.Text, Number: v.Number})
		}
		rows = append(rows, row)
	}
	return rows
}

// FromRows rebuilds records from Parquet rows.
func FromRows(rows []RecordRow) []models.Record {
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		r := models.Record{
			ID:        row.ID,
			Label:     row.Label,
			Status:    models.Status(row.Status),
			AnchorRow: int(row.AnchorRow),
		}
		for _, f := range row.Fields {
			if r.Fields == nil {
				r.Fields = make(map[string]models.Value, len(row.Fields))
			}
			r.Fields[f.Name] = models.Value{Text: f.Text, Number: f.Number}
		}
		records = append(records, r)
	}
	return records
}

// WriteParquet writes records as zstd-compressed Parquet.
func WriteParquet(w io.Writer, records []models.Record) error {
	codec := &zstd.Codec{
		Level:       zstd.SpeedBetterCompression,
		Concurrency: 1,
	}
	writer := parquet.NewGenericWriter[RecordRow](w, parquet.Compression(codec))
	if _, err := writer.Write(ToRows(records)); err != nil {
		writer.Close()
		return fmt.Errorf("output: write parquet rows: %w", err)
	}
	// Close flushes the last row group and writes the footer.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("output: close parquet writer: %w", err)
	}
	return nil
}

// WriteParquetFile writes records to a Parquet file.
func WriteParquetFile(path string, records []models.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteParquet(file, records); err != nil {
		return err
	}
	return file.Close()
}

// ReadParquetFile reads records written by WriteParquetFile.
func ReadParquetFile(path string) ([]models.Record, error) {
	rows, err := parquet.ReadFile[RecordRow](path)
	if err != nil {
		return nil, fmt.Errorf("output: read %s: %w", path, err)
	}
	return FromRows(rows), nil
}
