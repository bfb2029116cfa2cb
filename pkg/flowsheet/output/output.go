// Package output serializes record lists to JSON, CSV and Parquet.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// Formatter renders an optional field for text outputs.
type Formatter func(r models.Record, field string) string

// RawFormatter writes field values as stored: text as is, numbers and date
// serials in their shortest decimal form.
func RawFormatter(r models.Record, field string) string {
	v, ok := r.Field(field)
	if !ok {
		return ""
	}
	if v.IsNumber() {
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	}
	return v.Text
}

// ToJSON serializes records to JSON.
func ToJSON(records []models.Record, pretty bool) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	if pretty {
		return json.MarshalIndent(records, "", "  ")
	}
	return json.Marshal(records)
}

// FromJSON parses a record list written by ToJSON.
func FromJSON(data []byte) ([]models.Record, error) {
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("output: parse records: %w", err)
	}
	return records, nil
}

// ReadFile reads a record list written by WriteFile in JSON or Parquet,
// picked by the extension of path.
func ReadFile(path string) ([]models.Record, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "parquet":
		return ReadParquetFile(path)
	case "json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		return FromJSON(data)
	default:
		return nil, fmt.Errorf("output: cannot read format %q (use json or parquet)", ext)
	}
}

// WriteFile writes records to path in the format named by its extension:
// .json, .csv or .parquet. The formatter applies to CSV only; nil means
// RawFormatter.
func WriteFile(path string, records []models.Record, pretty bool, format Formatter) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "json":
		data, err := ToJSON(records, pretty)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		return os.WriteFile(path, data, 0644)
	case "csv":
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		defer file.Close()
		if err := WriteCSV(file, records, format); err != nil {
			return err
		}
		return file.Close()
	case "parquet":
		return WriteParquetFile(path, records)
	default:
		return fmt.Errorf("output: unknown format %q (use json, csv or parquet)", ext)
	}
}

// fieldNames returns the sorted union of field names over all records.
func fieldNames(records []models.Record) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for name := range r.Fields {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
