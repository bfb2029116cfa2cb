package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// WriteCSV writes one line per record: id, label, status, anchor_row and
// then every field name that occurs in the list, sorted.
func WriteCSV(w io.Writer, records []models.Record, format Formatter) error {
	if format == nil {
		format = RawFormatter
	}
	names := fieldNames(records)

	writer := csv.NewWriter(w)
	header := append([]string{"id", "label", "status", "anchor_row"}, names...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("output: write csv header: %w", err)
	}
	for _, r := range records {
		line := []string{r.ID, r.Label, string(r.Status), strconv.Itoa(r.AnchorRow)}
		for _, name := range names {
			line = append(line, format(r, name))
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("output: write csv record %q: %w", r.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
