package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter writes datasets as CSV. Summary lines are not part of the CSV output.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Write encodes the header row followed by one record per dataset row.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if err := data.validate("csv"); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(data.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(data.record(row)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
