package export

import "fmt"

// Dataset is a titled table plus free-form summary lines rendered below it.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	// Numeric marks columns that are right-aligned where the format supports it.
	Numeric map[string]bool
	Summary []string
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}
