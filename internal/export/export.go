package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"armonic/internal/adjustment"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// Header is the column order of exported tables.
var Header = []string{"id", "name", "estimation", "business_adjustment_pct", "total"}

// ParseFormat accepts "csv" and "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q (use csv or json)", s)
}

// FormatFromPath infers the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return CSV
}

// Write encodes table in the given format.
func Write(w io.Writer, f Format, table []adjustment.Row) error {
	switch f {
	case CSV:
		return WriteCSV(w, table)
	case JSON:
		return WriteJSON(w, table)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes the management table as CSV.
func WriteCSV(w io.Writer, table []adjustment.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range table {
		if err := cw.Write([]string{
			r.ProductID,
			r.ProductName,
			strconv.Itoa(r.Estimation),
			strconv.FormatFloat(r.BusinessAdjustmentPct, 'f', -1, 64),
			strconv.FormatFloat(r.Total, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the management table as an indented JSON array.
func WriteJSON(w io.Writer, table []adjustment.Row) error {
	if table == nil {
		table = []adjustment.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(table)
}

// WriteFile exports table to path, creating parent directories.
func WriteFile(path string, f Format, table []adjustment.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(file, f, table); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s export: %w", f, err)
	}
	return file.Close()
}
