package sales

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Column aliases: the dashboard's original export headers and their English names.
var columnAliases = map[string][]string{
	"date":         {"date", "fecha"},
	"product_name": {"product_name", "name", "item_nombre"},
	"order_id":     {"order_id", "id_order", "codunicopedido"},
	"product_id":   {"product_id", "id", "codigo_producto"},
	"quantity":     {"quantity", "cantidad"},
}

var requiredColumns = []string{"date", "product_name", "order_id", "product_id", "quantity"}

var csvDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// IngestReport summarizes what was sanitized while reading a history file.
type IngestReport struct {
	Rows    int `json:"rows"`
	Loaded  int `json:"loaded"`
	Coerced int `json:"coerced_quantities"`
	Skipped int `json:"skipped_rows"`
}

// LoadCSV reads a sales history CSV file.
func LoadCSV(path string) (*Dataset, IngestReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, IngestReport{}, fmt.Errorf("failed to open sales history %s: %w", path, err)
	}
	defer file.Close()

	ds, report, err := ReadCSV(file)
	if err != nil {
		return nil, report, fmt.Errorf("sales history %s: %w", path, err)
	}
	return ds, report, nil
}

// ReadCSV parses sales history rows. Quantities that are not clean numbers are
// coerced (never rejected); rows with an unreadable date are skipped.
func ReadCSV(r io.Reader) (*Dataset, IngestReport, error) {
	var report IngestReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, fmt.Errorf("CSV is empty")
		}
		return nil, report, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx, err := resolveColumns(header)
	if err != nil {
		return nil, report, err
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, report, fmt.Errorf("CSV row %d: %w", line, err)
		}
		report.Rows++

		date, err := parseDate(field(row, idx["date"]))
		if err != nil {
			report.Skipped++
			log.Debug().Int("row", line).Err(err).Msg("Skipping sales row with unreadable date")
			continue
		}

		rawQty := field(row, idx["quantity"])
		qty, clean := CoerceFloat(rawQty)
		if !clean {
			report.Coerced++
			log.Debug().Int("row", line).Str("raw", rawQty).Float64("quantity", qty).Msg("Coerced non-numeric quantity")
		}

		records = append(records, NewRecord(
			date,
			field(row, idx["product_id"]),
			field(row, idx["product_name"]),
			field(row, idx["order_id"]),
			qty,
		))
	}

	report.Loaded = len(records)
	if report.Coerced > 0 || report.Skipped > 0 {
		log.Warn().
			Int("coerced", report.Coerced).
			Int("skipped", report.Skipped).
			Int("rows", report.Rows).
			Msg("Sales history contained unclean rows")
	}

	return NewDataset(records), report, nil
}

// WriteCSV writes records with the English header.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(requiredColumns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date.Format("2006-01-02 15:04:05"),
			r.ProductName,
			r.OrderID,
			r.ProductID,
			strconv.FormatFloat(r.Quantity, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func resolveColumns(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	idx := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, col := range requiredColumns {
		found := false
		for _, alias := range columnAliases[col] {
			if i, ok := pos[alias]; ok {
				idx[col] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV header missing required columns %v (got %v)", missing, header)
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var nonNumeric = regexp.MustCompile(`[^\d.\-]`)

// CoerceFloat turns a loosely formatted number into a float. Blank and
// unparseable values become 0. The bool reports whether s was already clean.
func CoerceFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}

	cleaned := nonNumeric.ReplaceAllString(strings.ReplaceAll(s, ",", "."), "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, false
}
