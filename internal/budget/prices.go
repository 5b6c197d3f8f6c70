package budget

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"armonic/internal/sales"
)

// Column aliases: English names and the purchasing sheet's headers.
var priceAliases = map[string][]string{
	"product":          {"product", "producto"},
	"supplier":         {"supplier", "proveedor"},
	"unit":             {"unit", "unidad", "um"},
	"historical_price": {"historical_price", "precio_historico", "pu"},
	"market_price":     {"market_price", "precio_mercado"},
	"received":         {"received", "entradas: cantidad insumos", "cantidad_insumos"},
	"shrinkage":        {"shrinkage", "ajuste_mermas"},
	"include":          {"include", "incluir"},
}

var requiredPriceColumns = []string{"product", "historical_price"}

// LoadPrices reads a purchasing prices CSV file.
func LoadPrices(path string) ([]Price, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prices %s: %w", path, err)
	}
	defer f.Close()
	return ReadPrices(f)
}

// ReadPrices parses purchasing prices. Unclean numbers are coerced, blank
// shrinkage falls back to DefaultShrinkage and a blank include flag means
// included.
func ReadPrices(r io.Reader) ([]Price, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("prices file is empty")
		}
		return nil, err
	}
	idx, err := resolvePriceColumns(header)
	if err != nil {
		return nil, err
	}

	var prices []Price
	coerced := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		product := column(row, idx, "product")
		if product == "" {
			continue
		}

		num := func(col string) float64 {
			raw := column(row, idx, col)
			v, clean := sales.CoerceFloat(raw)
			if !clean && raw != "" {
				coerced++
			}
			return v
		}

		p := Price{
			Product:    product,
			Supplier:   column(row, idx, "supplier"),
			Unit:       strings.ToUpper(column(row, idx, "unit")),
			Historical: num("historical_price"),
			Market:     num("market_price"),
			Received:   num("received"),
			Shrinkage:  DefaultShrinkage,
			Include:    parseInclude(column(row, idx, "include")),
		}
		if column(row, idx, "shrinkage") != "" {
			p.Shrinkage = num("shrinkage")
		}
		prices = append(prices, p)
	}

	if coerced > 0 {
		log.Warn().Int("coerced", coerced).Msg("Prices contained unclean numbers")
	}
	return prices, nil
}

func resolvePriceColumns(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	idx := make(map[string]int, len(priceAliases))
	for col, aliases := range priceAliases {
		for _, alias := range aliases {
			if i, ok := pos[alias]; ok {
				idx[col] = i
				break
			}
		}
	}

	var missing []string
	for _, col := range requiredPriceColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prices header missing required columns %v (got %v)", missing, header)
	}
	return idx, nil
}

func column(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseInclude(s string) bool {
	switch strings.ToLower(s) {
	case "false", "0", "no", "n":
		return false
	default:
		return true
	}
}
