package stats

import (
	"cmp"
	"slices"

	"armonic/internal/forecast"
	"armonic/internal/sales"
)

// ProductStats describes how often a product sells and how much per selling day.
type ProductStats struct {
	ProductID   string `json:"id"`
	ProductName string `json:"name"`
	// P is the fraction of historical days on which the product appears.
	P float64 `json:"p"`
	// Q is the mean quantity sold on the days it appears.
	Q              float64 `json:"q"`
	AppearanceDays int     `json:"appearance_days"`
	TotalQuantity  float64 `json:"total_quantity"`
	// HistoricalCount is the number of sales lines, used as a fallback weight.
	HistoricalCount int `json:"historical_count"`
}

type productAccumulator struct {
	id       string
	name     string
	days     map[string]struct{}
	quantity float64
	lines    int
}

// ExtractProductStats computes p and q for every product in the dataset.
// Products are grouped by name, keeping the first ID seen for each, and
// returned in ascending name order. That order is the tie-break order used
// by the apportioner.
func ExtractProductStats(ds *sales.Dataset) ([]ProductStats, error) {
	totalDays := ds.TotalDays()
	if totalDays == 0 {
		return nil, &forecast.ConfigurationError{
			Field:  "historical_days",
			Reason: "sales history spans zero calendar days",
		}
	}

	byName := make(map[string]*productAccumulator)
	ds.Each(func(r sales.Record) {
		acc, ok := byName[r.ProductName]
		if !ok {
			acc = &productAccumulator{id: r.ProductID, name: r.ProductName, days: make(map[string]struct{})}
			byName[r.ProductName] = acc
		}
		acc.days[sales.DayKey(r.Day)] = struct{}{}
		acc.quantity += r.Quantity
		acc.lines++
	})

	out := make([]ProductStats, 0, len(byName))
	for _, acc := range byName {
		appearances := len(acc.days)
		out = append(out, ProductStats{
			ProductID:       acc.id,
			ProductName:     acc.name,
			P:               float64(appearances) / float64(totalDays),
			Q:               max(0, acc.quantity/float64(appearances)),
			AppearanceDays:  appearances,
			TotalQuantity:   acc.quantity,
			HistoricalCount: acc.lines,
		})
	}

	slices.SortFunc(out, func(a, b ProductStats) int {
		return cmp.Compare(a.ProductName, b.ProductName)
	})
	return out, nil
}
