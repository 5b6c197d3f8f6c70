package adjustment

import (
	"github.com/shopspring/decimal"

	"armonic/internal/allocation"
)

// Row is one line of the product management table.
type Row struct {
	ProductID             string  `json:"id"`
	ProductName           string  `json:"name"`
	Estimation            int     `json:"estimation"`
	BusinessAdjustmentPct float64 `json:"business_adjustment_pct"`
	Total                 float64 `json:"total"`
}

// Percentages resolves the business adjustment of a product by name, the
// identity products are grouped by. Unknown products resolve to 0.
type Percentages interface {
	Pct(productName string) float64
}

// Total returns estimation * (1 + pct). Decimal arithmetic keeps totals like
// 10 * 1.1 at exactly 11.
func Total(estimation int, pct float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct))
	return decimal.NewFromInt(int64(estimation)).Mul(factor).InexactFloat64()
}

// Apply builds the management table from an allocation. Rows keep allocation
// order. A nil pcts applies no adjustment.
func Apply(rows []allocation.Row, pcts Percentages) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		pct := 0.0
		if pcts != nil {
			pct = pcts.Pct(r.ProductName)
		}
		out[i] = Row{
			ProductID:             r.ProductID,
			ProductName:           r.ProductName,
			Estimation:            r.Alloc,
			BusinessAdjustmentPct: pct,
			Total:                 Total(r.Alloc, pct),
		}
	}
	return out
}

// Sum returns the estimation and adjusted totals of a table.
func Sum(table []Row) (estimation int, total float64) {
	acc := decimal.Zero
	for _, r := range table {
		estimation += r.Estimation
		acc = acc.Add(decimal.NewFromFloat(r.Total))
	}
	return estimation, acc.InexactFloat64()
}
