package budget

import (
	"strings"

	"github.com/shopspring/decimal"

	"armonic/internal/adjustment"
)

// DefaultShrinkage is the waste allowance applied when a price row leaves it blank.
const DefaultShrinkage = 0.05

// Unassigned groups lines whose price row names no supplier.
const Unassigned = "SIN PROVEEDOR"

// Price is the purchasing data of one product.
type Price struct {
	// Product matches a plan row by name first, then by ID.
	Product    string
	Supplier   string
	Unit       string
	Historical float64
	Market     float64
	Received   float64
	Shrinkage  float64
	Include    bool
}

// Line is one row of the purchase budget.
type Line struct {
	ProductID       string  `json:"id"`
	ProductName     string  `json:"name"`
	Supplier        string  `json:"supplier"`
	Unit            string  `json:"unit,omitempty"`
	Quantity        float64 `json:"quantity"`
	HistoricalPrice float64 `json:"historical_price"`
	MarketPrice     float64 `json:"market_price"`
	Received        float64 `json:"received"`
	Shrinkage       float64 `json:"shrinkage"`
	Estimated       float64 `json:"estimated_amount"`
	Budget          float64 `json:"budget"`
	Actual          float64 `json:"actual_amount"`
	Diff            float64 `json:"diff"`
	Include         bool    `json:"include"`
}

// Summary totals the included lines of a budget.
type Summary struct {
	Supplier  string  `json:"supplier,omitempty"`
	Lines     int     `json:"lines"`
	Missing   float64 `json:"total_missing"`
	Incoming  float64 `json:"valued_incoming"`
	Remaining float64 `json:"valued_remaining"`
}

// Build prices the management table. The quantity of a line is the adjusted
// total of its row. Rows without a price are returned by name so callers can
// report them; prices for products outside the table are ignored.
func Build(table []adjustment.Row, prices []Price) (lines []Line, unpriced []string) {
	byName := make(map[string]Price, len(prices))
	byID := make(map[string]Price, len(prices))
	for _, p := range prices {
		key := strings.TrimSpace(p.Product)
		if _, dup := byName[key]; !dup {
			byName[key] = p
		}
		if _, dup := byID[key]; !dup {
			byID[key] = p
		}
	}

	for _, r := range table {
		p, ok := byName[r.ProductName]
		if !ok {
			p, ok = byID[r.ProductID]
		}
		if !ok {
			unpriced = append(unpriced, r.ProductName)
			continue
		}
		lines = append(lines, price(r, p))
	}
	return lines, unpriced
}

func price(r adjustment.Row, p Price) Line {
	supplier := strings.TrimSpace(p.Supplier)
	if supplier == "" {
		supplier = Unassigned
	}
	market := p.Market
	if market == 0 {
		market = p.Historical
	}

	qty := decimal.NewFromFloat(r.Total)
	estimated := qty.Mul(decimal.NewFromFloat(p.Historical))
	budget := estimated.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(p.Shrinkage)))
	actual := decimal.NewFromFloat(p.Received).Mul(decimal.NewFromFloat(market))

	return Line{
		ProductID:       r.ProductID,
		ProductName:     r.ProductName,
		Supplier:        supplier,
		Unit:            p.Unit,
		Quantity:        r.Total,
		HistoricalPrice: p.Historical,
		MarketPrice:     market,
		Received:        p.Received,
		Shrinkage:       p.Shrinkage,
		Estimated:       estimated.InexactFloat64(),
		Budget:          budget.InexactFloat64(),
		Actual:          actual.InexactFloat64(),
		Diff:            budget.Sub(actual).InexactFloat64(),
		Include:         p.Include,
	}
}

// Filter keeps the lines of supplier, compared case-insensitively. An empty
// supplier or "todos"/"all" keeps every line.
func Filter(lines []Line, supplier string) []Line {
	s := strings.TrimSpace(supplier)
	if s == "" || strings.EqualFold(s, "all") || strings.EqualFold(s, "todos") {
		return lines
	}
	var out []Line
	for _, l := range lines {
		if strings.EqualFold(l.Supplier, s) {
			out = append(out, l)
		}
	}
	return out
}

// Suppliers lists the distinct suppliers in line order.
func Suppliers(lines []Line) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range lines {
		if _, ok := seen[l.Supplier]; ok {
			continue
		}
		seen[l.Supplier] = struct{}{}
		out = append(out, l.Supplier)
	}
	return out
}

// Summarize totals the included lines: the missing amount is the sum of
// differences, the remaining amount only counts positive differences.
func Summarize(lines []Line) Summary {
	var missing, incoming, remaining decimal.Decimal
	n := 0
	for _, l := range lines {
		if !l.Include {
			continue
		}
		n++
		diff := decimal.NewFromFloat(l.Diff)
		missing = missing.Add(diff)
		incoming = incoming.Add(decimal.NewFromFloat(l.Actual))
		if diff.IsPositive() {
			remaining = remaining.Add(diff)
		}
	}
	return Summary{
		Lines:     n,
		Missing:   missing.InexactFloat64(),
		Incoming:  incoming.InexactFloat64(),
		Remaining: remaining.InexactFloat64(),
	}
}
