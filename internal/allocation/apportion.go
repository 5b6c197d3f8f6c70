package allocation

import (
	"cmp"
	"math"
	"slices"
)

// Item is one product entering the apportionment.
type Item struct {
	ProductID   string
	ProductName string
	// Expected is the continuous demand estimate E.
	Expected float64
	// HistoricalCount is the fallback weight used when every Expected is zero.
	HistoricalCount float64
}

// Row is the per-product trace of one apportionment.
type Row struct {
	ProductID   string  `json:"id"`
	ProductName string  `json:"name"`
	E           float64 `json:"E"`
	Scaled      float64 `json:"scaled"`
	Floor       int     `json:"floor"`
	Frac        float64 `json:"frac"`
	Alloc       int     `json:"alloc"`
}

// Apportion distributes target units across items with the largest remainder
// (Hamilton) method.
//
// For target > 0 the allocations sum to exactly target. For target <= 0 every
// allocation is zero. When all expectations are zero the weights fall back to
// HistoricalCount (if any is positive) and otherwise to an equal split.
//
// Ties between equal fractional remainders go to the item that comes first
// in the input. Rows are returned in input order.
func Apportion(items []Item, target int) []Row {
	n := len(items)
	rows := make([]Row, n)
	weights := make([]float64, n)
	for i, it := range items {
		e := nonNegative(it.Expected)
		rows[i] = Row{ProductID: it.ProductID, ProductName: it.ProductName, E: e}
		weights[i] = e
	}

	if target <= 0 || n == 0 {
		return rows
	}

	sum := normalizedSum(weights)
	if sum == 0 {
		for i, it := range items {
			weights[i] = nonNegative(it.HistoricalCount)
		}
		sum = normalizedSum(weights)
		if sum == 0 {
			for i := range weights {
				weights[i] = 1
			}
			sum = float64(n)
		}
	}

	t := float64(target)
	floorSum := 0
	for i := range rows {
		scaled := weights[i] / sum * t
		if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
			scaled = 0
		}
		fl := math.Floor(scaled)
		rows[i].Scaled = scaled
		rows[i].Floor = int(fl)
		rows[i].Frac = scaled - fl
		rows[i].Alloc = rows[i].Floor
		floorSum += rows[i].Floor
	}

	byFracDesc := rankByFrac(rows, true)

	remainder := min(max(target-floorSum, 0), n)
	for _, idx := range byFracDesc[:remainder] {
		rows[idx].Alloc++
	}

	settleResidual(rows, target, byFracDesc)
	return rows
}

// Allocate is Apportion over a bare expectation vector.
func Allocate(expected []float64, target int) []int {
	items := make([]Item, len(expected))
	for i, e := range expected {
		items[i] = Item{Expected: e}
	}
	rows := Apportion(items, target)
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Alloc
	}
	return out
}

// settleResidual absorbs floating-point drift so that the allocations sum to
// target: missing units go to the largest remainders, surplus units are taken
// from the smallest remainders that still hold a unit.
func settleResidual(rows []Row, target int, byFracDesc []int) {
	total := 0
	for _, r := range rows {
		total += r.Alloc
	}
	diff := target - total

	for k := 0; diff > 0; k++ {
		rows[byFracDesc[k%len(rows)]].Alloc++
		diff--
	}

	if diff < 0 {
		byFracAsc := rankByFrac(rows, false)
		for diff < 0 {
			for _, idx := range byFracAsc {
				if diff == 0 {
					break
				}
				if rows[idx].Alloc > 0 {
					rows[idx].Alloc--
					diff++
				}
			}
		}
	}
}

// rankByFrac returns row indices ordered by fractional remainder. The sort is
// stable, so equal remainders keep input order in both directions.
func rankByFrac(rows []Row, descending bool) []int {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if descending {
			return cmp.Compare(rows[b].Frac, rows[a].Frac)
		}
		return cmp.Compare(rows[a].Frac, rows[b].Frac)
	})
	return idx
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// normalizedSum divides the weights by their maximum in place and returns
// their sum, so that large finite weights cannot overflow it.
func normalizedSum(weights []float64) float64 {
	maxW := 0.0
	for _, w := range weights {
		maxW = max(maxW, w)
	}
	if maxW == 0 {
		return 0
	}
	s := 0.0
	for i := range weights {
		weights[i] /= maxW
		s += weights[i]
	}
	return s
}
