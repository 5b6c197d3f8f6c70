package allocation

import (
	"fmt"
	"math"

	"armonic/internal/forecast"
	"armonic/internal/stats"
)

// TotalScale expresses the forecast horizon in historical-equivalent days:
// the sum over forecast days of predicted orders / historical daily orders.
func TotalScale(predicted []float64, historicalDailyOrders float64) (float64, error) {
	if historicalDailyOrders <= 0 || math.IsNaN(historicalDailyOrders) || math.IsInf(historicalDailyOrders, 0) {
		return 0, &forecast.ConfigurationError{
			Field:  "historical_daily_orders",
			Reason: fmt.Sprintf("must be a finite number > 0, got %v", historicalDailyOrders),
		}
	}

	total := 0.0
	for _, p := range predicted {
		total += p / historicalDailyOrders
	}
	return total, nil
}

// Expectations returns E_i = p_i * q_i * totalScale, in product order.
func Expectations(products []stats.ProductStats, totalScale float64) []float64 {
	e := make([]float64, len(products))
	for i, p := range products {
		e[i] = p.P * p.Q * totalScale
	}
	return e
}

// MaxTarget is the largest target whose units are still exact in float64.
const MaxTarget = 1 << 53

// Target is the integer number of units to allocate across all products:
// round(orders * itemsPerOrder * (1 + buffer)), halves rounding to even.
// Values above MaxTarget are rejected rather than clamped.
func Target(totalForecastOrders, avgItemsPerOrder, bufferQuantile float64) (int, error) {
	v := totalForecastOrders * avgItemsPerOrder * (1 + bufferQuantile)
	if math.IsNaN(v) || v <= 0 {
		return 0, nil
	}
	rounded := math.RoundToEven(v)
	if rounded > MaxTarget {
		return 0, &forecast.ConfigurationError{
			Field:  "target",
			Reason: fmt.Sprintf("%g units exceeds the maximum of %d", rounded, MaxTarget),
		}
	}
	return int(rounded), nil
}
