package visuals

import (
	"strings"
	"testing"
	"time"

	"armonic/internal/adjustment"
	"armonic/internal/forecast"
	"armonic/internal/sales"
)

func TestGenerateOrderHistoryChart(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	observed := []sales.DailyTotal{{Day: day, Quantity: 12}, {Day: day.AddDate(0, 0, 1), Quantity: 8}}
	series := forecast.Series{
		Horizon:         forecast.TwoWeeks,
		Dates:           []time.Time{day.AddDate(0, 0, 2)},
		PredictedOrders: []float64{20},
	}

	chart := GenerateOrderHistoryChart(observed, series)
	for _, want := range []string{
		"xychart-beta",
		"(14 días)",
		`x-axis ["03-01", "03-02", "03-03"]`,
		"bar [12.0, 8.0, 0]",
		"line [0, 0, 20.0]",
		`y-axis "Units / Orders" 0 -->`,
	} {
		if !strings.Contains(chart, want) {
			t.Errorf("chart missing %q:\n%s", want, chart)
		}
	}

	if GenerateOrderHistoryChart(nil, forecast.Series{}) != "" {
		t.Error("empty input should give no chart")
	}
}

func TestGenerateAllocationChart(t *testing.T) {
	table := []adjustment.Row{
		{ProductName: "Agua", Estimation: 3},
		{ProductName: "Lomo \"saltado\"", Estimation: 10},
		{ProductName: "Causa", Estimation: 5},
	}

	chart := GenerateAllocationChart(table, 2)
	if !strings.Contains(chart, `x-axis ["Lomo 'saltado'", "Causa"]`) {
		t.Errorf("expected top two products by estimation:\n%s", chart)
	}
	if !strings.Contains(chart, "bar [10, 5]") {
		t.Errorf("unexpected bars:\n%s", chart)
	}
	if table[0].ProductName != "Agua" {
		t.Error("input table must not be reordered")
	}
}
