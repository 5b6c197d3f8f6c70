package visuals

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"armonic/internal/adjustment"
	"armonic/internal/forecast"
	"armonic/internal/sales"
)

// GenerateOrderHistoryChart creates a Mermaid xychart-beta with the observed
// daily quantities as bars followed by the forecast orders as a line.
func GenerateOrderHistoryChart(observed []sales.DailyTotal, series forecast.Series) string {
	n := len(observed) + len(series.PredictedOrders)
	if n == 0 {
		return ""
	}

	labels := make([]string, 0, n)
	bars := make([]string, 0, n)
	line := make([]string, 0, n)
	maxY := 0.0

	for _, d := range observed {
		labels = append(labels, fmt.Sprintf("\"%s\"", d.Day.Format("01-02")))
		bars = append(bars, fmt.Sprintf("%.1f", d.Quantity))
		line = append(line, "0")
		maxY = math.Max(maxY, d.Quantity)
	}
	for i, v := range series.PredictedOrders {
		label := fmt.Sprintf("\"+%d\"", i+1)
		if i < len(series.Dates) {
			label = fmt.Sprintf("\"%s\"", series.Dates[i].Format("01-02"))
		}
		labels = append(labels, label)
		bars = append(bars, "0")
		line = append(line, fmt.Sprintf("%.1f", v))
		maxY = math.Max(maxY, v)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Daily demand and forecast (%s)\"\n", series.Horizon.Label()))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Units / Orders\" 0 --> %d\n", int(math.Ceil(maxY*1.1))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(bars, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(line, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateAllocationChart creates a Mermaid bar chart of the top products by
// estimation. limit <= 0 shows every product.
func GenerateAllocationChart(table []adjustment.Row, limit int) string {
	if len(table) == 0 {
		return ""
	}

	rows := slices.Clone(table)
	slices.SortStableFunc(rows, func(a, b adjustment.Row) int {
		return cmp.Compare(b.Estimation, a.Estimation)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	var labels []string
	var values []string
	maxVal := 0
	for _, r := range rows {
		labels = append(labels, fmt.Sprintf("\"%s\"", strings.ReplaceAll(r.ProductName, "\"", "'")))
		values = append(values, fmt.Sprintf("%d", r.Estimation))
		maxVal = max(maxVal, r.Estimation)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Units per product\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Units\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
