package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Metadata carries the historical scalars the forecast was produced against.
type Metadata struct {
	HistoricalDailyOrders float64 `json:"historical_daily_orders"`
	AvgItemsPerOrder      float64 `json:"avg_items_per_order"`
	TotalOrders           float64 `json:"total_orders"`
}

// Validate returns a ConfigurationError for scalars the engine cannot work with.
func (m Metadata) Validate() error {
	if m.HistoricalDailyOrders <= 0 || math.IsNaN(m.HistoricalDailyOrders) || math.IsInf(m.HistoricalDailyOrders, 0) {
		return &ConfigurationError{Field: "historical_daily_orders", Reason: fmt.Sprintf("must be a finite number > 0, got %v", m.HistoricalDailyOrders)}
	}
	if m.AvgItemsPerOrder < 0 || math.IsNaN(m.AvgItemsPerOrder) {
		return &ConfigurationError{Field: "avg_items_per_order", Reason: fmt.Sprintf("must be >= 0, got %v", m.AvgItemsPerOrder)}
	}
	if m.TotalOrders < 0 || math.IsNaN(m.TotalOrders) {
		return &ConfigurationError{Field: "total_orders", Reason: fmt.Sprintf("must be >= 0, got %v", m.TotalOrders)}
	}
	return nil
}

// LoadMetadata reads and validates a metadata.json file.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata %s: %w", path, err)
	}

	// historical_daily_orders must be present, not just zero-valued
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode metadata %s: %w", path, err)
	}
	if _, ok := fields["historical_daily_orders"]; !ok {
		return Metadata{}, &ConfigurationError{Field: "historical_daily_orders", Reason: "missing from " + path}
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode metadata %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Save writes the metadata file.
func (m Metadata) Save(path string) error {
	return writeJSON(path, m)
}

// SaveSeries writes a forecast file using the dashboard's key names.
func SaveSeries(dir string, s Series) error {
	dates := make([]string, len(s.Dates))
	for i, d := range s.Dates {
		dates[i] = d.Format("2006-01-02")
	}
	return writeJSON(filepath.Join(dir, FileName(s.Horizon)), struct {
		Fechas     []string  `json:"fechas"`
		Prediccion []float64 `json:"prediccion"`
	}{dates, s.PredictedOrders})
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
