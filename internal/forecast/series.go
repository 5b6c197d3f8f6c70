package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Series is the predicted order count per future day for one horizon.
type Series struct {
	Horizon         Horizon     `json:"horizon"`
	Dates           []time.Time `json:"dates"`
	PredictedOrders []float64   `json:"predicted_order_counts"`
}

// TotalOrders sums the predicted order counts across the horizon.
func (s Series) TotalOrders() float64 {
	total := 0.0
	for _, v := range s.PredictedOrders {
		total += v
	}
	return total
}

// seriesFile accepts both the dashboard's original keys and the English ones.
type seriesFile struct {
	Fechas     []string  `json:"fechas"`
	Prediccion []float64 `json:"prediccion"`
	Dates      []string  `json:"dates"`
	Predicted  []float64 `json:"predicted_order_counts"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats found in forecast and sales files.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// DecodeSeries parses one forecast file body for the given horizon.
func DecodeSeries(data []byte, h Horizon) (Series, error) {
	var raw seriesFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return Series{}, fmt.Errorf("failed to decode forecast for horizon %d: %w", int(h), err)
	}

	dates, values := raw.Fechas, raw.Prediccion
	if len(dates) == 0 && len(values) == 0 {
		dates, values = raw.Dates, raw.Predicted
	}

	if len(dates) != len(values) {
		return Series{}, &ConfigurationError{
			Field:   "forecast",
			Horizon: h,
			Reason:  fmt.Sprintf("%d dates but %d predicted order counts", len(dates), len(values)),
		}
	}

	s := Series{Horizon: h, Dates: make([]time.Time, len(dates)), PredictedOrders: values}
	for i, d := range dates {
		t, err := ParseDate(d)
		if err != nil {
			return Series{}, &ConfigurationError{Field: "forecast", Horizon: h, Reason: err.Error()}
		}
		s.Dates[i] = t
	}
	return s, nil
}

// FileName returns the conventional file name of a horizon's forecast.
func FileName(h Horizon) string {
	return fmt.Sprintf("predict%d.json", int(h))
}

// LoadSeries reads predict<h>.json from dir.
func LoadSeries(dir string, h Horizon) (Series, error) {
	path := filepath.Join(dir, FileName(h))
	data, err := os.ReadFile(path)
	if err != nil {
		return Series{}, fmt.Errorf("failed to read forecast %s: %w", path, err)
	}
	return DecodeSeries(data, h)
}

// Set holds the forecast series of every loaded horizon.
type Set struct {
	series map[Horizon]Series
}

// NewSet builds a Set from already parsed series.
func NewSet(series ...Series) *Set {
	s := &Set{series: make(map[Horizon]Series, len(series))}
	for _, sr := range series {
		s.series[sr.Horizon] = sr
	}
	return s
}

// LoadSet loads all supported horizons from dir. Missing files are skipped
// with a warning; a later Series call for them reports a ConfigurationError.
func LoadSet(dir string) (*Set, error) {
	set := NewSet()
	for _, h := range Horizons {
		sr, err := LoadSeries(dir, h)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn().Int("horizon", int(h)).Str("dir", dir).Msg("Forecast file missing, horizon unavailable")
				continue
			}
			return nil, err
		}
		set.series[h] = sr
		log.Debug().Int("horizon", int(h)).Int("days", len(sr.Dates)).Msg("Loaded forecast series")
	}
	return set, nil
}

// Series returns the forecast for h.
func (s *Set) Series(h Horizon) (Series, error) {
	if !h.Valid() {
		return Series{}, &ConfigurationError{Field: "horizon", Horizon: h, Reason: "unsupported forecast horizon"}
	}
	sr, ok := s.series[h]
	if !ok {
		return Series{}, &ConfigurationError{Field: "forecast", Horizon: h, Reason: "no forecast loaded for this horizon"}
	}
	return sr, nil
}

// Available lists the horizons with a loaded forecast.
func (s *Set) Available() []Horizon {
	var out []Horizon
	for _, h := range Horizons {
		if _, ok := s.series[h]; ok {
			out = append(out, h)
		}
	}
	return out
}
