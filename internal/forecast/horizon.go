package forecast

import (
	"strconv"
	"strings"
)

// Horizon is a forecast window length in days.
type Horizon int

const (
	TwoWeeks    Horizon = 14
	OneMonth    Horizon = 30
	ThreeMonths Horizon = 90
)

// Horizons lists every supported horizon in ascending order.
var Horizons = []Horizon{TwoWeeks, OneMonth, ThreeMonths}

var labels = map[Horizon]string{
	TwoWeeks:    "14 días",
	OneMonth:    "1 mes",
	ThreeMonths: "3 meses",
}

// Label returns the dashboard label of the horizon.
func (h Horizon) Label() string {
	if l, ok := labels[h]; ok {
		return l
	}
	return strconv.Itoa(int(h)) + " días"
}

// Valid reports whether h is one of the supported horizons.
func (h Horizon) Valid() bool {
	_, ok := labels[h]
	return ok
}

// HistoryLookback is how many historical days are shown in front of the forecast.
func (h Horizon) HistoryLookback() int {
	switch h {
	case TwoWeeks:
		return 30
	case OneMonth:
		return 60
	default:
		return 90
	}
}

// ParseHorizon accepts "14", "14d", "14 days" and the dashboard labels.
func ParseHorizon(s string) (Horizon, error) {
	raw := strings.TrimSpace(strings.ToLower(s))
	for h, l := range labels {
		if raw == strings.ToLower(l) {
			return h, nil
		}
	}

	raw = strings.TrimSuffix(raw, "days")
	raw = strings.TrimSuffix(raw, "d")
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !Horizon(n).Valid() {
		return 0, &ConfigurationError{
			Field:  "horizon",
			Reason: "unknown forecast horizon " + strconv.Quote(s) + "; expected one of 14, 30, 90",
		}
	}
	return Horizon(n), nil
}
