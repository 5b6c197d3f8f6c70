package sales

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"time"

	"armonic/internal/forecast"
)

// Dataset is an immutable set of historical records identified by a content hash.
type Dataset struct {
	records     []Record
	fingerprint string
	totalDays   int
}

// NewDataset copies records and fingerprints them.
func NewDataset(records []Record) *Dataset {
	cp := make([]Record, len(records))
	copy(cp, records)

	days := make(map[string]struct{})
	for _, r := range cp {
		days[DayKey(r.Day)] = struct{}{}
	}

	return &Dataset{
		records:     cp,
		fingerprint: fingerprint(cp),
		totalDays:   len(days),
	}
}

// Records returns a copy of the records.
func (d *Dataset) Records() []Record {
	cp := make([]Record, len(d.records))
	copy(cp, d.records)
	return cp
}

// Each calls fn for every record without copying the set.
func (d *Dataset) Each(fn func(Record)) {
	for _, r := range d.records {
		fn(r)
	}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Fingerprint is the SHA-256 of the canonical record encoding, including
// the calendar day each record falls on.
func (d *Dataset) Fingerprint() string {
	return d.fingerprint
}

// TotalDays is the number of distinct calendar days in the set.
func (d *Dataset) TotalDays() int {
	return d.totalDays
}

func fingerprint(records []Record) string {
	h := sha256.New()
	buf := make([]byte, 0, 128)
	for _, r := range records {
		buf = buf[:0]
		buf = r.Date.UTC().AppendFormat(buf, time.RFC3339Nano)
		buf = append(buf, 0x1f)
		// Day depends on the record's offset, not only on the instant.
		buf = append(buf, DayKey(r.Day)...)
		buf = append(buf, 0x1f)
		buf = append(buf, r.ProductID...)
		buf = append(buf, 0x1f)
		buf = append(buf, r.ProductName...)
		buf = append(buf, 0x1f)
		buf = append(buf, r.OrderID...)
		buf = append(buf, 0x1f)
		buf = strconv.AppendFloat(buf, r.Quantity, 'g', -1, 64)
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DailyTotal is the quantity sold on one calendar day.
type DailyTotal struct {
	Day      time.Time `json:"day"`
	Quantity float64   `json:"quantity"`
}

// DailyTotals sums quantities per day, ordered by day.
func (d *Dataset) DailyTotals() []DailyTotal {
	byDay := make(map[string]*DailyTotal)
	for _, r := range d.records {
		k := DayKey(r.Day)
		if dt, ok := byDay[k]; ok {
			dt.Quantity += r.Quantity
			continue
		}
		byDay[k] = &DailyTotal{Day: r.Day, Quantity: r.Quantity}
	}

	out := make([]DailyTotal, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	slices.SortFunc(out, func(a, b DailyTotal) int {
		return a.Day.Compare(b.Day)
	})
	return out
}

// TrailingWindow keeps the most recent points shown in front of a forecast horizon.
func TrailingWindow(series []DailyTotal, h forecast.Horizon) []DailyTotal {
	n := int(h) + h.HistoryLookback()
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// DeriveMetadata computes the forecast scalars from the history itself.
// It is the fallback when no metadata file accompanies the forecast.
func (d *Dataset) DeriveMetadata() forecast.Metadata {
	orders := make(map[string]struct{})
	total := 0.0
	for _, r := range d.records {
		orders[r.OrderID] = struct{}{}
		total += r.Quantity
	}

	m := forecast.Metadata{TotalOrders: float64(len(orders))}
	if d.totalDays > 0 {
		m.HistoricalDailyOrders = m.TotalOrders / float64(d.totalDays)
	}
	if m.TotalOrders > 0 {
		m.AvgItemsPerOrder = total / m.TotalOrders
	}
	return m
}

// Span returns the first and last day of the set.
func (d *Dataset) Span() (first, last time.Time) {
	for i, r := range d.records {
		if i == 0 || r.Day.Before(first) {
			first = r.Day
		}
		if i == 0 || r.Day.After(last) {
			last = r.Day
		}
	}
	return first, last
}
