package sales

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"armonic/internal/forecast"
)

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  float64
		wantClean bool
	}{
		{"Integer", "3", 3, true},
		{"Decimal", "2.5", 2.5, true},
		{"CommaDecimal", "1,5", 1.5, false},
		{"WithUnit", "4 und", 4, false},
		{"Blank", "  ", 0, false},
		{"Garbage", "n/a", 0, false},
		{"NaN", "NaN", 0, false},
		{"Negative", "-2", -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clean := CoerceFloat(tt.input)
			if got != tt.expected {
				t.Errorf("CoerceFloat(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			if clean != tt.wantClean {
				t.Errorf("CoerceFloat(%q) clean = %v, want %v", tt.input, clean, tt.wantClean)
			}
		})
	}
}

func TestReadCSV_OriginalHeaders(t *testing.T) {
	data := `fecha,item_nombre,codunicopedido,codigo_producto,cantidad,day
2025-01-01 12:30:00,Lomo Saltado,O1,P1,2,2025-01-01
2025-01-01 13:00:00,Chicha,O1,P2,"1,5",2025-01-01
not-a-date,Chicha,O2,P2,1,2025-01-02
2025-01-02 20:00:00,Lomo Saltado,O3,P1,abc,2025-01-02
`
	ds, report, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if report.Rows != 4 || report.Loaded != 3 {
		t.Errorf("expected 4 rows / 3 loaded, got %+v", report)
	}
	if report.Skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", report.Skipped)
	}
	if report.Coerced != 2 {
		t.Errorf("expected 2 coerced quantities, got %d", report.Coerced)
	}

	recs := ds.Records()
	if recs[1].Quantity != 1.5 {
		t.Errorf("comma decimal should coerce to 1.5, got %v", recs[1].Quantity)
	}
	if recs[2].Quantity != 0 {
		t.Errorf("garbage quantity should coerce to 0, got %v", recs[2].Quantity)
	}
	if !recs[0].Day.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day not truncated: %v", recs[0].Day)
	}
	if ds.TotalDays() != 2 {
		t.Errorf("expected 2 distinct days, got %d", ds.TotalDays())
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	data := "date,product_name,order_id,quantity\n2025-01-01,A,O1,1\n"
	_, _, err := ReadCSV(strings.NewReader(data))
	if err == nil {
		t.Fatal("expected error for missing product_id column")
	}
	if !strings.Contains(err.Error(), "product_id") {
		t.Errorf("error should name the missing column, got %v", err)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	base := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	records := []Record{
		NewRecord(base, "P1", "Ceviche", "O1", 2),
		NewRecord(base.Add(26*time.Hour), "P2", "Causa", "O2", 0.5),
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	ds, report, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if report.Coerced != 0 || report.Skipped != 0 {
		t.Errorf("round trip should be clean, got %+v", report)
	}
	if ds.Fingerprint() != NewDataset(records).Fingerprint() {
		t.Error("fingerprint changed across CSV round trip")
	}
}

func TestDataset_Fingerprint(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	a := []Record{NewRecord(base, "P1", "A", "O1", 1)}
	b := []Record{NewRecord(base, "P1", "A", "O1", 2)}

	if NewDataset(a).Fingerprint() != NewDataset(a).Fingerprint() {
		t.Error("fingerprint must be deterministic")
	}
	if NewDataset(a).Fingerprint() == NewDataset(b).Fingerprint() {
		t.Error("fingerprint must change when a quantity changes")
	}

	ds := NewDataset(a)
	a[0].Quantity = 99
	if ds.Records()[0].Quantity != 1 {
		t.Error("dataset must not alias the caller's slice")
	}
}

func TestDataset_DailyTotalsAndWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	var records []Record
	for i := 0; i < 60; i++ {
		day := start.AddDate(0, 0, i)
		records = append(records,
			NewRecord(day, "P1", "A", "O", 1),
			NewRecord(day.Add(time.Hour), "P2", "B", "O", 2),
		)
	}
	ds := NewDataset(records)

	totals := ds.DailyTotals()
	if len(totals) != 60 {
		t.Fatalf("expected 60 daily totals, got %d", len(totals))
	}
	for i, dt := range totals {
		if dt.Quantity != 3 {
			t.Errorf("day %d: expected quantity 3, got %v", i, dt.Quantity)
		}
		if i > 0 && !dt.Day.After(totals[i-1].Day) {
			t.Fatalf("daily totals not ordered at %d", i)
		}
	}

	window := TrailingWindow(totals, forecast.TwoWeeks)
	if len(window) != 44 {
		t.Errorf("expected 14+30 points, got %d", len(window))
	}
	if !window[len(window)-1].Day.Equal(totals[59].Day) {
		t.Error("window must end at the latest day")
	}

	if got := TrailingWindow(totals, forecast.ThreeMonths); len(got) != 60 {
		t.Errorf("short series should be returned whole, got %d", len(got))
	}

	first, last := ds.Span()
	if first.Day() != 1 || last.Sub(first) != 59*24*time.Hour {
		t.Errorf("unexpected span %v..%v", first, last)
	}
}

func TestDataset_DeriveMetadata(t *testing.T) {
	d1 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	ds := NewDataset([]Record{
		NewRecord(d1, "P1", "A", "O1", 2),
		NewRecord(d1, "P2", "B", "O1", 1),
		NewRecord(d1, "P1", "A", "O2", 1),
		NewRecord(d2, "P2", "B", "O3", 2),
	})

	m := ds.DeriveMetadata()
	if m.TotalOrders != 3 {
		t.Errorf("expected 3 orders, got %v", m.TotalOrders)
	}
	if m.HistoricalDailyOrders != 1.5 {
		t.Errorf("expected 1.5 orders/day, got %v", m.HistoricalDailyOrders)
	}
	if math.Abs(m.AvgItemsPerOrder-2) > 1e-12 {
		t.Errorf("expected 2 items/order, got %v", m.AvgItemsPerOrder)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("derived metadata should validate: %v", err)
	}
}

func TestDataset_DaysAcrossOffsets(t *testing.T) {
	lima := time.FixedZone("", -5*3600)
	moscow := time.FixedZone("", 3*3600)
	ds := NewDataset([]Record{
		NewRecord(time.Date(2025, 1, 1, 9, 0, 0, 0, lima), "P1", "A", "O1", 1),
		NewRecord(time.Date(2025, 1, 1, 18, 0, 0, 0, moscow), "P1", "A", "O2", 1),
	})
	if ds.TotalDays() != 1 {
		t.Errorf("same local calendar day in different offsets must count once, got %d", ds.TotalDays())
	}
}

func TestDataset_FingerprintTracksCalendarDay(t *testing.T) {
	instants := []time.Time{
		time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC),
	}
	build := func(loc *time.Location) *Dataset {
		var records []Record
		for i, at := range instants {
			records = append(records, NewRecord(at.In(loc), "P1", "A", "O"+string(rune('1'+i)), 1))
		}
		return NewDataset(records)
	}

	utc := build(time.UTC)
	plus10 := build(time.FixedZone("", 10*3600))

	if utc.TotalDays() != 1 || plus10.TotalDays() != 2 {
		t.Fatalf("expected 1 and 2 days, got %d and %d", utc.TotalDays(), plus10.TotalDays())
	}
	if utc.Fingerprint() == plus10.Fingerprint() {
		t.Error("datasets that fall on different calendar days must not share a fingerprint")
	}
	if build(time.UTC).Fingerprint() != utc.Fingerprint() {
		t.Error("fingerprint must be stable for identical content")
	}
}
