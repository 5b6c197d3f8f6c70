package stats

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"armonic/internal/forecast"
	"armonic/internal/sales"
)

// tenDayHistory spans 10 distinct days. "Pisco Sour" appears on 4 of them with
// quantities 2, 3, 1 and 4; "Agua" appears every day with quantity 1.
func tenDayHistory() *sales.Dataset {
	start := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	var records []sales.Record
	for i := 0; i < 10; i++ {
		records = append(records, sales.NewRecord(start.AddDate(0, 0, i), "W1", "Agua", "O", 1))
	}
	for i, q := range []float64{2, 3, 1, 4} {
		records = append(records, sales.NewRecord(start.AddDate(0, 0, i*2).Add(3*time.Hour), "C7", "Pisco Sour", "O", q))
	}
	return sales.NewDataset(records)
}

func TestExtractProductStats_FrequencyAndQuantity(t *testing.T) {
	products, err := ExtractProductStats(tenDayHistory())
	if err != nil {
		t.Fatalf("ExtractProductStats failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	// Sorted by name: Agua, Pisco Sour
	agua, pisco := products[0], products[1]
	if agua.ProductName != "Agua" || pisco.ProductName != "Pisco Sour" {
		t.Fatalf("unexpected order: %s, %s", agua.ProductName, pisco.ProductName)
	}

	if math.Abs(pisco.P-0.4) > 1e-12 {
		t.Errorf("expected p = 0.4, got %v", pisco.P)
	}
	if math.Abs(pisco.Q-2.5) > 1e-12 {
		t.Errorf("expected q = 2.5, got %v", pisco.Q)
	}
	if pisco.AppearanceDays != 4 || pisco.TotalQuantity != 10 || pisco.HistoricalCount != 4 {
		t.Errorf("unexpected aggregates: %+v", pisco)
	}
	if pisco.ProductID != "C7" {
		t.Errorf("expected ID C7, got %s", pisco.ProductID)
	}

	if agua.P != 1 || agua.Q != 1 {
		t.Errorf("daily product should have p=1 q=1, got p=%v q=%v", agua.P, agua.Q)
	}
}

func TestExtractProductStats_SameDayLinesCountOnce(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := sales.NewDataset([]sales.Record{
		sales.NewRecord(day.Add(10*time.Hour), "P1", "Causa", "O1", 1),
		sales.NewRecord(day.Add(12*time.Hour), "P1", "Causa", "O2", 2),
		sales.NewRecord(day.Add(30*time.Hour), "P2", "Ceviche", "O3", 1),
	})

	products, err := ExtractProductStats(ds)
	if err != nil {
		t.Fatal(err)
	}
	causa := products[0]
	if causa.AppearanceDays != 1 {
		t.Errorf("two lines on one day are one appearance, got %d", causa.AppearanceDays)
	}
	if causa.P != 0.5 || causa.Q != 3 {
		t.Errorf("expected p=0.5 q=3, got p=%v q=%v", causa.P, causa.Q)
	}
	if causa.HistoricalCount != 2 {
		t.Errorf("expected 2 lines, got %d", causa.HistoricalCount)
	}
}

func TestExtractProductStats_Bounds(t *testing.T) {
	products, err := ExtractProductStats(tenDayHistory())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range products {
		if p.P < 0 || p.P > 1 {
			t.Errorf("%s: p out of range: %v", p.ProductName, p.P)
		}
		if p.Q < 0 {
			t.Errorf("%s: q negative: %v", p.ProductName, p.Q)
		}
	}
}

func TestExtractProductStats_ZeroDays(t *testing.T) {
	_, err := ExtractProductStats(sales.NewDataset(nil))

	var cfgErr *forecast.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "historical_days" {
		t.Errorf("expected field historical_days, got %s", cfgErr.Field)
	}
}

func TestCache_RecomputesOnlyOnFingerprintChange(t *testing.T) {
	c := NewCache()
	ds := tenDayHistory()

	first, err := c.Get(ds)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Get(sales.NewDataset(ds.Records()))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("identical content should reuse the same snapshot")
	}
	if c.Misses() != 1 {
		t.Errorf("expected 1 computation, got %d", c.Misses())
	}

	changed := append(ds.Records(), sales.NewRecord(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), "N1", "Nuevo", "O", 1))
	third, err := c.Get(sales.NewDataset(changed))
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Error("changed dataset must produce a new snapshot")
	}
	if third.Len() != 3 {
		t.Errorf("expected 3 products, got %d", third.Len())
	}
	if first.Len() != 2 {
		t.Error("old snapshot must stay untouched")
	}
	if c.Current() != third {
		t.Error("current snapshot should be the latest")
	}
}

func TestCache_RecomputesWhenOffsetMovesDays(t *testing.T) {
	build := func(loc *time.Location) *sales.Dataset {
		return sales.NewDataset([]sales.Record{
			sales.NewRecord(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC).In(loc), "X1", "Chicha", "O1", 1),
			sales.NewRecord(time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC).In(loc), "Y1", "Lomo", "O2", 1),
		})
	}

	c := NewCache()
	first, err := c.Get(build(time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if p := first.Products()[0].P; p != 1 {
		t.Fatalf("expected p = 1 over a single day, got %v", p)
	}

	second, err := c.Get(build(time.FixedZone("", 10*3600)))
	if err != nil {
		t.Fatal(err)
	}
	if c.Misses() != 2 {
		t.Errorf("expected a recomputation, got %d computations", c.Misses())
	}
	if p := second.Products()[0].P; p != 0.5 {
		t.Errorf("expected p = 0.5 once the lines fall on two days, got %v", p)
	}
}

func TestCache_ConcurrentGet(t *testing.T) {
	c := NewCache()
	ds := tenDayHistory()

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 8)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := c.Get(ds)
			if err != nil {
				t.Error(err)
				return
			}
			snaps[i] = s
		}(i)
	}
	wg.Wait()

	for i, s := range snaps {
		if s == nil || s.Fingerprint != ds.Fingerprint() {
			t.Fatalf("goroutine %d got unexpected snapshot", i)
		}
	}
	if c.Misses() != 1 {
		t.Errorf("concurrent gets of one dataset should compute once, got %d", c.Misses())
	}
}

func TestCache_ProductsIsACopy(t *testing.T) {
	c := NewCache()
	snap, err := c.Get(tenDayHistory())
	if err != nil {
		t.Fatal(err)
	}
	p := snap.Products()
	p[0].P = 42
	if snap.Products()[0].P == 42 {
		t.Error("snapshot products must not be mutable through Products()")
	}
}
