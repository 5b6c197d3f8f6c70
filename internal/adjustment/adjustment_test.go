package adjustment

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"armonic/internal/allocation"
)

func TestTotal(t *testing.T) {
	tests := []struct {
		estimation int
		pct        float64
		want       float64
	}{
		{10, 0, 10},
		{10, 0.1, 11},
		{3, 0.1, 3.3},
		{7, -0.5, 3.5},
		{4, 2, 12},
		{0, 0.25, 0},
		{5, -1.2, -1},
	}

	for _, tt := range tests {
		if got := Total(tt.estimation, tt.pct); got != tt.want {
			t.Errorf("Total(%d, %v) = %v, want %v", tt.estimation, tt.pct, got, tt.want)
		}
	}
}

func TestApply(t *testing.T) {
	rows := []allocation.Row{
		{ProductID: "P1", ProductName: "Ceviche", Alloc: 10},
		{ProductID: "P2", ProductName: "Causa", Alloc: 4},
	}
	store := NewStore("")
	if err := store.Set("Causa", 0.25); err != nil {
		t.Fatal(err)
	}

	table := Apply(rows, store)
	if len(table) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table))
	}
	if table[0].ProductName != "Ceviche" || table[0].Total != 10 || table[0].BusinessAdjustmentPct != 0 {
		t.Errorf("unadjusted row wrong: %+v", table[0])
	}
	if table[1].Estimation != 4 || table[1].Total != 5 || table[1].BusinessAdjustmentPct != 0.25 {
		t.Errorf("adjusted row wrong: %+v", table[1])
	}

	est, total := Sum(table)
	if est != 14 || total != 15 {
		t.Errorf("Sum = (%d, %v), want (14, 15)", est, total)
	}

	if plain := Apply(rows, nil); plain[1].Total != 4 {
		t.Errorf("nil percentages should not adjust, got %v", plain[1].Total)
	}

	// Two products that share an ID keep separate adjustments.
	shared := []allocation.Row{
		{ProductID: "X", ProductName: "Causa", Alloc: 4},
		{ProductID: "X", ProductName: "Chicha", Alloc: 4},
	}
	if table := Apply(shared, store); table[0].Total != 5 || table[1].Total != 4 {
		t.Errorf("adjustment leaked across a shared ID: %+v", table)
	}
}

func TestStore_SetValidation(t *testing.T) {
	s := NewStore("")
	if err := s.Set("", 0.1); err == nil {
		t.Error("expected error for an empty product name")
	}
	if err := s.Set("P1", 0.3); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("P1", 0); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Error("setting 0 should clear the adjustment")
	}
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := NewStore(dir)
	_ = s.Set("P1", 0.15)
	_ = s.Set("P2", -0.4)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away")
	}

	loaded := NewStore(dir)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Pct("P1") != 0.15 || loaded.Pct("P2") != -0.4 || loaded.Pct("P3") != 0 {
		t.Errorf("unexpected loaded values: %v", loaded.All())
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Load(); err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
}

func TestStore_LoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewStore(dir).Load(); err == nil {
		t.Error("expected decode error")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore("")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set("P1", 0.5)
		}()
		go func() {
			defer wg.Done()
			_ = s.Pct("P1")
			_ = s.All()
		}()
	}
	wg.Wait()
	if s.Pct("P1") != 0.5 {
		t.Errorf("expected 0.5, got %v", s.Pct("P1"))
	}
}
