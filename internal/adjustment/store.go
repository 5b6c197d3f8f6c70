package adjustment

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileName is the store file inside the cache directory.
const FileName = "adjustments.json"

// Store holds the user's per-product adjustment percentages, keyed by
// product name.
type Store struct {
	mu   sync.RWMutex
	path string
	pcts map[string]float64
}

type storeFile struct {
	Adjustments map[string]float64 `json:"adjustments"`
}

// NewStore creates an empty store persisted under cacheDir. An empty cacheDir
// gives a memory-only store.
func NewStore(cacheDir string) *Store {
	s := &Store{pcts: make(map[string]float64)}
	if cacheDir != "" {
		s.path = filepath.Join(cacheDir, FileName)
	}
	return s
}

// Pct returns the adjustment of a product, 0 when unset.
func (s *Store) Pct(productName string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pcts[productName]
}

// Set records pct for a product. Setting 0 removes the entry.
func (s *Store) Set(productName string, pct float64) error {
	if productName == "" {
		return fmt.Errorf("product name is required")
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return fmt.Errorf("adjustment for %s must be a finite number, got %v", productName, pct)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pct == 0 {
		delete(s.pcts, productName)
		return nil
	}
	s.pcts[productName] = pct
	return nil
}

// All returns a copy of every non-zero adjustment.
func (s *Store) All() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.pcts)
}

// Len returns the number of non-zero adjustments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pcts)
}

// Load replaces the in-memory adjustments with the persisted ones. A missing
// file is not an error.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read adjustments: %w", err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode adjustments %s: %w", s.path, err)
	}

	pcts := make(map[string]float64, len(f.Adjustments))
	for name, pct := range f.Adjustments {
		if name == "" || pct == 0 || math.IsNaN(pct) || math.IsInf(pct, 0) {
			log.Warn().Str("product", name).Float64("pct", pct).Msg("Skipping invalid persisted adjustment")
			continue
		}
		pcts[name] = pct
	}

	s.mu.Lock()
	s.pcts = pcts
	s.mu.Unlock()

	log.Info().Str("path", s.path).Int("count", len(pcts)).Msg("Loaded business adjustments")
	return nil
}

// Save writes the adjustments to disk through a temp file and rename.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(storeFile{Adjustments: s.All()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode adjustments: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp adjustments file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename adjustments file: %w", err)
	}

	log.Debug().Str("path", s.path).Msg("Business adjustments saved")
	return nil
}
