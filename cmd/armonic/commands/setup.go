package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"armonic/internal/adjustment"
	"armonic/internal/config"
	"armonic/internal/forecast"
	"armonic/internal/planner"
)

// newPlanner wires forecasts, metadata and persisted adjustments from cfg and
// returns the configured default horizon.
func newPlanner(cfg *config.AppConfig) (*planner.Planner, forecast.Horizon, error) {
	h, err := forecast.ParseHorizon(cfg.DefaultHorizon)
	if err != nil {
		return nil, 0, fmt.Errorf("DEFAULT_HORIZON: %w", err)
	}

	set, err := forecast.LoadSet(cfg.ForecastDir)
	if err != nil {
		return nil, 0, err
	}

	store := adjustment.NewStore(cfg.CacheDir)
	if err := store.Load(); err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable business adjustments")
	}

	p := planner.New(set, store, cfg.BufferQuantile)

	meta, err := forecast.LoadMetadata(cfg.MetadataFile)
	switch {
	case err == nil:
		if err := p.SetMetadata(meta); err != nil {
			return nil, 0, err
		}
	case errors.Is(err, os.ErrNotExist):
		log.Info().Str("path", cfg.MetadataFile).Msg("No metadata file, deriving forecast scalars from sales history")
	default:
		return nil, 0, err
	}

	return p, h, nil
}

// preloadHistory loads the configured history when present so the first tool
// call does not need to.
func preloadHistory(p *planner.Planner, path string) {
	if _, err := os.Stat(path); err != nil {
		log.Info().Str("path", path).Msg("No sales history preloaded")
		return
	}
	if _, err := p.LoadHistory(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to preload sales history")
	}
}
