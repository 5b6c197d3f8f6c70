package planner

import (
	"fmt"
	"time"

	"armonic/internal/forecast"
	"armonic/internal/sales"
)

// DatasetSummary describes the loaded sales history.
type DatasetSummary struct {
	Records     int                `json:"records"`
	Products    int                `json:"products"`
	Days        int                `json:"days"`
	FirstDay    time.Time          `json:"first_day"`
	LastDay     time.Time          `json:"last_day"`
	Fingerprint string             `json:"fingerprint"`
	Ingest      sales.IngestReport `json:"ingest"`
	Horizons    []forecast.Horizon `json:"forecast_horizons"`
}

// LoadHistory reads a sales CSV and makes it the active dataset. A file
// without usable rows is rejected and the previous dataset stays active.
func (p *Planner) LoadHistory(path string) (DatasetSummary, error) {
	ds, report, err := sales.LoadCSV(path)
	if err != nil {
		return DatasetSummary{}, err
	}
	if ds.TotalDays() == 0 {
		return DatasetSummary{}, &forecast.ConfigurationError{
			Field:  "historical_days",
			Reason: fmt.Sprintf("%s holds no dated sales lines (%d rows skipped)", path, report.Skipped),
		}
	}
	p.SetDataset(ds, report)
	return p.Summary()
}

// Summary describes the active dataset. Product stats are computed (or
// reused) as part of the summary.
func (p *Planner) Summary() (DatasetSummary, error) {
	p.mu.RLock()
	ds, report, set := p.dataset, p.report, p.forecasts
	p.mu.RUnlock()

	if ds == nil {
		return DatasetSummary{}, &forecast.ConfigurationError{Field: "sales_history", Reason: "no sales history loaded"}
	}

	snap, err := p.stats.Get(ds)
	if err != nil {
		return DatasetSummary{}, err
	}

	first, last := ds.Span()
	return DatasetSummary{
		Records:     ds.Len(),
		Products:    snap.Len(),
		Days:        ds.TotalDays(),
		FirstDay:    first,
		LastDay:     last,
		Fingerprint: ds.Fingerprint(),
		Ingest:      report,
		Horizons:    set.Available(),
	}, nil
}

// OrderHistory pairs the recent daily totals with the forecast of a horizon.
type OrderHistory struct {
	Horizon  forecast.Horizon   `json:"horizon"`
	Label    string             `json:"label"`
	Observed []sales.DailyTotal `json:"observed"`
	Forecast forecast.Series    `json:"forecast"`
}

// OrderHistory returns the trailing window of daily totals shown in front of
// the forecast for h.
func (p *Planner) OrderHistory(h forecast.Horizon) (OrderHistory, error) {
	p.mu.RLock()
	ds, set := p.dataset, p.forecasts
	p.mu.RUnlock()

	series, err := set.Series(h)
	if err != nil {
		return OrderHistory{}, err
	}

	out := OrderHistory{Horizon: h, Label: h.Label(), Forecast: series}
	if ds != nil {
		out.Observed = sales.TrailingWindow(ds.DailyTotals(), h)
	}
	return out, nil
}
