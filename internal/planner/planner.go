package planner

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"armonic/internal/adjustment"
	"armonic/internal/allocation"
	"armonic/internal/forecast"
	"armonic/internal/sales"
	"armonic/internal/stats"
)

// Plan is the result of one allocation run for a horizon.
type Plan struct {
	Horizon             forecast.Horizon `json:"horizon"`
	Fingerprint         string           `json:"fingerprint"`
	BufferQuantile      float64          `json:"buffer_quantile"`
	TotalForecastOrders float64          `json:"total_forecast_orders"`
	AvgItemsPerOrder    float64          `json:"avg_items_per_order"`
	TotalScale          float64          `json:"total_scale"`
	Target              int              `json:"target"`
	ComputedAt          time.Time        `json:"computed_at"`
	Allocation          []allocation.Row `json:"allocation"`
	Table               []adjustment.Row `json:"table"`
}

// Row returns the management row of a product, matched by name first and
// then by ID.
func (p *Plan) Row(product string) (adjustment.Row, bool) {
	for _, r := range p.Table {
		if r.ProductName == product {
			return r, true
		}
	}
	for _, r := range p.Table {
		if r.ProductID == product {
			return r, true
		}
	}
	return adjustment.Row{}, false
}

type planKey struct {
	fingerprint string
	horizon     forecast.Horizon
	buffer      float64
}

// snapshot is an allocation that is never mutated once stored.
type snapshot struct {
	key  planKey
	plan Plan
}

// Planner runs the allocation pipeline over the currently loaded inputs.
// Stats and the last allocation are cached; business adjustments are applied
// on every call and never influence the allocation.
type Planner struct {
	mu        sync.RWMutex
	dataset   *sales.Dataset
	report    sales.IngestReport
	forecasts *forecast.Set
	metadata  *forecast.Metadata

	stats       *stats.Cache
	adjustments *adjustment.Store
	buffer      float64

	last atomic.Pointer[snapshot]
}

// New creates a planner. A nil store gives a memory-only adjustment store.
func New(forecasts *forecast.Set, adjustments *adjustment.Store, buffer float64) *Planner {
	if forecasts == nil {
		forecasts = forecast.NewSet()
	}
	if adjustments == nil {
		adjustments = adjustment.NewStore("")
	}
	return &Planner{
		forecasts:   forecasts,
		adjustments: adjustments,
		stats:       stats.NewCache(),
		buffer:      buffer,
	}
}

// SetDataset replaces the sales history. Stats are invalidated through the
// dataset fingerprint on the next plan.
func (p *Planner) SetDataset(ds *sales.Dataset, report sales.IngestReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataset = ds
	p.report = report
	log.Info().
		Int("records", ds.Len()).
		Int("days", ds.TotalDays()).
		Str("fingerprint", short(ds.Fingerprint())).
		Msg("Sales history replaced")
}

// SetForecasts replaces the forecast series.
func (p *Planner) SetForecasts(set *forecast.Set) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forecasts = set
	p.last.Store(nil)
}

// SetMetadata pins the forecast scalars. Without it they are derived from the
// sales history.
func (p *Planner) SetMetadata(m forecast.Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metadata = &m
	p.last.Store(nil)
	return nil
}

// Adjustments exposes the business adjustment store.
func (p *Planner) Adjustments() *adjustment.Store {
	return p.adjustments
}

// DefaultBuffer returns the configured buffer quantile.
func (p *Planner) DefaultBuffer() float64 {
	return p.buffer
}

// Plan computes the allocation for h with the configured buffer.
func (p *Planner) Plan(h forecast.Horizon) (*Plan, error) {
	return p.PlanWithBuffer(h, p.buffer)
}

// PlanWithBuffer computes the allocation for h with an explicit buffer
// quantile. The allocation is reused while dataset, horizon and buffer are
// unchanged; only the adjustment table is rebuilt.
func (p *Planner) PlanWithBuffer(h forecast.Horizon, buffer float64) (*Plan, error) {
	if buffer < 0 || math.IsNaN(buffer) || math.IsInf(buffer, 0) {
		return nil, &forecast.ConfigurationError{Field: "buffer_quantile", Horizon: h, Reason: fmt.Sprintf("must be a finite number >= 0, got %v", buffer)}
	}

	p.mu.RLock()
	ds, set, pinned := p.dataset, p.forecasts, p.metadata
	p.mu.RUnlock()

	if ds == nil {
		return nil, &forecast.ConfigurationError{Field: "sales_history", Horizon: h, Reason: "no sales history loaded"}
	}

	key := planKey{fingerprint: ds.Fingerprint(), horizon: h, buffer: buffer}
	if snap := p.last.Load(); snap != nil && snap.key == key {
		log.Debug().Int("horizon", int(h)).Msg("Reusing cached allocation")
		return p.render(snap), nil
	}

	series, err := set.Series(h)
	if err != nil {
		return nil, err
	}

	meta := ds.DeriveMetadata()
	if pinned != nil {
		meta = *pinned
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	productStats, err := p.stats.Get(ds)
	if err != nil {
		return nil, err
	}
	products := productStats.Products()

	totalScale, err := allocation.TotalScale(series.PredictedOrders, meta.HistoricalDailyOrders)
	if err != nil {
		return nil, err
	}
	expected := allocation.Expectations(products, totalScale)

	items := make([]allocation.Item, len(products))
	for i, ps := range products {
		items[i] = allocation.Item{
			ProductID:       ps.ProductID,
			ProductName:     ps.ProductName,
			Expected:        expected[i],
			HistoricalCount: float64(ps.HistoricalCount),
		}
	}

	totalOrders := series.TotalOrders()
	target, err := allocation.Target(totalOrders, meta.AvgItemsPerOrder, buffer)
	if err != nil {
		return nil, err
	}
	rows := allocation.Apportion(items, target)

	snap := &snapshot{
		key: key,
		plan: Plan{
			Horizon:             h,
			Fingerprint:         key.fingerprint,
			BufferQuantile:      buffer,
			TotalForecastOrders: totalOrders,
			AvgItemsPerOrder:    meta.AvgItemsPerOrder,
			TotalScale:          totalScale,
			Target:              target,
			ComputedAt:          time.Now(),
			Allocation:          rows,
		},
	}
	p.last.Store(snap)

	log.Info().
		Int("horizon", int(h)).
		Int("products", len(rows)).
		Int("target", target).
		Float64("total_scale", totalScale).
		Float64("buffer", buffer).
		Msg("Allocation computed")

	return p.render(snap), nil
}

// Last returns the most recent plan with current adjustments, or nil.
func (p *Planner) Last() *Plan {
	snap := p.last.Load()
	if snap == nil {
		return nil
	}
	return p.render(snap)
}

// Adjust stores a business adjustment for a product given by name or ID and
// returns its updated row. Products are resolved against the last plan, or
// against the loaded history before any plan exists.
func (p *Planner) Adjust(product string, pct float64) (adjustment.Row, error) {
	snap := p.last.Load()
	id, name, err := p.resolveProduct(snap, product)
	if err != nil {
		return adjustment.Row{}, err
	}

	if err := p.adjustments.Set(name, pct); err != nil {
		return adjustment.Row{}, err
	}
	if err := p.adjustments.Save(); err != nil {
		log.Warn().Err(err).Msg("Failed to persist business adjustments")
	}

	if snap == nil {
		return adjustment.Row{ProductID: id, ProductName: name, BusinessAdjustmentPct: pct}, nil
	}
	row, _ := p.render(snap).Row(name)
	return row, nil
}

// resolveProduct maps a product name or ID to the product's (id, name). Names
// win over IDs; an ID shared by several names is ambiguous.
func (p *Planner) resolveProduct(snap *snapshot, product string) (string, string, error) {
	var candidates []allocation.Row
	if snap != nil {
		candidates = snap.plan.Allocation
	} else {
		p.mu.RLock()
		ds := p.dataset
		p.mu.RUnlock()
		if ds == nil {
			return "", "", &forecast.ConfigurationError{Field: "sales_history", Reason: "no sales history loaded to resolve products"}
		}
		cached, err := p.stats.Get(ds)
		if err != nil {
			return "", "", err
		}
		for _, ps := range cached.Products() {
			candidates = append(candidates, allocation.Row{ProductID: ps.ProductID, ProductName: ps.ProductName})
		}
	}

	for _, r := range candidates {
		if r.ProductName == product {
			return r.ProductID, r.ProductName, nil
		}
	}

	var names []string
	id := ""
	for _, r := range candidates {
		if r.ProductID == product {
			id = r.ProductID
			names = append(names, r.ProductName)
		}
	}
	switch len(names) {
	case 0:
		return "", "", fmt.Errorf("unknown product %q", product)
	case 1:
		return id, names[0], nil
	default:
		return "", "", fmt.Errorf("product id %q is shared by %s; adjust by product name instead", product, strings.Join(names, ", "))
	}
}

// render copies the cached plan and applies the current adjustments.
func (p *Planner) render(snap *snapshot) *Plan {
	plan := snap.plan
	plan.Allocation = slices.Clone(snap.plan.Allocation)
	plan.Table = adjustment.Apply(plan.Allocation, p.adjustments)
	return &plan
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
