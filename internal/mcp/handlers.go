package mcp

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"armonic/internal/adjustment"
	"armonic/internal/allocation"
	"armonic/internal/budget"
	"armonic/internal/forecast"
	"armonic/internal/planner"
	"armonic/internal/visuals"
)

type LoadSalesHistoryInput struct {
	Path string `json:"path,omitempty" jsonschema:"CSV file with the sales history. Defaults to the configured HISTORY_FILE."`
}

type PlanInventoryInput struct {
	Horizon        string   `json:"horizon,omitempty" jsonschema:"Forecast horizon: 14, 30 or 90 days (also accepts '14 días', '1 mes', '3 meses')."`
	BufferQuantile *float64 `json:"buffer_quantile,omitempty" jsonschema:"Safety buffer added to the target, e.g. 0.1 for +10%. Defaults to the configured BUFFER_QUANTILE."`
	IncludeTrace   bool     `json:"include_trace,omitempty" jsonschema:"Include the per-product apportionment trace (E, scaled, floor, frac)."`
	IncludeChart   bool     `json:"include_chart,omitempty" jsonschema:"Include a Mermaid bar chart of the top products."`
}

type SetBusinessAdjustmentInput struct {
	ProductID string  `json:"product_id" jsonschema:"Product name or ID as shown in the plan table. Use the name when an ID is shared by several products."`
	Pct       float64 `json:"pct" jsonschema:"Adjustment as a fraction: 0.15 adds 15%, -0.2 removes 20%. 0 clears it."`
}

type OrderHistoryInput struct {
	Horizon string `json:"horizon,omitempty" jsonschema:"Forecast horizon: 14, 30 or 90 days."`
}

type PurchaseBudgetInput struct {
	PricesPath     string   `json:"prices_path,omitempty" jsonschema:"CSV with product, supplier, historical_price, market_price, received, shrinkage, include. Defaults to the configured PRICES_FILE."`
	Horizon        string   `json:"horizon,omitempty" jsonschema:"Forecast horizon of the plan to price: 14, 30 or 90 days."`
	BufferQuantile *float64 `json:"buffer_quantile,omitempty" jsonschema:"Safety buffer of the plan to price. Defaults to the configured BUFFER_QUANTILE."`
	Supplier       string   `json:"supplier,omitempty" jsonschema:"Only price lines of this supplier. Empty or 'Todos' keeps every supplier."`
}

type budgetResult struct {
	Summary   budget.Summary `json:"summary"`
	Suppliers []string       `json:"suppliers"`
	Lines     []budget.Line  `json:"lines"`
}

type planSummary struct {
	Horizon             int              `json:"horizon"`
	BufferQuantile      float64          `json:"buffer_quantile"`
	TotalForecastOrders float64          `json:"total_forecast_orders"`
	AvgItemsPerOrder    float64          `json:"avg_items_per_order"`
	TotalScale          float64          `json:"total_scale"`
	Target              int              `json:"target"`
	Products            int              `json:"products"`
	Estimation          int              `json:"estimation_sum"`
	AdjustedTotal       float64          `json:"adjusted_total"`
	Table               []adjustment.Row `json:"table"`
	Trace               []allocation.Row `json:"trace,omitempty"`
	Chart               string           `json:"chart,omitempty"`
}

type orderHistoryResult struct {
	planner.OrderHistory
	Chart string `json:"chart,omitempty"`
}

// chartTopProducts bounds the allocation chart to stay readable.
const chartTopProducts = 15

func (s *Server) handleLoadSalesHistory(in LoadSalesHistoryInput) (ResponseEnvelope, error) {
	path := strings.TrimSpace(in.Path)
	if path == "" {
		path = s.historyFile
	}
	if path == "" {
		return ResponseEnvelope{}, fmt.Errorf("no path given and no HISTORY_FILE configured")
	}

	summary, err := s.planner.LoadHistory(path)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	var warnings []string
	if summary.Ingest.Coerced > 0 {
		warnings = append(warnings, fmt.Sprintf("%d quantities were not clean numbers and were coerced (blank or unreadable values count as 0).", summary.Ingest.Coerced))
	}
	if summary.Ingest.Skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows were skipped because their date could not be read.", summary.Ingest.Skipped))
	}
	if len(summary.Horizons) == 0 {
		warnings = append(warnings, "No forecast series are loaded; plan_inventory will fail until forecast files are available.")
	}

	return WrapResponse(summary, ResponseContext{Fingerprint: summary.Fingerprint}, warnings), nil
}

func (s *Server) handlePlanInventory(in PlanInventoryInput) (ResponseEnvelope, error) {
	h, err := s.resolveHorizon(in.Horizon)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	buffer := s.planner.DefaultBuffer()
	if in.BufferQuantile != nil {
		buffer = *in.BufferQuantile
	}

	plan, err := s.planner.PlanWithBuffer(h, buffer)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	est, total := adjustment.Sum(plan.Table)
	res := planSummary{
		Horizon:             int(plan.Horizon),
		BufferQuantile:      plan.BufferQuantile,
		TotalForecastOrders: plan.TotalForecastOrders,
		AvgItemsPerOrder:    plan.AvgItemsPerOrder,
		TotalScale:          plan.TotalScale,
		Target:              plan.Target,
		Products:            len(plan.Table),
		Estimation:          est,
		AdjustedTotal:       total,
		Table:               plan.Table,
	}
	if in.IncludeTrace {
		res.Trace = plan.Allocation
	}
	if in.IncludeChart {
		res.Chart = visuals.GenerateAllocationChart(plan.Table, chartTopProducts)
	}

	return WrapResponse(res, planContext(plan), planWarnings(plan)), nil
}

func (s *Server) handleSetBusinessAdjustment(in SetBusinessAdjustmentInput) (ResponseEnvelope, error) {
	id := strings.TrimSpace(in.ProductID)
	row, err := s.planner.Adjust(id, in.Pct)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	log.Info().Str("product", id).Float64("pct", in.Pct).Msg("Business adjustment updated")

	var ctx ResponseContext
	var warnings []string
	if last := s.planner.Last(); last != nil {
		ctx = planContext(last)
	} else {
		warnings = append(warnings, "No plan computed yet; the adjustment is stored and will apply to the next plan_inventory call.")
	}
	if row.Total < 0 {
		warnings = append(warnings, "Adjustment below -100% makes the total negative.")
	}
	return WrapResponse(row, ctx, warnings), nil
}

func (s *Server) handleGetOrderHistory(in OrderHistoryInput) (ResponseEnvelope, error) {
	h, err := s.resolveHorizon(in.Horizon)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	hist, err := s.planner.OrderHistory(h)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	var warnings []string
	if len(hist.Observed) == 0 {
		warnings = append(warnings, "No sales history loaded; only the forecast is returned. Call load_sales_history first.")
	}
	res := orderHistoryResult{
		OrderHistory: hist,
		Chart:        visuals.GenerateOrderHistoryChart(hist.Observed, hist.Forecast),
	}
	return WrapResponse(res, ResponseContext{Horizon: int(h), Label: h.Label()}, warnings), nil
}

func (s *Server) handlePurchaseBudget(in PurchaseBudgetInput) (ResponseEnvelope, error) {
	path := strings.TrimSpace(in.PricesPath)
	if path == "" {
		path = s.pricesFile
	}
	if path == "" {
		return ResponseEnvelope{}, fmt.Errorf("no prices_path given and no PRICES_FILE configured")
	}
	prices, err := budget.LoadPrices(path)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	h, err := s.resolveHorizon(in.Horizon)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	buffer := s.planner.DefaultBuffer()
	if in.BufferQuantile != nil {
		buffer = *in.BufferQuantile
	}
	plan, err := s.planner.PlanWithBuffer(h, buffer)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	all, unpriced := budget.Build(plan.Table, prices)
	lines := budget.Filter(all, in.Supplier)
	summary := budget.Summarize(lines)
	summary.Supplier = strings.TrimSpace(in.Supplier)

	var warnings []string
	if len(unpriced) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d products in the plan have no price and are left out of the budget.", len(unpriced)))
	}
	if summary.Lines == 0 {
		warnings = append(warnings, "No included lines match; the budget totals are 0.")
	}

	res := budgetResult{Summary: summary, Suppliers: budget.Suppliers(all), Lines: lines}
	return WrapResponse(res, planContext(plan), warnings), nil
}

func (s *Server) resolveHorizon(raw string) (forecast.Horizon, error) {
	if strings.TrimSpace(raw) == "" {
		return s.defaultHorizon, nil
	}
	return forecast.ParseHorizon(raw)
}

func planContext(p *planner.Plan) ResponseContext {
	return ResponseContext{Fingerprint: p.Fingerprint, Horizon: int(p.Horizon), Label: p.Horizon.Label()}
}

func planWarnings(p *planner.Plan) []string {
	var warnings []string
	if p.Target == 0 {
		warnings = append(warnings, "Target is 0 for this horizon; every product gets 0 units.")
		return warnings
	}

	zeroE := true
	for _, r := range p.Allocation {
		if r.E > 0 {
			zeroE = false
			break
		}
	}
	if zeroE && len(p.Allocation) > 0 {
		warnings = append(warnings, "Every product has zero expected demand; units were split by historical sales lines (or evenly).")
	}
	return warnings
}
