package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

func (s *Server) registerTools(server *mcpsdk.Server) {
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "load_sales_history",
		Description: "Load the restaurant's historical sales lines (CSV) as the basis for every plan. " +
			"Reports records, products, days covered and how many values had to be sanitized. " +
			"Guidance: Call 'plan_inventory' next.",
	}, handler("load_sales_history", s.handleLoadSalesHistory))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "plan_inventory",
		Description: "Allocate the forecast unit target for a horizon (14, 30 or 90 days) across products. " +
			"Each product gets an integer estimation; estimations always sum exactly to the target. " +
			"The table also shows the business adjustment and adjusted total per product.\n\n" +
			"STRICT GUARDRAIL: Do not invent quantities for products missing from the table and do not rescale the estimations yourself. " +
			"Use 'set_business_adjustment' to express business judgement.",
	}, handler("plan_inventory", s.handlePlanInventory))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "set_business_adjustment",
		Description: "Set a per-product percentage applied on top of the estimation (total = estimation * (1 + pct)). " +
			"Display only: it never changes the allocation itself. Persisted across restarts.",
	}, handler("set_business_adjustment", s.handleSetBusinessAdjustment))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "get_order_history",
		Description: "Get the recent daily sold quantities followed by the predicted daily orders for a horizon. " +
			"Use it to explain where a plan's target comes from.",
	}, handler("get_order_history", s.handleGetOrderHistory))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "estimate_purchase_budget",
		Description: "Price the plan's adjusted totals with purchasing data: estimated amount (quantity * historical price), " +
			"budget (estimated * (1 + shrinkage)), actual amount (received * market price) and their difference. " +
			"Totals cover the included lines of the selected supplier.",
	}, handler("estimate_purchase_budget", s.handlePurchaseBudget))
}

// handler adapts an envelope-returning tool implementation to the SDK.
// Errors become tool errors that the client sees as the result text.
func handler[In any](name string, fn func(In) (ResponseEnvelope, error)) mcpsdk.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, any, error) {
		env, err := fn(in)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("Tool call failed")
			return nil, nil, err
		}
		return textResult(env)
	}
}
