package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"armonic/internal/budget"
	"armonic/internal/forecast"
)

var (
	budgetHorizon  string
	budgetBuffer   float64
	budgetHistory  string
	budgetPrices   string
	budgetSupplier string
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Price a plan with purchasing data and total it per supplier",
	Example: `  armonic budget --prices prices.csv
  armonic budget --horizon 30 --supplier "LOS CABALLOS"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, h, err := newPlanner(cfg)
		if err != nil {
			return err
		}
		if budgetHorizon != "" {
			if h, err = forecast.ParseHorizon(budgetHorizon); err != nil {
				return err
			}
		}

		history := cfg.HistoryFile
		if budgetHistory != "" {
			history = budgetHistory
		}
		if _, err := p.LoadHistory(history); err != nil {
			return err
		}

		pricesPath := cfg.PricesFile
		if budgetPrices != "" {
			pricesPath = budgetPrices
		}
		prices, err := budget.LoadPrices(pricesPath)
		if err != nil {
			return err
		}

		buffer := cfg.BufferQuantile
		if cmd.Flags().Changed("buffer") {
			buffer = budgetBuffer
		}
		plan, err := p.PlanWithBuffer(h, buffer)
		if err != nil {
			return err
		}

		all, unpriced := budget.Build(plan.Table, prices)
		if len(unpriced) > 0 {
			log.Warn().Strs("products", unpriced).Msg("Products without a price left out of the budget")
		}
		lines := budget.Filter(all, budgetSupplier)
		summary := budget.Summarize(lines)
		summary.Supplier = strings.TrimSpace(budgetSupplier)

		log.Info().
			Str("horizon", h.Label()).
			Int("lines", summary.Lines).
			Float64("total_missing", summary.Missing).
			Float64("valued_remaining", summary.Remaining).
			Msg("Budget ready")

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Summary budget.Summary `json:"summary"`
			Lines   []budget.Line  `json:"lines"`
		}{summary, lines}); err != nil {
			return fmt.Errorf("failed to write budget: %w", err)
		}
		return nil
	},
}

func init() {
	budgetCmd.Flags().StringVar(&budgetHorizon, "horizon", "", "forecast horizon: 14, 30, 90 or a label like \"1 mes\" (default DEFAULT_HORIZON)")
	budgetCmd.Flags().Float64Var(&budgetBuffer, "buffer", 0, "buffer quantile added to the target (default BUFFER_QUANTILE)")
	budgetCmd.Flags().StringVar(&budgetHistory, "history", "", "sales history CSV (default HISTORY_FILE)")
	budgetCmd.Flags().StringVar(&budgetPrices, "prices", "", "purchasing prices CSV (default PRICES_FILE)")
	budgetCmd.Flags().StringVar(&budgetSupplier, "supplier", "", "only total the lines of this supplier")
	rootCmd.AddCommand(budgetCmd)
}
