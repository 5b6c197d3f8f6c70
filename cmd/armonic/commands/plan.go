package commands

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"armonic/internal/adjustment"
	"armonic/internal/export"
	"armonic/internal/forecast"
)

var (
	planHorizon string
	planBuffer  float64
	planHistory string
	planOut     string
	planFormat  string
	planOpen    bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the per-product allocation for a horizon and export it",
	Example: `  armonic plan --horizon 30
  armonic plan --horizon "1 mes" --buffer 0.1 --out plan.json --open`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, h, err := newPlanner(cfg)
		if err != nil {
			return err
		}
		if planHorizon != "" {
			if h, err = forecast.ParseHorizon(planHorizon); err != nil {
				return err
			}
		}

		history := cfg.HistoryFile
		if planHistory != "" {
			history = planHistory
		}
		if _, err := p.LoadHistory(history); err != nil {
			return err
		}

		buffer := cfg.BufferQuantile
		if cmd.Flags().Changed("buffer") {
			buffer = planBuffer
		}

		plan, err := p.PlanWithBuffer(h, buffer)
		if err != nil {
			return err
		}

		format := export.FormatFromPath(planOut)
		if planFormat != "" {
			if format, err = export.ParseFormat(planFormat); err != nil {
				return err
			}
		}

		est, total := adjustment.Sum(plan.Table)
		log.Info().
			Str("horizon", h.Label()).
			Int("target", plan.Target).
			Int("estimation", est).
			Float64("adjusted_total", total).
			Int("products", len(plan.Table)).
			Msg("Plan ready")

		if planOut == "" {
			return export.Write(os.Stdout, format, plan.Table)
		}
		if err := export.WriteFile(planOut, format, plan.Table); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Plan written to %s\n", planOut)

		if planOpen {
			browser.Stdout = os.Stderr
			if err := browser.OpenFile(planOut); err != nil {
				log.Warn().Err(err).Str("path", planOut).Msg("Failed to open exported plan")
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planHorizon, "horizon", "", "forecast horizon: 14, 30, 90 or a label like \"1 mes\" (default DEFAULT_HORIZON)")
	planCmd.Flags().Float64Var(&planBuffer, "buffer", 0, "buffer quantile added to the target, e.g. 0.1 (default BUFFER_QUANTILE)")
	planCmd.Flags().StringVar(&planHistory, "history", "", "sales history CSV (default HISTORY_FILE)")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "export file; stdout when empty")
	planCmd.Flags().StringVar(&planFormat, "format", "", "export format: csv or json (default from --out extension)")
	planCmd.Flags().BoolVar(&planOpen, "open", false, "open the exported file with the system viewer")
	rootCmd.AddCommand(planCmd)
}
