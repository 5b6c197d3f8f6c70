package commands

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var adjustCmd = &cobra.Command{
	Use:   "adjust [product pct]",
	Short: "Set or list persisted business adjustments",
	Long: `Sets the business adjustment of a product as a fraction (0.15 adds 15%, -0.2 removes 20%).
The product is given by name or ID and resolved against the sales history in HISTORY_FILE.
A pct of 0 clears it. Without arguments the stored adjustments are listed.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or <product> <pct>, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := newPlanner(cfg)
		if err != nil {
			return err
		}

		if len(args) == 2 {
			pct, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid pct %q: %w", args[1], err)
			}
			if _, err := p.LoadHistory(cfg.HistoryFile); err != nil {
				return fmt.Errorf("sales history is needed to resolve %q: %w", args[0], err)
			}
			row, err := p.Adjust(args[0], pct)
			if err != nil {
				return err
			}
			log.Info().Str("product", row.ProductName).Str("id", row.ProductID).Float64("pct", pct).Msg("Business adjustment updated")
		}

		all := p.Adjustments().All()
		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "No business adjustments set.")
			return nil
		}
		for _, name := range slices.Sorted(maps.Keys(all)) {
			fmt.Fprintf(out, "%s\t%+.2f%%\n", name, all[name]*100)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adjustCmd)
}
