package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"armonic/internal/config"
	"armonic/internal/logging"
	"armonic/internal/mcp"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "armonic",
	Short: "Armonic turns order forecasts into per-product inventory quantities",
	Long: `Armonic allocates the forecast number of units for a 14, 30 or 90 day horizon across
a restaurant's products, using how often and how much each product sold historically.
Without a subcommand it runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("Armonic starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, h, err := newPlanner(cfg)
		if err != nil {
			return err
		}
		preloadHistory(p, cfg.HistoryFile)

		server := mcp.NewServer(p, mcp.Options{
			HistoryFile:    cfg.HistoryFile,
			PricesFile:     cfg.PricesFile,
			DefaultHorizon: h,
			Version:        Version,
		})
		return server.Serve(cmd.Context())
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
