package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"armonic/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "steady", "Scenario to generate: steady, weekend, drift")
	outDir := flag.String("out", "./data", "Output directory for mock files")
	days := flag.Int("days", 180, "Number of historical days to generate")
	products := flag.Int("products", 20, "Number of menu items (max 20)")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Days:     *days,
		Products: *products,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Days: %d, Products: %d) to %s...\n", cfg.Scenario, cfg.Days, cfg.Products, *outDir)

	out := engine.Generate(cfg)
	if err := engine.Save(*outDir, out); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d sales lines, %.1f orders/day.\n", len(out.Records), out.Metadata.HistoricalDailyOrders)
}
