package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"armonic/internal/forecast"
	"armonic/internal/sales"
)

type GeneratorConfig struct {
	Scenario string // "steady", "weekend" or "drift"
	Days     int
	Products int
	Seed     uint64
	Now      time.Time
}

// Output is everything the planner reads from a data directory.
type Output struct {
	Records   []sales.Record
	Forecasts []forecast.Series
	Metadata  forecast.Metadata
}

var menu = []string{
	"Agua sin gas", "Anticuchos", "Arroz chaufa", "Causa limeña", "Ceviche clásico",
	"Chicha morada", "Chilcano", "Inca Kola", "Jalea mixta", "Leche de tigre",
	"Lomo saltado", "Papa a la huancaína", "Pisco sour", "Suspiro limeño", "Tiradito",
	"Ají de gallina", "Tacu tacu", "Picarones", "Cerveza Cusqueña", "Limonada",
}

func Generate(cfg GeneratorConfig) Output {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Days <= 0 {
		cfg.Days = 180
	}
	if cfg.Products <= 0 || cfg.Products > len(menu) {
		cfg.Products = len(menu)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	// Popularity follows a heavy tail: a few dishes dominate most tickets.
	popularity := make([]float64, cfg.Products)
	for i := range popularity {
		popularity[i] = weibullSample(rng, 0.9, 1.0)
	}

	today := sales.TruncateDay(cfg.Now)
	first := today.AddDate(0, 0, -cfg.Days)

	var records []sales.Record
	orderSeq := 0
	for d := 0; d < cfg.Days; d++ {
		day := first.AddDate(0, 0, d)
		orders := dailyOrders(rng, cfg.Scenario, day, float64(d)/float64(cfg.Days))

		for o := 0; o < orders; o++ {
			orderSeq++
			orderID := fmt.Sprintf("ORD-%06d", orderSeq)
			at := day.Add(time.Duration(11*60+rng.IntN(11*60)) * time.Minute)

			lines := 1 + rng.IntN(3)
			for l := 0; l < lines; l++ {
				p := pick(rng, popularity)
				qty := 1.0
				if rng.Float64() < 0.25 {
					qty += float64(rng.IntN(3))
				}
				records = append(records, sales.NewRecord(at, fmt.Sprintf("SKU-%03d", p+1), menu[p], orderID, qty))
			}
		}
	}

	ds := sales.NewDataset(records)
	meta := ds.DeriveMetadata()

	var series []forecast.Series
	for _, h := range forecast.Horizons {
		s := forecast.Series{Horizon: h}
		for d := 0; d < int(h); d++ {
			day := today.AddDate(0, 0, d+1)
			s.Dates = append(s.Dates, day)
			s.PredictedOrders = append(s.PredictedOrders, math.Round(meta.HistoricalDailyOrders*seasonality(cfg.Scenario, day)*100)/100)
		}
		series = append(series, s)
	}

	return Output{Records: records, Forecasts: series, Metadata: meta}
}

func dailyOrders(rng *rand.Rand, scenario string, day time.Time, progress float64) int {
	base := 40.0
	if scenario == "drift" {
		base *= 0.7 + 0.6*progress
	}
	mean := base * seasonality(scenario, day)
	n := int(math.Round(mean + rng.NormFloat64()*math.Sqrt(mean)))
	return max(n, 0)
}

func seasonality(scenario string, day time.Time) float64 {
	if scenario != "weekend" {
		return 1
	}
	switch day.Weekday() {
	case time.Friday:
		return 1.3
	case time.Saturday, time.Sunday:
		return 1.6
	case time.Monday:
		return 0.6
	}
	return 0.9
}

func pick(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes history.csv, predict<h>.json and metadata.json into outDir.
func Save(outDir string, out Output) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(outDir, "history.csv"))
	if err != nil {
		return err
	}
	if err := sales.WriteCSV(f, out.Records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	for _, s := range out.Forecasts {
		if err := forecast.SaveSeries(outDir, s); err != nil {
			return err
		}
	}
	return out.Metadata.Save(filepath.Join(outDir, "metadata.json"))
}
