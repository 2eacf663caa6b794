package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "time/tzdata"

	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/config"
	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/export"
	"fuel-reconcile/internal/model"
	"fuel-reconcile/internal/reconcile"
)

// Demo:
// - Synthesize a small fleet (operations, daily reports, soundings)
// - Reconcile it day by day
// - Print a few records and the per-vessel summary
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	vessels := flag.Int("vessels", 3, "Number of vessels")
	days := flag.Int("days", 7, "Number of days")
	start := flag.String("start", "2024-01-01", "First day (YYYY-MM-DD)")
	seed := flag.Int64("seed", 42, "Random seed")
	n := flag.Int("n", 12, "Number of records to print")
	savePath := flag.String("save", "", "Optional path to save the synthetic dataset (e.g. data/demo.json)")
	outCSV := flag.String("out", "", "Optional path to write records CSV (e.g. results/records.csv)")
	flag.Parse()

	cfg, err := config.LoadUnchecked(*cfgPath)
	if err != nil {
		panic(err)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		panic(err)
	}

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		panic(fmt.Errorf("--start: %w", err))
	}
	first := reconcile.DayOfDate(startDate.Year(), startDate.Month(), startDate.Day(), opts.Location).Start

	ds := synthesize(fleetParams{Vessels: *vessels, Days: *days, Start: first, Seed: *seed})
	fmt.Printf("Synthesized %d vessels, %d operations, %d reports, %d soundings\n",
		len(ds.Assets), len(ds.Operations), len(ds.Estimates), len(ds.Measurements))

	if *savePath != "" {
		if err := data.SaveDatasetFile(*savePath, ds); err != nil {
			panic(err)
		}
		fmt.Printf("Saved dataset: %s\n", *savePath)
	}

	engine := reconcile.New(opts)
	res := engine.RunDataset(ds, reconcile.SourceEstimate)
	fmt.Printf("Reconciled %d days x %d vessels (zone %s, inoperabilities shown=%v)\n\n",
		res.Days, res.Assets, opts.Location, opts.Policy.ShowInoperabilities)

	for i := 0; i < min(*n, len(res.Records)); i++ {
		r := res.Records[i]
		est := "   n/a"
		if r.ConsumptionEstimated != nil {
			est = fmt.Sprintf("%6.2f", *r.ConsumptionEstimated)
		}
		fmt.Printf("%s %-4s ops=%-2d hours=%5.2f  max=%6.2f  est=%s  %s\n",
			r.Key(), r.AssetID, len(r.Operations), r.Hours(), r.MaxConsumption(), est, analysis.DayStatus(r))
	}

	fmt.Println()
	for _, s := range analysis.SummarizeFleet(ds.Assets, res, opts.Policy) {
		fmt.Printf("%-4s %-16s est=%8.2f  max=%8.2f  dev=%6.1f%%  missing=%d  %s\n",
			s.AssetID, s.AssetName, s.EstimatedTotal, s.MaxTotal, s.DeviationPercent, s.MissingEstimates, s.Status)
	}

	if *outCSV != "" {
		if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
			panic(err)
		}
		if err := export.WriteRecordsCSVFile(*outCSV, res.Records, model.AssetNames(ds.Assets)); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}
}
