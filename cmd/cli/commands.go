package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/export"
	"fuel-reconcile/internal/model"
)

var (
	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "build day records and write them as CSV, XLSX or PDF",
		RunE:  cmdReconcile,
	}
	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "print the per-asset summary",
		RunE:  cmdSummary,
	}
	periodsCmd = &cobra.Command{
		Use:   "periods",
		Short: "compare sounding periods of one asset with the contract",
		RunE:  cmdPeriods,
	}
	rankCmd = &cobra.Command{
		Use:   "rank",
		Short: "rank assets by consumption above contract",
		RunE:  cmdRank,
	}

	reconcileCfg struct {
		Out    string
		Format string
	}
	periodsCfg struct {
		AssetID string
	}
	rankCfg struct {
		Limit int
	}
)

func init() {
	rootCmd.AddCommand(reconcileCmd, summaryCmd, periodsCmd, rankCmd)

	reconcileCmd.Flags().StringVar(&reconcileCfg.Out, "out", "results/records.csv", "output path")
	reconcileCmd.Flags().StringVar(&reconcileCfg.Format, "format", "", "csv, xlsx or pdf (default: from --out extension)")

	periodsCmd.Flags().StringVar(&periodsCfg.AssetID, "asset", "", "asset id")
	_ = periodsCmd.MarkFlagRequired("asset")

	rankCmd.Flags().IntVar(&rankCfg.Limit, "limit", 0, "show only the top N assets (0=all)")
}

func cmdReconcile(cmd *cobra.Command, args []string) (err error) {
	s, err := load(cmd)
	if err != nil {
		return err
	}
	format, err := formatFor(reconcileCfg.Format, reconcileCfg.Out)
	if err != nil {
		return err
	}

	res := s.run()
	for _, v := range res.Violations {
		s.log.Warn("input violation", zap.Stringer("violation", v))
	}

	if err := os.MkdirAll(filepath.Dir(reconcileCfg.Out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(reconcileCfg.Out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	err = export.Write(f, format, export.Report{
		Assets:      s.dataset.Assets,
		Result:      res,
		Policy:      s.opts.Policy,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d records (%d days x %d assets) to %s\n", len(res.Records), res.Days, res.Assets, reconcileCfg.Out)
	if len(res.Violations) > 0 {
		fmt.Printf("%d input violations, see log\n", len(res.Violations))
	}
	return nil
}

func cmdSummary(cmd *cobra.Command, args []string) error {
	s, err := load(cmd)
	if err != nil {
		return err
	}
	summaries := analysis.SummarizeFleet(s.dataset.Assets, s.run(), s.opts.Policy)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "asset\tname\tdays\thours\testimated\tmax\tdeviation%\tmissing\tstatus")
	for _, a := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.2f\t%.2f\t%.1f\t%d\t%s\n",
			a.AssetID, a.AssetName, a.Days, a.Hours, a.EstimatedTotal, a.MaxTotal, a.DeviationPercent, a.MissingEstimates, a.Status)
	}
	return w.Flush()
}

func cmdPeriods(cmd *cobra.Command, args []string) error {
	s, err := load(cmd)
	if err != nil {
		return err
	}
	ds := s.dataset
	periods := analysis.SoundingPeriods(periodsCfg.AssetID, ds.Measurements, ds.Estimates, ds.Operations, s.opts.Policy)
	if len(periods) == 0 {
		fmt.Printf("no soundings for asset %s\n", periodsCfg.AssetID)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "start\tend\treadings\treceived\tsupplied\tconsumed\tmax\tstatus")
	for _, p := range periods {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			p.Start.In(s.opts.Location).Format("2006-01-02 15:04"),
			p.End.In(s.opts.Location).Format("2006-01-02 15:04"),
			len(p.Readings), p.Received, p.Supplied, p.Consumed, p.MaxAllowed, p.Status)
	}
	return w.Flush()
}

func cmdRank(cmd *cobra.Command, args []string) error {
	s, err := load(cmd)
	if err != nil {
		return err
	}
	ranked := analysis.RankByExcess(analysis.SummarizeFleet(s.dataset.Assets, s.run(), s.opts.Policy))
	if rankCfg.Limit > 0 && rankCfg.Limit < len(ranked) {
		ranked = ranked[:rankCfg.Limit]
	}

	fmt.Printf("%-4s %-12s %-24s %-12s %-12s %-12s %-12s\n", "rank", "asset", "name", "estimated", "max", "excess", "status")
	for _, r := range ranked {
		marker := ""
		if r.Status == model.StatusExceeded {
			marker = " !"
		}
		fmt.Printf("%-4d %-12s %-24s %-12.2f %-12.2f %-12.2f %-12s%s\n",
			r.Rank, r.AssetID, r.AssetName, r.EstimatedTotal, r.MaxTotal, r.Excess(), r.Status, marker)
	}
	return nil
}
