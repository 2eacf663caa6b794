package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuel-reconcile/internal/config"
	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/export"
	"fuel-reconcile/internal/logging"
	"fuel-reconcile/internal/model"
	"fuel-reconcile/internal/reconcile"
	"fuel-reconcile/internal/store/postgres"
)

var (
	rootCmd = &cobra.Command{
		Use:           "cli",
		Short:         "Reconcile fleet fuel consumption against contractual limits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCfg struct {
		ConfigPath          string
		DataPath            string
		EnterpriseID        string
		AssetIDs            []string
		Start               string
		End                 string
		Source              string
		ShowInoperabilities bool
		Timezone            string
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootCfg.ConfigPath, "config", "", "path to YAML config")
	flags.StringVar(&rootCfg.DataPath, "data", "", "dataset envelope JSON; when empty the configured database or fleet API is used")
	flags.StringVar(&rootCfg.EnterpriseID, "enterprise", "", "enterprise id for remote sources")
	flags.StringSliceVar(&rootCfg.AssetIDs, "assets", nil, "comma-separated asset ids (default: all)")
	flags.StringVar(&rootCfg.Start, "start", "", "first day, YYYY-MM-DD or RFC 3339")
	flags.StringVar(&rootCfg.End, "end", "", "last day, YYYY-MM-DD or RFC 3339")
	flags.StringVar(&rootCfg.Source, "source", "", "reading source joined onto records: estimate, measurement or none")
	flags.BoolVar(&rootCfg.ShowInoperabilities, "show-inoperabilities", false, "keep the contractual rate of inoperability operations")
	flags.StringVar(&rootCfg.Timezone, "timezone", "", "IANA zone defining calendar days (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// session is the resolved input of one command.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	opts    reconcile.Options
	kind    reconcile.SourceKind
	query   data.Query
	dataset *model.Dataset
}

func (s *session) engine() *reconcile.Engine {
	return reconcile.New(s.opts)
}

func (s *session) run() *reconcile.Result {
	return s.engine().RunDataset(s.dataset, s.kind)
}

// load resolves config, flag overrides and the dataset for cmd.
func load(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(rootCfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if rootCfg.Timezone != "" {
		cfg.Timezone = rootCfg.Timezone
	}

	var override config.ReconcileOverride
	flags := cmd.Flags()
	if flags.Changed("source") {
		override.Source = &rootCfg.Source
	}
	if flags.Changed("show-inoperabilities") {
		override.ShowInoperabilities = &rootCfg.ShowInoperabilities
	}
	cfg.Reconcile = config.MergeReconcile(cfg.Reconcile, override)

	log, err := logging.New(cfg.Log, false)
	if err != nil {
		return nil, err
	}

	kind, err := reconcile.ParseSourceKind(cfg.Reconcile.Source)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}

	q := data.Query{
		EnterpriseID:        rootCfg.EnterpriseID,
		AssetIDs:            rootCfg.AssetIDs,
		ShowInoperabilities: cfg.Reconcile.ShowInoperabilities,
	}
	if q.Start, err = parseDay(rootCfg.Start, opts.Location, false); err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	if q.End, err = parseDay(rootCfg.End, opts.Location, true); err != nil {
		return nil, fmt.Errorf("--end: %w", err)
	}

	ds, err := fetch(cmd.Context(), cfg, q, log)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, log: log, opts: opts, kind: kind, query: q, dataset: ds}, nil
}

func fetch(ctx context.Context, cfg *config.Config, q data.Query, log *zap.Logger) (*model.Dataset, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if rootCfg.DataPath != "" {
		return data.FileSource{Path: rootCfg.DataPath}.FetchDataset(ctx, q)
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("remote sources need --start and --end: %w", err)
	}
	switch {
	case cfg.Database.URL != "":
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		defer func() { _ = db.Close() }()
		return postgres.NewRepository(db, postgres.WithLogger(log)).FetchDataset(ctx, q)
	case cfg.FleetAPI.BaseURL != "":
		client := data.NewFleetClient(cfg.FleetAPI.BaseURL, cfg.FleetAPI.Token, cfg.FleetAPI.Timeout, log)
		return client.FetchDataset(ctx, q)
	default:
		return nil, fmt.Errorf("no data source: pass --data or configure database.url or fleet_api.base_url")
	}
}

// parseDay accepts a calendar date in loc or an RFC 3339 instant. Empty means unbounded.
func parseDay(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		day := reconcile.DayOfDate(t.Year(), t.Month(), t.Day(), loc)
		if endOfDay {
			return day.End, nil
		}
		return day.Start, nil
	}
	return time.Parse(time.RFC3339, s)
}

// formatFor picks the export format: the explicit flag, else the file extension.
func formatFor(flag, path string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	return export.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}
