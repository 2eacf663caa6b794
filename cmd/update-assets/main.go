package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fuel-reconcile/internal/config"
	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/logging"
	"fuel-reconcile/internal/model"
)

func main() {
	var (
		cfgPath      = flag.String("config", "", "Path to YAML config (optional)")
		enterpriseID = flag.String("enterprise", "", "Enterprise id whose fleet is listed")
		outputPath   = flag.String("output", "", "Output file path (default: ASSETS_FILE or ./data/assets.json)")
		seedFile     = flag.String("seed", "", "Path to an existing catalog to merge with")
		timeout      = flag.Duration("timeout", 30*time.Second, "Request timeout")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.FleetAPI.BaseURL == "" || cfg.FleetAPI.Token == "" {
		log.Fatal("FLEET_API_URL and FLEET_API_TOKEN are required")
	}
	if *outputPath == "" {
		*outputPath = data.DefaultAssetsPath()
	}

	seed := loadSeed(*seedFile, *outputPath, log)

	client := data.NewFleetClient(cfg.FleetAPI.BaseURL, cfg.FleetAPI.Token, *timeout, log)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fresh, err := client.ListAssets(ctx, *enterpriseID)
	if err != nil {
		log.Fatal("list assets", zap.Error(err))
	}
	log.Info("fetched assets", zap.Int("count", len(fresh)), zap.String("enterprise_id", *enterpriseID))

	assets := data.MergeAssets(seed, fresh)
	cat := data.NewAssetCatalog(*enterpriseID, assets, time.Now())
	if err := data.SaveAssetCatalog(cat, *outputPath); err != nil {
		log.Fatal("save catalog", zap.Error(err))
	}

	fmt.Printf("Saved %d assets to %s\n", len(assets), *outputPath)
}

// loadSeed reads the seed catalog, falling back to the current output file.
// A missing seed is not an error.
func loadSeed(seedFile, outputPath string, log *zap.Logger) []model.Asset {
	path := seedFile
	if path == "" {
		path = outputPath
	}
	cat, err := data.LoadAssetCatalog(path)
	if err != nil {
		if seedFile != "" {
			log.Warn("seed catalog not loaded", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	log.Info("loaded seed catalog", zap.String("path", path), zap.Int("count", len(cat.Assets)))
	return cat.Assets
}
