package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fuel-reconcile/internal/api/handlers"
	"fuel-reconcile/internal/api/middleware"
	"fuel-reconcile/internal/config"
	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/logging"
	"fuel-reconcile/internal/metrics"
	"fuel-reconcile/internal/store/postgres"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log, cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if wd, err := os.Getwd(); err == nil {
		log.Info("starting", zap.String("working_directory", wd), zap.String("timezone", cfg.Timezone))
	}

	metrics.Init()

	source, lister, closeSource, err := openSource(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("open data source", zap.Error(err))
	}
	defer closeSource()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	// Initialize handlers
	store := handlers.NewResultStore(cfg.Server.ResultTTL)
	reconcileHandler := handlers.NewReconcileHandler(source, cfg, store, log)
	assetsHandler := handlers.NewAssetsHandler(lister, log)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "stored_results": store.Len()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.GET("/assets", assetsHandler.ListAssets)

		api.POST("/reconcile", reconcileHandler.Run)
		api.GET("/reconcile/:id/records", reconcileHandler.GetRecords)
		api.GET("/reconcile/:id/distribution", reconcileHandler.Distribution)
		api.GET("/reconcile/:id/export", reconcileHandler.Export)
		api.GET("/reconcile/:id/rank", reconcileHandler.Rank)

		api.POST("/periods", reconcileHandler.Periods)
	}

	serveStatic(router, cfg.Server.StaticDir, log)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("starting API server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// openSource picks the dataset backend: Postgres when a database URL is set,
// then the fleet REST API, then a local dataset file (DATASET_FILE).
// Assets fall back to the local catalog when only that is configured.
func openSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (data.Source, data.AssetLister, func(), error) {
	noop := func() {}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, noop, err
		}
		repo := postgres.NewRepository(db, postgres.WithLogger(log))
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, noop, err
		}
		log.Info("using postgres source")
		return repo, repo, closeDB(db, log), nil
	}

	if cfg.FleetAPI.BaseURL != "" {
		client := data.NewFleetClient(cfg.FleetAPI.BaseURL, cfg.FleetAPI.Token, cfg.FleetAPI.Timeout, log)
		client.Cache = data.NewResponseCache(cfg.FleetAPI.CacheTTL)
		log.Info("using fleet API source", zap.String("base_url", client.BaseURL), zap.Duration("cache_ttl", cfg.FleetAPI.CacheTTL))
		return client, client, client.Cache.Close, nil
	}

	if path := os.Getenv("DATASET_FILE"); path != "" {
		src := data.FileSource{Path: path}
		log.Info("using dataset file source", zap.String("path", path))
		return src, src, noop, nil
	}

	log.Warn("no data source configured; only inline datasets are accepted")
	if cfg.AssetsFile != "" {
		return nil, data.CatalogLister{Path: cfg.AssetsFile}, noop, nil
	}
	return nil, nil, noop, nil
}

func closeDB(db *sql.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}
}

// serveStatic serves the dashboard build, falling back to index.html for SPA routes.
func serveStatic(router *gin.Engine, staticDir string, log *zap.Logger) {
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	if _, err := os.Stat(staticDir); err != nil {
		log.Info("static directory not found, skipping static file serving", zap.String("dir", staticDir))
		return
	}

	router.Static("/assets", filepath.Join(staticDir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))

	index := filepath.Join(staticDir, "index.html")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(index)
	})
	log.Info("serving static files", zap.String("dir", staticDir))
}
