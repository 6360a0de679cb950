package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/bootpe/pluginmart/pkg/api"
	"github.com/bootpe/pluginmart/pkg/async"
	"github.com/bootpe/pluginmart/pkg/bootdrive"
	"github.com/bootpe/pluginmart/pkg/catalog"
	"github.com/bootpe/pluginmart/pkg/config"
	"github.com/bootpe/pluginmart/pkg/download"
	"github.com/bootpe/pluginmart/pkg/httputil"
	"github.com/bootpe/pluginmart/pkg/lifecycle"
	"github.com/bootpe/pluginmart/pkg/observability"
	"github.com/bootpe/pluginmart/pkg/registry"
	"github.com/bootpe/pluginmart/pkg/scanner"
	"github.com/bootpe/pluginmart/pkg/watch"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logrus.New()
	log.SetLevel(cfg.LogLevel)
	log.Infof("Starting plugin manager for %s", cfg.Mode.ServerName())

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	client := httputil.NewClient(cfg.DownloadThreads)
	fetcher := catalog.NewFetcher(client, log)
	reg := registry.New(metrics)

	drives := bootdrive.NewManager(cfg.Mode, log)
	if cfg.BootRoot != "" {
		drives.SetCurrent(cfg.BootRoot)
	} else if found := drives.Drives(); len(found) > 0 {
		drives.SetCurrent(found[0].Root)
		log.Infof("Selected boot drive %s (%s)", found[0].Root, found[0].Version)
	} else {
		log.Warn("No boot drive found; select one via the API before installing plugins")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := async.NewPool(ctx, cfg.Workers, log)
	engine := download.NewEngine(client, download.NewLimiter(cfg.DownloadThreads))

	orch := lifecycle.New(lifecycle.Config{
		Mode:        cfg.Mode,
		Roots:       drives,
		DownloadDir: cfg.DownloadDir,
		Registry:    reg,
		Scanner:     scanner.NewScanner(log),
		Engine:      engine,
		Pool:        pool,
		Log:         log,
		Metrics:     metrics,
	})

	refresh := func() {
		fetchCtx, fetchCancel := context.WithTimeout(ctx, 30*time.Second)
		defer fetchCancel()

		modeLabel := cfg.Mode.String()
		start := time.Now()
		categories, err := fetcher.Fetch(fetchCtx, cfg.Mode)
		if err != nil {
			metrics.CatalogFetchesTotal.WithLabelValues(modeLabel, "failure").Inc()
			log.Warnf("Catalog fetch failed: %v", err)
			return
		}
		metrics.CatalogFetchesTotal.WithLabelValues(modeLabel, "success").Inc()
		metrics.CatalogFetchDuration.WithLabelValues(modeLabel).Observe(time.Since(start).Seconds())
		reg.SetCatalog(categories)
		log.Infof("Catalog refreshed: %d categories", len(categories))
	}

	// Initial state: connectivity probe, catalog fetch, local scan.
	if err := fetcher.Probe(ctx, cfg.Mode); err != nil {
		log.Warnf("Connectivity probe failed: %v", err)
	}
	refresh()
	if err := orch.Rescan(); err != nil {
		log.Warnf("Initial scan skipped: %v", err)
	}

	// Watch the plugin directory so external changes show up without a
	// manual rescan.
	var watcher *watch.Watcher
	if root, ok := drives.CurrentRoot(); ok {
		dir := scanner.PluginDir(root, cfg.Mode)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warnf("Cannot create plugin directory %s: %v", dir, err)
		} else if watcher, err = watch.New(dir, 0, func() {
			if err := orch.Rescan(); err != nil {
				log.Warnf("Watch-triggered rescan failed: %v", err)
			}
		}, log); err != nil {
			log.Warnf("Plugin directory watch disabled: %v", err)
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshSpec, func() {
		refresh()
		if err := orch.Rescan(); err != nil {
			log.Debugf("Scheduled rescan skipped: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid refresh schedule %q: %v", cfg.RefreshSpec, err)
	}
	scheduler.Start()

	apiServer := api.NewServer(api.Config{
		Mode:     cfg.Mode,
		Registry: reg,
		Orch:     orch,
		Catalog:  fetcher,
		Drives:   drives,
		Engine:   engine,
		Log:      log,
		Metrics:  metrics,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler(promRegistry))
	mux.Handle("/", apiServer)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infof("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("Shutting down")

	scheduler.Stop()
	if watcher != nil {
		watcher.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Server shutdown: %v", err)
	}
	if err := pool.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
		log.Warnf("Worker pool shutdown: %v", err)
	}
}
