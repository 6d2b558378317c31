package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quote-charts/src/config"
	"quote-charts/src/logger"
	"quote-charts/src/metrics"
	"quote-charts/src/server"
)

// Time allowed for the servers and the archive to finish on shutdown
const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config from YAML file
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup logger and metrics
	appLogger := logger.NewLogger(logger.Options{Level: conf.LogLevel, Format: conf.LogFormat}, conf.Name)
	defer appLogger.Sync()
	metrics.InitMetrics()

	// 4. Setup Components
	st, err := setupStore(conf, appLogger)
	if err != nil {
		appLogger.Critical("Failed to create store: %v", err)
		os.Exit(1)
	}
	session := setupSession(conf.MConfig, st, appLogger)
	charts := setupAnalysis(conf.MConfig, st, appLogger)
	srv := server.NewFastAPIServer(conf.MConfig, st, session, charts, setupScheduler(appLogger), appLogger.Named("Server"))
	session.Publisher = srv

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Optional archive
	archive, err := setupArchive(conf.MConfig, appLogger)
	if err != nil {
		appLogger.Error("Archive disabled: %v", err)
	} else if archive != nil {
		session.Recorder = archive
	}

	// 6. Start Servers
	shutdownServers := startServers(srv, setupQueryServer(conf.MConfig, st, session, charts, appLogger), appLogger)

	// 7. Run the feed session (Blocking)
	appLogger.Info("Connecting to feed %s", conf.Feed.URL)
	if err := session.Run(ctx); err != nil {
		appLogger.Error("Feed session failed: %v", err)
	}
	if ctx.Err() == nil {
		// no reconnect: keep serving the last known data
		appLogger.Warning("Feed ended, serving last known data until shutdown")
		<-ctx.Done()
	}

	// 8. Shutdown
	appLogger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownServers(shutdownCtx)
	if archive != nil {
		if err := archive.Stop(); err != nil {
			appLogger.Error("Failed to close archive: %v", err)
		}
	}
	appLogger.Info("Shutdown complete.")
}
