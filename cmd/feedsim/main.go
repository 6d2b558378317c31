// Command feedsim serves a fake quote stream for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quote-charts/cmd/feedsim/internal/simulator"
	"quote-charts/src/logger"
)

var basePrices = map[string]float64{
	"AAPL": 190.0, "GOOG": 140.0, "TSLA": 250.0, "AMZN": 180.0, "SAN.MC": 4.2,
}

// -----------------------------------------------------------------------------

func main() {
	addr := flag.String("addr", "127.0.0.1:15181", "listen address")
	tickers := flag.String("tickers", "AAPL,GOOG,TSLA,AMZN,SAN.MC", "comma separated tickers")
	days := flag.Int("days", 60, "trading days of history sent on connect")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between ticks")
	logLevel := flag.String("log-level", "INFO", "log level")
	flag.Parse()

	appLogger := logger.NewLogger(logger.Options{Level: *logLevel}, "feedsim")
	defer appLogger.Sync()

	symbols := strings.Split(*tickers, ",")
	for i := range symbols {
		symbols[i] = strings.ToUpper(strings.TrimSpace(symbols[i]))
	}

	rnd := simulator.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	gen := simulator.NewGenerator(basePrices, symbols, *days, rnd, simulator.RealClock{})
	feed := simulator.NewFeed(gen, *interval, appLogger)

	srv := &http.Server{Addr: *addr, Handler: feed}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("Serving %d tickers on ws://%s", len(symbols), *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Critical("Feed server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	feed.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	appLogger.Info("Feed stopped")
}
