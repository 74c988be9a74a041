package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calc-history/internal/calculator"
	"calc-history/internal/config"
	"calc-history/internal/history"
	"calc-history/internal/observability"
	"calc-history/internal/server"
	"calc-history/internal/storage"

	"go.uber.org/zap"
)

func main() {

	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	// Logger
	err = observability.InitLogger()
	if err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Log export
	logShutdown, err := observability.InitLogging(ctx)
	if err != nil {
		panic(err)
	}
	defer logShutdown(ctx)

	// Tracing
	traceShutdown, err := observability.InitTracing(ctx)
	if err != nil {
		panic(err)
	}
	defer traceShutdown(ctx)

	// Metrics
	metricShutdown, err := initMetrics(ctx)
	if err != nil {
		panic(err)
	}
	defer metricShutdown(ctx)

	// History
	store, closeStore, err := storage.Open(ctx, cfg.History)
	if err != nil {
		observability.Logger.Error("history store unavailable, continuing without persistence",
			zap.String("store", cfg.History.Store),
			zap.Error(err),
		)
		store = history.NopStore{}
	}
	defer closeStore()

	log := history.New(store, observability.Logger.Named("history"),
		history.WithLimit(cfg.History.Limit),
		history.WithTimeout(cfg.History.Timeout),
	)
	log.Hydrate(ctx)
	defer log.Wait()

	session := calculator.NewSession(log, calculator.WallClock, cfg.Calculator.ErrorReset)

	// Router
	router := server.NewRouter(session)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("history_store", cfg.History.Store),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()

	waitForShutdown(srv)
}

func waitForShutdown(srv *http.Server) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Error("server shutdown", zap.Error(err))
	}
}
