package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tycoon/internal/api"
	"tycoon/internal/config"
	"tycoon/internal/db"
	"tycoon/internal/game"
	"tycoon/internal/journal"
	"tycoon/internal/payment"

	"github.com/shopspring/decimal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	decimal.MarshalJSONWithoutQuotes = true

	seed := cfg.MarketSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	market := game.NewMarket(game.DefaultCatalog(), rand.New(rand.NewSource(seed)), cfg.MarketVolatility)
	gameSvc := game.NewService(market, game.NewRegistry(), logger)

	if cfg.PaymentURL != "" {
		gameSvc.SetPayments(payment.NewHTTPGateway(cfg.PaymentURL, cfg.PaymentAPIKey))
	} else {
		logger.Warn("no payment gateway configured, premium upgrades are granted automatically")
		gameSvc.SetPayments(payment.NewAutoApprove(logger))
	}

	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("db migrate failed", "err", err)
			os.Exit(1)
		}
		gameSvc.SetJournal(journal.NewPostgres(pool))
	} else {
		gameSvc.SetJournal(journal.NewLog(logger))
	}

	server := api.New(cfg, logger, gameSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		game.NewScheduler(gameSvc).Run(ctx, cfg.TickEvery)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("tycoon api listening",
		"addr", cfg.Addr,
		"tick_every", cfg.TickEvery.String(),
		"volatility", cfg.MarketVolatility,
		"seed", seed,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		stop()
		wg.Wait()
		os.Exit(1)
	}
	wg.Wait()
}
