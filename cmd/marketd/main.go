package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mkarev/nftmarket/internal/auction"
	"github.com/mkarev/nftmarket/internal/config"
	"github.com/mkarev/nftmarket/internal/database"
	"github.com/mkarev/nftmarket/internal/events"
	"github.com/mkarev/nftmarket/internal/httpapi"
	"github.com/mkarev/nftmarket/internal/journal"
	"github.com/mkarev/nftmarket/internal/ledger"
	"github.com/mkarev/nftmarket/internal/market"
	"github.com/mkarev/nftmarket/internal/registry"
	"github.com/mkarev/nftmarket/internal/stream"
	"github.com/mkarev/nftmarket/internal/sweeper"
	"github.com/mkarev/nftmarket/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/marketd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting marketd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"auction_duration", cfg.Market.AuctionDuration,
		"settle_bids", cfg.Market.SettleBids,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Collaborators
	reg := registry.NewInMemory(logger)
	led := ledger.NewInMemory(logger)

	marketAccount := uuid.New()
	logger.Info("marketplace account created", "account", marketAccount)

	for _, seed := range cfg.Accounts {
		id := uuid.New()
		if err := led.Mint(id, seed.Balance); err != nil {
			logger.Error("failed to fund account", "name", seed.Name, "error", err)
			os.Exit(1)
		}
		logger.Info("account funded", "name", seed.Name, "account", id, "balance", seed.Balance)
	}

	// Event fan-out
	disp := events.NewDispatcher(logger)
	defer disp.Close()

	// Core engine
	eng := auction.New(auction.Config{
		Duration:   cfg.Market.AuctionDuration,
		SettleBids: cfg.Market.SettleBids,
	}, led, marketAccount, time.Now, logger)

	coord := market.New(market.Config{Account: marketAccount}, reg, led, eng, disp, logger)

	// Optional event journal
	if cfg.Database.Postgres.Host != "" {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)

		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		w := journal.NewWriter(journal.Config{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		}, disp.Subscribe("journal", cfg.Journal.BufferSize), pool, logger)

		if err := w.Start(ctx); err != nil {
			logger.Error("failed to start journal writer", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			w.Stop(stopCtx)
		}()
	} else {
		logger.Info("event journal disabled, no database configured")
	}

	// Websocket event stream
	hub := stream.NewHub(stream.Config{
		SendBuffer:   cfg.Stream.SendBuffer,
		PingInterval: 15 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, disp.Subscribe("stream", cfg.Journal.BufferSize), logger)

	if err := hub.Start(ctx); err != nil {
		logger.Error("failed to start event stream", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		hub.Stop(stopCtx)
	}()

	// Auction expiry sweeper
	sw := sweeper.New(sweeper.Config{Interval: cfg.Sweeper.Interval}, coord, disp, logger)
	if err := sw.Start(ctx); err != nil {
		logger.Error("failed to start sweeper", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		sw.Stop(stopCtx)
	}()

	// HTTP server: query API + websocket stream
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/", httpapi.NewHandler(coord, logger))

	server := &http.Server{
		Addr:    cfg.Stream.Addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Stream.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("marketd running", "instance_id", cfg.Instance.ID)

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("marketd stopped")
}
