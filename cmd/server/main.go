package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motorepuestos/internal/config"
	"motorepuestos/internal/events"
	"motorepuestos/internal/infra"
	"motorepuestos/internal/live"
	"motorepuestos/internal/offline"
	"motorepuestos/internal/repository"
	"motorepuestos/internal/router"
	"motorepuestos/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	docStore, err := store.NewPostgresStore(db, 2*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Offline sync plumbing ────────────────────────────────────────────────
	hub := events.NewHub(cfg.DebounceWindow())
	dlq := offline.NewDeadLetter(rdb)
	queue := offline.NewQueue(store.NewRedisKV(rdb), cfg.QueueCapacity, hub, dlq)
	if err := queue.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("persisted queue not restored, starting empty")
	}
	monitor := offline.NewMonitor(docStore, cfg.ProbeInterval())

	shiftRepo := repository.NewShiftRepository(docStore)
	saleRepo := repository.NewSaleRepository(docStore)
	expenseRepo := repository.NewExpenseRepository(docStore)
	productRepo := repository.NewProductRepository(docStore)
	cashCountRepo := repository.NewCashCountRepository(docStore)
	closureRepo := repository.NewDayClosureRepository(docStore)
	statsRepo := repository.NewStatsRepository(rdb)

	coordinator := offline.NewCoordinator(offline.CoordinatorDeps{
		Store:      docStore,
		Queue:      queue,
		Monitor:    monitor,
		Hub:        hub,
		CB:         infra.NewCircuitBreaker(infra.DefaultCBConfig()),
		Sales:      saleRepo,
		Shifts:     shiftRepo,
		Products:   productRepo,
		CashCounts: cashCountRepo,
		Stats:      statsRepo,
	})

	liveHub := live.NewHub(docStore, hub, cfg.CacheTTL())
	if err := liveHub.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start live subscriptions")
	}
	monitor.Start(ctx)

	r := router.New(cfg, router.Deps{
		DB:          db,
		Redis:       rdb,
		Monitor:     monitor,
		Queue:       queue,
		DLQ:         dlq,
		Coordinator: coordinator,
		LiveHub:     liveHub,
		ShiftRepo:   shiftRepo,
		SaleRepo:    saleRepo,
		ExpenseRepo: expenseRepo,
		ProductRepo: productRepo,
		ClosureRepo: closureRepo,
		StatsRepo:   statsRepo,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("motorepuestos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	monitor.Stop()
	liveHub.Cleanup()
	hub.Cleanup()
	docStore.Close()
	log.Info().Msg("server exited")
}
