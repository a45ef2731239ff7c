package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalbridge/platform/internal/auth"
	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/config"
	"github.com/signalbridge/platform/internal/coordinator"
	"github.com/signalbridge/platform/internal/crypto"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/execution"
	"github.com/signalbridge/platform/internal/httpapi"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/positionsync"
	"github.com/signalbridge/platform/internal/repository"
	"github.com/signalbridge/platform/internal/scheduler"
	"github.com/signalbridge/platform/internal/server"
	"github.com/signalbridge/platform/internal/signalrecorder"
	"github.com/signalbridge/platform/internal/telegram"
	"github.com/signalbridge/platform/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	log.Info().Msg("starting signal platform")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(database.Config{Path: cfg.DatabaseURL, Profile: database.ProfileStandard, Name: "platform"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := repository.NewStore(db)

	vault, err := crypto.New(store, cfg.MasterEncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize credential vault")
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecretKey)
	hub := notify.NewHub(log)
	brokers := broker.NewBridgeRegistry(store.BrokerAccount, vault, cfg.MT5ServiceURL, log)
	engine := execution.NewEngine(store, brokers, hub, log)

	source, err := telegram.New(cfg.TelegramBotToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram message source")
	}
	recorder := signalrecorder.New(store, hub, engine, source, log)

	sched := scheduler.New(log)
	syncInterval := time.Duration(cfg.SyncIntervalSeconds) * time.Second
	synchronizer := positionsync.New(store, brokers, hub, engine, log)
	if err := sched.RunEvery(syncInterval, synchronizer); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule position synchronizer")
	}

	heartbeatInterval := time.Duration(cfg.HeartbeatSeconds) * time.Second
	if err := sched.RunEvery(heartbeatInterval, notify.NewHeartbeatJob(hub)); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule hub heartbeat")
	}

	coord := coordinator.New(store, source, recorder, brokers, hub, sched, log)

	api := httpapi.New(store, vault, tokens, engine, hub, brokers, coord, log)
	srv := server.New(server.Config{Port: cfg.Port, Log: log, API: api, DevMode: cfg.DevMode})

	if err := coord.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start pipeline coordinator")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start http server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := coord.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("pipeline coordinator did not stop cleanly")
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
