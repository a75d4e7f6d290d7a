package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/api"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/usecase"
	"github.com/greenbridge/rocketchat-bridge/internal/conf"
	"github.com/greenbridge/rocketchat-bridge/internal/data"
	"github.com/greenbridge/rocketchat-bridge/internal/worker"
)

const deliveryTimeout = 60 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	db, err := data.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open identity store")
	}
	defer db.Close()
	log.Info().Str("path", cfg.DBPath).Msg("identity store ready")

	storage := data.NewStorage(db)
	green := data.NewGreenAPIClient(cfg.GreenAPIBaseURL, log)
	rocket := data.NewRocketChatClient(log)

	guard := usecase.NewGuard(storage, rocket, log)
	normalizer := usecase.NewNormalizer(log)
	outbound := usecase.NewOutboundTransformer(log)
	commands := usecase.NewCommandDispatcher(storage, green, rocket, cfg.AppURL, log)
	delivery := usecase.NewDeliveryPipeline(storage, rocket, green, log)
	state := usecase.NewStateSync(storage.Instances, log)

	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize, deliveryTimeout, log)
	limiter := api.NewInstanceLimiter(cfg.WebhookRate, cfg.WebhookBurst)

	handler := api.NewWebhookHandler(guard, normalizer, outbound, commands, delivery, state, pool, limiter, log)
	server := api.NewServer(fmt.Sprintf(":%d", cfg.Port), handler, log, cfg.Debug)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	pool.Stop()
	log.Info().Msg("bridge stopped")
}
