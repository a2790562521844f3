package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipstream/auth-service/internal/api"
	"github.com/clipstream/auth-service/internal/core/service"
	"github.com/clipstream/auth-service/internal/infrastructure/config"
	"github.com/clipstream/auth-service/internal/infrastructure/db/redis"
	"github.com/clipstream/auth-service/internal/infrastructure/db/sqlite"
	"github.com/clipstream/auth-service/internal/infrastructure/kafka"
	"github.com/clipstream/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	store, err := sqlite.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open credential store")
	}
	defer store.Close()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to redis")
	}
	defer rdb.Close()

	// One producer for the whole process; every publish multiplexes over it.
	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()

	tokens := service.NewTokenService(cfg.JWT.Secret)
	sessions := redis.NewSessionStore(rdb, cfg.Session.TTL())
	events := service.NewCredentialEventPublisher(producer, cfg.Kafka.CreateTopic, cfg.Kafka.DeleteTopic, log)
	identity := service.NewIdentityService(store, tokens, sessions, events, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL(), log)

	e := api.NewRouter(identity, tokens, store, rdb, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting auth service")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
