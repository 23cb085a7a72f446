package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shrot-bot/internal/bot"
	"shrot-bot/internal/config"
	"shrot-bot/internal/server"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
	"shrot-bot/pkg/geocode"
	"shrot-bot/pkg/logger"
	"shrot-bot/pkg/redis"
)

// ENTRY POINT

const (
	pollTimeout  = 60
	sweepEvery   = 5 * time.Minute
	pingDeadline = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}
	zapLogger.Info("Bot shutdown gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, err := storage.New(ctx, storage.Config{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate storage: %w", err)
	}

	checks := []server.Check{{Name: "database", Pinger: store}}

	g, gctx := errgroup.WithContext(ctx)

	var ttlStore state.TTLStore
	if cfg.RedisAddr != "" {
		redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, pingDeadline)
		err := redisClient.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		ttlStore = redisClient
		checks = append(checks, server.Check{Name: "redis", Pinger: redisClient})
		log.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	} else {
		memory := state.NewMemoryStore()
		ttlStore = memory
		g.Go(func() error {
			memory.Run(gctx, sweepEvery)
			return nil
		})
		log.Info("Using in-memory session store")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.TelegramDebug
	log.Info("Authorized on account", zap.String("username", api.Self.UserName))

	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, log)
	shrotBot := bot.New(api, store, ttlStore, geocoder, cfg, log)

	health := server.New(cfg.HTTPAddr, log, checks...)
	g.Go(func() error {
		return health.Run(gctx)
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = pollTimeout
		updates := api.GetUpdatesChan(u)
		go func() {
			<-gctx.Done()
			api.StopReceivingUpdates()
		}()
		if err := shrotBot.Run(gctx, updates); err != nil {
			return err
		}
		if gctx.Err() == nil {
			return errors.New("update channel closed")
		}
		return nil
	})

	return g.Wait()
}
