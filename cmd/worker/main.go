// Package main runs the background email worker that delivers queued reminders.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/config"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/emaillogs"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/notify"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/worker"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/database"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/queue"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/redis"
)

func main() {
	logger, level := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		logger.Warn("invalid LOG_LEVEL, keeping info", zap.String("level", cfg.Log.Level))
	}
	if !cfg.Redis.Enabled() {
		logger.Fatal("worker requires REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var sender notify.Notifier
	if cfg.Email.SMTPHost != "" {
		sender = notify.NewRateLimited(notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPass,
			From:     cfg.Email.FromAddress,
			FromName: cfg.Email.FromName,
		}), cfg.Email.RatePerSecond, cfg.Email.RateBurst)
	} else {
		sender = notify.NewLogNotifier(logger)
		logger.Warn("SMTP_HOST not set; emails are only logged")
	}

	processor := worker.NewEmailProcessor(queue.NewQueue(rdb.Client, logger), sender, emaillogs.NewRepository(pool), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		processor.Run(gctx)
		return nil
	})
	logger.Info("worker started")

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func newLogger() (*zap.Logger, zap.AtomicLevel) {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := zcfg.Build()
	return logger, zcfg.Level
}
