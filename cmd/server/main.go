// Package main runs the live session HTTP server with WebSocket fan-out, reminder
// scheduling and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/config"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/auth"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/courses"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/emaillogs"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/livesessions"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/middleware"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/notify"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/realtime"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/reminders"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/database"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/queue"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/redis"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/response"
)

// catalog is what the generator and the reminder scheduler need from the course system.
type catalog interface {
	livesessions.CourseCatalog
	reminders.AudienceResolver
}

type healthCheck func(ctx context.Context) error

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store    livesessions.Store
		cat      catalog
		emailLog emaillogs.Store
		checks   = map[string]healthCheck{}
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		mem := courses.NewMemoryCatalog()
		mem.AddCourse(models.Course{ID: uuid.New(), Title: "Getting Started"})
		store, cat, emailLog = livesessions.NewMemoryStore(), mem, emaillogs.NewMemoryStore()
		logger.Warn("using in-memory store; sessions are lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				logger.Fatal("migrate", zap.Error(err))
			}
		}
		store, cat, emailLog = livesessions.NewRepository(pool), courses.NewRepository(pool), emaillogs.NewRepository(pool)
		checks["postgres"] = pool.Ping
	}

	// Redis fans broadcasts out across instances and carries the email queue.
	var (
		redisPub realtime.RedisPublisher
		redisSub realtime.RedisSubscriber
		notifier notify.Notifier
	)
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		ps := realtime.NewRedisPubSub(rdb.Client, logger)
		redisPub, redisSub = ps, ps
		notifier = notify.NewQueueNotifier(queue.NewQueue(rdb.Client, logger), logger)
		checks["redis"] = rdb.Healthy
	} else if cfg.Email.SMTPHost != "" {
		notifier = notify.NewRateLimited(notify.NewSMTPNotifier(smtpConfig(cfg.Email)), cfg.Email.RatePerSecond, cfg.Email.RateBurst)
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Warn("no Redis or SMTP configured; reminders are only logged")
	}

	hub := realtime.NewHub(logger, redisPub, redisSub)
	broadcaster := realtime.NewBroadcaster(hub, logger)
	scheduler := reminders.NewScheduler(store, cat, notifier, nil, reminders.Config{
		Lead:    time.Duration(cfg.Reminder.LeadMinutes) * time.Minute,
		AppName: cfg.Reminder.AppName,
	}, logger)
	controller := livesessions.NewController(store, scheduler, broadcaster, logger)
	generator := livesessions.NewGenerator(controller, cat, livesessions.GeneratorConfig{
		Secret:      cfg.AutoGen.Secret,
		SecretHash:  cfg.AutoGen.SecretHash,
		DaysAhead:   cfg.AutoGen.DaysAhead,
		Hour:        cfg.AutoGen.Hour,
		Minute:      cfg.AutoGen.Minute,
		JoinBaseURL: cfg.AutoGen.JoinBaseURL,
		ActorID:     cfg.AutoGen.ActorID,
	}, logger)

	if _, err := scheduler.RecoverPending(ctx); err != nil {
		logger.Error("recover pending reminders", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	sessionHandler := livesessions.NewHandler(controller, generator, logger)
	emailLogsHandler := emaillogs.NewHandler(emailLog, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(logger, "/health", "/metrics"), middleware.CORS(cfg.Server.CORSAllowedOrigins))

	router.GET("/health", health(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public polling and the secret-guarded generator (no JWT).
	router.GET("/sessions/:id/status", sessionHandler.Status)
	router.POST("/sessions/autogenerate", sessionHandler.Autogenerate)

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, func(token string) (realtime.Identity, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return realtime.Identity{}, err
		}
		return realtime.Identity{UserID: claims.UserID, Role: claims.Role}, nil
	}))

	ops := router.Group("", middleware.JWT(jwtService), middleware.RequireRole(models.RoleAdmin, models.RoleInstructor))
	{
		ops.POST("/sessions", sessionHandler.Create)
		ops.GET("/sessions", sessionHandler.List)
		ops.GET("/sessions/:id", sessionHandler.Get)
		ops.POST("/sessions/:id/start", sessionHandler.Start)
		ops.POST("/sessions/:id/end", sessionHandler.End)
		ops.PATCH("/sessions/:id/status", sessionHandler.UpdateStatus)
		ops.GET("/sessions/:id/emails", emailLogsHandler.ListBySession)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		scheduler.Stop()
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func health(checks map[string]healthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				status[name] = err.Error()
				status["status"] = "degraded"
			} else {
				status[name] = "ok"
			}
		}
		if status["status"] != "ok" {
			c.JSON(http.StatusServiceUnavailable, response.Body{Success: false, Data: status, Error: "dependency unavailable"})
			return
		}
		response.OK(c, status)
	}
}

func smtpConfig(e config.EmailConfig) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     e.SMTPHost,
		Port:     e.SMTPPort,
		Username: e.SMTPUser,
		Password: e.SMTPPass,
		From:     e.FromAddress,
		FromName: e.FromName,
	}
}

func newLogger() (*zap.Logger, zap.AtomicLevel) {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := zcfg.Build()
	return logger, zcfg.Level
}
