package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/api/handler"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/api/router"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/notify"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/task"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/workflow"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/database"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/jwt"
	applogger "github.com/shinystaratnight/endless-backend-sub001/backend/pkg/logger"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Server.Mode, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger, model.All()...); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. Redis is optional: without it tasks live in memory and rate limiting is off
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, using the in-memory task queue", zap.Error(err))
		rdb = nil
	}
	var queue task.Queue = task.NewMemoryQueue()
	if rdb != nil {
		queue = task.NewRedisQueue(rdb, cfg.Scheduler.Queue)
	}

	// 5. domain collaborators
	zones, err := worktime.NewResolver(cfg.Timezone.Default)
	if err != nil {
		logger.Fatal("timezone", zap.Error(err))
	}
	rules, err := workflow.Load(cfg.Workflow.RulesPath)
	if err != nil {
		logger.Fatal("workflow rules", zap.Error(err))
	}
	if err := rules.Require(service.TimeSheetPredicates()...); err != nil {
		logger.Fatal("workflow rules", zap.Error(err))
	}
	renderer, err := notify.NewRenderer()
	if err != nil {
		logger.Fatal("notification templates", zap.Error(err))
	}
	sender := newSender(cfg.Notify.TelegramToken, logger)

	// 6. Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(service.Deps{
		Config:    cfg,
		Repo:      repo,
		Scheduler: task.NewScheduler(queue),
		Sender:    sender,
		Renderer:  renderer,
		Rules:     rules,
		Zones:     zones,
		Logger:    logger,
	})
	h := handler.NewHandler(svc)

	worker := task.NewWorker(queue, cfg.Scheduler.PollInterval, cfg.Scheduler.BatchSize, logger)
	service.RegisterTasks(worker, svc)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	// 7. HTTP server
	jwtMgr := jwt.NewManager(&cfg.Auth)
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 8. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}

	worker.Stop()
	<-workerDone

	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}

// newSender delivers through Telegram when a bot token is configured, otherwise logs the messages
func newSender(token string, logger *zap.Logger) notify.Sender {
	if token == "" {
		return notify.NewLogSender(logger)
	}
	s, err := notify.NewTelegramSender(token)
	if err != nil {
		logger.Warn("telegram unavailable, logging notifications instead", zap.Error(err))
		return notify.NewLogSender(logger)
	}
	return s
}
