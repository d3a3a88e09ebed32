package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"skillswipe/internal/config"
	"skillswipe/internal/database"
	"skillswipe/internal/metrics"
	"skillswipe/internal/tasks"
	"skillswipe/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password}
	server := asynq.NewServer(redisOpt, asynq.Config{Concurrency: cfg.Worker.Concurrency})

	sweepTask, err := tasks.NewInactivitySweepTask(cfg.Worker.InactivityDays)
	if err != nil {
		log.Fatalf("build inactivity sweep task: %v", err)
	}
	scheduler := asynq.NewScheduler(redisOpt, nil)
	entryID, err := scheduler.Register(cfg.Worker.InactivitySweepCron, sweepTask, asynq.MaxRetry(3))
	if err != nil {
		log.Fatalf("register inactivity sweep: %v", err)
	}
	logger.Info("inactivity sweep scheduled",
		slog.String("entry_id", entryID),
		slog.String("cron", cfg.Worker.InactivitySweepCron),
		slog.Int("inactivity_days", cfg.Worker.InactivityDays),
	)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeMatchNotify, worker.NewMatchNotifyHandler(db, redisClient, logger))
	mux.Handle(tasks.TypeUserInactivitySweep, worker.NewInactivitySweepHandler(db, logger, cfg.Worker.InactivityDays))

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
