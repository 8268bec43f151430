package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/studytrack/internal/api"
	"github.com/example/studytrack/internal/bot"
	"github.com/example/studytrack/internal/config"
	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/logger"
	"github.com/example/studytrack/internal/scheduler"
	"github.com/example/studytrack/internal/study"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
		logr.Fatal("failed to connect to database", "driver", cfg.DatabaseDriver, "error", err)
	}
	defer database.Close()

	svc := study.NewService(study.Options{
		Location:   cfg.Location,
		ReviewHour: &cfg.ReviewHour,
		Logger:     logr,
	})

	srv := api.NewServer(&api.Options{
		Address: cfg.HTTPAddress,
		Debug:   cfg.Debug,
		Service: svc,
		Logger:  logr,
	})
	go func() {
		if err := srv.Start(); err != nil {
			logr.Error("http server stopped", "error", err)
			cancel()
		}
	}()

	var (
		b     *bot.Bot
		sched *scheduler.Scheduler
	)
	if cfg.TelegramToken == "" {
		logr.Warn("TELEGRAM_BOT_TOKEN is not set, bot and reminders are disabled")
	} else {
		b, err = bot.New(bot.Options{
			Token:    cfg.TelegramToken,
			Service:  svc,
			IsAdmin:  cfg.IsAdmin,
			Location: cfg.Location,
			Logger:   logr,
		})
		if err != nil {
			logr.Fatal("failed to create bot", "error", err)
		}
		go func() {
			if err := b.Start(ctx); err != nil {
				logr.Error("bot stopped", "error", err)
				cancel()
			}
		}()

		sched = scheduler.New(b, scheduler.Options{
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
			Location:  cfg.Location,
			Logger:    logr,
		})
		b.SetReminders(sched)

		if cfg.SchedulerEnabled {
			if err := sched.Start(ctx); err != nil {
				logr.Fatal("failed to start scheduler", "error", err)
			}
		}
	}

	logr.Info("studytrack started", "env", cfg.Env, "address", cfg.HTTPAddress)

	select {
	case sig := <-sigChan:
		logr.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if sched != nil && cfg.SchedulerEnabled {
		sched.Stop()
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		logr.Error("error during shutdown", "error", err)
	}
	logr.Info("studytrack stopped")
}
