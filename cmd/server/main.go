package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kireiworks/cleaning-backend/config"
	"github.com/kireiworks/cleaning-backend/internal/app"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	"github.com/kireiworks/cleaning-backend/internal/db"
	"github.com/kireiworks/cleaning-backend/internal/scheduler"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	ws "github.com/kireiworks/cleaning-backend/internal/websocket"
	"github.com/kireiworks/cleaning-backend/pkg/line"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting cleaning backend server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Backend,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Token blacklist: Redis when enabled, in-process otherwise
	var blacklist redis.Blacklist = redis.NewMemoryBlacklist()
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory token blacklist", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			blacklist = redis.NewBlacklist(redis.GetClient())
			defer redis.Close()
		}
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	var lineSender service.LineSender
	lineClient, err := line.NewClient(line.Config{
		ChannelAccessToken: cfg.Line.ChannelAccessToken,
		BaseURL:            cfg.Line.BaseURL,
		DryRun:             cfg.Line.DryRun,
	})
	if err != nil {
		logger.Warn("LINE client disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		lineSender = lineClient
	}

	hub := ws.NewHub()
	go hub.Run()

	a := app.New(cfg, app.Dependencies{
		DB:        db.GetDB(),
		Store:     store,
		Blacklist: blacklist,
		Line:      lineSender,
		Hub:       hub,
	})

	blobScheduler := scheduler.NewBlobCleanupScheduler(cfg.Scheduler.BlobCleanupCron, a.Cleaner)
	if err := blobScheduler.Start(); err != nil {
		logger.Fatal("Failed to start blob cleanup scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	blobScheduler.Stop()
	a.Notifier.Wait()
	hub.Stop()

	logger.Info("Server stopped successfully")
}
