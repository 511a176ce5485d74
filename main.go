package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/db"
	"github.com/danielhkuo/hearth/logging"
	"github.com/danielhkuo/hearth/router"
	"github.com/danielhkuo/hearth/scheduler"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	_, logCloser := logging.Setup(logging.Options{Level: cfg.LogLevel, Path: cfg.LogPath})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	h := router.NewHandlers(dbConn, cfg)

	// Daily task pass
	sched := scheduler.New(cfg.Location)
	err = sched.AddRecompute(cfg.RecomputeSchedule, func(ctx context.Context) error {
		_, err := h.Tasks.RecomputeIfDue(ctx)
		return err
	})
	if err != nil {
		slog.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// Catch up if the server was down when the pass should have run
	if ran, err := h.Tasks.RecomputeIfDue(ctx); err != nil {
		slog.Error("startup recompute failed", "error", err)
	} else if ran {
		slog.Info("startup recompute applied")
	}

	server := http.Server{
		Handler:           router.Build(h, cfg),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C or SIGTERM
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "tz", cfg.TimeZone)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}
}
