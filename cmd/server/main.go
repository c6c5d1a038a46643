package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/fuelops/fuel-station/internal/adapter/handler"
	"github.com/fuelops/fuel-station/internal/adapter/storage"
	"github.com/fuelops/fuel-station/internal/config"
	"github.com/fuelops/fuel-station/internal/core/service"
	"github.com/fuelops/fuel-station/internal/obs"
	"github.com/fuelops/fuel-station/internal/port"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(logLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		obs.Logger.Error("open postgres", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnLifetime)

	if err := db.PingContext(ctx); err != nil {
		obs.Logger.Error("ping postgres", "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("connected to postgres")

	// Redis only backs the report cache; the service runs fine without it.
	var cache port.ReportCache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			obs.Logger.Warn("redis unavailable, report cache disabled", "error", err)
			rdb.Close()
			rdb = nil
		} else {
			cache = storage.NewRedisAdapter(rdb)
			obs.Logger.Info("connected to redis", "addr", cfg.RedisAddr)
		}
	}

	store := storage.NewPostgresAdapter(db)
	stationService := service.NewStationService(store, cache)
	reportService := service.NewReportService(store, cache, cfg.ReportCacheTTL)

	h := handler.NewHTTPHandler(stationService, reportService)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.NewRouter(h),
	}

	go func() {
		obs.Logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	obs.Logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		obs.Logger.Error("http shutdown", "error", err)
	}
	obs.Logger.Info("http server stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	obs.Logger.Info("connections closed")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
