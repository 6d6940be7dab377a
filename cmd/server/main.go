package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brunobiangulo/slidedeck"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", envOr("SLIDEDECK_ADDR", ":8080"), "Listen address")
	flag.Parse()

	// Structured JSON logging.
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	cfg := slidedeck.DefaultConfig()
	if *configPath != "" {
		loaded, err := slidedeck.LoadConfig(*configPath)
		if err != nil {
			log.Error("loading config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyEnv(&cfg)
	cfg.Logger = log

	engine, err := slidedeck.New(cfg)
	if err != nil {
		log.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	srv := newServer(engine, log, serverOptions{
		APIKey:         os.Getenv("SLIDEDECK_API_KEY"),
		CORSOrigins:    os.Getenv("SLIDEDECK_CORS_ORIGINS"),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Processing:     cfg.Processing,
	})

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 0, // websocket parses stream for as long as the deck takes
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server starting", "addr", *addr, "cache", cfg.CacheEnabled)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	log.Info("server stopped")
}

// applyEnv overrides config fields from SLIDEDECK_* variables.
func applyEnv(cfg *slidedeck.Config) {
	cfg.DBPath = envOr("SLIDEDECK_DB_PATH", cfg.DBPath)
	cfg.DBName = envOr("SLIDEDECK_DB_NAME", cfg.DBName)
	cfg.StorageDir = envOr("SLIDEDECK_STORAGE_DIR", cfg.StorageDir)
	cfg.CacheEnabled = envBool("SLIDEDECK_CACHE", cfg.CacheEnabled)
	cfg.MaxUploadBytes = envInt64("SLIDEDECK_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.Processing.Concurrency = envInt("SLIDEDECK_CONCURRENCY", cfg.Processing.Concurrency)
	cfg.Processing.MaxImageSize = envInt("SLIDEDECK_MAX_IMAGE_SIZE", cfg.Processing.MaxImageSize)
	cfg.Processing.ImageQuality = envInt("SLIDEDECK_IMAGE_QUALITY", cfg.Processing.ImageQuality)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
