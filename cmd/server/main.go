package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"chat-relay/internal/api/routes"
	"chat-relay/internal/config"
	"chat-relay/internal/relay"
	"chat-relay/internal/services"
	"chat-relay/internal/ws"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log.Level)
	log.Info("Starting chat relay")

	// Presence mirror is optional; the relay is fully functional without
	// Redis.
	var mirror relay.StatusMirror
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := services.Dial(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		mirror = services.NewPresenceMirror(rdb, log)
		log.Info("Presence mirror enabled")
	}

	hub := relay.NewHub(relay.Options{
		JoinTimeout:     cfg.Relay.JoinTimeout,
		TypingQuiet:     cfg.Relay.TypingQuiet,
		MaxMessageBytes: cfg.Relay.MaxMessageBytes,
		Mirror:          mirror,
	}, log)

	wsHandler := ws.NewHandler(hub, ws.Config{
		SendBufferSize:  cfg.Client.SendBufferSize,
		MaxMessageBytes: int64(cfg.Relay.MaxMessageBytes) + 1024,
		RateLimit:       rate.Limit(cfg.Client.RateLimit),
		RateBurst:       cfg.Client.RateBurst,
	}, log)

	router := routes.NewRouter(hub, wsHandler, log)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
