package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessrules-backend/internal/archive"
	"github.com/benbeisheim/chessrules-backend/internal/config"
	"github.com/benbeisheim/chessrules-backend/internal/controller"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("CHESS_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := obslog.Init(obslog.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Console: cfg.Log.Console,
		Caller:  cfg.Log.Caller,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server_failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []service.Option{service.WithMatchInterval(cfg.Game.MatchInterval)}
	if cfg.Redis.URL != "" {
		rs, err := store.New(ctx, cfg.Redis.URL, cfg.Game.SessionTTL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rs.Close()
		opts = append(opts, service.WithStore(rs))
		log.Info("session_store_enabled")
	}
	if cfg.Archive.DSN != "" {
		arc, err := archive.Open(ctx, cfg.Archive.Driver, cfg.Archive.DSN)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		defer arc.Close()
		opts = append(opts, service.WithArchive(arc))
		log.Info("archive_enabled", zap.String("driver", cfg.Archive.Driver))
	}

	gameManager := service.NewGameManager(opts...)
	defer gameManager.Close()
	gameService := service.NewGameService(gameManager)

	app := fiber.New(fiber.Config{
		AppName:               "chessrules",
		Immutable:             true,
		ErrorHandler:          controller.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		AllowCredentials: !containsWildcard(cfg.Server.AllowedOrigins),
	}))
	if cfg.Server.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:          cfg.Server.RateLimit,
			Expiration:   time.Second,
			Next:         func(c *fiber.Ctx) bool { return websocket.IsWebSocketUpgrade(c) },
			LimitReached: controller.RateLimitReached,
		}))
	}
	controller.Register(app, gameService, controller.RouteConfig{AllowedOrigins: cfg.Server.AllowedOrigins})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", zap.String("addr", cfg.Addr()))
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		log.Warn("shutdown_incomplete", zap.Error(err))
	}
	return nil
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
