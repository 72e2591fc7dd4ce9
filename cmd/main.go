package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/mafia-overlay/config"
	"github.com/Dosada05/mafia-overlay/db"
	"github.com/Dosada05/mafia-overlay/handlers"
	"github.com/Dosada05/mafia-overlay/hub"
	"github.com/Dosada05/mafia-overlay/metrics"
	"github.com/Dosada05/mafia-overlay/middleware"
	"github.com/Dosada05/mafia-overlay/repositories"
	api "github.com/Dosada05/mafia-overlay/routes"
	"github.com/Dosada05/mafia-overlay/services"
	"github.com/Dosada05/mafia-overlay/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	dbConnectTimeout = 5 * time.Second
	shutdownTimeout  = 15 * time.Second
)

func main() {
	app := &cli.App{
		Name:  "mafia-overlay",
		Usage: "live state server for the mafia stream overlay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration file (optional)",
				Value:   "config.yaml",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Commands: []*cli.Command{
			newServeCommand(),
			newMigrateCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and the websocket hub",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "apply pending migrations before serving",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			return serve(c.Context, cfg, logger, c.Bool("migrate"))
		},
	}
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations and exit",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}

			dbConn, err := db.Connect(cfg.DatabaseURL, dbConnectTimeout)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer dbConn.Close()

			if err := db.Migrate(c.Context, dbConn, logger); err != nil {
				return err
			}
			logger.Info("migrations are up to date")
			return nil
		},
	}
}

// setup загружает конфигурацию и настраивает логгер
func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) error {
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if migrate {
		if err := db.Migrate(parent, dbConn, logger); err != nil {
			return err
		}
	}

	m := metrics.New()

	// Загрузка фото игроков (Cloudflare R2). Без настроек сервер работает, но upload отвечает 503.
	var uploader storage.FileUploader
	r2 := storage.R2Config{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
	}
	if r2.Configured() {
		uploader, err = storage.NewR2Uploader(parent, r2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", r2.BucketName))
	} else {
		logger.Warn("Cloudflare R2 is not configured, photo uploads disabled")
	}

	wsHub := hub.NewHub(logger, m)

	// Инициализация репозиториев
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)

	// Инициализация сервисов
	gameService := services.NewGameService(gameRepo, wsHub, m, logger)
	tournamentService := services.NewTournamentService(repositories.NewTransactor(dbConn), tournamentRepo, gameRepo, logger)
	playerService := services.NewPlayerService(playerRepo, uploader, cfg.MaxFileSize, logger)

	var limiter *middleware.IPRateLimiter
	if cfg.RateLimitEnabled() {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Deps{
		Game:           handlers.NewGameHandler(gameService),
		Tournament:     handlers.NewTournamentHandler(tournamentService),
		Player:         handlers.NewPlayerHandler(playerService, cfg.MaxFileSize),
		WebSocket:      handlers.NewWebSocketHandler(wsHub, cfg.CORSOrigins),
		Health:         handlers.NewHealthHandler(dbConn),
		Metrics:        m.Handler(),
		RequestLogger:  middleware.RequestLogger(logger),
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORSOrigins,
		StaticDir:      cfg.StaticDir,
	})
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run(gctx)
		logger.Info("WebSocket Hub stopped")
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application exited")
	return nil
}
