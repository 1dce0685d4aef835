package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vitalboard/vitalboard/internal/config"
	"github.com/vitalboard/vitalboard/internal/dashboard"
	"github.com/vitalboard/vitalboard/internal/domain/chat"
	"github.com/vitalboard/vitalboard/internal/domain/report"
	"github.com/vitalboard/vitalboard/internal/domain/session"
	"github.com/vitalboard/vitalboard/internal/platform/analyzer"
	"github.com/vitalboard/vitalboard/internal/platform/blobstore"
	"github.com/vitalboard/vitalboard/internal/platform/bus"
	"github.com/vitalboard/vitalboard/internal/platform/middleware"
	"github.com/vitalboard/vitalboard/internal/platform/push"
	"github.com/vitalboard/vitalboard/internal/platform/research"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vitalboard-server",
		Short: "Personal health dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// History repository: Postgres when configured, in-memory otherwise.
	var history report.HistoryRepository
	if cfg.DatabaseURL != "" {
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid DATABASE_URL")
		}
		poolCfg.MaxConns = cfg.DBMaxConns
		poolCfg.MinConns = cfg.DBMinConns
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if _, err := pool.Exec(ctx, report.Schema); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply schema")
		}
		history = report.NewHistoryRepoPG(pool)
		logger.Info().Msg("connected to database")
	} else {
		history = report.NewInMemoryHistoryRepo()
		logger.Warn().Msg("DATABASE_URL not set, history is in-memory only")
	}

	// Durable session-token slot. A failure here is not fatal: the
	// session degrades to tokenless demo behavior.
	var tokenStore session.TokenStore
	if ldb, err := session.OpenLevelDB(cfg.TokenDBPath); err != nil {
		logger.Warn().Err(err).Msg("token store unavailable, session will not survive restarts")
	} else {
		tokenStore = ldb
		defer ldb.Close()
	}
	sessionStore := session.NewStore(tokenStore)

	// Report file storage.
	var blobs blobstore.BlobStore
	if cfg.MinioConfigured() {
		mb, err := blobstore.NewMinioBlobStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to object storage")
		}
		blobs = mb
		logger.Info().Str("bucket", cfg.MinioBucket).Msg("connected to object storage")
	} else {
		blobs = blobstore.NewInMemoryBlobStore()
		logger.Warn().Msg("MINIO_ENDPOINT not set, uploads are in-memory only")
	}

	// Analysis provider.
	var an analyzer.Analyzer
	if cfg.OpenAIAPIKey != "" {
		an = analyzer.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		an = analyzer.Demo{}
		logger.Warn().Msg("OPENAI_API_KEY not set, using demo analysis")
	}

	// Research stage for flagged readings. Only the deterministic advisor
	// ships; the interface keeps a live research backend pluggable.
	advisor := research.Static{}

	// Aggregation core.
	updateBus := bus.New(logger)
	store := dashboard.NewStore()
	coord := dashboard.NewCoordinator(store, sessionStore, history, updateBus, logger)

	// Bridge the in-process bus to connected dashboards.
	hub := push.NewHub(logger)
	updateBus.Subscribe(func() {
		summary, _ := json.Marshal(map[string]int{
			"trend_points": len(store.Trends()),
			"alerts":       len(store.Alerts()),
		})
		hub.Broadcast(push.Event{
			Type:      push.EventDashboardUpdated,
			Timestamp: time.Now().UTC(),
			Data:      summary,
		})
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	api := e.Group("/api")
	dashboard.NewHandler(coord, store, sessionStore, history, blobs, an, advisor, cfg.PatientTokenSalt, logger).RegisterRoutes(api)
	chat.NewHandler().RegisterRoutes(api)
	hub.RegisterRoutes(e)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
