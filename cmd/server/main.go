package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/uno-arena/uno-server-go/internal/config"
	"github.com/uno-arena/uno-server-go/internal/game"
	"github.com/uno-arena/uno-server-go/internal/repository"
	"github.com/uno-arena/uno-server-go/internal/server"
	"github.com/uno-arena/uno-server-go/internal/session"
	"github.com/uno-arena/uno-server-go/internal/stats"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting uno server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize stats collector
	collector := stats.NewCollector()

	// Initialize optional stats persistence. Without a database URL the
	// counters live in memory only.
	if cfg.Database.URL != "" {
		db, dbErr := repository.NewDB(ctx, cfg.Database, logger)
		if dbErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(dbErr))
		}
		defer db.Close()

		// Log database stats
		poolStats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", poolStats.TotalConns()),
			zap.Int32("idle_conns", poolStats.IdleConns()),
		)

		statsRepo := repository.NewStatsRepository(db)
		if schemaErr := statsRepo.EnsureSchema(ctx); schemaErr != nil {
			logger.Fatal("failed to prepare stats schema", zap.Error(schemaErr))
		}

		snap, loadErr := statsRepo.Load(ctx)
		if loadErr != nil {
			logger.Warn("failed to load persisted stats", zap.Error(loadErr))
		} else {
			collector.Restore(snap)
			logger.Info("persisted stats restored",
				zap.Int64("games_played", snap.GamesPlayed),
				zap.Int64("cards_played", snap.CardsPlayed),
			)
		}

		go collector.RunFlusher(ctx, statsRepo, cfg.Database.FlushInterval, logger)
	} else {
		logger.Info("database not configured; stats kept in memory only")
	}

	// Initialize session manager
	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, cfg.Server.MaxSessions, logger)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)

	// Start session cleanup goroutine
	go sessionMgr.CleanupExpiredSessions(ctx)

	// Initialize room manager
	roomMgr := game.NewManager(cfg.Game, collector, logger)
	logger.Info("room manager initialized",
		zap.Int("hand_size", cfg.Game.HandSize),
		zap.Int("max_players", cfg.Game.MaxPlayers),
	)

	// Initialize gateway and hand it to the rooms as their notifier
	srv := server.New(cfg.Server, roomMgr, sessionMgr, collector, version, logger)
	roomMgr.SetNotifier(srv)

	// Start gateway
	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("gateway server error", zap.Error(serveErr))
		}
	}()

	logger.Info("uno server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("gateway shutdown error", zap.Error(shutdownErr))
	}

	// Release rooms and sessions
	roomMgr.CloseAll()
	sessionMgr.CloseAll()

	logger.Info("uno server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
