package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/adapter/api"
	"github.com/burenotti/go_health_funnel/internal/adapter/metrics"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	sessionstorage "github.com/burenotti/go_health_funnel/internal/adapter/storage/sessions"
	"github.com/burenotti/go_health_funnel/internal/app/auth"
	funnelapp "github.com/burenotti/go_health_funnel/internal/app/funnel"
	"github.com/burenotti/go_health_funnel/internal/app/messagebus"
	"github.com/burenotti/go_health_funnel/internal/app/unitofwork"
	"github.com/burenotti/go_health_funnel/internal/config"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/leporo/sqlf"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.MustLoad(configPath)
	logger := initLogger(cfg)

	metrics.Register()

	bus := messagebus.New(logger)
	bus.RegisterAll(metrics.HandleEvent, metrics.Events()...)
	bus.Register(funnel.EventQuestionnaireCompleted, func(event domain.Event) error {
		e, ok := event.(funnel.QuestionnaireCompletedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}
		logger.Info("lead captured", "session_id", e.SessionID, "email", e.Email, "goal", e.Profile.Goal)
		return nil
	})
	bus.Register(funnel.EventPlanSelected, func(event domain.Event) error {
		e, ok := event.(funnel.PlanSelectedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}
		logger.Info("plan selected", "session_id", e.SessionID, "plan", e.Plan)
		return nil
	})

	policy, err := nutrition.ParseGoalPolicy(cfg.Nutrition.GoalPolicy)
	if err != nil {
		panic("invalid nutrition config: " + err.Error())
	}

	db, sessions, closeStorage := initStorage(cfg, logger)
	defer closeStorage()

	service := funnelapp.New(
		logger,
		nutrition.NewEstimator(policy),
		pricing.DefaultCatalog(cfg.Payment.ContactEmail),
		cfg.Session.TTL,
	)

	server := api.NewServer(
		api.Addr(cfg.Server.Host, cfg.Server.Port),
		api.Logger(logger),
		api.DBContext(db),
		api.SessionStorage(sessions),
		api.FunnelService(service),
		api.Authorizer(auth.NewAuthorizer(cfg.Session.Secret, "go_health_funnel")),
		api.MessageBus(bus),
	)

	ctx := context.Background()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uow := unitofwork.New[*funnelapp.AtomicContext](db, funnelapp.NewAtomicContext(sessions), bus, logger)
	go runJanitor(ctx, logger, service, uow, cfg.Storage.PurgeInterval)

	errCh := make(chan error)

	go func() {
		defer close(errCh)
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server was not shutdown gracefully", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server closed with unexpected error", "error", err)
		}
	}

	bus.Close()
	logger.Info("server shutdown")
}

func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Beginner, funnelapp.StorageFactory, func()) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		sqlf.SetDialect(sqlf.PostgreSQL)

		db, err := sql.Open("pgx", cfg.DB.DSN)
		if err != nil {
			panic("failed to connect database: " + err.Error())
		}
		logger.Info("using postgres session storage")
		return &storage.DB{DB: db},
			func(db storage.DBContext) funnelapp.SessionStorage { return sessionstorage.NewPostgresStorage(db) },
			func() { _ = db.Close() }

	case config.DriverRedis:
		client := sessionstorage.NewRedisClient(sessionstorage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sessionstorage.PingRedis(ctx, client); err != nil {
			panic(err.Error())
		}
		backend := sessionstorage.NewRedisBackend(client)
		logger.Info("using redis session storage", "addr", cfg.Redis.Addr)
		return storage.Nop{},
			func(db storage.DBContext) funnelapp.SessionStorage { return backend.Storage(db) },
			func() { _ = client.Close() }

	default:
		backend := sessionstorage.NewMemoryBackend()
		logger.Info("using in-memory session storage")
		return storage.Nop{},
			func(db storage.DBContext) funnelapp.SessionStorage { return backend.Storage(db) },
			func() {}
	}
}

func runJanitor(ctx context.Context, logger *slog.Logger, service *funnelapp.Service, uow *funnelapp.UoW, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.PurgeExpired(ctx, uow); err != nil {
				logger.Error("failed to purge expired sessions", "error", err)
			}
		}
	}
}

func initLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	switch cfg.App.Env {
	case config.Development:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
	case config.Production:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		})
	default:
		panic("invalid env")
	}

	return slog.New(handler)
}
