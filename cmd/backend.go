package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitz/gameplan/internal/catalog"
	"github.com/fitz/gameplan/internal/config"
	"github.com/fitz/gameplan/internal/memstore"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/neo4j"
	"github.com/fitz/gameplan/internal/notify"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/fitz/gameplan/internal/postgres"
)

// store is what every backend provides.
type store interface {
	plan.Store
	SetCapabilities(ctx context.Context, userID string, caps []string) error
}

var (
	_ store = (*neo4j.Store)(nil)
	_ store = (*postgres.Store)(nil)
	_ store = (*memstore.Store)(nil)
)

// openStore connects to the configured backend, waiting for it to come up.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store, error) {
	switch cfg.Backend {
	case config.BackendNeo4j:
		logger.Info("connecting to Neo4j", "uri", cfg.Neo4jURI, "database", cfg.Neo4jDatabase)
		client, err := neo4j.NewClientWithRetry(ctx, neo4j.Config{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUsername,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
		}
		return neo4j.NewStore(client), nil

	case config.BackendPostgres:
		pgCfg := postgres.ConfigFromEnv()
		pgCfg.URL = cfg.DatabaseURL
		if cfg.PostgresPassword != "" {
			pgCfg.Password = cfg.PostgresPassword
		}
		logger.Info("connecting to PostgreSQL", "host", pgCfg.Host, "database", pgCfg.Database)
		client, err := postgres.NewClientWithRetry(ctx, pgCfg, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return postgres.NewStore(client), nil

	case config.BackendMemory:
		if cfg.FixturePath == "" {
			return memstore.New(), nil
		}
		f, err := models.LoadFixture(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		logger.Info("seeding memory store", "fixture", cfg.FixturePath, "user_id", f.UserID)
		return memstore.FromFixtures(f)

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// openBus returns the redis bus when an address is configured, otherwise an
// in-process broker.
func openBus(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Bus, error) {
	if cfg.RedisAddr == "" {
		return notify.NewBroker(), nil
	}
	logger.Info("connecting to Redis", "addr", cfg.RedisAddr)
	bus, err := notify.NewRedisBus(ctx, notify.RedisConfig{
		Addr:          cfg.RedisAddr,
		ChannelPrefix: cfg.RedisChannelPrefix,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return bus, nil
}

func openCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.CatalogPath)
}

// app is an opened backend with the plan service on top of it.
type app struct {
	store store
	bus   notify.Bus
	plans *plan.Service
}

// openApp wires the store, bus and catalog into a plan service.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	cat, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	bus, err := openBus(ctx, cfg, logger)
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}

	plans := plan.NewService(st, st,
		plan.WithLogger(logger),
		plan.WithCatalog(cat),
		plan.WithBus(bus),
		plan.WithLocation(loc),
		plan.WithLockWriter(st),
	)
	return &app{store: st, bus: bus, plans: plans}, nil
}

// Close releases the service, the bus and the store.
func (a *app) Close(ctx context.Context) {
	a.plans.Close()
	if err := a.bus.Close(); err != nil {
		logger.Warn("failed to close bus", "error", err)
	}
	if err := a.store.Close(ctx); err != nil {
		logger.Warn("failed to close store", "error", err)
	}
}
