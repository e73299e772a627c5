package commands

import (
	"context"
	"fmt"

	"github.com/conduit-lang/projector/internal/cache"
	"github.com/conduit-lang/projector/internal/config"
	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/entity/memstore"
	"github.com/conduit-lang/projector/internal/entity/sqlstore"
	"github.com/conduit-lang/projector/internal/fixtures"
	"github.com/conduit-lang/projector/internal/handlers"
	"github.com/conduit-lang/projector/internal/links"
	"github.com/conduit-lang/projector/internal/logging"
	"github.com/conduit-lang/projector/internal/render"
	"github.com/conduit-lang/projector/internal/transform"
	"go.uber.org/zap"
)

// SampleFixtures selects the built-in forum data instead of a fixture file
const SampleFixtures = "sample"

// app holds the wired components for one command run
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	renderer *render.Renderer
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// newApp wires config, logging, storage, cache and the transformer. A non-empty
// fixturesPath serves data from memory instead of the configured database.
func newApp(ctx context.Context, fixturesPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	backend, err := a.backend(ctx, fixturesPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	c, err := a.cache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry, err := handlers.NewRegistry(handlers.DefaultPolicy{})
	if err != nil {
		a.Close()
		return nil, err
	}

	store := entity.NewStore(handlers.ForumSchema(), backend, entity.WithLogger(logger))
	t := transform.New(registry,
		transform.WithStore(store),
		transform.WithLinks(links.NewRouter(cfg.Links.PublicBaseURL, cfg.Links.APIBaseURL)),
		transform.WithLogger(logger),
	)

	a.renderer = render.New(t, render.WithCache(c, cfg.Cache.TTL), render.WithLogger(logger))
	return a, nil
}

func (a *app) backend(ctx context.Context, fixturesPath string) (entity.Backend, error) {
	switch fixturesPath {
	case "":
		db, err := sqlstore.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return sqlstore.New(db), nil
	case SampleFixtures:
		b := memstore.New()
		fixtures.Forum(b)
		return b, nil
	default:
		b := memstore.New()
		if err := fixtures.Load(fixturesPath, b); err != nil {
			return nil, err
		}
		return b, nil
	}
}

func (a *app) cache(ctx context.Context) (cache.Cache, error) {
	cc := cache.Config{DefaultTTL: a.cfg.Cache.TTL, Prefix: a.cfg.Cache.Prefix}

	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemory(cc), nil
	case config.CacheRedis:
		r, err := cache.DialRedis(ctx, cache.RedisConfig{Addr: a.cfg.Cache.RedisAddr, Config: cc})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		return r, nil
	case config.CacheNone:
		return cache.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", a.cfg.Cache.Backend)
}
