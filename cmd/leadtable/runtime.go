package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	leadtable "github.com/goliatone/go-leadtable"
	"github.com/goliatone/go-leadtable/actions"
	"github.com/goliatone/go-leadtable/adapters/gologger"
	"github.com/goliatone/go-leadtable/client"
	"github.com/goliatone/go-leadtable/core"
	"github.com/goliatone/go-leadtable/inbound"
	"github.com/goliatone/go-leadtable/metrics"
	leadtablemigrations "github.com/goliatone/go-leadtable/migrations"
	cachestore "github.com/goliatone/go-leadtable/store/cache"
	redisstore "github.com/goliatone/go-leadtable/store/redis"
	sqlstore "github.com/goliatone/go-leadtable/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	glog "github.com/goliatone/go-logger/glog"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// runtime is everything a subcommand may need, built from one fileConfig.
type runtime struct {
	config     fileConfig
	logger     glog.Logger
	client     *client.Client
	service    *leadtable.Service
	invoker    *actions.Invoker
	recorder   *metrics.Recorder
	staticData core.StaticDataStore
	claims     core.IdempotencyClaimStore
	closers    []func() error
}

func (r *runtime) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

func buildRuntime(ctx context.Context, cfg fileConfig, logger glog.Logger) (*runtime, error) {
	if logger == nil {
		logger = glog.Nop()
	}
	rt := &runtime{config: cfg, logger: logger, recorder: metrics.NewRecorder(nil)}

	if err := rt.buildStores(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}

	ttl, err := parseDuration("service.options_cache_ttl", cfg.Service.OptionsCacheTTL)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	optionCache, err := cachestore.NewWithTTL(ttl)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	configProvider := core.NewCfgxConfigProvider(yamlConfigLoader{section: cfg.Service})
	opts := append(gologger.ServiceOptions(nil, logger),
		core.WithConfigProvider(configProvider),
		core.WithMetricsRecorder(rt.recorder),
		core.WithStaticDataStore(rt.staticData),
		core.WithOptionCache(optionCache),
	)

	creds := cfg.credentials()
	if strings.TrimSpace(creds.APIKey) != "" || strings.TrimSpace(creds.Email) != "" {
		serviceConfig, err := configProvider.Load(ctx, core.DefaultConfig())
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		api, err := client.New(creds, client.WithConfig(serviceConfig), client.WithLogger(logger))
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.client = api
		rt.invoker = actions.NewInvoker(api, actions.WithLogger(logger), actions.WithMetricsRecorder(rt.recorder))
		opts = append(opts, core.WithRemoteAPI(api))
	}

	service, err := leadtable.NewService(leadtable.Config{}, opts...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.service = service
	return rt, nil
}

func (r *runtime) requireClient() error {
	if r.client == nil {
		return core.InvalidConfigurationError(
			"LeadTable credentials are required: set credentials.api_key and credentials.email or "+envPrefix+"API_KEY and "+envPrefix+"EMAIL",
			nil,
		)
	}
	return nil
}

func (r *runtime) buildStores(ctx context.Context) error {
	driver := strings.ToLower(strings.TrimSpace(r.config.Store.Driver))
	switch driver {
	case "", "memory":
		r.staticData = core.NewMemoryStaticDataStore()
		r.claims = inbound.NewInMemoryClaimStore()
		return nil
	case "redis":
		return r.buildRedisStores(ctx)
	case "sqlite", "sqlite3", "postgres", "postgresql":
		return r.buildSQLStores(ctx, driver)
	default:
		return core.InvalidConfigurationError(
			fmt.Sprintf("unsupported store driver %q", r.config.Store.Driver),
			map[string]any{"driver": r.config.Store.Driver},
		)
	}
}

func (r *runtime) buildRedisStores(ctx context.Context) error {
	dsn := strings.TrimSpace(r.config.Store.DSN)
	if dsn == "" {
		dsn = "redis://localhost:6379/0"
	}
	options, err := goredis.ParseURL(dsn)
	if err != nil {
		return core.InvalidConfigurationError(fmt.Sprintf("invalid redis url: %v", err), nil)
	}
	redisClient := goredis.NewClient(options)
	r.closers = append(r.closers, redisClient.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	staticData, err := redisstore.NewStaticDataStore(redisClient)
	if err != nil {
		return err
	}
	claims, err := redisstore.NewClaimStore(redisClient)
	if err != nil {
		return err
	}
	r.staticData, r.claims = staticData, claims
	return nil
}

func (r *runtime) buildSQLStores(ctx context.Context, driver string) error {
	sqlDriver, dialectName := "sqlite3", leadtablemigrations.DialectSQLite
	var dialect schema.Dialect = sqlitedialect.New()
	if driver == "postgres" || driver == "postgresql" {
		sqlDriver, dialectName = "postgres", leadtablemigrations.DialectPostgres
		dialect = pgdialect.New()
	}
	dsn := strings.TrimSpace(r.config.Store.DSN)
	if dsn == "" {
		if sqlDriver != "sqlite3" {
			return core.InvalidConfigurationError("store.dsn is required for postgres", nil)
		}
		dsn = "file:leadtable.db?cache=shared"
	}

	sqlDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", sqlDriver, err)
	}
	if sqlDriver == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}
	persistenceClient, err := persistence.New(persistenceConfig{driver: sqlDriver, server: dsn, debug: r.config.Store.Debug}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("persistence client: %w", err)
	}
	r.closers = append(r.closers, persistenceClient.Close)

	_, err = leadtablemigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect == dialectName {
			persistenceClient.RegisterSQLMigrations(fsys)
		}
		return nil
	}, leadtablemigrations.WithValidationTargets(dialectName))
	if err != nil {
		return fmt.Errorf("register migrations: %w", err)
	}
	if err := persistenceClient.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(persistenceClient)
	if err != nil {
		return err
	}
	r.staticData, r.claims = factory.StaticDataStore(), factory.ClaimStore()
	return nil
}

type persistenceConfig struct {
	driver string
	server string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool { return c.debug }

func (c persistenceConfig) GetDriver() string { return c.driver }

func (c persistenceConfig) GetServer() string { return c.server }

func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }

func (c persistenceConfig) GetOtelIdentifier() string { return "go-leadtable" }
