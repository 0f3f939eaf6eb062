package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/resourcehub-backend/internal/data/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/data/db"
	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	httpserver "github.com/yungbote/resourcehub-backend/internal/http"
	httpH "github.com/yungbote/resourcehub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/resourcehub-backend/internal/http/middleware"
	"github.com/yungbote/resourcehub-backend/internal/jobs/worker"
	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/openai"
	"github.com/yungbote/resourcehub-backend/internal/platform/redisbus"
	"github.com/yungbote/resourcehub-backend/internal/platform/scraper"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Taxonomy  services.TaxonomyService
	Resources services.ResourceService
	Vectors   services.VectorSync
	Outbox    services.VectorOutbox
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Repos    repos.Set
	Services Services
	Worker   *worker.Worker
	Server   *httpserver.Server

	pg           *db.PostgresService
	rdb          *goredis.Client
	bus          redisbus.Bus
	vectors      vectorBackend
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// OpenDB connects to Postgres without wiring anything else.
func OpenDB(log *logger.Logger, cfg Config) (*db.PostgresService, error) {
	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	return pg, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}

	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfigFromEnv())
	metrics := observability.Init(log)

	pg, err := OpenDB(log, cfg)
	if err != nil {
		return nil, err
	}
	a.pg = pg
	a.DB = pg.DB()
	a.Repos = repos.NewSet(a.DB, log)

	cache := redisbus.Cache(redisbus.NoopCache{})
	a.bus = redisbus.NoopBus{}
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		a.rdb, err = redisbus.NewClient(ctx, redisbus.Config{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		if a.bus, err = redisbus.NewRedisBus(log, a.rdb, cfg.RedisChannel); err != nil {
			a.Close()
			return nil, fmt.Errorf("init redis bus: %w", err)
		}
		cache = redisbus.NewRedisCache(a.rdb, "rh:")
	} else {
		log.Warn("REDIS_ADDR not set; outbox workers poll and taxonomy snapshots are not cached")
	}

	var oa openai.Client
	if strings.TrimSpace(cfg.OpenAI.APIKey) != "" {
		if oa, err = openai.NewClient(log, openAIConfig(cfg)); err != nil {
			a.Close()
			return nil, fmt.Errorf("init openai: %w", err)
		}
	} else {
		log.Warn("OPENAI_API_KEY not set; auto-categorization and semantic search disabled")
	}

	if a.vectors, err = resolveVectorBackend(ctx, log, cfg, oa); err != nil {
		a.Close()
		return nil, err
	}
	if a.vectors.Store != nil {
		a.Services.Vectors = services.NewVectorSync(log, a.vectors.Store, a.vectors.Embedder, cfg.VectorNamespace)
	}

	if a.Services.Auth, err = services.NewAuthService(log, cfg.JWTSecretKey); err != nil {
		a.Close()
		return nil, err
	}
	a.Services.Taxonomy = services.NewTaxonomyService(log, a.Repos.Categories, a.Repos.Tags, cache)

	base := aggregates.BaseDeps{
		DB:     a.DB,
		Log:    log,
		Runner: aggregates.NewGormTxRunner(a.DB),
		Hooks:  aggregates.NewObservabilityHooks(metrics),
	}
	resourceAgg := aggregates.NewResourceAggregate(aggregates.ResourceAggregateDeps{
		Base: base,
		Taxonomy: aggregates.NewTaxonomyResolver(aggregates.TaxonomyResolverDeps{
			Categories: a.Repos.Categories,
			Tags:       a.Repos.Tags,
		}),
		Resources:    a.Repos.Resources,
		ResourceTags: a.Repos.ResourceTag,
		Owners:       a.Repos.Owners,
		VectorTasks:  a.Repos.VectorTasks,
	})

	var quota services.QuotaGate = services.AllowAllQuota{}
	if cfg.MaxResourcesPerUser > 0 {
		quota = services.MaxResourcesQuota{Resources: a.Repos.Resources, Max: cfg.MaxResourcesPerUser}
	}
	deps := services.ResourceServiceDeps{
		Aggregate: resourceAgg,
		Repos:     a.Repos,
		Taxonomy:  a.Services.Taxonomy,
		Scraper:   scraper.New(log, scraper.Config{}),
		Quota:     quota,
		Bus:       a.bus,
	}
	if oa != nil {
		deps.AI = services.NewAIOrchestrator(log, oa)
	}
	if a.Services.Vectors != nil {
		deps.Vectors = a.Services.Vectors
	}
	a.Services.Resources = services.NewResourceService(log, deps)

	a.Services.Outbox = services.NewVectorOutbox(log, a.Repos.VectorTasks, a.Repos.Query, a.Services.Vectors, services.OutboxConfig{
		MaxAttempts: cfg.Outbox.MaxAttempts,
		BaseBackoff: cfg.Outbox.BaseBackoff,
		MaxBackoff:  cfg.Outbox.MaxBackoff,
	})
	a.Worker = worker.NewWorker(log, a.Services.Outbox, a.bus, worker.Config{
		Concurrency:  cfg.Outbox.Concurrency,
		PollInterval: cfg.Outbox.PollInterval,
	})

	a.Server = httpserver.NewServer(":"+strings.TrimPrefix(cfg.Port, ":"), httpserver.RouterConfig{
		Log:               log,
		ServiceName:       observability.OtelConfigFromEnv().ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		Metrics:           metrics,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, a.Services.Auth),
		ResourceHandler:   httpH.NewResourceHandler(log, a.Services.Resources),
		CollectionHandler: httpH.NewCollectionHandler(log, a.Services.Resources),
		TaxonomyHandler:   httpH.NewTaxonomyHandler(log, a.Services.Taxonomy),
		HealthHandler:     httpH.NewHealthHandler(a.ping),
	})
	return a, nil
}

func openAIConfig(cfg Config) openai.Config {
	out := openai.ConfigFromEnv()
	out.APIKey = cfg.OpenAI.APIKey
	if v := strings.TrimSpace(cfg.OpenAI.BaseURL); v != "" {
		out.BaseURL = v
	}
	if v := strings.TrimSpace(cfg.OpenAI.Model); v != "" {
		out.Model = v
	}
	if v := strings.TrimSpace(cfg.OpenAI.EmbedModel); v != "" {
		out.EmbedModel = v
	}
	return out
}

func (a *App) Migrate() error {
	return a.pg.AutoMigrateAll()
}

// Start launches the outbox workers and the outbox depth collector. Workers
// only run when a vector store is configured.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	observability.Current().StartOutboxCollector(ctx, a.Log, a.DB, 15*time.Second)
	if a.Services.Vectors != nil {
		a.Worker.Start(ctx)
	} else {
		a.Log.Info("vector provider disabled; outbox workers not started")
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

// Shutdown stops accepting requests, then stops the workers.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.Server != nil {
		err = a.Server.Shutdown(ctx)
	}
	a.Close()
	return err
}

// DrainOutbox processes runnable outbox tasks once.
func (a *App) DrainOutbox(ctx context.Context) (int, error) {
	if a.Services.Vectors == nil {
		return 0, services.ErrVectorSyncDisabled
	}
	return a.Services.Outbox.Drain(ctx)
}

// Reindex enqueues an upsert for every resource.
func (a *App) Reindex(ctx context.Context, batch int) (int, error) {
	return services.EnqueueReindex(ctx, a.Repos.Resources, a.Repos.VectorTasks, batch)
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
		if a.Worker != nil {
			a.Worker.Wait()
		}
	}
	if a.bus != nil {
		_ = a.bus.Close()
		a.bus = nil
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
		a.rdb = nil
	}
	if err := a.vectors.Close(); err != nil {
		a.Log.Warn("vector store close failed", "error", err)
	}
	a.vectors = vectorBackend{}
	if a.pg != nil {
		_ = a.pg.Close()
		a.pg = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	a.Log.Sync()
}
