// Package app hace el wiring completo del servicio: config, logger,
// claves, store, cache, services, controllers y servidor HTTP.
package app

import (
	"context"
	"fmt"
	"os"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/heimdall/internal/cache"
	cachemem "github.com/dropDatabas3/heimdall/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/heimdall/internal/cache/redis"
	"github.com/dropDatabas3/heimdall/internal/config"
	heimhttp "github.com/dropDatabas3/heimdall/internal/http"
	"github.com/dropDatabas3/heimdall/internal/http/controllers"
	mw "github.com/dropDatabas3/heimdall/internal/http/middlewares"
	"github.com/dropDatabas3/heimdall/internal/http/router"
	"github.com/dropDatabas3/heimdall/internal/http/services"
	"github.com/dropDatabas3/heimdall/internal/keys"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/observability/metrics"
	"github.com/dropDatabas3/heimdall/internal/rate"
	"github.com/dropDatabas3/heimdall/internal/revocation"
	"github.com/dropDatabas3/heimdall/internal/store"
	"github.com/dropDatabas3/heimdall/internal/token"
)

// App agrupa las piezas vivas del servicio para arrancar y apagar.
type App struct {
	Config *config.Config
	Server *heimhttp.Server

	repo    storeCloser
	redisCl *rdb.Client
}

type storeCloser interface {
	Close(ctx context.Context) error
}

// New construye el servicio entero a partir de la config.
// Un fallo de claves es fatal: sin par Ed25519 no hay servicio.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "heimdall",
		Version:     os.Getenv("SERVICE_VERSION"),
	})
	log := logger.Named("app")

	// 1) Claves de firma. Fatal si no se puede cargar/generar el par.
	km := keys.NewManager(cfg.Keys.Dir, cfg.Keys.KID)
	if err := km.Load(false); err != nil {
		return nil, fmt.Errorf("key manager: %w", err)
	}
	log.Info("signing keys ready", logger.KID(cfg.Keys.KID))

	// 2) Store (mongo | postgres | memory).
	repo, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Mongo:  struct{ URI, Database string }{cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Warn("ensure indexes failed", logger.Err(err))
	}

	// 3) Redis opcional: cache de status + rate limiter distribuido.
	var (
		redisClient *rdb.Client
		statusCache cache.Cache
		limiter     rate.Limiter
	)
	if cfg.Redis.Addr != "" {
		redisClient = rdb.NewClient(&rdb.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		statusCache = cacheredis.NewFromClient(redisClient)
		limiter = rate.NewRedisLimiter(redisClient, "rl:status", cfg.Rate.MaxRequests, cfg.Rate.Window)
	} else {
		statusCache = cachemem.New(cfg.StatusCache.TTL)
		limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
	}

	// 4) Core de dominio.
	issuer := token.NewIssuer(token.Config{
		IssuerID:            cfg.Issuer.ID,
		TokenTTL:            cfg.Issuer.TokenTTL,
		SupportedModels:     cfg.Policy.SupportedModels,
		StandardPermissions: cfg.Policy.StandardPermissions,
		DefaultTrustTags:    cfg.Policy.DefaultTrustTags,
		AllowedTrustTagKeys: cfg.Policy.AllowedTrustTagKeys,
	}, km, repo.Tokens())
	registry := revocation.NewRegistry(repo.Revocations(), repo.Tokens())

	// 5) Services y controllers.
	healthDeps := services.HealthDeps{
		IssuerID:   cfg.Issuer.ID,
		Keys:       km,
		StoreCheck: repo.Ping,
	}
	if redisClient != nil {
		healthDeps.RedisCheck = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	ctrls := controllers.New(controllers.Deps{
		IssueService:      services.NewIssueService(issuer),
		RevocationService: services.NewRevocationService(registry, repo.Tokens(), statusCache, cfg.StatusCache.TTL),
		HealthService:     services.NewHealthService(healthDeps),
		KeyManager:        km,
	})

	// 6) Métricas y rutas.
	metricsHandler, err := metrics.RegisterMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	routerDeps := router.Deps{
		Controllers:    ctrls,
		Auth:           mw.WithAuth(mw.NewAPIKeyResolver(cfg.Auth.APIKeys)),
		MetricsHandler: metricsHandler,
	}
	if cfg.Rate.Enabled {
		routerDeps.RateLimit = mw.WithRateLimit(limiter)
	}

	handler := heimhttp.BuildHandler(router.New(routerDeps))

	return &App{
		Config:  cfg,
		Server:  heimhttp.NewServer(cfg.Server.Addr, handler),
		repo:    repo,
		redisCl: redisClient,
	}, nil
}

// Run arranca el servidor y bloquea hasta cancelación o fallo.
func (a *App) Run(ctx context.Context) error {
	return a.Server.Run(ctx)
}

// Close libera conexiones de store y redis.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.repo != nil {
		if err := a.repo.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if a.redisCl != nil {
		if err := a.redisCl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = logger.Sync()
	return firstErr
}
