package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/config"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	s3infra "github.com/gautamankoji/evenscape-event-showcase/internal/infra/s3"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/identityhttp"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/paymenthttp"
	pgrepo "github.com/gautamankoji/evenscape-event-showcase/internal/repo/postgres"
	redrepo "github.com/gautamankoji/evenscape-event-showcase/internal/repo/redis"
	authsvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/auth"
	contentsvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/content"
	entsvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/entitlements"
	feedsvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/feed"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/tierchange"
	upgradesvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/upgrade"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	ladder, err := buildLadder(cfg.Remote)
	if err != nil {
		return nil, fmt.Errorf("build tier ladder: %w", err)
	}
	defaultTier, ok := tiers.Parse(cfg.Remote.DefaultTier)
	if !ok {
		defaultTier = tiers.TierFree
	}

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	tierCache := redrepo.NewTierCacheRepo(redisClient, cfg.Identity.CacheTTL)
	contentRepo := pgrepo.NewContentRepo(pool)

	identityClient, err := identityhttp.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey, cfg.Identity.Timeout)
	if err != nil {
		return nil, fmt.Errorf("init identity client: %w", err)
	}

	var paymentsClient *paymenthttp.Client
	if cfg.Payments.BaseURL != "" {
		c, err := paymenthttp.NewClient(cfg.Payments.BaseURL, cfg.Payments.APIKey, cfg.Payments.Timeout)
		if err != nil {
			return nil, fmt.Errorf("init payments client: %w", err)
		}
		paymentsClient = c
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret)
	authService := authsvc.NewService(jwtManager)

	entitlementService, err := entsvc.NewService(ladder, identityClient, defaultTier, log)
	if err != nil {
		return nil, fmt.Errorf("init entitlements service: %w", err)
	}
	entitlementService.AttachCache(tierCache)

	contentService, err := contentsvc.NewService(contentRepo, entitlementService, log)
	if err != nil {
		return nil, fmt.Errorf("init content service: %w", err)
	}
	if s3Client != nil {
		contentService.AttachImageSigner(s3infra.NewSigner(s3Client, cfg.S3.Bucket))
	}

	feedService := feedsvc.NewService(contentService, entitlementService, feedsvc.Config{}, log)

	tierChangeService, err := tierchange.NewService(ladder, identityClient, log)
	if err != nil {
		return nil, fmt.Errorf("init tierchange service: %w", err)
	}
	if paymentsClient != nil {
		tierChangeService.AttachPayments(paymentsClient)
	}

	upgradeService, err := upgradesvc.NewService(ladder, tierChangeService, entitlementService, upgradesvc.Config{
		SuccessDismiss: cfg.Notify.SuccessDismiss,
		ErrorDismiss:   cfg.Notify.ErrorDismiss,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init upgrade service: %w", err)
	}
	upgradeService.AttachNavigator(feedNavigator{log: log})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		Ladder:            ladder,
		AuthService:       authService,
		ContentService:    contentService,
		FeedService:       feedService,
		TierChangeService: tierChangeService,
		UpgradeService:    upgradeService,
		Logger:            log,
		Config:            cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// buildLadder maps the remote tier config onto the domain ladder, falling
// back to the built-in ladder when no tiers are configured.
func buildLadder(remote config.RemoteConfig) (*tiers.Ladder, error) {
	if len(remote.Tiers) == 0 {
		return tiers.Default(), nil
	}

	entries := make([]tiers.Entry, 0, len(remote.Tiers))
	for _, tc := range remote.Tiers {
		tier, ok := tiers.Parse(tc.ID)
		if !ok {
			return nil, fmt.Errorf("unknown tier id %q", tc.ID)
		}
		entries = append(entries, tiers.Entry{
			Tier:        tier,
			Label:       tc.Label,
			Price:       tc.Price,
			Description: tc.Description,
			Benefits:    tc.Benefits,
		})
	}

	promos := make(map[string]tiers.Tier, len(remote.PromoCodes))
	for code, rawTier := range remote.PromoCodes {
		tier, ok := tiers.Parse(rawTier)
		if !ok {
			return nil, fmt.Errorf("promo code %q targets unknown tier %q", code, rawTier)
		}
		promos[code] = tier
	}

	return tiers.NewLadder(entries, promos)
}

// feedNavigator records the post-upgrade redirect so clients polling the
// workflow can follow it. The redirect itself happens client side.
type feedNavigator struct {
	log *zap.Logger
}

func (n feedNavigator) NavigateToFeed(userID string) {
	if n.log != nil {
		n.log.Info("navigate to feed", zap.String("user_id", userID))
	}
}
