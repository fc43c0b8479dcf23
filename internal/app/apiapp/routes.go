package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/config"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	authsvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/auth"
	contentsvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/content"
	feedsvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/feed"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/tierchange"
	upgradesvc "github.com/gautamankoji/evenscape-event-showcase/internal/services/upgrade"
	"github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/handlers"
)

type Dependencies struct {
	Ladder            *tiers.Ladder
	AuthService       *authsvc.Service
	ContentService    *contentsvc.Service
	FeedService       *feedsvc.Service
	TierChangeService *tierchange.Service
	UpgradeService    *upgradesvc.Service
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Logger)
	configHandler := handlers.NewConfigHandler(deps.Ladder, deps.Config.Remote.FAQ)
	eventsHandler := handlers.NewEventsHandler(deps.ContentService, deps.Logger)
	feedHandler := handlers.NewFeedHandler(deps.FeedService, deps.Logger)
	upgradeHandler := handlers.NewUpgradeHandler(deps.UpgradeService, deps.TierChangeService, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Health)
	r.Get("/config", configHandler.Config)
	r.With(authMW).Get("/events", eventsHandler.List)
	r.With(authMW).Get("/feed", feedHandler.Get)
	r.Post("/tier/upgrade", upgradeHandler.ChangeTier)
	r.Route("/upgrade", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/paid", upgradeHandler.SubmitPaid)
		r.Post("/promo", upgradeHandler.ApplyPromo)
		r.Get("/status", upgradeHandler.Status)
		r.Post("/dismiss", upgradeHandler.Dismiss)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Config)
		r.With(authMW).Get("/events", eventsHandler.List)
		r.With(authMW).Get("/feed", feedHandler.Get)
		r.Post("/tier/upgrade", upgradeHandler.ChangeTier)
		r.Route("/upgrade", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/paid", upgradeHandler.SubmitPaid)
			r.Post("/promo", upgradeHandler.ApplyPromo)
			r.Get("/status", upgradeHandler.Status)
			r.Post("/dismiss", upgradeHandler.Dismiss)
		})
	})
}
