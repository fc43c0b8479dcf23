package entitlements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/identityhttp"
)

var ErrValidation = errors.New("validation error")

// IdentityStore fetches user records from the external identity provider.
type IdentityStore interface {
	GetUser(ctx context.Context, userID string) (identityhttp.UserRecord, error)
}

// TierCache is an optional read-through cache for resolved tiers.
type TierCache interface {
	GetTier(ctx context.Context, userID string) (string, bool, error)
	SetTier(ctx context.Context, userID, tier string) error
	DeleteTier(ctx context.Context, userID string) error
}

type Service struct {
	ladder      *tiers.Ladder
	identity    IdentityStore
	cache       TierCache
	defaultTier tiers.Tier
	log         *zap.Logger
}

func NewService(ladder *tiers.Ladder, identity IdentityStore, defaultTier tiers.Tier, log *zap.Logger) (*Service, error) {
	if ladder == nil {
		return nil, fmt.Errorf("entitlements: ladder is required")
	}
	if identity == nil {
		return nil, fmt.Errorf("entitlements: identity store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if _, ok := ladder.Entry(defaultTier); !ok {
		return nil, fmt.Errorf("entitlements: unknown default tier %q", defaultTier)
	}

	return &Service{
		ladder:      ladder,
		identity:    identity,
		defaultTier: defaultTier,
		log:         log,
	}, nil
}

func (s *Service) AttachCache(cache TierCache) {
	s.cache = cache
}

func (s *Service) Ladder() *tiers.Ladder {
	return s.ladder
}

// Visible returns the tiers whose content the given tier may see,
// ordered from lowest to highest.
func (s *Service) Visible(tier tiers.Tier) []tiers.Tier {
	return s.ladder.Visible(tier)
}

// Upgradable returns the tiers strictly above the given tier,
// ordered from lowest to highest.
func (s *Service) Upgradable(tier tiers.Tier) []tiers.Tier {
	return s.ladder.Upgradable(tier)
}

// Resolve returns the current tier for the user. Unknown or missing tier
// values from the identity provider fall back to the default tier.
func (s *Service) Resolve(ctx context.Context, userID string) (tiers.Tier, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: user id is required", ErrValidation)
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetTier(ctx, userID)
		if err != nil {
			s.log.Warn("tier cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if ok {
			if tier, valid := tiers.Parse(cached); valid {
				return tier, nil
			}
		}
	}

	record, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve tier for user %s: %w", userID, err)
	}

	tier, ok := tiers.Parse(record.Tier)
	if !ok {
		tier = s.defaultTier
	}

	if s.cache != nil {
		if err := s.cache.SetTier(ctx, userID, string(tier)); err != nil {
			s.log.Warn("tier cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return tier, nil
}

// Invalidate drops the cached tier so the next Resolve hits the provider.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteTier(ctx, userID); err != nil {
		return fmt.Errorf("invalidate tier for user %s: %w", userID, err)
	}
	return nil
}
