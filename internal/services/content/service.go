package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/model"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrStore      = errors.New("content store error")
)

// Store lists content records whose tier is in the given set,
// ordered by event date ascending.
type Store interface {
	ListByTiers(ctx context.Context, tierIDs []string) ([]postgres.ContentRecord, error)
}

// Resolver yields the caller's current tier.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (tiers.Tier, error)
	Visible(tier tiers.Tier) []tiers.Tier
}

// ImageSigner turns object storage keys into presigned URLs.
type ImageSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	store    Store
	resolver Resolver
	signer   ImageSigner
	log      *zap.Logger
}

type Result struct {
	Items []model.ContentItem
	Tier  tiers.Tier
}

func NewService(store Store, resolver Resolver, log *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("content: store is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("content: resolver is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store:    store,
		resolver: resolver,
		log:      log,
	}, nil
}

func (s *Service) AttachImageSigner(signer ImageSigner) {
	s.signer = signer
}

// List returns every content item visible to the user at their current tier,
// ordered by event date ascending, together with the resolved tier.
func (s *Service) List(ctx context.Context, userID string) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	tier, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	visible := s.resolver.Visible(tier)
	tierIDs := make([]string, 0, len(visible))
	for _, t := range visible {
		tierIDs = append(tierIDs, string(t))
	}

	records, err := s.store.ListByTiers(ctx, tierIDs)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	items := make([]model.ContentItem, 0, len(records))
	for _, record := range records {
		items = append(items, s.toItem(ctx, record))
	}

	return Result{Items: items, Tier: tier}, nil
}

func (s *Service) toItem(ctx context.Context, record postgres.ContentRecord) model.ContentItem {
	item := model.ContentItem{
		ID:          record.ID,
		Title:       record.Title,
		Description: record.Description,
		EventDate:   record.EventDate,
	}
	if tier, ok := tiers.Parse(record.Tier); ok {
		item.Tier = tier
	}
	if record.Category != nil {
		item.Category = *record.Category
	}
	item.ImageURL = s.buildImageURL(ctx, record.ImageURL)
	return item
}

// buildImageURL leaves absolute URLs alone and presigns bare object keys.
func (s *Service) buildImageURL(ctx context.Context, raw *string) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}

	value := *raw
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return &value
	}
	if s.signer == nil {
		return &value
	}

	signed, err := s.signer.PresignGet(ctx, value, 0)
	if err != nil {
		s.log.Warn("presign image url failed", zap.String("key", value), zap.Error(err))
		return nil
	}
	return &signed
}
