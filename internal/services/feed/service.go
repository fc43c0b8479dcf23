package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/model"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/content"
)

// ContentLister yields the caller's visible content and resolved tier.
type ContentLister interface {
	List(ctx context.Context, userID string) (content.Result, error)
}

// Entitlements yields the tiers the caller can still upgrade to.
type Entitlements interface {
	Upgradable(tier tiers.Tier) []tiers.Tier
}

type Config struct {
	// Rand seeds shuffling. Nil means a time-seeded source.
	Rand *rand.Rand
}

type Service struct {
	lister       ContentLister
	entitlements Entitlements
	log          *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Result struct {
	Items []model.FeedItem
	Tier  tiers.Tier
}

func NewService(lister ContentLister, entitlements Entitlements, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		lister:       lister,
		entitlements: entitlements,
		log:          log,
		rng:          rng,
	}
}

// Get composes the user's feed: their visible content shuffled, with one
// upgrade prompt per still-purchasable tier spread through the result.
func (s *Service) Get(ctx context.Context, userID string) (Result, error) {
	listed, err := s.lister.List(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	upgradable := s.entitlements.Upgradable(listed.Tier)
	items := s.Compose(listed.Items, upgradable)

	return Result{Items: items, Tier: listed.Tier}, nil
}

// Compose shuffles the content and interleaves one upgrade prompt per
// upgradable tier. With u prompts over n items, prompt k lands at index
// n*(k+1)/u + k, so prompts split the shuffled content into u even runs
// with the last prompt at the tail.
func (s *Service) Compose(items []model.ContentItem, upgradable []tiers.Tier) []model.FeedItem {
	n := len(items)
	u := len(upgradable)

	shuffled := make([]model.ContentItem, n)
	copy(shuffled, items)

	s.mu.Lock()
	s.rng.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	out := make([]model.FeedItem, 0, n+u)
	for _, item := range shuffled {
		out = append(out, model.ContentFeedItem(item))
	}
	if u == 0 {
		return out
	}

	for k, tier := range upgradable {
		idx := n*(k+1)/u + k
		out = append(out, model.FeedItem{})
		copy(out[idx+1:], out[idx:])
		out[idx] = model.UpgradeFeedItem(tier)
	}

	return out
}
