package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/model"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/content"
)

type stubLister struct {
	result content.Result
	err    error
}

func (s *stubLister) List(_ context.Context, _ string) (content.Result, error) {
	if s.err != nil {
		return content.Result{}, s.err
	}
	return s.result, nil
}

type stubEntitlements struct{}

func (stubEntitlements) Upgradable(tier tiers.Tier) []tiers.Tier {
	return tiers.Default().Upgradable(tier)
}

func newComposer(seed int64) *Service {
	return NewService(nil, stubEntitlements{}, Config{
		Rand: rand.New(rand.NewSource(seed)),
	}, zap.NewNop())
}

func contentItems(n int) []model.ContentItem {
	items := make([]model.ContentItem, n)
	for i := range items {
		items[i] = model.ContentItem{ID: fmt.Sprintf("evt_%d", i), Tier: tiers.TierFree}
	}
	return items
}

func TestComposeLengthAndMembership(t *testing.T) {
	service := newComposer(1)
	items := contentItems(6)
	upgradable := []tiers.Tier{tiers.TierGold, tiers.TierPlatinum}

	out := service.Compose(items, upgradable)

	if len(out) != 8 {
		t.Fatalf("expected 8 feed items, got %d", len(out))
	}

	seenContent := make(map[string]int)
	seenPrompts := make(map[tiers.Tier]int)
	for _, item := range out {
		switch item.Kind {
		case model.FeedItemContent:
			seenContent[item.Content.ID]++
		case model.FeedItemUpgrade:
			seenPrompts[item.Upgrade.Tier]++
		default:
			t.Fatalf("unexpected feed item kind %q", item.Kind)
		}
	}
	for _, src := range items {
		if seenContent[src.ID] != 1 {
			t.Fatalf("content %s appears %d times", src.ID, seenContent[src.ID])
		}
	}
	for _, tier := range upgradable {
		if seenPrompts[tier] != 1 {
			t.Fatalf("prompt for %s appears %d times", tier, seenPrompts[tier])
		}
	}
}

func TestComposePromptPositions(t *testing.T) {
	service := newComposer(1)

	out := service.Compose(contentItems(6), []tiers.Tier{tiers.TierGold, tiers.TierPlatinum})

	if out[3].Kind != model.FeedItemUpgrade || out[3].Upgrade.Tier != tiers.TierGold {
		t.Fatalf("expected gold prompt at index 3, got %+v", out[3])
	}
	if out[7].Kind != model.FeedItemUpgrade || out[7].Upgrade.Tier != tiers.TierPlatinum {
		t.Fatalf("expected platinum prompt at index 7, got %+v", out[7])
	}
}

func TestComposeWithoutUpgradableTiers(t *testing.T) {
	service := newComposer(1)
	items := contentItems(5)

	out := service.Compose(items, nil)

	if len(out) != 5 {
		t.Fatalf("expected 5 items, got %d", len(out))
	}
	seen := make(map[string]bool)
	for _, item := range out {
		if item.Kind != model.FeedItemContent {
			t.Fatalf("expected content only, got %q", item.Kind)
		}
		seen[item.Content.ID] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected a permutation, saw %d distinct ids", len(seen))
	}
}

func TestComposeEmptyContentStillPrompts(t *testing.T) {
	service := newComposer(1)
	upgradable := []tiers.Tier{tiers.TierSilver, tiers.TierGold, tiers.TierPlatinum}

	out := service.Compose(nil, upgradable)

	if len(out) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(out))
	}
	for i, tier := range upgradable {
		if out[i].Kind != model.FeedItemUpgrade || out[i].Upgrade.Tier != tier {
			t.Fatalf("prompt %d: got %+v, want %s", i, out[i], tier)
		}
	}
}

func TestComposeShufflesAcrossCalls(t *testing.T) {
	service := newComposer(42)
	items := contentItems(10)

	first := service.Compose(items, nil)

	varied := false
	for trial := 0; trial < 20 && !varied; trial++ {
		next := service.Compose(items, nil)
		for i := range next {
			if next[i].Content.ID != first[i].Content.ID {
				varied = true
				break
			}
		}
	}
	if !varied {
		t.Fatalf("20 shuffles of 10 items never changed order")
	}
}

func TestComposeIsDeterministicForSeed(t *testing.T) {
	items := contentItems(10)

	first := newComposer(7).Compose(items, []tiers.Tier{tiers.TierPlatinum})
	second := newComposer(7).Compose(items, []tiers.Tier{tiers.TierPlatinum})

	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind {
			t.Fatalf("kind mismatch at %d", i)
		}
		if first[i].Kind == model.FeedItemContent && first[i].Content.ID != second[i].Content.ID {
			t.Fatalf("order mismatch at %d", i)
		}
	}
}

func TestComposeDoesNotMutateInput(t *testing.T) {
	service := newComposer(3)
	items := contentItems(8)
	original := make([]string, len(items))
	for i, item := range items {
		original[i] = item.ID
	}

	service.Compose(items, []tiers.Tier{tiers.TierGold})

	for i, item := range items {
		if item.ID != original[i] {
			t.Fatalf("input slice mutated at %d", i)
		}
	}
}

func TestGetComposesFromListerAndEntitlements(t *testing.T) {
	lister := &stubLister{result: content.Result{
		Items: contentItems(4),
		Tier:  tiers.TierGold,
	}}
	service := NewService(lister, stubEntitlements{}, Config{
		Rand: rand.New(rand.NewSource(1)),
	}, zap.NewNop())

	result, err := service.Get(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if result.Tier != tiers.TierGold {
		t.Fatalf("unexpected tier: %q", result.Tier)
	}
	if len(result.Items) != 5 {
		t.Fatalf("expected 4 items + 1 platinum prompt, got %d", len(result.Items))
	}

	prompts := 0
	for _, item := range result.Items {
		if item.Kind == model.FeedItemUpgrade {
			prompts++
			if item.Upgrade.Tier != tiers.TierPlatinum {
				t.Fatalf("unexpected prompt tier: %q", item.Upgrade.Tier)
			}
		}
	}
	if prompts != 1 {
		t.Fatalf("expected exactly one prompt, got %d", prompts)
	}
}

func TestGetPropagatesListerFailure(t *testing.T) {
	wantErr := errors.New("store down")
	service := NewService(&stubLister{err: wantErr}, stubEntitlements{}, Config{}, zap.NewNop())

	if _, err := service.Get(context.Background(), "user_1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected lister error, got %v", err)
	}
}
