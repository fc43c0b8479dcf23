package model

import "github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"

type FeedItemKind string

const (
	FeedItemContent FeedItemKind = "content"
	FeedItemUpgrade FeedItemKind = "upgrade"
)

// FeedItem is a tagged variant: exactly one of Content or Upgrade is set,
// discriminated by Kind.
type FeedItem struct {
	Kind    FeedItemKind   `json:"kind"`
	Content *ContentItem   `json:"content,omitempty"`
	Upgrade *UpgradePrompt `json:"upgrade,omitempty"`
}

// UpgradePrompt is an upsell card for a tier the viewer does not have yet.
type UpgradePrompt struct {
	Tier tiers.Tier `json:"tier"`
}

func ContentFeedItem(item ContentItem) FeedItem {
	return FeedItem{Kind: FeedItemContent, Content: &item}
}

func UpgradeFeedItem(tier tiers.Tier) FeedItem {
	return FeedItem{Kind: FeedItemUpgrade, Upgrade: &UpgradePrompt{Tier: tier}}
}
