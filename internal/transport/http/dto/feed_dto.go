package dto

import "github.com/gautamankoji/evenscape-event-showcase/internal/domain/model"

type UpgradePromptDTO struct {
	Tier string `json:"tier"`
}

// FeedItemDTO is a tagged union: exactly one of Event or Upgrade is set.
type FeedItemDTO struct {
	Kind    string            `json:"kind"`
	Event   *EventDTO         `json:"event,omitempty"`
	Upgrade *UpgradePromptDTO `json:"upgrade,omitempty"`
}

type FeedResponse struct {
	Items    []FeedItemDTO `json:"items"`
	UserTier string        `json:"userTier"`
}

func FeedFromModel(items []model.FeedItem, userTier string) FeedResponse {
	out := make([]FeedItemDTO, 0, len(items))
	for _, item := range items {
		dtoItem := FeedItemDTO{Kind: string(item.Kind)}
		if item.Content != nil {
			event := EventFromModel(*item.Content)
			dtoItem.Event = &event
		}
		if item.Upgrade != nil {
			dtoItem.Upgrade = &UpgradePromptDTO{Tier: string(item.Upgrade.Tier)}
		}
		out = append(out, dtoItem)
	}
	return FeedResponse{Items: out, UserTier: userTier}
}
