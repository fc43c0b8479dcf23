package model

import (
	"time"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
)

// ContentItem is a single event record as served to clients. Immutable once
// fetched; Tier is the minimum tier required to view it.
type ContentItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tier        tiers.Tier `json:"tier"`
	EventDate   time.Time  `json:"event_date"`
	ImageURL    *string    `json:"image_url"`
	Category    string     `json:"category,omitempty"`
}
