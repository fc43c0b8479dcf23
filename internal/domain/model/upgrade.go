package model

import (
	"time"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/enums"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
)

// UpgradeTransaction exists only for the duration of one upgrade request.
// It is created on submission and discarded on completion, never persisted.
type UpgradeTransaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	CurrentTier tiers.Tier        `json:"current_tier"`
	TargetTier  tiers.Tier        `json:"target_tier"`
	Kind        enums.UpgradeKind `json:"kind"`
	Amount      *float64          `json:"amount,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
}
