package dto

import (
	"time"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/model"
)

type EventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tier        string    `json:"tier"`
	EventDate   time.Time `json:"eventDate"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Category    string    `json:"category,omitempty"`
}

type EventsResponse struct {
	Events   []EventDTO `json:"events"`
	UserTier string     `json:"userTier"`
}

func EventFromModel(item model.ContentItem) EventDTO {
	return EventDTO{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Tier:        string(item.Tier),
		EventDate:   item.EventDate,
		ImageURL:    item.ImageURL,
		Category:    item.Category,
	}
}

func EventsFromModel(items []model.ContentItem, userTier string) EventsResponse {
	events := make([]EventDTO, 0, len(items))
	for _, item := range items {
		events = append(events, EventFromModel(item))
	}
	return EventsResponse{Events: events, UserTier: userTier}
}
