package handlers

import (
	"net/http"

	"github.com/gautamankoji/evenscape-event-showcase/internal/config"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/dto"
)

// ConfigHandler serves the client bootstrap payload: the tier ladder and
// the upgrade FAQ.
type ConfigHandler struct {
	ladder *tiers.Ladder
	faq    []config.FAQConfig
}

func NewConfigHandler(ladder *tiers.Ladder, faq []config.FAQConfig) *ConfigHandler {
	return &ConfigHandler{ladder: ladder, faq: faq}
}

func (h *ConfigHandler) Config(w http.ResponseWriter, _ *http.Request) {
	entries := h.ladder.Entries()
	resp := dto.ConfigResponse{
		Tiers: make([]dto.TierDTO, 0, len(entries)),
		FAQ:   make([]dto.FAQEntryDTO, 0, len(h.faq)),
	}
	for _, entry := range entries {
		resp.Tiers = append(resp.Tiers, dto.TierDTO{
			ID:          string(entry.Tier),
			Label:       entry.Label,
			Price:       entry.Price,
			Description: entry.Description,
			Benefits:    entry.Benefits,
		})
	}
	for _, item := range h.faq {
		resp.FAQ = append(resp.FAQ, dto.FAQEntryDTO{
			Question: item.Question,
			Answer:   item.Answer,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
