package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/services/auth"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/content"
	"github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/dto"
	httperrors "github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/errors"
)

type EventsHandler struct {
	content *content.Service
	log     *zap.Logger
}

func NewEventsHandler(contentSvc *content.Service, log *zap.Logger) *EventsHandler {
	return &EventsHandler{content: contentSvc, log: log}
}

// List returns the events visible at the caller's tier, ordered by event
// date ascending, together with the resolved tier.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	result, err := h.content.List(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrValidation):
			writeBadRequest(w, err.Error())
		case errors.Is(err, content.ErrStore):
			h.log.Error("content store failed", zap.Error(err))
			httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
				Code:    "STORE_ERROR",
				Message: "failed to load events",
			})
		default:
			h.log.Error("events list failed", zap.Error(err))
			writeInternal(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.EventsFromModel(result.Items, string(result.Tier)))
}
