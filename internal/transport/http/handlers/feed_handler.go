package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/services/auth"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/content"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/feed"
	"github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/dto"
	httperrors "github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/errors"
)

type FeedHandler struct {
	feed *feed.Service
	log  *zap.Logger
}

func NewFeedHandler(feedSvc *feed.Service, log *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feedSvc, log: log}
}

// Get returns the composed feed: the caller's visible events shuffled,
// with upgrade prompts interleaved for each tier above theirs.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	result, err := h.feed.Get(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrValidation):
			writeBadRequest(w, err.Error())
		case errors.Is(err, content.ErrStore):
			h.log.Error("content store failed", zap.Error(err))
			httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
				Code:    "STORE_ERROR",
				Message: "failed to load feed",
			})
		default:
			h.log.Error("feed get failed", zap.Error(err))
			writeInternal(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.FeedFromModel(result.Items, string(result.Tier)))
}
