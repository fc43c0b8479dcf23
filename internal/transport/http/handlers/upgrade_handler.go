package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/enums"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/identityhttp"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/auth"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/tierchange"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/upgrade"
	"github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/dto"
	httperrors "github.com/gautamankoji/evenscape-event-showcase/internal/transport/http/errors"
)

type UpgradeHandler struct {
	workflow *upgrade.Service
	changer  *tierchange.Service
	log      *zap.Logger
}

func NewUpgradeHandler(workflow *upgrade.Service, changer *tierchange.Service, log *zap.Logger) *UpgradeHandler {
	return &UpgradeHandler{workflow: workflow, changer: changer, log: log}
}

// ChangeTier is the direct tier-change endpoint for trusted callers. It
// writes the identity provider and echoes the updated metadata, skipping
// the per-user workflow session entirely.
func (h *UpgradeHandler) ChangeTier(w http.ResponseWriter, r *http.Request) {
	var req dto.TierUpgradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeBadRequest(w, "userId is required")
		return
	}
	if strings.TrimSpace(req.NewTier) == "" {
		writeBadRequest(w, "newTier is required")
		return
	}

	kind := enums.UpgradeKindPaid
	if req.UpgradeType != "" {
		parsed, ok := enums.ParseUpgradeKind(req.UpgradeType)
		if !ok {
			writeBadRequest(w, "unknown upgradeType")
			return
		}
		kind = parsed
	}

	result, err := h.changer.Submit(r.Context(), tierchange.Input{
		UserID:  req.UserID,
		NewTier: req.NewTier,
		Kind:    kind,
		Amount:  req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, tierchange.ErrValidation):
			writeBadRequest(w, err.Error())
		case errors.Is(err, tierchange.ErrCollaborator):
			h.log.Error("tier change collaborator failed", zap.Error(err))
			message := identityhttp.ServerDetail(err)
			if message == "" {
				message = "Failed to upgrade tier"
			}
			httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
				Code:    "INTERNAL_ERROR",
				Message: message,
			})
		default:
			h.log.Error("tier change failed", zap.Error(err))
			writeInternal(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.TierUpgradeResponse{
		Success:    result.Success,
		Tier:       string(result.Tier),
		UserID:     result.UserID,
		Metadata:   result.Metadata,
		PaymentURL: result.PaymentURL,
	})
}

// SubmitPaid starts a paid upgrade for the authenticated user.
func (h *UpgradeHandler) SubmitPaid(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req dto.UpgradeSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	target, ok := tiers.Parse(req.Tier)
	if !ok {
		writeBadRequest(w, "unknown tier")
		return
	}

	result, err := h.workflow.SubmitPaid(r.Context(), identity.UserID, target)
	h.writeWorkflowResult(w, result, err)
}

// ApplyPromo redeems a promo code for the authenticated user. An unknown
// code still returns the session state so the client can show the notice.
func (h *UpgradeHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req dto.PromoApplyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.workflow.ApplyPromo(r.Context(), identity.UserID, req.Code)
	h.writeWorkflowResult(w, result, err)
}

func (h *UpgradeHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	state, err := h.workflow.Status(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, upgrade.ErrUnauthorized) {
			writeUnauthorized(w)
			return
		}
		h.log.Error("upgrade status failed", zap.Error(err))
		writeInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, dto.UpgradeStateFromModel(state, ""))
}

func (h *UpgradeHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	state, err := h.workflow.Dismiss(identity.UserID)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, dto.UpgradeStateFromModel(state, ""))
}

// writeWorkflowResult maps a workflow transition to the wire. Transitions
// that produced a notice, invalid promo codes and upstream failures
// included, respond 200 with the state so the client renders the message.
func (h *UpgradeHandler) writeWorkflowResult(w http.ResponseWriter, result upgrade.Result, err error) {
	if err != nil {
		switch {
		case errors.Is(err, upgrade.ErrUnauthorized):
			writeUnauthorized(w)
			return
		case errors.Is(err, upgrade.ErrValidation):
			writeBadRequest(w, err.Error())
			return
		case errors.Is(err, upgrade.ErrDowngradeNotAllowed):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "DOWNGRADE_NOT_ALLOWED",
				Message: "Downgrades are not supported yet",
			})
			return
		}
		if result.State.Phase != upgrade.PhaseError {
			h.log.Error("upgrade submit failed", zap.Error(err))
			writeInternal(w)
			return
		}
		h.log.Warn("upgrade ended in error notice", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, dto.UpgradeStateFromModel(result.State, result.PaymentURL))
}
