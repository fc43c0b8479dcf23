package dto

import "github.com/gautamankoji/evenscape-event-showcase/internal/services/upgrade"

// TierUpgradeRequest is the direct tier-change contract used by trusted
// backoffice callers.
type TierUpgradeRequest struct {
	UserID      string   `json:"userId"`
	NewTier     string   `json:"newTier"`
	UpgradeType string   `json:"upgradeType,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
}

type TierUpgradeResponse struct {
	Success    bool           `json:"success"`
	Tier       string         `json:"tier"`
	UserID     string         `json:"userId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	PaymentURL string         `json:"paymentUrl,omitempty"`
}

type UpgradeSubmitRequest struct {
	Tier string `json:"tier"`
}

type PromoApplyRequest struct {
	Code string `json:"code"`
}

type TransactionDTO struct {
	ID          string   `json:"id"`
	CurrentTier string   `json:"currentTier"`
	TargetTier  string   `json:"targetTier"`
	Kind        string   `json:"kind"`
	Amount      *float64 `json:"amount,omitempty"`
}

type UpgradeStateResponse struct {
	Phase          string          `json:"phase"`
	CurrentTier    string          `json:"currentTier"`
	Transaction    *TransactionDTO `json:"transaction,omitempty"`
	SuccessMessage string          `json:"successMessage,omitempty"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	PaymentURL     string          `json:"paymentUrl,omitempty"`
}

func UpgradeStateFromModel(state upgrade.State, paymentURL string) UpgradeStateResponse {
	resp := UpgradeStateResponse{
		Phase:          string(state.Phase),
		CurrentTier:    string(state.CurrentTier),
		SuccessMessage: state.SuccessMessage,
		ErrorMessage:   state.ErrorMessage,
		PaymentURL:     paymentURL,
	}
	if tx := state.Transaction; tx != nil {
		resp.Transaction = &TransactionDTO{
			ID:          tx.ID,
			CurrentTier: string(tx.CurrentTier),
			TargetTier:  string(tx.TargetTier),
			Kind:        string(tx.Kind),
			Amount:      tx.Amount,
		}
	}
	return resp
}
