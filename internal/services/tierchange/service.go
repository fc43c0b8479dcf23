package tierchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/enums"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/identityhttp"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/paymenthttp"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrCollaborator = errors.New("collaborator error")
)

// IdentityStore persists tier changes on the external identity provider.
type IdentityStore interface {
	UpdateTier(ctx context.Context, userID, tier string) (identityhttp.UserRecord, error)
}

// Payments creates checkout sessions for paid tier changes.
type Payments interface {
	CreateCheckout(ctx context.Context, in paymenthttp.CheckoutInput) (paymenthttp.CheckoutResult, error)
}

type Input struct {
	UserID  string
	NewTier string
	Kind    enums.UpgradeKind
	Amount  *float64
}

type Result struct {
	Success    bool
	Tier       tiers.Tier
	UserID     string
	Metadata   map[string]any
	PaymentURL string
}

// Service applies a tier change end to end: checkout for paid changes
// when a payment processor is configured, then the identity write.
type Service struct {
	ladder   *tiers.Ladder
	identity IdentityStore
	payments Payments
	log      *zap.Logger
}

func NewService(ladder *tiers.Ladder, identity IdentityStore, log *zap.Logger) (*Service, error) {
	if ladder == nil {
		return nil, fmt.Errorf("tierchange: ladder is required")
	}
	if identity == nil {
		return nil, fmt.Errorf("tierchange: identity store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		ladder:   ladder,
		identity: identity,
		log:      log,
	}, nil
}

// AttachPayments enables checkout-backed paid changes. Without it paid
// changes are captured synchronously, which is the development mode.
func (s *Service) AttachPayments(payments Payments) {
	s.payments = payments
}

func (s *Service) Submit(ctx context.Context, in Input) (Result, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Result{}, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	target, ok := tiers.Parse(in.NewTier)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown tier %q", ErrValidation, in.NewTier)
	}

	if in.Kind == enums.UpgradeKindPaid && s.payments != nil {
		amount := s.ladder.Price(target)
		if in.Amount != nil {
			amount = *in.Amount
		}

		checkout, err := s.payments.CreateCheckout(ctx, paymenthttp.CheckoutInput{
			UserID: in.UserID,
			Tier:   string(target),
			Amount: amount,
		})
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrCollaborator, err)
		}
		if checkout.PaymentURL != "" {
			s.log.Info("tier change deferred to checkout",
				zap.String("user_id", in.UserID),
				zap.String("tier", string(target)))
			return Result{
				UserID:     in.UserID,
				Tier:       target,
				PaymentURL: checkout.PaymentURL,
			}, nil
		}
	}

	record, err := s.identity.UpdateTier(ctx, in.UserID, string(target))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCollaborator, err)
	}

	s.log.Info("tier changed",
		zap.String("user_id", in.UserID),
		zap.String("tier", string(target)),
		zap.String("kind", string(in.Kind)))

	return Result{
		Success:  true,
		Tier:     target,
		UserID:   in.UserID,
		Metadata: record.Metadata,
	}, nil
}
