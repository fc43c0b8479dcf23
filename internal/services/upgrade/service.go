package upgrade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/enums"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/model"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/identityhttp"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/tierchange"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPromoCode    = errors.New("invalid promo code")
	ErrDowngradeNotAllowed = errors.New("downgrade not allowed")
)

const (
	msgInvalidPromo  = "Invalid promo code"
	msgPromoFailed   = "Failed to apply promo code"
	msgUpgradeFailed = "Failed to upgrade tier"
	msgNoDowngrade   = "Downgrades are not supported yet"

	defaultSuccessDismiss = 5 * time.Second
	defaultErrorDismiss   = 10 * time.Second
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// State is a point-in-time snapshot of one user's upgrade session.
type State struct {
	Phase          Phase
	CurrentTier    tiers.Tier
	Transaction    *model.UpgradeTransaction
	SuccessMessage string
	ErrorMessage   string
}

// Result carries the post-transition state. PaymentURL is set when the
// change was handed off to an external checkout instead of completing.
type Result struct {
	State      State
	PaymentURL string
}

// TierChanger applies a validated tier change against external systems.
type TierChanger interface {
	Submit(ctx context.Context, in tierchange.Input) (tierchange.Result, error)
}

// Resolver reads and invalidates the user's current tier.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (tiers.Tier, error)
	Invalidate(ctx context.Context, userID string) error
}

// Navigator is notified when a paid upgrade completes so the client can
// be steered back to the feed.
type Navigator interface {
	NavigateToFeed(userID string)
}

type Config struct {
	SuccessDismiss time.Duration
	ErrorDismiss   time.Duration
}

type timerHandle interface {
	Stop() bool
}

type session struct {
	state        State
	successTimer timerHandle
	errorTimer   timerHandle
}

// Service runs the per-user upgrade workflow: one submission in flight
// at a time, terminal success and error notices that dismiss themselves.
type Service struct {
	ladder   *tiers.Ladder
	changer  TierChanger
	resolver Resolver
	nav      Navigator
	cfg      Config
	log      *zap.Logger
	now      func() time.Time

	startTimer func(d time.Duration, fn func()) timerHandle

	mu       sync.Mutex
	sessions map[string]*session
}

func NewService(ladder *tiers.Ladder, changer TierChanger, resolver Resolver, cfg Config, log *zap.Logger) (*Service, error) {
	if ladder == nil {
		return nil, fmt.Errorf("upgrade: ladder is required")
	}
	if changer == nil {
		return nil, fmt.Errorf("upgrade: tier changer is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("upgrade: resolver is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SuccessDismiss <= 0 {
		cfg.SuccessDismiss = defaultSuccessDismiss
	}
	if cfg.ErrorDismiss <= 0 {
		cfg.ErrorDismiss = defaultErrorDismiss
	}

	return &Service{
		ladder:   ladder,
		changer:  changer,
		resolver: resolver,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		startTimer: func(d time.Duration, fn func()) timerHandle {
			return time.AfterFunc(d, fn)
		},
		sessions: make(map[string]*session),
	}, nil
}

func (s *Service) AttachNavigator(nav Navigator) {
	s.nav = nav
}

// SubmitPaid starts a paid upgrade to the target tier at the ladder price.
func (s *Service) SubmitPaid(ctx context.Context, userID string, target tiers.Tier) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, ErrUnauthorized
	}
	if _, ok := s.ladder.Entry(target); !ok {
		return Result{}, fmt.Errorf("%w: unknown tier %q", ErrValidation, target)
	}

	amount := s.ladder.Price(target)
	return s.submit(ctx, userID, target, enums.UpgradeKindPaid, &amount, msgUpgradeFailed)
}

// ApplyPromo redeems a promo code for its tier. Unknown codes surface as
// a dismissable error notice rather than a silent failure.
func (s *Service) ApplyPromo(ctx context.Context, userID, code string) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, ErrUnauthorized
	}
	if strings.TrimSpace(code) == "" {
		return Result{}, fmt.Errorf("%w: promo code is required", ErrValidation)
	}

	target, ok := s.ladder.PromoTier(code)
	if !ok {
		state := s.recordError(ctx, userID, msgInvalidPromo)
		if state.Phase == PhaseProcessing {
			return Result{State: state}, nil
		}
		return Result{State: state}, ErrInvalidPromoCode
	}

	return s.submit(ctx, userID, target, enums.UpgradeKindPromo, nil, msgPromoFailed)
}

func (s *Service) submit(ctx context.Context, userID string, target tiers.Tier, kind enums.UpgradeKind, amount *float64, fallbackMsg string) (Result, error) {
	s.mu.Lock()
	sess := s.session(userID)
	if sess.state.Phase == PhaseProcessing {
		state := sess.state
		s.mu.Unlock()
		return Result{State: state}, nil
	}
	s.mu.Unlock()

	current, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		state := s.recordError(ctx, userID, fallbackMsg)
		return Result{State: state}, err
	}

	// Re-check under the lock: another submit may have gone in flight
	// while the tier was being resolved.
	s.mu.Lock()
	sess = s.session(userID)
	if sess.state.Phase == PhaseProcessing {
		state := sess.state
		s.mu.Unlock()
		return Result{State: state}, nil
	}
	sess.state.CurrentTier = current
	if target == current {
		state := sess.state
		s.mu.Unlock()
		return Result{State: state}, nil
	}
	if !s.isUpgrade(current, target) {
		state := sess.state
		s.mu.Unlock()
		return Result{State: state}, fmt.Errorf("%w: %s", ErrDowngradeNotAllowed, msgNoDowngrade)
	}

	tx := &model.UpgradeTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		CurrentTier: current,
		TargetTier:  target,
		Kind:        kind,
		Amount:      amount,
		StartedAt:   s.now().UTC(),
	}
	s.cancelTimersLocked(sess)
	sess.state = State{
		Phase:       PhaseProcessing,
		CurrentTier: current,
		Transaction: tx,
	}
	s.mu.Unlock()

	result, submitErr := s.changer.Submit(ctx, tierchange.Input{
		UserID:  userID,
		NewTier: string(target),
		Kind:    kind,
		Amount:  amount,
	})

	if submitErr != nil {
		state := s.finishError(userID, submitErr, fallbackMsg)
		return Result{State: state}, submitErr
	}
	if result.PaymentURL != "" {
		state := s.finishRedirect(userID, current)
		return Result{State: state, PaymentURL: result.PaymentURL}, nil
	}

	state := s.finishSuccess(ctx, userID, target, kind)
	return Result{State: state}, nil
}

// Status reports the user's session state, resolving the tier fresh when
// no workflow is active for them yet.
func (s *Service) Status(ctx context.Context, userID string) (State, error) {
	if strings.TrimSpace(userID) == "" {
		return State{}, ErrUnauthorized
	}

	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if ok {
		state := sess.state
		s.mu.Unlock()
		return state, nil
	}
	s.mu.Unlock()

	tier, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return State{}, err
	}
	return State{Phase: PhaseIdle, CurrentTier: tier}, nil
}

// Dismiss clears any success or error notice immediately.
func (s *Service) Dismiss(userID string) (State, error) {
	if strings.TrimSpace(userID) == "" {
		return State{}, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	if sess.state.Phase == PhaseSuccess || sess.state.Phase == PhaseError {
		s.cancelTimersLocked(sess)
		sess.state = State{Phase: PhaseIdle, CurrentTier: sess.state.CurrentTier}
	}
	return sess.state, nil
}

func (s *Service) finishSuccess(ctx context.Context, userID string, target tiers.Tier, kind enums.UpgradeKind) State {
	if err := s.resolver.Invalidate(ctx, userID); err != nil {
		s.log.Warn("tier invalidate failed after upgrade", zap.String("user_id", userID), zap.Error(err))
	}
	refreshed := target
	if tier, err := s.resolver.Resolve(ctx, userID); err == nil {
		refreshed = tier
	} else {
		s.log.Warn("tier refresh failed after upgrade", zap.String("user_id", userID), zap.Error(err))
	}

	s.mu.Lock()
	sess := s.session(userID)
	s.cancelTimersLocked(sess)
	sess.state = State{
		Phase:          PhaseSuccess,
		CurrentTier:    refreshed,
		SuccessMessage: fmt.Sprintf("Successfully upgraded to %s!", s.ladder.Label(target)),
	}
	sess.successTimer = s.startTimer(s.cfg.SuccessDismiss, func() {
		s.expire(userID, PhaseSuccess)
	})
	state := sess.state
	s.mu.Unlock()

	s.log.Info("upgrade completed",
		zap.String("user_id", userID),
		zap.String("tier", string(target)),
		zap.String("kind", string(kind)))

	if kind == enums.UpgradeKindPaid && s.nav != nil {
		s.nav.NavigateToFeed(userID)
	}

	return state
}

func (s *Service) finishRedirect(userID string, current tiers.Tier) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	sess.state = State{Phase: PhaseIdle, CurrentTier: current}
	return sess.state
}

// finishError is the terminal transition of the submit that owns the
// in-flight transaction, so it may clear Processing.
func (s *Service) finishError(userID string, cause error, fallbackMsg string) State {
	message := identityhttp.ServerDetail(cause)
	if message == "" {
		message = fallbackMsg
	}

	s.log.Warn("upgrade failed",
		zap.String("user_id", userID),
		zap.Error(cause))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setErrorLocked(s.session(userID), userID, message)
}

// recordError raises an error notice outside any in-flight submission.
// While a transaction is Processing it leaves the session untouched, so
// a stray notice can never break the one-in-flight guard.
func (s *Service) recordError(_ context.Context, userID, message string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	if sess.state.Phase == PhaseProcessing {
		return sess.state
	}
	return s.setErrorLocked(sess, userID, message)
}

func (s *Service) setErrorLocked(sess *session, userID, message string) State {
	s.cancelTimersLocked(sess)
	sess.state = State{
		Phase:        PhaseError,
		CurrentTier:  sess.state.CurrentTier,
		ErrorMessage: message,
	}
	sess.errorTimer = s.startTimer(s.cfg.ErrorDismiss, func() {
		s.expire(userID, PhaseError)
	})
	return sess.state
}

// expire is the timer callback: it clears the notice only if the session
// is still in the phase the timer was armed for.
func (s *Service) expire(userID string, phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || sess.state.Phase != phase {
		return
	}
	sess.state = State{Phase: PhaseIdle, CurrentTier: sess.state.CurrentTier}
	sess.successTimer = nil
	sess.errorTimer = nil
}

func (s *Service) session(userID string) *session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{state: State{Phase: PhaseIdle}}
		s.sessions[userID] = sess
	}
	return sess
}

func (s *Service) cancelTimersLocked(sess *session) {
	if sess.successTimer != nil {
		sess.successTimer.Stop()
		sess.successTimer = nil
	}
	if sess.errorTimer != nil {
		sess.errorTimer.Stop()
		sess.errorTimer = nil
	}
}

func (s *Service) isUpgrade(current, target tiers.Tier) bool {
	for _, tier := range s.ladder.Upgradable(current) {
		if tier == target {
			return true
		}
	}
	return false
}
