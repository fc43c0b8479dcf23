package upgrade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/enums"
	"github.com/gautamankoji/evenscape-event-showcase/internal/domain/tiers"
	"github.com/gautamankoji/evenscape-event-showcase/internal/repo/identityhttp"
	"github.com/gautamankoji/evenscape-event-showcase/internal/services/tierchange"
)

type stubResolver struct {
	tiers       map[string]tiers.Tier
	err         error
	invalidated int
}

func (s *stubResolver) Resolve(_ context.Context, userID string) (tiers.Tier, error) {
	if s.err != nil {
		return "", s.err
	}
	if tier, ok := s.tiers[userID]; ok {
		return tier, nil
	}
	return tiers.TierFree, nil
}

func (s *stubResolver) Invalidate(_ context.Context, _ string) error {
	s.invalidated++
	return nil
}

type stubChanger struct {
	fn    func(in tierchange.Input) (tierchange.Result, error)
	block chan struct{}

	mu  sync.Mutex
	got []tierchange.Input
}

func (s *stubChanger) Submit(_ context.Context, in tierchange.Input) (tierchange.Result, error) {
	s.mu.Lock()
	s.got = append(s.got, in)
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.fn != nil {
		return s.fn(in)
	}
	return tierchange.Result{Success: true, Tier: tiers.Tier(in.NewTier), UserID: in.UserID}, nil
}

func (s *stubChanger) calls() []tierchange.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tierchange.Input, len(s.got))
	copy(out, s.got)
	return out
}

type stubNavigator struct {
	navigated []string
}

func (s *stubNavigator) NavigateToFeed(userID string) {
	s.navigated = append(s.navigated, userID)
}

type fakeTimer struct {
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

type scheduled struct {
	d     time.Duration
	fn    func()
	timer *fakeTimer
}

// fakeClock captures timers so tests can fire or inspect them directly.
type fakeClock struct {
	timers []*scheduled
}

func (c *fakeClock) start(d time.Duration, fn func()) timerHandle {
	entry := &scheduled{d: d, fn: fn, timer: &fakeTimer{}}
	c.timers = append(c.timers, entry)
	return entry.timer
}

func (c *fakeClock) fire(i int) {
	entry := c.timers[i]
	if !entry.timer.stopped {
		entry.fn()
	}
}

func newTestService(t *testing.T, changer TierChanger, resolver Resolver) (*Service, *fakeClock) {
	t.Helper()

	service, err := NewService(tiers.Default(), changer, resolver, Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	clock := &fakeClock{}
	service.startTimer = clock.start
	return service, clock
}

func TestApplyPromoUpgradesAndNotifies(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	changer := &stubChanger{fn: func(in tierchange.Input) (tierchange.Result, error) {
		resolver.tiers["user_1"] = tiers.Tier(in.NewTier)
		return tierchange.Result{Success: true, Tier: tiers.Tier(in.NewTier), UserID: in.UserID}, nil
	}}
	service, clock := newTestService(t, changer, resolver)

	result, err := service.ApplyPromo(context.Background(), "user_1", "gold2025")
	if err != nil {
		t.Fatalf("apply promo: %v", err)
	}

	if result.State.Phase != PhaseSuccess {
		t.Fatalf("unexpected phase: %q", result.State.Phase)
	}
	if result.State.SuccessMessage != "Successfully upgraded to Gold!" {
		t.Fatalf("unexpected message: %q", result.State.SuccessMessage)
	}
	if result.State.CurrentTier != tiers.TierGold {
		t.Fatalf("tier must be refreshed, got %q", result.State.CurrentTier)
	}
	if resolver.invalidated != 1 {
		t.Fatalf("cache must be invalidated once, got %d", resolver.invalidated)
	}
	if len(changer.calls()) != 1 || changer.calls()[0].Kind != enums.UpgradeKindPromo || changer.calls()[0].Amount != nil {
		t.Fatalf("unexpected change input: %+v", changer.calls())
	}
	if len(clock.timers) != 1 || clock.timers[0].d != 5*time.Second {
		t.Fatalf("success notice must dismiss after 5s, timers=%+v", clock.timers)
	}
}

func TestApplyPromoInvalidCode(t *testing.T) {
	resolver := &stubResolver{}
	changer := &stubChanger{}
	service, clock := newTestService(t, changer, resolver)

	result, err := service.ApplyPromo(context.Background(), "user_1", "FAKE123")
	if !errors.Is(err, ErrInvalidPromoCode) {
		t.Fatalf("expected ErrInvalidPromoCode, got %v", err)
	}

	if result.State.Phase != PhaseError || result.State.ErrorMessage != "Invalid promo code" {
		t.Fatalf("unexpected state: %+v", result.State)
	}
	if len(changer.calls()) != 0 {
		t.Fatalf("invalid code must not reach the changer")
	}
	if len(clock.timers) != 1 || clock.timers[0].d != 10*time.Second {
		t.Fatalf("error notice must dismiss after 10s, timers=%+v", clock.timers)
	}

	clock.fire(0)
	state, err := service.Status(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Phase != PhaseIdle || state.ErrorMessage != "" {
		t.Fatalf("error notice must auto-dismiss, got %+v", state)
	}
}

func TestSubmitPaidPassesLadderPriceAndNavigates(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierSilver}}
	changer := &stubChanger{}
	nav := &stubNavigator{}
	service, _ := newTestService(t, changer, resolver)
	service.AttachNavigator(nav)

	result, err := service.SubmitPaid(context.Background(), "user_1", tiers.TierGold)
	if err != nil {
		t.Fatalf("submit paid: %v", err)
	}

	if result.State.Phase != PhaseSuccess {
		t.Fatalf("unexpected phase: %q", result.State.Phase)
	}
	in := changer.calls()[0]
	if in.Kind != enums.UpgradeKindPaid || in.Amount == nil || *in.Amount != 59.99 {
		t.Fatalf("unexpected change input: %+v", in)
	}
	if len(nav.navigated) != 1 || nav.navigated[0] != "user_1" {
		t.Fatalf("paid success must navigate to feed, got %v", nav.navigated)
	}
}

func TestSubmitPaidRedirectSkipsSuccess(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	changer := &stubChanger{fn: func(tierchange.Input) (tierchange.Result, error) {
		return tierchange.Result{PaymentURL: "https://pay.example.com/cs_1"}, nil
	}}
	nav := &stubNavigator{}
	service, clock := newTestService(t, changer, resolver)
	service.AttachNavigator(nav)

	result, err := service.SubmitPaid(context.Background(), "user_1", tiers.TierGold)
	if err != nil {
		t.Fatalf("submit paid: %v", err)
	}

	if result.PaymentURL != "https://pay.example.com/cs_1" {
		t.Fatalf("payment url must surface, got %q", result.PaymentURL)
	}
	if result.State.Phase != PhaseIdle || result.State.SuccessMessage != "" {
		t.Fatalf("redirect must not report success: %+v", result.State)
	}
	if len(nav.navigated) != 0 {
		t.Fatalf("redirect must not navigate")
	}
	if resolver.invalidated != 0 {
		t.Fatalf("redirect must not invalidate the cache")
	}
	if len(clock.timers) != 0 {
		t.Fatalf("redirect must not arm timers")
	}
}

func TestSubmitSameTierIsNoOp(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierGold}}
	changer := &stubChanger{}
	service, _ := newTestService(t, changer, resolver)

	result, err := service.SubmitPaid(context.Background(), "user_1", tiers.TierGold)
	if err != nil {
		t.Fatalf("submit paid: %v", err)
	}
	if result.State.Phase != PhaseIdle || len(changer.calls()) != 0 {
		t.Fatalf("same-tier submit must be a no-op: %+v", result.State)
	}
}

func TestSubmitDowngradeIsRejected(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierPlatinum}}
	changer := &stubChanger{}
	service, _ := newTestService(t, changer, resolver)

	if _, err := service.SubmitPaid(context.Background(), "user_1", tiers.TierSilver); !errors.Is(err, ErrDowngradeNotAllowed) {
		t.Fatalf("expected ErrDowngradeNotAllowed, got %v", err)
	}
	if len(changer.calls()) != 0 {
		t.Fatalf("downgrade must not reach the changer")
	}
}

func TestSubmitWhileProcessingIsNoOp(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	changer := &stubChanger{block: make(chan struct{})}
	service, _ := newTestService(t, changer, resolver)

	firstDone := make(chan Result, 1)
	go func() {
		result, _ := service.SubmitPaid(context.Background(), "user_1", tiers.TierGold)
		firstDone <- result
	}()

	deadline := time.After(2 * time.Second)
	for {
		state, err := service.Status(context.Background(), "user_1")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if state.Phase == PhaseProcessing {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("first submission never reached processing")
		case <-time.After(time.Millisecond):
		}
	}

	second, err := service.SubmitPaid(context.Background(), "user_1", tiers.TierPlatinum)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.State.Phase != PhaseProcessing {
		t.Fatalf("concurrent submit must observe processing, got %q", second.State.Phase)
	}
	if len(changer.calls()) != 1 {
		t.Fatalf("only the first submission may reach the changer, got %d", len(changer.calls()))
	}

	close(changer.block)
	first := <-firstDone
	if first.State.Phase != PhaseSuccess {
		t.Fatalf("first submission must complete, got %q", first.State.Phase)
	}
}

func TestInvalidPromoWhileProcessingKeepsGuard(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	changer := &stubChanger{block: make(chan struct{})}
	service, clock := newTestService(t, changer, resolver)

	firstDone := make(chan Result, 1)
	go func() {
		result, _ := service.SubmitPaid(context.Background(), "user_1", tiers.TierGold)
		firstDone <- result
	}()

	deadline := time.After(2 * time.Second)
	for {
		state, err := service.Status(context.Background(), "user_1")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if state.Phase == PhaseProcessing {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("first submission never reached processing")
		case <-time.After(time.Millisecond):
		}
	}

	promo, err := service.ApplyPromo(context.Background(), "user_1", "FAKE123")
	if err != nil {
		t.Fatalf("invalid promo during processing must be a no-op, got %v", err)
	}
	if promo.State.Phase != PhaseProcessing {
		t.Fatalf("error notice must not clobber processing, got %q", promo.State.Phase)
	}
	if len(clock.timers) != 0 {
		t.Fatalf("no-op promo must not arm timers")
	}

	third, err := service.SubmitPaid(context.Background(), "user_1", tiers.TierPlatinum)
	if err != nil {
		t.Fatalf("third submit: %v", err)
	}
	if third.State.Phase != PhaseProcessing {
		t.Fatalf("guard must still hold, got %q", third.State.Phase)
	}
	if len(changer.calls()) != 1 {
		t.Fatalf("only one transaction may be in flight, got %d", len(changer.calls()))
	}

	close(changer.block)
	first := <-firstDone
	if first.State.Phase != PhaseSuccess {
		t.Fatalf("in-flight submission must still complete, got %q", first.State.Phase)
	}
}

func TestSubmitErrorUsesServerDetail(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	changer := &stubChanger{fn: func(tierchange.Input) (tierchange.Result, error) {
		return tierchange.Result{}, &identityhttp.RequestError{
			Op:         "update tier",
			StatusCode: 422,
			Detail:     "user is suspended",
		}
	}}
	service, clock := newTestService(t, changer, resolver)

	result, err := service.SubmitPaid(context.Background(), "user_1", tiers.TierGold)
	if err == nil {
		t.Fatalf("expected error")
	}
	if result.State.Phase != PhaseError || result.State.ErrorMessage != "user is suspended" {
		t.Fatalf("server detail must win: %+v", result.State)
	}
	if len(clock.timers) != 1 || clock.timers[0].d != 10*time.Second {
		t.Fatalf("error notice must dismiss after 10s")
	}
}

func TestSubmitErrorFallbackMessages(t *testing.T) {
	opaque := errors.New("connection reset")

	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	changer := &stubChanger{fn: func(tierchange.Input) (tierchange.Result, error) {
		return tierchange.Result{}, opaque
	}}
	service, _ := newTestService(t, changer, resolver)

	paid, _ := service.SubmitPaid(context.Background(), "user_1", tiers.TierGold)
	if paid.State.ErrorMessage != "Failed to upgrade tier" {
		t.Fatalf("unexpected paid fallback: %q", paid.State.ErrorMessage)
	}

	promo, _ := service.ApplyPromo(context.Background(), "user_1", "GOLD2025")
	if promo.State.ErrorMessage != "Failed to apply promo code" {
		t.Fatalf("unexpected promo fallback: %q", promo.State.ErrorMessage)
	}
}

func TestNewTerminalCancelsPendingTimer(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	changer := &stubChanger{}
	service, clock := newTestService(t, changer, resolver)

	if _, err := service.ApplyPromo(context.Background(), "user_1", "SILVER2025"); err != nil {
		t.Fatalf("first promo: %v", err)
	}
	resolver.tiers["user_1"] = tiers.TierSilver

	if _, err := service.ApplyPromo(context.Background(), "user_1", "GOLD2025"); err != nil {
		t.Fatalf("second promo: %v", err)
	}

	if !clock.timers[0].timer.stopped {
		t.Fatalf("first success timer must be cancelled")
	}

	// Firing the stale timer must not clobber the fresh notice.
	clock.fire(0)
	state, err := service.Status(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Phase != PhaseSuccess {
		t.Fatalf("fresh notice must survive, got %+v", state)
	}
}

func TestDismissClearsNotice(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierFree}}
	service, clock := newTestService(t, &stubChanger{}, resolver)

	if _, err := service.ApplyPromo(context.Background(), "user_1", "GOLD2025"); err != nil {
		t.Fatalf("apply promo: %v", err)
	}

	state, err := service.Dismiss("user_1")
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if state.Phase != PhaseIdle || state.SuccessMessage != "" {
		t.Fatalf("dismiss must reset to idle: %+v", state)
	}
	if !clock.timers[0].timer.stopped {
		t.Fatalf("dismiss must cancel the pending timer")
	}
}

func TestStatusResolvesTierWithoutSession(t *testing.T) {
	resolver := &stubResolver{tiers: map[string]tiers.Tier{"user_1": tiers.TierSilver}}
	service, _ := newTestService(t, &stubChanger{}, resolver)

	state, err := service.Status(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Phase != PhaseIdle || state.CurrentTier != tiers.TierSilver {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestEmptyUserIDIsUnauthorized(t *testing.T) {
	service, _ := newTestService(t, &stubChanger{}, &stubResolver{})

	if _, err := service.SubmitPaid(context.Background(), "", tiers.TierGold); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := service.ApplyPromo(context.Background(), " ", "GOLD2025"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := service.Status(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
