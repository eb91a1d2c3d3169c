// Package session implements the launch-time bootstrap state machine.
//
// A Bootstrap owns one State value and is the only thing that mutates
// it. Run drives the chain of API calls that decides which of the five
// phases to present; user actions (AcceptRules, RegisterProfile,
// DismissSuccess, Logout) drive the remaining transitions. Every API
// failure inside the chain is absorbed and the chain falls through to
// its next step; the only user-visible error is a failed registration.
//
// Commits are guarded by an epoch counter: Logout bumps the epoch, so a
// bootstrap run still in flight when the user logs out discards its
// results instead of resurrecting a dead session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/budgetminibot/appcore/internal/api"
	"github.com/budgetminibot/appcore/internal/models"
	"github.com/budgetminibot/appcore/internal/storage"
)

// ErrNameRequired is returned by RegisterProfile when the form is
// incomplete. The request is never sent in that case.
var ErrNameRequired = errors.New("first and last name are required")

const (
	defaultReadyTimeout = 3 * time.Second
	defaultSuccessDelay = 2 * time.Second
)

// API is the slice of the backend the bootstrap drives. *api.Client
// satisfies it.
type API interface {
	AuthTelegram(ctx context.Context, initData string) (string, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserProfile, string, error)
	Me(ctx context.Context, groupID int64) (*models.UserProfile, error)
	GroupRules(ctx context.Context, groupID int64) (*models.GroupRules, error)
	AcceptRules(ctx context.Context, groupID int64) error
	JoinGroup(ctx context.Context, groupID int64) error
	SetToken(token string)
	ClearToken()
}

// Launch carries the Telegram launch context into Run.
type Launch struct {
	// InitData is the opaque signed payload from Telegram, forwarded
	// verbatim to the token exchange. Empty when launched outside
	// Telegram.
	InitData string

	// GroupID is the deep-link target group, 0 when none.
	GroupID int64

	// Ready is closed when the host reports the launch context ready.
	// Nil means "already ready". Run proceeds anyway after a timeout.
	Ready <-chan struct{}
}

// Bootstrap decides which phase to present and performs the side
// effects needed to advance between phases.
type Bootstrap struct {
	api    API
	tokens storage.TokenStore
	logger *slog.Logger

	readyTimeout time.Duration
	successDelay time.Duration

	mu       sync.Mutex
	epoch    uint64
	state    State
	initData string
	subs     []func(State)
}

// Option configures a Bootstrap.
type Option func(*Bootstrap)

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bootstrap) { b.logger = logger }
}

// WithReadyTimeout overrides how long Run waits for the launch context
// before proceeding anyway.
func WithReadyTimeout(d time.Duration) Option {
	return func(b *Bootstrap) { b.readyTimeout = d }
}

// WithSuccessDelay overrides how long the Success phase is shown before
// auto-advancing to Ready.
func WithSuccessDelay(d time.Duration) Option {
	return func(b *Bootstrap) { b.successDelay = d }
}

// New creates a Bootstrap in the Loading phase.
func New(apiClient API, tokens storage.TokenStore, opts ...Option) *Bootstrap {
	b := &Bootstrap{
		api:          apiClient,
		tokens:       tokens,
		logger:       slog.Default(),
		readyTimeout: defaultReadyTimeout,
		successDelay: defaultSuccessDelay,
		state:        State{Phase: PhaseLoading},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current session snapshot.
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Subscribe registers fn to be called after every committed transition.
// It is the single subscription point for the UI layer.
func (b *Bootstrap) Subscribe(fn func(State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// commit applies mutate to the state if epoch is still current and
// notifies subscribers. It returns the (possibly unchanged) state and
// whether the commit was applied.
func (b *Bootstrap) commit(epoch uint64, mutate func(*State)) (State, bool) {
	b.mu.Lock()
	if epoch != b.epoch {
		st := b.state
		b.mu.Unlock()
		return st, false
	}
	mutate(&b.state)
	st := b.state
	subs := slices.Clone(b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
	return st, true
}

// Run drives the bootstrap chain to its first stable phase. The calls
// within one run are strictly sequential; later steps branch on earlier
// results. Run never returns an error: per the failure policy, every
// step absorbs its failure and falls through, ultimately landing in
// NeedsProfile when nothing else worked.
func (b *Bootstrap) Run(ctx context.Context, launch Launch) State {
	b.mu.Lock()
	epoch := b.epoch
	b.initData = launch.InitData
	b.mu.Unlock()

	st, ok := b.commit(epoch, func(s *State) {
		*s = State{Phase: PhaseLoading, GroupID: launch.GroupID}
	})
	if !ok {
		return st
	}

	b.awaitReady(ctx, launch.Ready)

	// Telegram-native path: exchange init data for a token.
	if launch.InitData != "" {
		token, err := b.api.AuthTelegram(ctx, launch.InitData)
		if err == nil {
			b.installToken(ctx, epoch, token)
			profile, err := b.api.Me(ctx, launch.GroupID)
			if err == nil {
				return b.routeProfile(ctx, epoch, token, profile, launch.GroupID)
			}
			// Token is fresh, so a stored-token retry would repeat the
			// same call; treat this as the not-yet-registered entry.
			b.logger.Warn("profile fetch after auth failed", "error", err)
			st, _ := b.commit(epoch, func(s *State) { s.Phase = PhaseNeedsProfile; s.Token = token })
			return st
		}
		b.logger.Warn("telegram auth failed", "error", err)
	}

	// Fallback: a previously persisted token.
	stored, err := b.tokens.Load(ctx)
	if err != nil {
		b.logger.Warn("loading stored token failed", "error", err)
	}
	if stored != "" {
		if tokenExpired(stored) {
			b.logger.Debug("stored token expired, discarding")
			b.discardToken(ctx)
		} else {
			b.api.SetToken(stored)
			profile, err := b.api.Me(ctx, launch.GroupID)
			if err == nil {
				return b.routeProfile(ctx, epoch, stored, profile, launch.GroupID)
			}
			b.logger.Warn("stored token rejected", "error", err)
			b.discardToken(ctx)
		}
	}

	// Neither path succeeded: registration entry point.
	st, _ = b.commit(epoch, func(s *State) { s.Phase = PhaseNeedsProfile })
	return st
}

// routeProfile branches on a freshly fetched profile: incomplete
// profiles go to NeedsProfile, members with pending rules go to
// NeedsRules, everyone else lands in Ready.
func (b *Bootstrap) routeProfile(ctx context.Context, epoch uint64, token string, profile *models.UserProfile, groupID int64) State {
	if !profile.ProfileComplete() {
		st, _ := b.commit(epoch, func(s *State) {
			s.Phase = PhaseNeedsProfile
			s.User = profile
			s.Token = token
		})
		return st
	}

	// Deep-linked into a group the user is not in yet: join, then
	// branch on the refreshed profile.
	if groupID != 0 && profile.IsRegisteredInGroup != nil && !*profile.IsRegisteredInGroup {
		if err := b.api.JoinGroup(ctx, groupID); err != nil {
			b.logger.Debug("group join failed", "group_id", groupID, "error", err)
		} else if refreshed, err := b.api.Me(ctx, groupID); err == nil {
			profile = refreshed
		} else {
			b.logger.Debug("profile refresh after join failed", "error", err)
		}
	}

	registered := profile.IsRegisteredInGroup
	switch {
	case registered != nil && *registered && profile.IncludeInExpenses:
		// Fully set up: skip the rules check entirely.
	case (registered != nil && !*registered) || (profile.RulesAccepted != nil && !*profile.RulesAccepted):
		if groupID != 0 {
			rules, err := b.api.GroupRules(ctx, groupID)
			if err != nil {
				b.logger.Debug("rules query failed", "group_id", groupID, "error", err)
			} else if rules.Configured() {
				st, _ := b.commit(epoch, func(s *State) {
					s.Phase = PhaseNeedsRules
					s.User = profile
					s.Token = token
				})
				return st
			}
		}
	}
	// Ambiguous registration state falls through to Ready as well.
	return b.enterReady(ctx, epoch, token, profile, groupID)
}

// enterReady commits the Ready phase, first attempting the idempotent
// join of the deep-link target group.
func (b *Bootstrap) enterReady(ctx context.Context, epoch uint64, token string, profile *models.UserProfile, groupID int64) State {
	if groupID != 0 {
		if err := b.api.JoinGroup(ctx, groupID); err != nil {
			b.logger.Debug("group join on ready failed", "group_id", groupID, "error", err)
		}
	}
	st, _ := b.commit(epoch, func(s *State) {
		s.Phase = PhaseReady
		s.User = profile
		s.Token = token
		s.Err = ""
	})
	return st
}

// AcceptRules records the user's acceptance and moves on to Ready. A
// server rejection of the acceptance call is absorbed like every other
// intermediate failure. Declining is simply not calling this.
func (b *Bootstrap) AcceptRules(ctx context.Context) State {
	b.mu.Lock()
	epoch, st := b.epoch, b.state
	b.mu.Unlock()

	if st.Phase != PhaseNeedsRules {
		return st
	}
	if err := b.api.AcceptRules(ctx, st.GroupID); err != nil {
		b.logger.Warn("rules acceptance failed", "group_id", st.GroupID, "error", err)
	}

	// Unlike the Ready entry from the profile route, acceptance only
	// joins when the user is not a member yet.
	member := st.User != nil && st.User.IsRegisteredInGroup != nil && *st.User.IsRegisteredInGroup
	if st.GroupID != 0 && !member {
		if err := b.api.JoinGroup(ctx, st.GroupID); err != nil {
			b.logger.Debug("group join after acceptance failed", "group_id", st.GroupID, "error", err)
		}
	}

	cur, _ := b.commit(epoch, func(s *State) {
		s.Phase = PhaseReady
		s.Err = ""
	})
	return cur
}

// RegisterProfile submits the registration form. On success the session
// enters the transient Success phase and auto-advances to Ready after
// the configured delay. On failure the session stays in NeedsProfile
// with the server's message as the visible error; the user resubmits,
// there is no automatic retry.
func (b *Bootstrap) RegisterProfile(ctx context.Context, firstName, lastName, phone string) (State, error) {
	b.mu.Lock()
	epoch, st, initData := b.epoch, b.state, b.initData
	b.mu.Unlock()

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		cur, _ := b.commit(epoch, func(s *State) { s.Err = ErrNameRequired.Error() })
		return cur, ErrNameRequired
	}

	profile, token, err := b.api.Register(ctx, models.RegisterRequest{
		FirstName: firstName,
		LastName:  lastName,
		Phone:     strings.TrimSpace(phone),
		GroupID:   st.GroupID,
		InitData:  initData,
	})
	if err != nil {
		b.logger.Warn("registration failed", "error", err)
		cur, _ := b.commit(epoch, func(s *State) {
			s.Phase = PhaseNeedsProfile
			s.Err = registrationMessage(err)
		})
		return cur, err
	}

	b.installToken(ctx, epoch, token)
	if st.GroupID != 0 {
		if err := b.api.JoinGroup(ctx, st.GroupID); err != nil {
			b.logger.Debug("group join after registration failed", "group_id", st.GroupID, "error", err)
		}
	}

	cur, ok := b.commit(epoch, func(s *State) {
		s.Phase = PhaseSuccess
		s.User = profile
		s.Token = token
		s.Err = ""
	})
	if ok {
		time.AfterFunc(b.successDelay, func() { b.advanceFromSuccess(epoch) })
	}
	return cur, nil
}

// DismissSuccess lets the user skip the Success feedback screen.
func (b *Bootstrap) DismissSuccess() State {
	b.mu.Lock()
	epoch := b.epoch
	b.mu.Unlock()

	st, _ := b.commit(epoch, func(s *State) {
		if s.Phase == PhaseSuccess {
			s.Phase = PhaseReady
		}
	})
	return st
}

// Logout discards the session: the persisted token is cleared, the
// state resets to Loading, and the epoch is bumped so any bootstrap run
// still in flight discards its results.
func (b *Bootstrap) Logout(ctx context.Context) State {
	b.mu.Lock()
	b.epoch++
	b.state = State{Phase: PhaseLoading}
	st := b.state
	subs := slices.Clone(b.subs)
	b.mu.Unlock()

	b.api.ClearToken()
	if err := b.tokens.Clear(ctx); err != nil {
		b.logger.Warn("clearing stored token failed", "error", err)
	}
	for _, fn := range subs {
		fn(st)
	}
	return st
}

func (b *Bootstrap) advanceFromSuccess(epoch uint64) {
	b.commit(epoch, func(s *State) {
		if s.Phase == PhaseSuccess {
			s.Phase = PhaseReady
		}
	})
}

// awaitReady blocks until the launch context reports ready, with a
// timeout fallback so a silent host cannot hang the bootstrap.
func (b *Bootstrap) awaitReady(ctx context.Context, ready <-chan struct{}) {
	if ready == nil {
		return
	}
	timer := time.NewTimer(b.readyTimeout)
	defer timer.Stop()
	select {
	case <-ready:
	case <-timer.C:
		b.logger.Debug("launch context not ready in time, proceeding")
	case <-ctx.Done():
	}
}

// installToken makes the token active for API calls and persists it.
// The epoch check keeps a stale run from resurrecting a token after
// logout. A persistence failure only costs the next launch a re-auth.
func (b *Bootstrap) installToken(ctx context.Context, epoch uint64, token string) {
	b.mu.Lock()
	current := epoch == b.epoch
	b.mu.Unlock()
	if !current {
		return
	}
	b.api.SetToken(token)
	if err := b.tokens.Save(ctx, token); err != nil {
		b.logger.Warn("persisting session token failed", "error", err)
	}
}

func (b *Bootstrap) discardToken(ctx context.Context) {
	b.api.ClearToken()
	if err := b.tokens.Clear(ctx); err != nil {
		b.logger.Warn("clearing stored token failed", "error", err)
	}
}

// registrationMessage extracts the server's message for the one failure
// that is surfaced to the user.
func registrationMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "registration failed, please try again"
}
