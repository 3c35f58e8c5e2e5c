package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// exchangeKey collapses login, register, refresh and restore into a single
// in-flight slot: a second concurrent call awaits the first's result instead
// of issuing a duplicate exchange. This is what prevents two concurrent
// refreshes from invalidating each other's freshly rotated token.
const exchangeKey = "exchange"

// SessionSnapshot is the observable session state at a point in time.
type SessionSnapshot struct {
	State SessionState
	User  *User
	Err   error
}

// SessionObserver is notified after every session state change. Observers
// run on the mutating goroutine and should return quickly.
type SessionObserver func(SessionSnapshot)

// SessionControllerOption customizes controller construction.
type SessionControllerOption func(*SessionController)

// WithControllerLogger overrides the default stdout logger.
func WithControllerLogger(logger Logger) SessionControllerOption {
	return func(s *SessionController) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithControllerClock injects a custom clock (useful for tests).
func WithControllerClock(clock func() time.Time) SessionControllerOption {
	return func(s *SessionController) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithControllerActivitySink sets the ActivitySink used to publish session
// lifecycle events.
func WithControllerActivitySink(sink ActivitySink) SessionControllerOption {
	return func(s *SessionController) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// WithRefreshLeeway sets how far ahead of the access token's expiry the
// proactive refresh fires. Zero disables the timer; reactive refresh still
// works.
func WithRefreshLeeway(leeway time.Duration) SessionControllerOption {
	return func(s *SessionController) {
		s.refreshLeeway = leeway
	}
}

// SessionController is the single owner of "who is logged in right now". All
// mutations are serialized: login, register, refresh and restore share one
// single-flight slot, and logout or an unauthorized broadcast pre-empts any
// of them by bumping the session generation.
type SessionController struct {
	client CredentialClient
	tokens TokenStore

	logger        Logger
	activitySink  ActivitySink
	now           func() time.Time
	refreshLeeway time.Duration

	flight singleflight.Group

	mu           sync.Mutex
	state        SessionState
	user         *User
	lastErr      error
	generation   uint64
	refreshTimer *time.Timer

	obsMu     sync.Mutex
	observers map[int]SessionObserver
	obsSeq    int

	unsubscribeBus func()
}

// NewSessionController wires the controller to its collaborators and
// subscribes it to the bus: an unauthorized broadcast from any request tears
// the session down exactly like an explicit logout.
func NewSessionController(client CredentialClient, tokens TokenStore, bus *AuthErrorBus, opts ...SessionControllerOption) *SessionController {
	s := &SessionController{
		client:        client,
		tokens:        tokens,
		logger:        defLogger{},
		activitySink:  noopActivitySink{},
		now:           time.Now,
		refreshLeeway: 30 * time.Second,
		state:         StateAnonymous,
		observers:     map[int]SessionObserver{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if bus != nil {
		s.unsubscribeBus = bus.Subscribe(s.handleUnauthorized)
	}

	return s
}

// Close stops the proactive refresh timer and detaches the controller from
// the bus. The session itself is left as-is.
func (s *SessionController) Close() {
	s.mu.Lock()
	s.stopRefreshTimer()
	s.mu.Unlock()

	if s.unsubscribeBus != nil {
		s.unsubscribeBus()
	}
}

// State returns the current session state.
func (s *SessionController) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns the logged-in user, or nil when no user is visible.
func (s *SessionController) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Snapshot returns the observable session state as one consistent value.
func (s *SessionController) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{State: s.state, User: s.user, Err: s.lastErr}
}

// Subscribe registers an observer and returns its unsubscribe function. The
// observer is immediately called with the current snapshot so late
// subscribers do not miss the session they joined into.
func (s *SessionController) Subscribe(observer SessionObserver) func() {
	if observer == nil {
		return func() {}
	}

	s.obsMu.Lock()
	id := s.obsSeq
	s.obsSeq++
	s.observers[id] = observer
	s.obsMu.Unlock()

	observer(s.Snapshot())

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// Login exchanges credentials for an authenticated session. A concurrent
// exchange already in flight is joined, not duplicated.
func (s *SessionController) Login(ctx context.Context, creds Credentials) (*User, error) {
	snap, err := s.inFlight(ctx, func() (*SessionSnapshot, error) {
		return s.doLogin(ctx, creds)
	})
	if err != nil {
		return nil, err
	}
	return snap.User, nil
}

// Register creates an account and logs it in.
func (s *SessionController) Register(ctx context.Context, profile RegisterProfile) (*User, error) {
	snap, err := s.inFlight(ctx, func() (*SessionSnapshot, error) {
		return s.doRegister(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return snap.User, nil
}

// Refresh rotates the token pair while keeping the user visible. Shares the
// single-flight guard with the proactive timer and with Restore.
func (s *SessionController) Refresh(ctx context.Context) error {
	_, err := s.inFlight(ctx, func() (*SessionSnapshot, error) {
		return s.doRefresh(ctx)
	})
	return err
}

// Restore resumes a persisted session at startup: with a refresh token in
// the durable store it rotates the pair and re-fetches the user. Without one
// it fails fast with ErrNoRefreshToken and the session stays anonymous.
func (s *SessionController) Restore(ctx context.Context) (*User, error) {
	snap, err := s.inFlight(ctx, func() (*SessionSnapshot, error) {
		return s.doRestore(ctx)
	})
	if err != nil {
		return nil, err
	}
	return snap.User, nil
}

// Revalidate re-fetches the current user from the authority, refreshing the
// cached profile. An unauthorized answer reaches the bus through the
// transport, so teardown happens whether or not the caller handles the
// returned error.
func (s *SessionController) Revalidate(ctx context.Context) (*User, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state.Active() {
		s.user = user
	}
	s.mu.Unlock()

	s.notify()
	return user, nil
}

// Logout tears the session down unconditionally: local lockout never
// depends on the remote invalidation call succeeding. Any in-flight
// exchange result is discarded.
func (s *SessionController) Logout(ctx context.Context) {
	access, _ := s.tokens.AccessToken(ctx)

	s.mu.Lock()
	s.generation++
	s.stopRefreshTimer()
	from := s.state
	userID := userIDString(s.user)
	s.state = StateAnonymous
	s.user = nil
	s.lastErr = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("logout failed to clear token store: %v", err)
	}

	s.emit(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    userID,
		FromState: from,
		ToState:   StateAnonymous,
	})
	s.notify()

	// best effort remote invalidation, after local teardown
	if access != "" {
		if err := s.client.Logout(ctx, access); err != nil {
			s.logger.Info("remote logout failed: %v", err)
		}
	}
}

func (s *SessionController) inFlight(ctx context.Context, fn func() (*SessionSnapshot, error)) (*SessionSnapshot, error) {
	v, err, _ := s.flight.Do(exchangeKey, func() (any, error) {
		return fn()
	})
	if v == nil {
		return nil, err
	}
	return v.(*SessionSnapshot), err
}

func (s *SessionController) doLogin(ctx context.Context, creds Credentials) (*SessionSnapshot, error) {
	gen, ok := s.beginExchange()
	if !ok {
		return nil, ErrInvalidTransition
	}

	res, err := s.client.Login(ctx, creds)
	return s.finishAuth(ctx, gen, res, err, ActivityEventLoginSuccess, ActivityEventLoginFailure)
}

func (s *SessionController) doRegister(ctx context.Context, profile RegisterProfile) (*SessionSnapshot, error) {
	gen, ok := s.beginExchange()
	if !ok {
		return nil, ErrInvalidTransition
	}

	res, err := s.client.Register(ctx, profile)
	return s.finishAuth(ctx, gen, res, err, ActivityEventRegisterSuccess, ActivityEventRegisterFailure)
}

func (s *SessionController) doRestore(ctx context.Context) (*SessionSnapshot, error) {
	refresh, err := s.tokens.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	if refresh == "" {
		return nil, ErrNoRefreshToken
	}

	gen, ok := s.beginExchange()
	if !ok {
		return nil, ErrInvalidTransition
	}

	pair, err := s.client.Refresh(ctx)
	if err == nil {
		var user *User
		if user, err = s.client.CurrentUser(ctx); err == nil {
			return s.finishAuth(ctx, gen, &AuthResult{
				User:         user,
				AccessToken:  pair.AccessToken,
				RefreshToken: pair.RefreshToken,
			}, nil, ActivityEventRefreshSuccess, ActivityEventRefreshFailure)
		}
	}

	// restore never parks the session in the error state: a client that
	// cannot resume simply starts anonymous
	s.mu.Lock()
	stale := gen != s.generation
	if !stale {
		s.state = StateAnonymous
		s.user = nil
		s.lastErr = nil
	}
	snap := SessionSnapshot{State: s.state, User: s.user, Err: s.lastErr}
	s.mu.Unlock()

	if !stale && IsSessionFatal(err) {
		if cerr := s.tokens.Clear(ctx); cerr != nil {
			s.logger.Warn("restore failed to clear token store: %v", cerr)
		}
	}

	s.notify()
	return &snap, err
}

func (s *SessionController) doRefresh(ctx context.Context) (*SessionSnapshot, error) {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		snap := SessionSnapshot{State: s.state, User: s.user, Err: s.lastErr}
		s.mu.Unlock()
		return &snap, ErrNoRefreshToken
	}
	s.state = StateRefreshing
	gen := s.generation
	user := s.user
	s.mu.Unlock()
	s.notify()

	pair, err := s.client.Refresh(ctx)

	s.mu.Lock()
	if gen != s.generation {
		// logged out while the refresh was in flight: the result is
		// discarded, and a late rotation must not resurrect the pair the
		// teardown already cleared
		snap := SessionSnapshot{State: s.state, User: s.user, Err: s.lastErr}
		s.mu.Unlock()
		if err == nil {
			if cerr := s.tokens.Clear(ctx); cerr != nil {
				s.logger.Warn("discarded refresh failed to clear token store: %v", cerr)
			}
		}
		return &snap, nil
	}

	if err == nil {
		s.state = StateAuthenticated
		s.lastErr = nil
		s.scheduleRefresh(pair.AccessToken)
		snap := SessionSnapshot{State: s.state, User: s.user, Err: nil}
		s.mu.Unlock()

		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventRefreshSuccess,
			UserID:    userIDString(user),
			FromState: StateRefreshing,
			ToState:   StateAuthenticated,
		})
		s.notify()
		return &snap, nil
	}

	if IsRetryable(err) {
		// transient network failure: session state unchanged, tokens kept
		s.state = StateAuthenticated
		snap := SessionSnapshot{State: s.state, User: s.user, Err: s.lastErr}
		s.mu.Unlock()

		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventRefreshFailure,
			UserID:    userIDString(user),
			FromState: StateRefreshing,
			ToState:   StateAuthenticated,
			Metadata:  map[string]any{"error": err.Error()},
		})
		s.notify()
		return &snap, err
	}

	// fatal: the session is over
	s.stopRefreshTimer()
	s.state = StateAnonymous
	s.user = nil
	s.lastErr = nil
	snap := SessionSnapshot{State: StateAnonymous}
	s.mu.Unlock()

	if cerr := s.tokens.Clear(ctx); cerr != nil {
		s.logger.Warn("refresh teardown failed to clear token store: %v", cerr)
	}

	s.emit(ctx, ActivityEvent{
		EventType: ActivityEventRefreshFailure,
		UserID:    userIDString(user),
		FromState: StateRefreshing,
		ToState:   StateAnonymous,
		Metadata:  map[string]any{"error": err.Error()},
	})
	s.notify()
	return &snap, err
}

// beginExchange moves the session into authenticating and captures the
// generation the exchange belongs to.
func (s *SessionController) beginExchange() (uint64, bool) {
	s.mu.Lock()
	if !CanTransition(s.state, StateAuthenticating) {
		s.mu.Unlock()
		return 0, false
	}
	s.state = StateAuthenticating
	gen := s.generation
	s.mu.Unlock()

	s.notify()
	return gen, true
}

func (s *SessionController) finishAuth(ctx context.Context, gen uint64, res *AuthResult, err error, success, failure ActivityEventType) (*SessionSnapshot, error) {
	s.mu.Lock()
	if gen != s.generation {
		snap := SessionSnapshot{State: s.state, User: s.user, Err: s.lastErr}
		s.mu.Unlock()
		if err == nil {
			// tokens were persisted by the client after the teardown
			// cleared them; honor the teardown
			if cerr := s.tokens.Clear(ctx); cerr != nil {
				s.logger.Warn("discarded exchange failed to clear token store: %v", cerr)
			}
		}
		return &snap, nil
	}

	if err != nil {
		s.state = StateError
		s.user = nil
		s.lastErr = err
		snap := SessionSnapshot{State: StateError, Err: err}
		s.mu.Unlock()

		s.emit(ctx, ActivityEvent{
			EventType: failure,
			FromState: StateAuthenticating,
			ToState:   StateError,
			Metadata:  map[string]any{"error": err.Error()},
		})
		s.notify()
		return &snap, err
	}

	s.state = StateAuthenticated
	s.user = res.User
	s.lastErr = nil
	s.scheduleRefresh(res.AccessToken)
	snap := SessionSnapshot{State: StateAuthenticated, User: res.User}
	s.mu.Unlock()

	s.emit(ctx, ActivityEvent{
		EventType: success,
		UserID:    userIDString(res.User),
		FromState: StateAuthenticating,
		ToState:   StateAuthenticated,
	})
	s.notify()
	return &snap, nil
}

// handleUnauthorized is the bus subscription: a background request somewhere
// discovered the session is dead. Same effect as an explicit logout, minus
// the remote invalidation call.
func (s *SessionController) handleUnauthorized(ctx context.Context, evt UnauthorizedEvent) {
	s.mu.Lock()
	if s.state == StateAnonymous {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.stopRefreshTimer()
	from := s.state
	userID := userIDString(s.user)
	s.state = StateAnonymous
	s.user = nil
	s.lastErr = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("revoked session failed to clear token store: %v", err)
	}

	s.emit(ctx, ActivityEvent{
		EventType: ActivityEventSessionRevoked,
		UserID:    userID,
		FromState: from,
		ToState:   StateAnonymous,
		Metadata: map[string]any{
			"status": evt.StatusCode,
			"path":   evt.Path,
		},
	})
	s.notify()
}

// scheduleRefresh arms the proactive refresh timer from the access token's
// exp claim. The token is otherwise opaque; a token that does not parse as a
// JWT simply never refreshes proactively. Callers hold s.mu.
func (s *SessionController) scheduleRefresh(access string) {
	s.stopRefreshTimer()

	if s.refreshLeeway <= 0 {
		return
	}

	delay, ok := refreshDelay(access, s.refreshLeeway, s.now())
	if !ok {
		return
	}

	s.refreshTimer = time.AfterFunc(delay, func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.logger.Debug("proactive refresh failed: %v", err)
		}
	})
}

// stopRefreshTimer stops the timer if armed. Callers hold s.mu.
func (s *SessionController) stopRefreshTimer() {
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
}

func (s *SessionController) notify() {
	snap := s.Snapshot()

	s.obsMu.Lock()
	observers := make([]SessionObserver, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

func (s *SessionController) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	sink := normalizeActivitySink(s.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func refreshDelay(access string, leeway time.Duration, now time.Time) (time.Duration, bool) {
	if access == "" {
		return 0, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return 0, false
	}
	if claims.ExpiresAt == nil {
		return 0, false
	}

	delay := claims.ExpiresAt.Time.Sub(now) - leeway
	if delay <= 0 {
		return 0, false
	}
	return delay, true
}

func userIDString(user *User) string {
	if user == nil {
		return ""
	}
	return user.ID.String()
}
