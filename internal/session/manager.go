package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/graphql"
	"github.com/hongminglow/backoffice/internal/localstore"
	"github.com/hongminglow/backoffice/internal/logging"
	"github.com/hongminglow/backoffice/internal/models"
)

// Manager is the single source of truth for who is signed in and to which tenant.
//
// Every network round-trip runs outside the lock. Each login or restore attempt takes a new
// generation; its completion is applied only while that generation is still current, so a
// logout issued mid-flight can never be undone by a late response.
type Manager struct {
	backend Backend
	store   TokenStore
	logger  *zap.Logger

	profileRetries    uint64
	retryBackoff      time.Duration
	serverLogout      bool
	invalidateTimeout time.Duration

	mu       sync.Mutex
	state    Session
	gen      uint64
	clearers []Clearer
	subs     map[int]func(Session)
	nextSub  int

	background sync.WaitGroup
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// WithProfileRetry sets how many times a profile fetch is retried after a transient
// connectivity failure, starting at backoff and doubling. Token rejections never retry.
func WithProfileRetry(retries uint64, backoff time.Duration) Option {
	return func(m *Manager) {
		m.profileRetries = retries
		if backoff > 0 {
			m.retryBackoff = backoff
		}
	}
}

// WithServerLogout toggles the best-effort server invalidation on logout.
func WithServerLogout(enabled bool, timeout time.Duration) Option {
	return func(m *Manager) {
		m.serverLogout = enabled
		if timeout > 0 {
			m.invalidateTimeout = timeout
		}
	}
}

// New creates a manager in the anonymous state.
func New(backend Backend, store TokenStore, opts ...Option) *Manager {
	m := &Manager{
		backend:           backend,
		store:             store,
		logger:            zap.NewNop(),
		profileRetries:    2,
		retryBackoff:      200 * time.Millisecond,
		serverLogout:      true,
		invalidateTimeout: 5 * time.Second,
		state:             Session{Status: StatusAnonymous},
		subs:              map[int]func(Session){},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterClearer adds a cache purged whenever the session is destroyed.
func (m *Manager) RegisterClearer(c Clearer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearers = append(m.clearers, c)
}

// Subscribe calls fn after every state change until the returned cancel func is called.
func (m *Manager) Subscribe(fn func(Session)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Snapshot returns a deep copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Credentials returns the bearer token and tenant id of an authenticated session.
func (m *Manager) Credentials() (token, companyID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status != StatusAuthenticated || m.state.User == nil {
		return "", "", false
	}
	return m.state.Token, m.state.User.CompanyID, true
}

// Restore re-establishes a session from the persisted token. It runs once at startup and
// never surfaces backend failures: any failure leaves the session anonymous with the stored
// token removed. A profile whose company differs from the cached tenant id is not restored.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Status != StatusAnonymous {
		m.mu.Unlock()
		return ErrInvalidState
	}
	token, err := m.store.Token(ctx)
	if err != nil || token == "" {
		if err != nil && !isNotFound(err) {
			m.logger.Warn("read persisted session", zap.Error(err))
			m.clearStoreLocked(ctx)
		}
		m.mu.Unlock()
		return nil
	}
	cachedTenant, err := m.store.TenantID(ctx)
	if err != nil && !isNotFound(err) {
		m.logger.Warn("read cached tenant id", zap.Error(err))
	}
	gen := m.beginLocked()
	ch := m.changeLocked(false)
	m.mu.Unlock()
	ch.apply()

	user, err := m.fetchProfile(ctx, token)
	if err != nil {
		m.logger.Info("persisted session not restored", zap.Error(err))
		m.resetIf(ctx, gen)
		return nil
	}
	if cachedTenant != "" && cachedTenant != user.CompanyID {
		m.logger.Error("persisted session tenant differs from profile",
			zap.String("cached_company_id", cachedTenant),
			zap.String("profile_company_id", user.CompanyID),
		)
		m.resetIf(ctx, gen)
		return nil
	}
	if !m.authenticate(ctx, gen, token, user) {
		m.logger.Debug("restore result discarded")
	}
	return nil
}

// Login exchanges credentials for a token, persists it and loads the profile.
//
// Errors: *CredentialError when the backend rejects the credentials, ErrConnection for
// retryable connectivity failures, ErrProfileUnavailable when the profile could not be
// loaded after a successful exchange, ErrSuperseded when a logout intervened.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	if m.state.Status != StatusAnonymous && m.state.Status != StatusError {
		m.mu.Unlock()
		return ErrInvalidState
	}
	gen := m.beginLocked()
	ch := m.changeLocked(false)
	m.mu.Unlock()
	ch.apply()

	token, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return m.failLogin(ctx, gen, err)
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return ErrSuperseded
	}
	if err := m.store.SaveToken(ctx, token); err != nil {
		m.clearStoreLocked(ctx)
		m.state = Session{Status: StatusError, Err: "could not persist session"}
		ch := m.changeLocked(false)
		m.mu.Unlock()
		ch.apply()
		return fmt.Errorf("session: persist token: %w", err)
	}
	m.mu.Unlock()

	user, err := m.fetchProfile(ctx, token)
	if err != nil {
		m.logger.Warn("profile fetch after login failed", zap.Error(err))
		if !m.resetIf(ctx, gen) {
			return ErrSuperseded
		}
		return fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}
	if !m.authenticate(ctx, gen, token, user) {
		return ErrSuperseded
	}
	m.logger.Info("signed in", zap.String("user_id", user.ID), zap.String("company_id", user.CompanyID))
	return nil
}

// Logout destroys the session locally. It never fails; server-side invalidation, when
// enabled, runs in the background and does not delay the local transition.
func (m *Manager) Logout() {
	ctx := context.Background()
	m.mu.Lock()
	m.gen++
	token := m.state.Token
	if token == "" {
		token, _ = m.store.Token(ctx)
	}
	m.clearStoreLocked(ctx)
	m.state = Session{Status: StatusAnonymous}
	ch := m.changeLocked(true)
	m.mu.Unlock()
	ch.apply()

	if token != "" && m.serverLogout {
		m.invalidate(token)
	}
}

// Refresh re-fetches the profile of an authenticated session, picking up plan changes.
// A rejected token ends the session; a transient failure keeps it and is returned. A plan
// change purges the registered caches.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Status != StatusAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	gen := m.gen
	token := m.state.Token
	companyID := m.state.User.CompanyID
	m.mu.Unlock()

	user, err := m.fetchProfile(ctx, token)
	if err != nil {
		if errors.Is(err, graphql.ErrUnauthenticated) || errors.Is(err, graphql.ErrMalformed) {
			if !m.resetIf(ctx, gen) {
				return ErrSuperseded
			}
			return fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
		}
		return err
	}
	if user.CompanyID != companyID {
		m.logger.Error("profile tenant changed during session",
			zap.String("session_company_id", companyID),
			zap.String("profile_company_id", user.CompanyID),
		)
		if !m.resetIf(ctx, gen) {
			return ErrSuperseded
		}
		return ErrTenantChanged
	}

	m.mu.Lock()
	if gen != m.gen || m.state.Status != StatusAuthenticated {
		m.mu.Unlock()
		return ErrSuperseded
	}
	planChanged := !m.state.User.Plan.Equal(user.Plan)
	m.state.User = &user
	ch := m.changeLocked(planChanged)
	m.mu.Unlock()
	ch.apply()
	return nil
}

// Reject ends the session when the backend has refused token and token is still the
// current credential. Reports about older tokens are ignored.
func (m *Manager) Reject(token string) {
	ctx := context.Background()
	m.mu.Lock()
	if m.state.Status != StatusAuthenticated || token == "" || m.state.Token != token {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.clearStoreLocked(ctx)
	m.state = Session{Status: StatusAnonymous}
	ch := m.changeLocked(true)
	m.mu.Unlock()
	m.logger.Info("session token rejected by backend")
	ch.apply()
}

// Wait blocks until background server invalidations have finished.
func (m *Manager) Wait() {
	m.background.Wait()
}

func (m *Manager) failLogin(ctx context.Context, gen uint64, err error) error {
	var (
		message string
		result  error
		opErr   *graphql.OperationError
	)
	switch {
	case errors.Is(err, graphql.ErrTransport):
		message = MessageConnection
		result = fmt.Errorf("%w: %w", ErrConnection, err)
	case errors.As(err, &opErr):
		credErr := &CredentialError{Messages: opErr.Messages}
		message = credErr.Error()
		result = credErr
	default:
		message = "unexpected response from server"
		result = err
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.clearStoreLocked(ctx)
	m.state = Session{Status: StatusError, Err: message}
	ch := m.changeLocked(false)
	m.mu.Unlock()
	ch.apply()
	m.logger.Info("login failed", zap.Error(err))
	return result
}

func (m *Manager) authenticate(ctx context.Context, gen uint64, token string, user models.User) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	if err := m.store.SaveTenantID(ctx, user.CompanyID); err != nil {
		m.logger.Warn("cache tenant id", zap.Error(err))
	}
	m.state = Session{Status: StatusAuthenticated, User: &user, Token: token}
	ch := m.changeLocked(false)
	m.mu.Unlock()
	ch.apply()
	return true
}

// resetIf returns to anonymous and drops the persisted token if gen is still current.
func (m *Manager) resetIf(ctx context.Context, gen uint64) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	m.gen++
	m.clearStoreLocked(ctx)
	m.state = Session{Status: StatusAnonymous}
	ch := m.changeLocked(true)
	m.mu.Unlock()
	ch.apply()
	return true
}

func (m *Manager) fetchProfile(ctx context.Context, token string) (models.User, error) {
	var user models.User
	backoff := retry.WithMaxRetries(m.profileRetries, retry.NewExponential(m.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, err := m.backend.Profile(ctx, token)
		if err != nil {
			if errors.Is(err, graphql.ErrTransport) {
				m.logger.Debug("profile fetch transient failure", zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	if user.ID == "" || user.CompanyID == "" {
		return models.User{}, fmt.Errorf("%w: profile without identity or tenant", graphql.ErrMalformed)
	}
	return user, nil
}

func (m *Manager) invalidate(token string) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.invalidateTimeout)
		defer cancel()
		if err := m.backend.Invalidate(ctx, token); err != nil {
			m.logger.Debug("server logout failed", zap.Error(err))
		}
	}()
}

func isNotFound(err error) bool {
	return errors.Is(err, localstore.ErrNotFound)
}

func (m *Manager) beginLocked() uint64 {
	m.gen++
	m.state = Session{Status: StatusAuthenticating}
	return m.gen
}

func (m *Manager) clearStoreLocked(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("clear persisted session", zap.Error(err))
	}
}

func (m *Manager) snapshotLocked() Session {
	out := m.state
	if m.state.User != nil {
		u := m.state.User.Clone()
		out.User = &u
	}
	return out
}

type change struct {
	snapshot Session
	subs     []func(Session)
	purge    []Clearer
}

func (m *Manager) changeLocked(purge bool) change {
	ch := change{snapshot: m.snapshotLocked()}
	for _, fn := range m.subs {
		ch.subs = append(ch.subs, fn)
	}
	if purge {
		ch.purge = append(ch.purge, m.clearers...)
	}
	return ch
}

func (c change) apply() {
	for _, cl := range c.purge {
		cl.Clear()
	}
	for _, fn := range c.subs {
		fn(c.snapshot)
	}
}
