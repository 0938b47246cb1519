package session

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/metrics"
)

const (
	CookieName = "menosense_session"

	keySessionId    = "sid"
	keyIdToken      = "idToken"
	keyRefreshToken = "refreshToken"
	keyExpiresAt    = "expiresAt"
	keyOAuthState   = "oauthState"
	keyOAuthFlow    = "oauthFlow"

	requestContextKey = "menosense.session"
	stateContextKey   = "menosense.session.state"
)

func init() {
	gob.Register(Notice{})
}

// State is what pages and API handlers know about the signed in user. Loading is only
// observed by subscribers while a sign in is being resolved.
type State struct {
	User    *identity.User `json:"user"`
	Loading bool           `json:"loading"`
}

func (s State) IsAuthenticated() bool {
	return s.User != nil
}

type Manager struct {
	store    sessions.Store
	provider identity.Provider
	hub      *Hub
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewManager(store sessions.Store, provider identity.Provider, hub *Hub, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		store:    store,
		provider: provider,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

// requestSession is the cookie session of the current request. It's written back once,
// right before the response headers are sent, and only when it was modified.
type requestSession struct {
	session *sessions.Session
	dirty   bool
}

// Middleware resolves the session state of every request that isn't skipped
func (m *Manager) Middleware(skipper middleware.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			rs := m.requestSession(c)
			c.Response().Before(func() {
				if !rs.dirty {
					return
				}
				if err := rs.session.Save(c.Request(), c.Response()); err != nil {
					m.logger.Errorw("unable to save session", zap.Error(err))
				}
			})

			c.Set(stateContextKey, m.resolve(c, rs))
			return next(c)
		}
	}
}

func (m *Manager) resolve(c echo.Context, rs *requestSession) State {
	idToken, _ := rs.session.Values[keyIdToken].(string)
	if idToken == "" {
		return State{}
	}

	ctx := c.Request().Context()
	expiresAt := tokenExpiry(idToken, rs.expiresAt())
	if !expiresAt.After(m.now()) {
		refreshToken, _ := rs.session.Values[keyRefreshToken].(string)
		refreshed, err := m.provider.Refresh(ctx, refreshToken)
		if err != nil {
			m.logger.Infow("unable to refresh expired session", zap.Error(err))
			m.clear(rs)
			return State{}
		}
		rs.setTokens(refreshed)
		idToken = refreshed.IdToken
	}

	user, err := m.provider.Lookup(ctx, idToken)
	if err != nil {
		m.logger.Infow("unable to lookup session user", zap.Error(err))
		m.clear(rs)
		return State{}
	}
	if user.Disabled {
		m.clear(rs)
		return State{}
	}

	return State{User: user}
}

// FromContext returns the state resolved by the middleware
func FromContext(c echo.Context) State {
	if state, ok := c.Get(stateContextKey).(State); ok {
		return state
	}
	return State{}
}

// IdToken returns the ID token of the signed in user
func (m *Manager) IdToken(c echo.Context) string {
	idToken, _ := m.requestSession(c).session.Values[keyIdToken].(string)
	return idToken
}

// Key identifies the browser session. It's stable across sign in and sign out.
func (m *Manager) Key(c echo.Context) string {
	return m.requestSession(c).key()
}

func (m *Manager) Subscribe(c echo.Context) *Subscription {
	metrics.SessionSubscribed()
	return m.hub.Subscribe(m.Key(c))
}

func (m *Manager) Unsubscribe(s *Subscription) {
	s.Unsubscribe()
	metrics.SessionUnsubscribed()
}

// Loading announces to subscribers that a sign in is in flight
func (m *Manager) Loading(c echo.Context) {
	state := FromContext(c)
	state.Loading = true
	m.hub.Publish(m.Key(c), state)
}

// Loaded announces that the sign in in flight failed and the state is unchanged
func (m *Manager) Loaded(c echo.Context) {
	m.hub.Publish(m.Key(c), FromContext(c))
}

func (m *Manager) SignIn(c echo.Context, session *identity.Session) State {
	rs := m.requestSession(c)
	rs.setTokens(session)

	user := session.User
	state := State{User: &user}
	m.publish(c, rs, state)
	return state
}

// SetUser replaces the user of the current state, typically after a profile update
func (m *Manager) SetUser(c echo.Context, user identity.User) State {
	state := State{User: &user}
	m.publish(c, m.requestSession(c), state)
	return state
}

func (m *Manager) SignOut(c echo.Context) {
	rs := m.requestSession(c)
	m.clear(rs)
	m.publish(c, rs, State{})
}

func (m *Manager) publish(c echo.Context, rs *requestSession, state State) {
	c.Set(stateContextKey, state)
	m.hub.Publish(rs.key(), state)
}

func (m *Manager) clear(rs *requestSession) {
	for _, key := range []string{keyIdToken, keyRefreshToken, keyExpiresAt, keyOAuthState, keyOAuthFlow} {
		delete(rs.session.Values, key)
	}
	rs.dirty = true
}

// BeginFederated stores a new OAuth state for flow and returns it. A later attempt
// supersedes the pending one.
func (m *Manager) BeginFederated(c echo.Context, flow string) string {
	rs := m.requestSession(c)
	state := uuid.NewString()
	rs.session.Values[keyOAuthState] = state
	rs.session.Values[keyOAuthFlow] = flow
	rs.dirty = true
	return state
}

// CompleteFederated consumes the pending OAuth state. It reports false when state isn't the
// pending one.
func (m *Manager) CompleteFederated(c echo.Context, state string) (string, bool) {
	rs := m.requestSession(c)
	pending, _ := rs.session.Values[keyOAuthState].(string)
	flow, _ := rs.session.Values[keyOAuthFlow].(string)
	if pending == "" || pending != state {
		return flow, false
	}

	delete(rs.session.Values, keyOAuthState)
	delete(rs.session.Values, keyOAuthFlow)
	rs.dirty = true
	return flow, true
}

func (m *Manager) requestSession(c echo.Context) *requestSession {
	if rs, ok := c.Get(requestContextKey).(*requestSession); ok {
		return rs
	}

	// Invalid or tampered cookies yield a new session
	session, err := m.store.Get(c.Request(), CookieName)
	if err != nil {
		m.logger.Debugw("discarding invalid session cookie", zap.Error(err))
	}
	if session == nil {
		session = sessions.NewSession(m.store, CookieName)
	}

	rs := &requestSession{session: session}
	if _, ok := session.Values[keySessionId].(string); !ok {
		session.Values[keySessionId] = uuid.NewString()
		rs.dirty = true
	}

	c.Set(requestContextKey, rs)
	return rs
}

func (r *requestSession) key() string {
	key, _ := r.session.Values[keySessionId].(string)
	return key
}

func (r *requestSession) expiresAt() time.Time {
	if expiresAt, ok := r.session.Values[keyExpiresAt].(int64); ok {
		return time.Unix(expiresAt, 0)
	}
	return time.Time{}
}

func (r *requestSession) setTokens(session *identity.Session) {
	r.session.Values[keyIdToken] = session.IdToken
	if session.RefreshToken != "" {
		r.session.Values[keyRefreshToken] = session.RefreshToken
	}
	r.session.Values[keyExpiresAt] = session.ExpiresAt.Unix()
	r.dirty = true
}

// tokenExpiry reads the exp claim of a JWT ID token without verifying it. The provider
// verifies the token on lookup.
func tokenExpiry(idToken string, fallback time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return fallback
}

// CookieFrom returns the session cookie set by resp, if any
func CookieFrom(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == CookieName {
			return cookie
		}
	}
	return nil
}
