// Package session holds who the client believes is signed in.
//
// A Session is built once per visitor from a TokenStore, resolves the
// current user at startup and is the credential hook of the API client it
// hands out: every request made through Session.API carries the token the
// store holds at that moment.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/types"
)

// ErrNoToken is returned by Login when the server issued no token.
var ErrNoToken = apiclient.ErrNoToken

// Session is the explicit session context passed to every screen.
type Session struct {
	store  TokenStore
	api    *apiclient.Client
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	user    *types.User
	loading bool
}

// New binds a session to store and to a copy of base that resolves its
// bearer token through the session. The session stays in the loading state
// until Init runs.
func New(store TokenStore, base *apiclient.Client, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		store:   store,
		logger:  logger,
		now:     time.Now,
		loading: true,
	}
	s.api = base.WithTokenSource(s)
	return s
}

// Open is New followed by Init.
func Open(ctx context.Context, store TokenStore, base *apiclient.Client, logger *slog.Logger) *Session {
	s := New(store, base, logger)
	s.Init(ctx)
	return s
}

// Init resolves the current user from a persisted token. It never fails:
// any problem leaves the session signed out.
func (s *Session) Init(ctx context.Context) {
	defer s.setLoading(false)

	token := s.store.Token()
	if token == "" {
		return
	}

	if expired(token, s.now()) {
		s.logger.Info("discarding expired token")
		s.clearToken()
		return
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Warn("failed to load user", "error", err)
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.clearToken()
		}
		return
	}
	s.setUser(&user)
}

// Login exchanges credentials for a token, persists it and loads the user.
// On failure the session is left signed out and the error is returned as is.
func (s *Session) Login(ctx context.Context, username, password string) error {
	token, err := s.api.IssueToken(ctx, username, password)
	if err != nil {
		s.reset()
		return err
	}

	if err := s.store.SetToken(token.AccessToken); err != nil {
		s.reset()
		return fmt.Errorf("persist token: %w", err)
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.reset()
		return err
	}
	s.setUser(&user)

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return nil
}

// Logout forgets the token and the user. Nothing is sent to the server.
func (s *Session) Logout() {
	s.reset()
}

// Token implements apiclient.TokenSource by reading the store on every call.
func (s *Session) Token() string {
	return s.store.Token()
}

// API returns the client whose requests carry this session's token.
func (s *Session) API() *apiclient.Client {
	return s.api
}

// User returns the signed-in user, or false when signed out.
func (s *Session) User() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	_, ok := s.User()
	return ok
}

// IsAdmin reports whether the signed-in user is an admin.
func (s *Session) IsAdmin() bool {
	u, ok := s.User()
	return ok && u.IsAdmin()
}

// Loading reports whether startup resolution is still running.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) reset() {
	s.clearToken()
	s.setUser(nil)
}

func (s *Session) clearToken() {
	if err := s.store.ClearToken(); err != nil {
		s.logger.Warn("failed to clear token", "error", err)
	}
}

func (s *Session) setUser(u *types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// expired peeks at the exp claim without verifying the signature; the
// client has no key and the server stays the authority. Tokens that are not
// JWTs, or carry no exp, are treated as live.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
