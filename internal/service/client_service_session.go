// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/amestris-client/internal/adapter"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/store"
	"github.com/MKhiriev/amestris-client/internal/validators"
	"github.com/MKhiriev/amestris-client/models"
)

// State is the lifecycle state of a [Session].
type State int32

const (
	StateUninitialized State = iota
	StateValidating
	StateReadyAnonymous
	StateReadyAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateValidating:
		return "VALIDATING"
	case StateReadyAnonymous:
		return "READY_ANONYMOUS"
	case StateReadyAuthenticated:
		return "READY_AUTHENTICATED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// logoutTimeout bounds the background session revocation.
const logoutTimeout = 10 * time.Second

// Session exposes the authentication state of the client and the operations
// that change it. It is safe for concurrent use.
type Session struct {
	api       AuthAPI
	tokens    SessionTokens
	refresher TokenRefresher
	validator validators.Validator
	logger    *logger.Logger

	initOnce sync.Once
	ready    chan struct{}

	mu    sync.RWMutex
	state State
	user  *models.User

	pending sync.WaitGroup
}

// SessionOption customises a [Session].
type SessionOption func(*Session)

// WithRefresher makes Init refresh a stored access token that is about to
// expire before validating it.
func WithRefresher(r TokenRefresher) SessionOption {
	return func(s *Session) {
		s.refresher = r
	}
}

// NewSession builds an uninitialized Session. Call Init once at startup.
func NewSession(api AuthAPI, tokens SessionTokens, validator validators.Validator, log *logger.Logger, opts ...SessionOption) *Session {
	s := &Session{
		api:       api,
		tokens:    tokens,
		validator: validator,
		logger:    log.GetChildLogger("session"),
		ready:     make(chan struct{}),
		state:     StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init rehydrates the session from the token store. Only the first call has
// any effect.
//
// Without a stored token the session becomes anonymous at once. Otherwise the
// token is validated against the "whoami" endpoint: success authenticates the
// session, failure clears every stored token and leaves it anonymous. Either
// way the session is ready when Init returns.
func (s *Session) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.ready)
		s.rehydrate(ctx)
	})
}

func (s *Session) rehydrate(ctx context.Context) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, store.ErrTokenNotFound) {
			s.logger.Warn().Err(err).Msg("could not read stored token")
		}
		s.transition(StateReadyAnonymous, nil)
		return
	}

	s.transition(StateValidating, nil)

	if s.refresher != nil {
		if token, err = s.refresher.EnsureFresh(ctx); err != nil {
			s.discard(ctx, err)
			return
		}
	}

	user, err := s.api.Me(ctx, token)
	if err != nil {
		s.discard(ctx, err)
		return
	}

	s.logger.Debug().Int64("user_id", user.ID).Msg("session restored")
	s.transition(StateReadyAuthenticated, &user)
}

func (s *Session) discard(ctx context.Context, cause error) {
	s.logger.Debug().Err(cause).Msg("stored session is not valid, clearing it")
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("could not clear stored tokens")
	}
	s.transition(StateReadyAnonymous, nil)
}

// Ready is closed once Init has finished.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the authenticated user; ok is false for an anonymous session.
func (s *Session) User() (user models.User, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// HasRole reports whether the current user holds one of roles.
func (s *Session) HasRole(roles ...models.Role) bool {
	user, ok := s.User()
	return ok && user.HasRole(roles...)
}

// RequireRole fails with [ErrNotAuthenticated] for an anonymous session and
// with [ErrForbiddenRole] when the user holds none of roles.
func (s *Session) RequireRole(roles ...models.Role) error {
	user, ok := s.User()
	if !ok {
		return ErrNotAuthenticated
	}
	if !user.HasRole(roles...) {
		return fmt.Errorf("%w: %s", ErrForbiddenRole, user.Role)
	}
	return nil
}

// Login authenticates with email and password and stores the issued tokens.
// On failure the session state is left unchanged.
func (s *Session) Login(ctx context.Context, email, password string) (models.User, error) {
	creds := models.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Validate(ctx, creds); err != nil {
		return models.User{}, err
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return models.User{}, mapAdapterError(err)
	}

	return s.establish(ctx, resp)
}

// Register creates an account and signs in with it. An empty role registers
// an ALCHEMIST.
func (s *Session) Register(ctx context.Context, name, email, password string, role models.Role) (models.User, error) {
	reg := models.Registration{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     role,
	}
	if err := s.validator.Validate(ctx, reg); err != nil {
		return models.User{}, err
	}
	reg.Role = models.RoleAlchemist
	if parsed, ok := models.ParseRole(string(role)); ok {
		reg.Role = parsed
	}

	resp, err := s.api.Register(ctx, reg)
	if err != nil {
		return models.User{}, mapAdapterError(err)
	}

	return s.establish(ctx, resp)
}

func (s *Session) establish(ctx context.Context, resp models.AuthResponse) (models.User, error) {
	if err := s.storeTokens(ctx, resp); err != nil {
		return models.User{}, err
	}

	user := resp.User
	s.transition(StateReadyAuthenticated, &user)
	s.logger.Debug().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("signed in")

	return user, nil
}

// storeTokens persists the full triplet when the response carries one and the
// bare legacy token otherwise.
func (s *Session) storeTokens(ctx context.Context, resp models.AuthResponse) error {
	if set := resp.TokenSet(); set.Complete() {
		if err := s.tokens.SetAll(ctx, set); err != nil {
			return fmt.Errorf("%w: %w", ErrStoringTokens, err)
		}
		return nil
	}

	token := resp.Token
	if token == "" {
		token = resp.Access
	}
	if token == "" {
		return ErrNoTokenIssued
	}
	if err := s.tokens.Set(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", ErrStoringTokens, err)
	}
	return nil
}

// Logout revokes the current login session on the server in the background
// and clears local state at once. It never fails: the revocation is sent with
// the captured access token as an explicit override, so no refresh can bring
// the session back, and its outcome is only logged. Use Wait to let pending
// revocations finish before exiting.
func (s *Session) Logout(ctx context.Context) {
	set, err := s.tokens.GetAll(ctx)
	if err == nil && set.SessionID != "" {
		s.pending.Add(1)
		go s.revoke(context.WithoutCancel(ctx), set)
	}

	s.teardown(ctx)
}

func (s *Session) revoke(ctx context.Context, set models.TokenSet) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(ctx, logoutTimeout)
	defer cancel()

	if err := s.api.Logout(ctx, set.Access, set.SessionID); err != nil {
		s.logger.Debug().Err(err).Msg("session revocation failed")
	}
}

// Wait blocks until background revocations started by Logout are done.
func (s *Session) Wait() {
	s.pending.Wait()
}

// HandleAuthError tears the session down when err is a terminal
// authorization failure, i.e. a 401 that survived the silent refresh. It
// reports whether it did, so the caller can send the user to sign in again.
//
// Rejected credentials from Login or Register are not such a failure: the
// stored session, if any, stays as it was.
func (s *Session) HandleAuthError(ctx context.Context, err error) bool {
	if !errors.Is(err, adapter.ErrUnauthorized) || errors.Is(err, ErrInvalidCredentials) {
		return false
	}

	s.logger.Info().Err(err).Msg("session is no longer authorized")
	s.teardown(ctx)
	return true
}

func (s *Session) teardown(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("could not clear stored tokens")
	}
	s.transition(StateReadyAnonymous, nil)
}

func (s *Session) transition(state State, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state, s.user = state, user
}
