// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/amestris-client/internal/adapter"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/mock"
	"github.com/MKhiriev/amestris-client/internal/store"
	"github.com/MKhiriev/amestris-client/internal/validators"
	"github.com/MKhiriev/amestris-client/models"
)

// newTestSession builds a Session over mocks.
func newTestSession(t *testing.T, opts ...SessionOption) (*Session, *mock.MockAuthAPI, *mock.MockSessionTokens) {
	t.Helper()
	ctrl := gomock.NewController(t)

	api := mock.NewMockAuthAPI(ctrl)
	tokens := mock.NewMockSessionTokens(ctrl)

	return NewSession(api, tokens, validators.NewFormValidator(), logger.Nop(), opts...), api, tokens
}

var roy = models.User{ID: 1, Name: "Roy Mustang", Email: "roy@amestris.gov", Role: models.RoleSupervisor}

func httpErr(status int, msg string) error {
	return &adapter.HTTPError{StatusCode: status, Message: msg}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// ── Init ─────────────────────────────────────────────────────────────────────

func TestSession_Init_NoToken(t *testing.T) {
	s, _, tokens := newTestSession(t)
	ctx := context.Background()

	assert.Equal(t, StateUninitialized, s.State())
	assert.False(t, isClosed(s.Ready()))

	tokens.EXPECT().AccessToken(ctx).Return("", store.ErrTokenNotFound)

	s.Init(ctx)

	assert.Equal(t, StateReadyAnonymous, s.State())
	assert.True(t, isClosed(s.Ready()))
	_, ok := s.User()
	assert.False(t, ok)
}

func TestSession_Init_ValidToken(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	gomock.InOrder(
		tokens.EXPECT().AccessToken(ctx).Return("a1", nil),
		api.EXPECT().Me(ctx, "a1").Return(roy, nil),
	)

	s.Init(ctx)

	assert.Equal(t, StateReadyAuthenticated, s.State())
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, roy, user)
}

func TestSession_Init_InvalidTokenClearsStore(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	gomock.InOrder(
		tokens.EXPECT().AccessToken(ctx).Return("stale", nil),
		api.EXPECT().Me(ctx, "stale").Return(models.User{}, httpErr(http.StatusUnauthorized, "token inválido")),
		tokens.EXPECT().Clear(ctx).Return(nil),
	)

	s.Init(ctx)

	assert.Equal(t, StateReadyAnonymous, s.State())
	assert.True(t, isClosed(s.Ready()))
	_, ok := s.User()
	assert.False(t, ok)
}

func TestSession_Init_NetworkFailureStillReady(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	tokens.EXPECT().AccessToken(ctx).Return("a1", nil)
	api.EXPECT().Me(ctx, "a1").Return(models.User{}, adapter.ErrNetwork)
	tokens.EXPECT().Clear(ctx).Return(errors.New("disk full"))

	s.Init(ctx)

	assert.Equal(t, StateReadyAnonymous, s.State())
	assert.True(t, isClosed(s.Ready()))
}

func TestSession_Init_RunsOnce(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	tokens.EXPECT().AccessToken(ctx).Return("a1", nil).Times(1)
	api.EXPECT().Me(ctx, "a1").Return(roy, nil).Times(1)

	s.Init(ctx)
	s.Init(ctx)

	assert.Equal(t, StateReadyAuthenticated, s.State())
}

func TestSession_Init_WithRefresher(t *testing.T) {
	ctrl := gomock.NewController(t)
	refresher := mock.NewMockTokenRefresher(ctrl)
	s, api, tokens := newTestSession(t, WithRefresher(refresher))
	ctx := context.Background()

	gomock.InOrder(
		tokens.EXPECT().AccessToken(ctx).Return("old", nil),
		refresher.EXPECT().EnsureFresh(ctx).Return("fresh", nil),
		api.EXPECT().Me(ctx, "fresh").Return(roy, nil),
	)

	s.Init(ctx)
	assert.Equal(t, StateReadyAuthenticated, s.State())
}

func TestSession_Init_RefresherFailureClearsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	refresher := mock.NewMockTokenRefresher(ctrl)
	s, _, tokens := newTestSession(t, WithRefresher(refresher))
	ctx := context.Background()

	tokens.EXPECT().AccessToken(ctx).Return("expired", nil)
	refresher.EXPECT().EnsureFresh(ctx).Return("", adapter.ErrRefreshFailed)
	tokens.EXPECT().Clear(ctx).Return(nil)

	s.Init(ctx)
	assert.Equal(t, StateReadyAnonymous, s.State())
}

// ── Login ────────────────────────────────────────────────────────────────────

func TestSession_Login_StoresTriplet(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	creds := models.Credentials{Email: "roy@amestris.gov", Password: "roy123"}
	gomock.InOrder(
		api.EXPECT().Login(ctx, creds).Return(models.AuthResponse{
			Token: "a1", Access: "a1", Refresh: "r1", SessionID: "s1",
			User: models.User{ID: 1, Name: "Roy Mustang", Role: models.RoleSupervisor},
		}, nil),
		tokens.EXPECT().SetAll(ctx, models.TokenSet{Access: "a1", Refresh: "r1", SessionID: "s1"}).Return(nil),
	)

	user, err := s.Login(ctx, " roy@amestris.gov ", "roy123")
	require.NoError(t, err)

	want := models.User{ID: 1, Name: "Roy Mustang", Role: models.RoleSupervisor}
	assert.Equal(t, want, user)
	current, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, want, current)
	assert.Equal(t, StateReadyAuthenticated, s.State())
}

func TestSession_Login_LegacyToken(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{Token: "abc", User: roy}, nil)
	tokens.EXPECT().Set(ctx, "abc").Return(nil)

	_, err := s.Login(ctx, "roy@amestris.gov", "roy123")
	require.NoError(t, err)
	assert.Equal(t, StateReadyAuthenticated, s.State())
}

func TestSession_Login_PartialTripletFallsBackToAccess(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{Access: "a1", Refresh: "r1", User: roy}, nil)
	tokens.EXPECT().Set(ctx, "a1").Return(nil)

	_, err := s.Login(ctx, "roy@amestris.gov", "roy123")
	require.NoError(t, err)
}

func TestSession_Login_NoTokenIssued(t *testing.T) {
	s, api, _ := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{User: roy}, nil)

	_, err := s.Login(ctx, "roy@amestris.gov", "roy123")
	assert.ErrorIs(t, err, ErrNoTokenIssued)
	assert.Equal(t, StateUninitialized, s.State())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestSession_Login_StoreFailure(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{Access: "a1", Refresh: "r1", SessionID: "s1", User: roy}, nil)
	tokens.EXPECT().SetAll(ctx, gomock.Any()).Return(errors.New("database is locked"))

	_, err := s.Login(ctx, "roy@amestris.gov", "roy123")
	assert.ErrorIs(t, err, ErrStoringTokens)
	_, ok := s.User()
	assert.False(t, ok)
}

func TestSession_Login_InvalidCredentials(t *testing.T) {
	s, api, _ := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{}, httpErr(http.StatusUnauthorized, "credenciales inválidas"))

	_, err := s.Login(ctx, "roy@amestris.gov", "wrong1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, adapter.ErrUnauthorized)
	assert.Contains(t, err.Error(), "credenciales inválidas")
}

func TestSession_Login_ValidationBeforeNetwork(t *testing.T) {
	s, _, _ := newTestSession(t)

	_, err := s.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, validators.ErrValidation)
	assert.Equal(t, map[string]string{
		validators.FieldEmail:    validators.ErrEmptyEmail.Error(),
		validators.FieldPassword: validators.ErrEmptyPassword.Error(),
	}, validators.Fields(err))
}

func TestSession_Login_TransportErrorsPassThrough(t *testing.T) {
	for _, cause := range []error{adapter.ErrTimeout, adapter.ErrNetwork} {
		t.Run(cause.Error(), func(t *testing.T) {
			s, api, _ := newTestSession(t)
			ctx := context.Background()

			api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{}, cause)

			_, err := s.Login(ctx, "roy@amestris.gov", "roy123")
			assert.ErrorIs(t, err, cause)
			assert.NotErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

// ── Register ─────────────────────────────────────────────────────────────────

func TestSession_Register_Conflict(t *testing.T) {
	s, api, _ := newTestSession(t)
	ctx := context.Background()

	// no SetAll/Set expectations: storing anything fails the test
	api.EXPECT().Register(ctx, gomock.Any()).Return(models.AuthResponse{}, httpErr(http.StatusConflict, "email ya registrado"))

	_, err := s.Register(ctx, "Ed", "ed@amestris.gov", "ed1234", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	assert.ErrorIs(t, err, adapter.ErrConflict)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "email ya registrado")
	assert.Equal(t, StateUninitialized, s.State())
}

func TestSession_Register_ServerValidation(t *testing.T) {
	s, api, _ := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Register(ctx, gomock.Any()).Return(models.AuthResponse{}, httpErr(http.StatusUnprocessableEntity, "validación"))

	_, err := s.Register(ctx, "Al", "al@amestris.gov", "armor1", models.RoleAlchemist)
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
	assert.ErrorIs(t, err, adapter.ErrValidation)
}

func TestSession_Register_Roles(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		want models.Role
	}{
		{name: "empty defaults to alchemist", role: "", want: models.RoleAlchemist},
		{name: "lowercase supervisor", role: "supervisor", want: models.RoleSupervisor},
		{name: "alchemist", role: models.RoleAlchemist, want: models.RoleAlchemist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, api, tokens := newTestSession(t)
			ctx := context.Background()

			api.EXPECT().Register(ctx, gomock.Any()).DoAndReturn(
				func(_ context.Context, reg models.Registration) (models.AuthResponse, error) {
					assert.Equal(t, tt.want, reg.Role)
					assert.Equal(t, "Alphonse", reg.Name)
					return models.AuthResponse{
						Access: "a1", Refresh: "r1", SessionID: "s1",
						User: models.User{ID: 3, Name: reg.Name, Email: reg.Email, Role: reg.Role},
					}, nil
				},
			)
			tokens.EXPECT().SetAll(ctx, gomock.Any()).Return(nil)

			user, err := s.Register(ctx, " Alphonse ", "al@amestris.gov", "armor1", tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.want, user.Role)
			assert.Equal(t, StateReadyAuthenticated, s.State())
		})
	}
}

func TestSession_Register_InvalidRole(t *testing.T) {
	s, _, _ := newTestSession(t)

	_, err := s.Register(context.Background(), "Al", "al@amestris.gov", "armor1", "HOMUNCULUS")
	assert.ErrorIs(t, err, validators.ErrInvalidRole)
}

// ── Logout ───────────────────────────────────────────────────────────────────

func TestSession_Logout_RevokesInBackground(t *testing.T) {
	s, api, tokens := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tokens.EXPECT().GetAll(ctx).Return(models.TokenSet{Access: "a1", Refresh: "r1", SessionID: "s1"}, nil)
	tokens.EXPECT().Clear(ctx).Return(nil)
	api.EXPECT().Logout(gomock.Any(), "a1", "s1").DoAndReturn(
		func(ctx context.Context, _, _ string) error {
			assert.NoError(t, ctx.Err(), "revocation outlives the caller's context")
			return nil
		},
	)

	s.Logout(ctx)
	s.Wait()

	assert.Equal(t, StateReadyAnonymous, s.State())
}

func TestSession_Logout_SwallowsErrors(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	tokens.EXPECT().GetAll(ctx).Return(models.TokenSet{Access: "a1", Refresh: "r1", SessionID: "s1"}, nil)
	tokens.EXPECT().Clear(ctx).Return(errors.New("disk full"))
	api.EXPECT().Logout(gomock.Any(), "a1", "s1").Return(adapter.ErrNetwork)

	s.Logout(ctx)
	s.Wait()

	assert.Equal(t, StateReadyAnonymous, s.State())
}

func TestSession_Logout_WithoutSessionIDSkipsServer(t *testing.T) {
	s, _, tokens := newTestSession(t)
	ctx := context.Background()

	tokens.EXPECT().GetAll(ctx).Return(models.TokenSet{Access: "legacy"}, nil)
	tokens.EXPECT().Clear(ctx).Return(nil)

	s.Logout(ctx)
	s.Wait()

	assert.Equal(t, StateReadyAnonymous, s.State())
}

func TestSession_Logout_AfterLogin(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{Access: "a1", Refresh: "r1", SessionID: "s1", User: roy}, nil)
	tokens.EXPECT().SetAll(ctx, gomock.Any()).Return(nil)
	tokens.EXPECT().GetAll(ctx).Return(models.TokenSet{Access: "a1", Refresh: "r1", SessionID: "s1"}, nil)
	tokens.EXPECT().Clear(ctx).Return(nil)
	api.EXPECT().Logout(gomock.Any(), "a1", "s1").Return(nil)

	_, err := s.Login(ctx, roy.Email, "roy123")
	require.NoError(t, err)
	require.True(t, s.HasRole(models.RoleSupervisor))

	s.Logout(ctx)
	s.Wait()

	assert.Equal(t, StateReadyAnonymous, s.State())
	assert.False(t, s.HasRole(models.RoleSupervisor))
}

// ── HandleAuthError / roles ──────────────────────────────────────────────────

func TestSession_HandleAuthError(t *testing.T) {
	t.Run("terminal 401 tears down", func(t *testing.T) {
		s, _, tokens := newTestSession(t)
		ctx := context.Background()
		tokens.EXPECT().Clear(ctx).Return(nil)

		handled := s.HandleAuthError(ctx, httpErr(http.StatusUnauthorized, "token inválido"))

		assert.True(t, handled)
		assert.Equal(t, StateReadyAnonymous, s.State())
	})

	for _, err := range []error{nil, adapter.ErrNetwork, httpErr(http.StatusForbidden, "prohibido")} {
		s, _, _ := newTestSession(t)
		assert.False(t, s.HandleAuthError(context.Background(), err))
	}
}

func TestSession_FailedLoginKeepsSession(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{Token: "t", User: roy}, nil)
	tokens.EXPECT().Set(ctx, "t").Return(nil)
	_, err := s.Login(ctx, "roy@amestris.gov", "roy123")
	require.NoError(t, err)

	// no Clear expected: the mock fails the test if the store is wiped
	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{}, httpErr(http.StatusUnauthorized, "credenciales inválidas"))
	_, err = s.Login(ctx, "roy@amestris.gov", "wrong123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.False(t, s.HandleAuthError(ctx, err))
	assert.Equal(t, StateReadyAuthenticated, s.State())
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, roy, user)
}

func TestSession_RequireRole(t *testing.T) {
	s, api, tokens := newTestSession(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.RequireRole(models.RoleAlchemist), ErrNotAuthenticated)

	ed := models.User{ID: 2, Name: "Edward Elric", Role: models.RoleAlchemist}
	api.EXPECT().Login(ctx, gomock.Any()).Return(models.AuthResponse{Token: "t", User: ed}, nil)
	tokens.EXPECT().Set(ctx, "t").Return(nil)
	_, err := s.Login(ctx, "ed@amestris.gov", "ed1234")
	require.NoError(t, err)

	assert.NoError(t, s.RequireRole(models.RoleAlchemist))
	assert.NoError(t, s.RequireRole(models.RoleSupervisor, models.RoleAlchemist))
	assert.ErrorIs(t, s.RequireRole(models.RoleSupervisor), ErrForbiddenRole)
	assert.False(t, s.HasRole(models.RoleSupervisor))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "UNINITIALIZED", StateUninitialized.String())
	assert.Equal(t, "VALIDATING", StateValidating.String())
	assert.Equal(t, "READY_ANONYMOUS", StateReadyAnonymous.String())
	assert.Equal(t, "READY_AUTHENTICATED", StateReadyAuthenticated.String())
	assert.Equal(t, "State(9)", State(9).String())
}
