package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"
	"financebot-be/pkg/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func appErr(t *testing.T, err error) *apperror.AppError {
	t.Helper()
	var ae *apperror.AppError
	require.True(t, errors.As(err, &ae), "expected *AppError, got %v", err)
	return ae
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	user := json.RawMessage(`{"id":"u-1","email":"ana@example.com","role":"authenticated"}`)
	session := json.RawMessage(`{"access_token":"tok","user":{"id":"u-1"}}`)

	t.Run("relays provider objects verbatim", func(t *testing.T) {
		provider := new(mockIdentityProvider)
		provider.On("SignIn", mock.Anything, "ana@example.com", "secret").
			Return(&identity.AuthResult{User: user, Session: session, UserID: "u-1", Email: "ana@example.com"}, nil)
		pub := &recordingPublisher{}

		svc := NewAuthService(provider, pub, logger.NewNopLogger())
		res, err := svc.Login(ctx, &dto.LoginRequest{Email: " ana@example.com ", Password: "secret"})

		require.NoError(t, err)
		assert.Equal(t, constant.MsgLoginSuccess, res.Message)
		assert.JSONEq(t, string(user), string(res.User))
		assert.JSONEq(t, string(session), string(res.Session))
		require.Len(t, pub.published(), 1)
		assert.Equal(t, constant.EventUserLogin, pub.published()[0].EventType())
		provider.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		provider := new(mockIdentityProvider)
		svc := NewAuthService(provider, nil, logger.NewNopLogger())

		for _, req := range []dto.LoginRequest{{Email: "a@b.c"}, {Password: "x"}, {Email: "  ", Password: "x"}} {
			_, err := svc.Login(ctx, &req)
			ae := appErr(t, err)
			assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
			assert.Equal(t, constant.MsgCredentialsRequired, ae.Message)
		}
		provider.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider rejection is 401 with its message", func(t *testing.T) {
		provider := new(mockIdentityProvider)
		provider.On("SignIn", mock.Anything, "ana@example.com", "bad").
			Return(nil, &identity.ProviderError{StatusCode: 400, Message: "Invalid login credentials"})

		_, err := NewAuthService(provider, nil, logger.NewNopLogger()).Login(ctx, &dto.LoginRequest{Email: "ana@example.com", Password: "bad"})
		ae := appErr(t, err)
		assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
		assert.Equal(t, "Invalid login credentials", ae.Message)
	})

	t.Run("transport failure is a generic 500", func(t *testing.T) {
		provider := new(mockIdentityProvider)
		provider.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))

		_, err := NewAuthService(provider, nil, logger.NewNopLogger()).Login(ctx, &dto.LoginRequest{Email: "a@b.c", Password: "x"})
		ae := appErr(t, err)
		assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
		assert.Equal(t, constant.MsgInternalError, ae.Message)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success publishes USER_REGISTERED", func(t *testing.T) {
		provider := new(mockIdentityProvider)
		provider.On("SignUp", mock.Anything, identity.Credentials{Email: "ana@example.com", Password: "secret", Name: "Ana"}).
			Return(&identity.AuthResult{User: json.RawMessage(`{"id":"u-1"}`), Session: identity.NullJSON, UserID: "u-1", Email: "ana@example.com"}, nil)
		pub := &recordingPublisher{}

		res, err := NewAuthService(provider, pub, logger.NewNopLogger()).Register(ctx, &dto.RegisterRequest{Email: "ana@example.com", Password: "secret", Name: "Ana"})
		require.NoError(t, err)
		assert.Equal(t, constant.MsgRegisterSuccess, res.Message)
		assert.Equal(t, "null", string(res.Session))

		evts := pub.published()
		require.Len(t, evts, 1)
		assert.Equal(t, constant.EventUserRegistered, evts[0].EventType())
		assert.Equal(t, "ana@example.com", evts[0].Payload()["email"])
		assert.Equal(t, "Ana", evts[0].Payload()["name"])
	})

	t.Run("provider rejection is 400 with its message", func(t *testing.T) {
		provider := new(mockIdentityProvider)
		provider.On("SignUp", mock.Anything, mock.Anything).
			Return(nil, &identity.ProviderError{StatusCode: 422, Message: "User already registered"})

		_, err := NewAuthService(provider, nil, logger.NewNopLogger()).Register(ctx, &dto.RegisterRequest{Email: "a@b.c", Password: "x"})
		ae := appErr(t, err)
		assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
		assert.Equal(t, "User already registered", ae.Message)
	})

	t.Run("publish failure does not fail registration", func(t *testing.T) {
		provider := new(mockIdentityProvider)
		provider.On("SignUp", mock.Anything, mock.Anything).
			Return(&identity.AuthResult{User: json.RawMessage(`{}`), Session: identity.NullJSON}, nil)

		_, err := NewAuthService(provider, &recordingPublisher{err: errors.New("nats down")}, logger.NewNopLogger()).
			Register(ctx, &dto.RegisterRequest{Email: "a@b.c", Password: "x"})
		assert.NoError(t, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	provider := new(mockIdentityProvider)
	svc := NewAuthService(provider, nil, logger.NewNopLogger())
	assert.NoError(t, svc.Logout(ctx, ""))
	provider.AssertNotCalled(t, "SignOut", mock.Anything, mock.Anything)

	provider.On("SignOut", mock.Anything, "tok").Return(nil).Once()
	assert.NoError(t, svc.Logout(ctx, "tok"))

	provider.On("SignOut", mock.Anything, "broken").Return(&identity.ProviderError{StatusCode: 500, Message: "session store unavailable"})
	ae := appErr(t, svc.Logout(ctx, "broken"))
	assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
	assert.Equal(t, "session store unavailable", ae.Message)
}
