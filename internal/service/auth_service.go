package service

import (
	"context"
	"errors"
	"strings"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/validation"
	"financebot-be/pkg/events"
	"financebot-be/pkg/identity"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

type authService struct {
	provider       identity.Provider
	eventPublisher events.Publisher
	logger         logger.ILogger
}

// NewAuthService wires the gateway to an identity provider. eventPublisher may be nil.
func NewAuthService(provider identity.Provider, eventPublisher events.Publisher, log logger.ILogger) IAuthService {
	return &authService{
		provider:       provider,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, apperror.Validation(constant.MsgCredentialsRequired)
	}

	res, err := s.provider.SignUp(ctx, identity.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		var providerErr *identity.ProviderError
		if errors.As(err, &providerErr) {
			s.logger.Info("AuthService", "Registration rejected", map[string]interface{}{"email": req.Email, "reason": providerErr.Message})
			return nil, apperror.Validation(providerErr.Message)
		}
		return nil, apperror.Internal(err)
	}

	s.publish(ctx, constant.EventUserRegistered, map[string]interface{}{
		"user_id": res.UserID,
		"email":   res.Email,
		"name":    req.Name,
	})

	return &dto.AuthResponse{
		Message: constant.MsgRegisterSuccess,
		User:    res.User,
		Session: res.Session,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, apperror.Validation(constant.MsgCredentialsRequired)
	}

	res, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		var providerErr *identity.ProviderError
		if errors.As(err, &providerErr) {
			return nil, apperror.Authentication(providerErr.Message)
		}
		return nil, apperror.Internal(err)
	}

	s.publish(ctx, constant.EventUserLogin, map[string]interface{}{
		"user_id": res.UserID,
		"email":   res.Email,
	})

	return &dto.AuthResponse{
		Message: constant.MsgLoginSuccess,
		User:    res.User,
		Session: res.Session,
	}, nil
}

// Logout is best-effort: without a token there is nothing to invalidate.
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return apperror.Upstream(err)
	}
	return nil
}

func (s *authService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("AuthService", "Failed to publish event", map[string]interface{}{"event": eventType, "error": err.Error()})
	}
}
