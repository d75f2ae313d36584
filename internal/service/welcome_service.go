package service

import (
	"context"

	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/mailer"
	"financebot-be/pkg/events"
)

// WelcomeService greets newly registered users by email. It is driven by
// USER_REGISTERED events from the durable stream.
type WelcomeService struct {
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewWelcomeService(emailService mailer.IEmailService, log logger.ILogger) *WelcomeService {
	return &WelcomeService{emailService: emailService, logger: log}
}

// HandleUserRegistered returns an error to have the message redelivered.
func (s *WelcomeService) HandleUserRegistered(ctx context.Context, event events.Event) error {
	email := events.StringField(event, "email")
	if email == "" {
		s.logger.Warn("WelcomeService", "USER_REGISTERED without email, skipping", map[string]interface{}{"payload": event.Payload()})
		return nil
	}

	if err := s.emailService.SendWelcome(email, events.StringField(event, "name")); err != nil {
		s.logger.Error("WelcomeService", "Welcome email failed", map[string]interface{}{"email": email, "error": err.Error()})
		return err
	}
	s.logger.Info("WelcomeService", "Welcome email sent", map[string]interface{}{"email": email})
	return nil
}
