package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, name string) error
}

// Sender is the subset of *gomail.Dialer the service needs.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender      Sender
	senderEmail string
	senderName  string
	subject     string
}

func NewEmailService(host string, port int, username, password, senderName, subject string) IEmailService {
	return NewEmailServiceWithSender(gomail.NewDialer(host, port, username, password), username, senderName, subject)
}

func NewEmailServiceWithSender(sender Sender, senderEmail, senderName, subject string) IEmailService {
	return &emailService{
		sender:      sender,
		senderEmail: senderEmail,
		senderName:  senderName,
		subject:     subject,
	}
}

func (s *emailService) SendWelcome(toEmail, name string) error {
	if name == "" {
		name = toEmail
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", s.subject)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>¡Hola, %s!</h2>
			<p>Tu cuenta de FinanceBot está lista.</p>
			<p>Puedo ayudarte con presupuestos, ahorros, inversiones, deudas y gastos personales.</p>
		</div>
	`, html.EscapeString(name))

	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send welcome email to %s: %w", toEmail, err)
	}
	return nil
}
