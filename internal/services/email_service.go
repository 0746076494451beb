package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// EmailSender sends transactional account email.
type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendCancellationEmail(ctx context.Context, email, name string) error
}

// EmailService sends account email through Resend. In dev mode (or without
// an API key) it only logs what would have been sent.
type EmailService struct {
	client *resend.Client
	from   string
}

// NewEmailService creates a new EmailService. An empty API key leaves the
// client nil, which downgrades every send to a log line.
func NewEmailService(apiKey, from string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}
	return &EmailService{client: client, from: from}
}

// SendWelcomeEmail greets a freshly signed-up user.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return s.send(ctx, "welcome", email, "Thanks for joining in!",
		fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name))
}

// SendCancellationEmail says goodbye after an account deletion.
func (s *EmailService) SendCancellationEmail(ctx context.Context, email, name string) error {
	return s.send(ctx, "cancellation", email, "Goodbye!",
		fmt.Sprintf("Sorry to see you go %s! Your account has been cancelled. Feel free to come back at any time!", name))
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.client == nil {
		log.Info().Str("type", kind).Str("to", to).Str("subject", subject).Msg("Email sent (dev mode)")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		log.Info().Str("type", kind).Str("to", to).Msg("Email sent")
	}
	return err
}
