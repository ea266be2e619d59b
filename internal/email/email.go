// Package email sends confirmation mail through the Resend API.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/gatherly/apiserver/config"
	"github.com/gatherly/apiserver/internal/notify"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

const confirmationTemplate = `<p>Hello {{.Username}},</p>
<p>You have successfully registered for the event: "{{.EventName}}" on {{.EventDate}} at {{.EventTime}}.</p>
<p>Thank you!</p>`

// Service renders and delivers confirmation email.
type Service struct {
	config       config.EmailConfig
	resendClient *resend.Client
	template     *template.Template
	logger       zerolog.Logger
}

// NewService constructs the mail service. When email is disabled the
// service logs and skips instead of calling the provider.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) *Service {
	var client *resend.Client
	if cfg.Enabled {
		client = resend.NewClient(cfg.APIKey)
	}
	return &Service{
		config:       cfg,
		resendClient: client,
		template:     template.Must(template.New("confirmation").Parse(confirmationTemplate)),
		logger:       logger.With().Str("component", "email").Logger(),
	}
}

// SendRegistrationConfirmation sends the registration confirmation for
// the given envelope.
func (s *Service) SendRegistrationConfirmation(ctx context.Context, confirmation notify.RegistrationConfirmation) error {
	if !s.config.Enabled {
		s.logger.Info().
			Str("to", confirmation.Email).
			Str("event", confirmation.EventName).
			Msg("email disabled, skipping confirmation")
		return nil
	}

	var body bytes.Buffer
	if err := s.template.Execute(&body, confirmation); err != nil {
		return fmt.Errorf("render confirmation template: %w", err)
	}

	subject := fmt.Sprintf("Registration Confirmed: %s", confirmation.EventName)
	params := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{confirmation.Email},
		Subject: subject,
		Html:    body.String(),
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", confirmation.Email).
		Msg("confirmation email sent")
	return nil
}
