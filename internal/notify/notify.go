// Package notify publishes registration confirmations to the message
// broker for asynchronous mail delivery.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gatherly/apiserver/internal/mq"
	"github.com/gatherly/apiserver/types"
	"github.com/rs/zerolog"
)

// RegistrationConfirmation is the envelope published when an attendee
// registers for an event. The mail worker consumes it and sends the
// confirmation email.
type RegistrationConfirmation struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	EventName string `json:"event_name"`
	EventDate string `json:"event_date"`
	EventTime string `json:"event_time"`
}

// Publisher hands confirmations to the broker. A nil backend disables
// publishing: confirmations are logged and dropped.
type Publisher struct {
	backend mq.Backend
	channel string
	logger  zerolog.Logger
}

func NewPublisher(backend mq.Backend, channel string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		backend: backend,
		channel: channel,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// RegistrationConfirmed publishes a confirmation envelope for the
// given attendee and event.
func (p *Publisher) RegistrationConfirmed(ctx context.Context, user types.User, event types.Event) error {
	confirmation := RegistrationConfirmation{
		Username:  user.Username,
		Email:     user.Email,
		EventName: event.Name,
		EventDate: event.Date,
		EventTime: event.Time,
	}

	if p.backend == nil {
		p.logger.Info().
			Str("email", confirmation.Email).
			Str("event", confirmation.EventName).
			Msg("no broker configured, dropping registration confirmation")
		return nil
	}

	data, err := json.Marshal(confirmation)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}

	messageID, err := p.backend.Publish(ctx, p.channel, data, map[string]string{
		"type": "registration-confirmation",
	})
	if err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}

	p.logger.Debug().
		Str("message_id", messageID).
		Str("email", confirmation.Email).
		Msg("registration confirmation published")
	return nil
}
