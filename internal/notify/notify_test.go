package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gatherly/apiserver/internal/mq"
	"github.com/gatherly/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
}

func (b *fakeBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.channel = channel
	b.data = data
	b.attrs = attrs
	if b.err != nil {
		return "", b.err
	}
	return "msg-1", nil
}

func (b *fakeBackend) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	return nil
}

func (b *fakeBackend) Close() error { return nil }

func TestRegistrationConfirmedPublishesEnvelope(t *testing.T) {
	backend := &fakeBackend{}
	publisher := NewPublisher(backend, "registration-confirmations", zerolog.Nop())

	user := types.User{ID: 2, Username: "bob", Email: "bob@x.com", Role: types.RoleAttendee}
	event := types.Event{ID: 1, Name: "Launch", Date: "2025-01-01", Time: "10:00"}

	err := publisher.RegistrationConfirmed(t.Context(), user, event)
	require.NoError(t, err)

	assert.Equal(t, "registration-confirmations", backend.channel)
	assert.Equal(t, "registration-confirmation", backend.attrs["type"])

	var confirmation RegistrationConfirmation
	require.NoError(t, json.Unmarshal(backend.data, &confirmation))
	assert.Equal(t, "bob", confirmation.Username)
	assert.Equal(t, "bob@x.com", confirmation.Email)
	assert.Equal(t, "Launch", confirmation.EventName)
	assert.Equal(t, "2025-01-01", confirmation.EventDate)
	assert.Equal(t, "10:00", confirmation.EventTime)
}

func TestRegistrationConfirmedPropagatesPublishError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("broker down")}
	publisher := NewPublisher(backend, "registration-confirmations", zerolog.Nop())

	err := publisher.RegistrationConfirmed(t.Context(), types.User{}, types.Event{})
	assert.Error(t, err)
}

func TestRegistrationConfirmedWithoutBackend(t *testing.T) {
	publisher := NewPublisher(nil, "registration-confirmations", zerolog.Nop())

	err := publisher.RegistrationConfirmed(t.Context(), types.User{Email: "bob@x.com"}, types.Event{Name: "Launch"})
	assert.NoError(t, err)
}
