package services

import (
	"context"
	"errors"

	"github.com/gatherly/apiserver/types"
	"github.com/rs/zerolog"
)

// ErrForbidden is returned when an authenticated user attempts an
// operation on an event they do not own.
var ErrForbidden = errors.New("forbidden")

// EventRepository defines persistence operations for events.
type EventRepository interface {
	Create(ctx context.Context, event types.Event) (types.Event, error)
	Get(ctx context.Context, id int) (types.Event, error)
	List(ctx context.Context) ([]types.Event, error)
	ListByAttendee(ctx context.Context, attendeeID int) ([]types.Event, error)
	Update(ctx context.Context, event types.Event) (types.Event, error)
	Delete(ctx context.Context, id int) error
	AddAttendee(ctx context.Context, eventID, attendeeID int) error
}

// Notifier delivers a registration confirmation to the attendee.
// Delivery is best-effort: the event service logs failures and never
// lets them affect the registration outcome.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, user types.User, event types.Event) error
}

// EventService encapsulates event use-cases: creation, listing,
// ownership-checked mutation, and attendee registration.
type EventService struct {
	repo     EventRepository
	users    UserRepository
	notifier Notifier
	logger   zerolog.Logger
}

func NewEventService(repo EventRepository, users UserRepository, notifier Notifier, logger zerolog.Logger) *EventService {
	return &EventService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

// Create stores a new event owned by the given organizer. A duplicate
// (name, date, time) triple yields store.ErrConflict.
func (s *EventService) Create(ctx context.Context, organizerID int, event types.Event) (types.Event, error) {
	event.ID = 0
	event.OrganizerID = organizerID
	return s.repo.Create(ctx, event)
}

// List returns all events with organizer and attendee identities
// resolved.
func (s *EventService) List(ctx context.Context) ([]types.Event, error) {
	return s.repo.List(ctx)
}

// Update applies a partial patch to an event. Only the event's
// creating organizer may update it; omitted patch fields keep their
// prior value.
func (s *EventService) Update(ctx context.Context, eventID, organizerID int, patch types.EventPatch) (types.Event, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return types.Event{}, err
	}
	if event.OrganizerID != organizerID {
		return types.Event{}, ErrForbidden
	}

	if patch.Name != nil {
		event.Name = *patch.Name
	}
	if patch.Date != nil {
		event.Date = *patch.Date
	}
	if patch.Time != nil {
		event.Time = *patch.Time
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}

	return s.repo.Update(ctx, event)
}

// Delete removes an event permanently. Only the creating organizer may
// delete it.
func (s *EventService) Delete(ctx context.Context, eventID, organizerID int) error {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != organizerID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, eventID)
}

// Register appends an attendee to an event and triggers the
// confirmation notification. Registering twice yields
// store.ErrConflict and leaves membership unchanged. Notification
// failure is logged and discarded; it never fails the registration.
func (s *EventService) Register(ctx context.Context, eventID, attendeeID int) (types.Event, error) {
	if _, err := s.repo.Get(ctx, eventID); err != nil {
		return types.Event{}, err
	}

	if err := s.repo.AddAttendee(ctx, eventID, attendeeID); err != nil {
		return types.Event{}, err
	}

	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return types.Event{}, err
	}

	s.notifyRegistration(ctx, attendeeID, event)
	return event, nil
}

// ListForAttendee returns the events the attendee is registered for.
// The projection is narrowed: the organizer identity is resolved and
// the requesting attendee's own identity is attached instead of the
// full attendee list.
func (s *EventService) ListForAttendee(ctx context.Context, attendeeID int) ([]types.Event, error) {
	attendee, err := s.users.GetByID(ctx, attendeeID)
	if err != nil {
		return nil, err
	}

	events, err := s.repo.ListByAttendee(ctx, attendeeID)
	if err != nil {
		return nil, err
	}

	ref := attendee.Ref()
	for i := range events {
		events[i].Attendees = nil
		events[i].Attendee = &ref
	}
	return events, nil
}

func (s *EventService) notifyRegistration(ctx context.Context, attendeeID int, event types.Event) {
	if s.notifier == nil {
		return
	}

	attendee, err := s.users.GetByID(ctx, attendeeID)
	if err != nil {
		s.logger.Error().Err(err).
			Int("attendee_id", attendeeID).
			Int("event_id", event.ID).
			Msg("failed to load attendee for confirmation notification")
		return
	}

	if err := s.notifier.RegistrationConfirmed(ctx, attendee, event); err != nil {
		s.logger.Error().Err(err).
			Str("email", attendee.Email).
			Int("event_id", event.ID).
			Msg("failed to send registration confirmation")
	}
}
