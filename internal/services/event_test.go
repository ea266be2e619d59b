package services

import (
	"context"
	"errors"
	"testing"

	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users map[int]types.User
}

func (r *stubUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	return user, nil
}

type stubEventRepo struct {
	events    map[int]types.Event
	attendees map[int][]int
	updated   *types.Event
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{
		events:    make(map[int]types.Event),
		attendees: make(map[int][]int),
	}
}

func (r *stubEventRepo) Create(ctx context.Context, event types.Event) (types.Event, error) {
	event.ID = len(r.events) + 1
	r.events[event.ID] = event
	return event, nil
}

func (r *stubEventRepo) Get(ctx context.Context, id int) (types.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	return event, nil
}

func (r *stubEventRepo) List(ctx context.Context) ([]types.Event, error) {
	events := make([]types.Event, 0, len(r.events))
	for id := 1; id <= len(r.events); id++ {
		events = append(events, r.events[id])
	}
	return events, nil
}

func (r *stubEventRepo) ListByAttendee(ctx context.Context, attendeeID int) ([]types.Event, error) {
	events := make([]types.Event, 0)
	for id := 1; id <= len(r.events); id++ {
		for _, aid := range r.attendees[id] {
			if aid == attendeeID {
				events = append(events, r.events[id])
			}
		}
	}
	return events, nil
}

func (r *stubEventRepo) Update(ctx context.Context, event types.Event) (types.Event, error) {
	if _, ok := r.events[event.ID]; !ok {
		return types.Event{}, store.ErrNotFound
	}
	r.events[event.ID] = event
	r.updated = &event
	return event, nil
}

func (r *stubEventRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *stubEventRepo) AddAttendee(ctx context.Context, eventID, attendeeID int) error {
	if _, ok := r.events[eventID]; !ok {
		return store.ErrNotFound
	}
	for _, aid := range r.attendees[eventID] {
		if aid == attendeeID {
			return store.ErrConflict
		}
	}
	r.attendees[eventID] = append(r.attendees[eventID], attendeeID)
	return nil
}

type recordingNotifier struct {
	confirmed []types.User
	err       error
}

func (n *recordingNotifier) RegistrationConfirmed(ctx context.Context, user types.User, event types.Event) error {
	n.confirmed = append(n.confirmed, user)
	return n.err
}

func newEventFixture() (*stubEventRepo, *stubUserRepo, *recordingNotifier, *EventService) {
	events := newStubEventRepo()
	users := &stubUserRepo{users: map[int]types.User{
		1: {ID: 1, Username: "alice", Email: "alice@x.com", Role: types.RoleOrganizer},
		2: {ID: 2, Username: "bob", Email: "bob@x.com", Role: types.RoleAttendee},
	}}
	notifier := &recordingNotifier{}
	service := NewEventService(events, users, notifier, zerolog.Nop())
	return events, users, notifier, service
}

func TestUpdateMergesPatch(t *testing.T) {
	events, _, _, service := newEventFixture()
	created, err := service.Create(t.Context(), 1, types.Event{
		Name: "Launch", Date: "2025-01-01", Time: "10:00", Description: "desc",
	})
	require.NoError(t, err)

	name := "Launch v2"
	timeOfDay := "11:30"
	updated, err := service.Update(t.Context(), created.ID, 1, types.EventPatch{
		Name: &name,
		Time: &timeOfDay,
	})
	require.NoError(t, err)

	assert.Equal(t, "Launch v2", updated.Name)
	assert.Equal(t, "11:30", updated.Time)
	assert.Equal(t, "2025-01-01", updated.Date)
	assert.Equal(t, "desc", updated.Description)
	require.NotNil(t, events.updated)
	assert.Equal(t, 1, events.updated.OrganizerID)
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	_, _, _, service := newEventFixture()
	created, err := service.Create(t.Context(), 1, types.Event{Name: "Launch", Date: "2025-01-01", Time: "10:00"})
	require.NoError(t, err)

	_, err = service.Update(t.Context(), created.ID, 42, types.EventPatch{})
	assert.ErrorIs(t, err, ErrForbidden)

	err = service.Delete(t.Context(), created.ID, 42)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateIgnoresCallerSuppliedOwnership(t *testing.T) {
	events, _, _, service := newEventFixture()
	created, err := service.Create(t.Context(), 1, types.Event{
		ID:          99,
		OrganizerID: 42,
		Name:        "Launch", Date: "2025-01-01", Time: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.OrganizerID)
	assert.NotEqual(t, 99, created.ID)
	assert.Len(t, events.events, 1)
}

func TestRegisterNotifiesAttendee(t *testing.T) {
	_, _, notifier, service := newEventFixture()
	created, err := service.Create(t.Context(), 1, types.Event{Name: "Launch", Date: "2025-01-01", Time: "10:00"})
	require.NoError(t, err)

	_, err = service.Register(t.Context(), created.ID, 2)
	require.NoError(t, err)

	require.Len(t, notifier.confirmed, 1)
	assert.Equal(t, "bob@x.com", notifier.confirmed[0].Email)
}

func TestRegisterSucceedsWhenNotificationFails(t *testing.T) {
	_, _, notifier, service := newEventFixture()
	notifier.err = errors.New("broker unavailable")

	created, err := service.Create(t.Context(), 1, types.Event{Name: "Launch", Date: "2025-01-01", Time: "10:00"})
	require.NoError(t, err)

	event, err := service.Register(t.Context(), created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, created.ID, event.ID)
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	_, _, notifier, service := newEventFixture()
	created, err := service.Create(t.Context(), 1, types.Event{Name: "Launch", Date: "2025-01-01", Time: "10:00"})
	require.NoError(t, err)

	_, err = service.Register(t.Context(), created.ID, 2)
	require.NoError(t, err)

	_, err = service.Register(t.Context(), created.ID, 2)
	assert.ErrorIs(t, err, store.ErrConflict)

	// The failed attempt does not notify again.
	assert.Len(t, notifier.confirmed, 1)
}

func TestRegisterMissingEvent(t *testing.T) {
	_, _, notifier, service := newEventFixture()

	_, err := service.Register(t.Context(), 999, 2)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, notifier.confirmed)
}

func TestListForAttendeeNarrowsProjection(t *testing.T) {
	_, _, _, service := newEventFixture()
	first, err := service.Create(t.Context(), 1, types.Event{Name: "Launch", Date: "2025-01-01", Time: "10:00"})
	require.NoError(t, err)
	_, err = service.Create(t.Context(), 1, types.Event{Name: "Demo", Date: "2025-02-01", Time: "14:00"})
	require.NoError(t, err)

	_, err = service.Register(t.Context(), first.ID, 2)
	require.NoError(t, err)

	events, err := service.ListForAttendee(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Launch", events[0].Name)
	require.NotNil(t, events[0].Attendee)
	assert.Equal(t, "bob", events[0].Attendee.Username)
	assert.Nil(t, events[0].Attendees)
}
