package handlers

import (
	"context"
	"sync"

	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
)

// memUserRepo is an in-memory services.UserRepository that enforces
// the unique-email rule the way the database index does.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// memEventRepo is an in-memory services.EventRepository mirroring the
// store's constraint behavior: unique (name, date, time) triple and
// duplicate-free attendee membership.
type memEventRepo struct {
	mu        sync.Mutex
	nextID    int
	events    map[int]types.Event
	attendees map[int][]int
	users     *memUserRepo
}

func newMemEventRepo(users *memUserRepo) *memEventRepo {
	return &memEventRepo{
		nextID:    1,
		events:    make(map[int]types.Event),
		attendees: make(map[int][]int),
		users:     users,
	}
}

func (r *memEventRepo) Create(ctx context.Context, event types.Event) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.events {
		if existing.Name == event.Name && existing.Date == event.Date && existing.Time == event.Time {
			return types.Event{}, store.ErrConflict
		}
	}
	event.ID = r.nextID
	r.nextID++
	r.events[event.ID] = event
	return r.resolveLocked(event), nil
}

func (r *memEventRepo) Get(ctx context.Context, id int) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	return r.resolveLocked(event), nil
}

func (r *memEventRepo) List(ctx context.Context) ([]types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]types.Event, 0, len(r.events))
	for id := 1; id < r.nextID; id++ {
		if event, ok := r.events[id]; ok {
			events = append(events, r.resolveLocked(event))
		}
	}
	return events, nil
}

func (r *memEventRepo) ListByAttendee(ctx context.Context, attendeeID int) ([]types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]types.Event, 0)
	for id := 1; id < r.nextID; id++ {
		event, ok := r.events[id]
		if !ok {
			continue
		}
		for _, aid := range r.attendees[id] {
			if aid == attendeeID {
				resolved := r.resolveLocked(event)
				resolved.Attendees = nil
				events = append(events, resolved)
				break
			}
		}
	}
	return events, nil
}

func (r *memEventRepo) Update(ctx context.Context, event types.Event) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[event.ID]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	for id, existing := range r.events {
		if id == event.ID {
			continue
		}
		if existing.Name == event.Name && existing.Date == event.Date && existing.Time == event.Time {
			return types.Event{}, store.ErrConflict
		}
	}
	stored.Name = event.Name
	stored.Date = event.Date
	stored.Time = event.Time
	stored.Description = event.Description
	r.events[event.ID] = stored
	return r.resolveLocked(stored), nil
}

func (r *memEventRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.events, id)
	delete(r.attendees, id)
	return nil
}

func (r *memEventRepo) AddAttendee(ctx context.Context, eventID, attendeeID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *memEventRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *memEventRepo) attendeeCount(eventID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attendees[eventID])
}

func (r *memEventRepo) resolveLocked(event types.Event) types.Event {
	if organizer, ok := r.users.users[event.OrganizerID]; ok {
		ref := organizer.Ref()
		event.Organizer = &ref
	}
	event.Attendees = nil
	for _, aid := range r.attendees[event.ID] {
		if attendee, ok := r.users.users[aid]; ok {
			event.Attendees = append(event.Attendees, attendee.Ref())
		}
	}
	return event
}

// fakeNotifier records confirmations and optionally fails.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	count int
}

func (n *fakeNotifier) RegistrationConfirmed(ctx context.Context, user types.User, event types.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	if n.fail {
		return context.DeadlineExceeded
	}
	n.sent = append(n.sent, user.Email)
	return nil
}
