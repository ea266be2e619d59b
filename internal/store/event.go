package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gatherly/apiserver/types"
	"github.com/lib/pq"
)

// EventRepository handles persistence for events and attendee
// membership.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	e.id, e.name, e.event_date, e.event_time, e.description, e.organizer_id,
	e.created_at, e.updated_at, u.id, u.username, u.email`

// Create inserts a new event with an empty attendee set. A concurrent
// insert of the same (name, date, time) triple loses to the unique
// index and gets ErrConflict.
func (r *EventRepository) Create(ctx context.Context, event types.Event) (types.Event, error) {
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `
		INSERT INTO events (name, event_date, event_time, description, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.Name,
		event.Date,
		event.Time,
		event.Description,
		event.OrganizerID,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID); err != nil {
		return types.Event{}, translate(err)
	}
	return r.Get(ctx, event.ID)
}

// Get returns a single event with the organizer and attendee
// identities resolved.
func (r *EventRepository) Get(ctx context.Context, id int) (types.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN users u ON u.id = e.organizer_id
		WHERE e.id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Event{}, err
	}

	attendees, err := r.attendeesFor(ctx, []int{event.ID})
	if err != nil {
		return types.Event{}, err
	}
	event.Attendees = attendees[event.ID]
	return event, nil
}

// List returns all events with organizer and attendee identities
// resolved.
func (r *EventRepository) List(ctx context.Context) ([]types.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN users u ON u.id = e.organizer_id
		ORDER BY e.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]types.Event, 0)
	ids := make([]int, 0)
	for rows.Next() {
		event, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
		ids = append(ids, event.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attendees, err := r.attendeesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Attendees = attendees[events[i].ID]
	}
	return events, nil
}

// ListByAttendee returns all events the given attendee is registered
// for, with the organizer identity resolved. Attendee lists are left
// unresolved; the caller narrows the projection.
func (r *EventRepository) ListByAttendee(ctx context.Context, attendeeID int) ([]types.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM event_attendees ea
		JOIN events e ON e.id = ea.event_id
		JOIN users u ON u.id = e.organizer_id
		WHERE ea.attendee_id = $1
		ORDER BY e.id`

	rows, err := r.db.QueryContext(ctx, query, attendeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]types.Event, 0)
	for rows.Next() {
		event, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Update rewrites the mutable columns of an event. The unique index on
// (name, event_date, event_time) rejects a patch that would collide
// with a different event.
func (r *EventRepository) Update(ctx context.Context, event types.Event) (types.Event, error) {
	event.UpdatedAt = time.Now()

	const query = `
		UPDATE events
		SET name = $1,
			event_date = $2,
			event_time = $3,
			description = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		event.Name,
		event.Date,
		event.Time,
		event.Description,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return types.Event{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Event{}, err
	}
	if affected == 0 {
		return types.Event{}, ErrNotFound
	}
	return r.Get(ctx, event.ID)
}

func (r *EventRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddAttendee appends an attendee to an event. The primary key on
// (event_id, attendee_id) makes registration idempotent in its
// failure: a second insert yields ErrConflict and leaves membership
// unchanged. A missing event surfaces as ErrNotFound via the foreign
// key.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, attendeeID int) error {
	const query = `
		INSERT INTO event_attendees (event_id, attendee_id, created_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, eventID, attendeeID, time.Now()); err != nil {
		return translate(err)
	}
	return nil
}

// attendeesFor loads resolved attendee identities for the given event
// IDs in one query, keyed by event.
func (r *EventRepository) attendeesFor(ctx context.Context, eventIDs []int) (map[int][]types.UserRef, error) {
	result := make(map[int][]types.UserRef, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}

	const query = `
		SELECT ea.event_id, u.id, u.username, u.email
		FROM event_attendees ea
		JOIN users u ON u.id = ea.attendee_id
		WHERE ea.event_id = ANY($1)
		ORDER BY ea.event_id, ea.created_at`

	rows, err := r.db.QueryContext(ctx, query, intArray(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int
		var ref types.UserRef
		if err := rows.Scan(&eventID, &ref.ID, &ref.Username, &ref.Email); err != nil {
			return nil, err
		}
		result[eventID] = append(result[eventID], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func intArray(ids []int) pq.Int64Array {
	arr := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		arr[i] = int64(id)
	}
	return arr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row *sql.Row) (types.Event, error) {
	event, err := scanEventRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Event{}, ErrNotFound
		}
		return types.Event{}, err
	}
	return event, nil
}

func scanEventRows(row rowScanner) (types.Event, error) {
	var event types.Event
	var organizer types.UserRef
	if err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Date,
		&event.Time,
		&event.Description,
		&event.OrganizerID,
		&event.CreatedAt,
		&event.UpdatedAt,
		&organizer.ID,
		&organizer.Username,
		&organizer.Email,
	); err != nil {
		return types.Event{}, err
	}
	event.Organizer = &organizer
	return event, nil
}
