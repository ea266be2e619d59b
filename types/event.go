package types

import "time"

// Event represents a scheduled event owned by an organizer.
//
// The triple (Name, Date, Time) is unique across all events, and
// OrganizerID never changes after creation. Date and Time travel as
// validated strings ("2006-01-02" and "15:04") so that the uniqueness
// rule is over the literal values the client supplied.
type Event struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Date        string `json:"date" db:"event_date"`
	Time        string `json:"time" db:"event_time"`
	Description string `json:"description" db:"description"`

	// OrganizerID references the creating organizer. Immutable.
	OrganizerID int `json:"organizer_id" db:"organizer_id"`

	// Organizer is the resolved identity of the organizer, filled on reads.
	Organizer *UserRef `json:"organizer,omitempty"`

	// Attendees are the resolved identities of registered attendees.
	// Membership is append-only and duplicate-free.
	Attendees []UserRef `json:"attendees,omitempty"`

	// Attendee carries the requesting attendee's own identity in the
	// narrowed "my events" projection instead of the full list.
	Attendee *UserRef `json:"attendee,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EventPatch is a partial update to an event's mutable fields.
// Nil fields keep their prior value.
type EventPatch struct {
	Name        *string `json:"name"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Description *string `json:"description"`
}
