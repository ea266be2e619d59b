package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// EventHandler provides HTTP handlers for events.
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler constructs a handler with the provided service.
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// EventRouter registers event routes on the given router. Every route
// requires a bearer token; mutation routes additionally require the
// organizer role and registration routes the attendee role.
func EventRouter(r chi.Router, eventService *services.EventService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewEventHandler(eventService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListEvents)
	r.With(AuthorizeOrganizer).Post("/create-events", handler.CreateEvent)
	r.With(AuthorizeOrganizer).Put("/update/{eventID}", handler.UpdateEvent)
	r.With(AuthorizeAttendee).Get("/part", handler.MyEvents)
	r.With(AuthorizeAttendee).Post("/{eventID}/register", handler.RegisterForEvent)
	r.With(AuthorizeOrganizer).Delete("/{eventID}", handler.DeleteEvent)
}

// ListEvents returns all events with organizer and attendee identities
// resolved.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, EventsResponse{
		Message: "Events retrieved successfully",
		Events:  events,
	})
}

// CreateEvent stores a new event owned by the requesting organizer.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	var req EventCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, eventValidationMessage(err))
		return
	}

	event, err := h.eventService.Create(r.Context(), p.UserID, types.Event{
		Name:        req.Name,
		Date:        req.Date,
		Time:        req.Time,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "An event with the same name, date and time already exists.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, EventResponse{
		Message: "Event created successfully",
		Event:   event,
	})
}

// UpdateEvent applies a partial update. Omitted fields keep their
// prior value; only the creating organizer may update.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	eventID, err := parseEventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req EventUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, eventValidationMessage(err))
		return
	}

	event, err := h.eventService.Update(r.Context(), eventID, p.UserID, types.EventPatch{
		Name:        req.Name,
		Date:        req.Date,
		Time:        req.Time,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "You are not the organizer of this event.")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "An event with the same name, date and time already exists.")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update event")
		}
		return
	}

	writeJSON(w, http.StatusOK, EventResponse{
		Message: "Event updated successfully",
		Event:   event,
	})
}

// DeleteEvent removes an event permanently. Only the creating
// organizer may delete.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	eventID, err := parseEventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.eventService.Delete(r.Context(), eventID, p.UserID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "You are not the organizer of this event.")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to delete event")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}

// RegisterForEvent appends the requesting attendee to the event.
func (h *EventHandler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	eventID, err := parseEventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.eventService.Register(r.Context(), eventID, p.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "Already registered")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to register for event")
		}
		return
	}

	writeJSON(w, http.StatusOK, EventResponse{
		Message: "Registered successfully",
		Event:   event,
	})
}

// MyEvents returns the events the requesting attendee is registered
// for, in the narrowed projection.
func (h *EventHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	events, err := h.eventService.ListForAttendee(r.Context(), p.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list registered events")
		return
	}

	writeJSON(w, http.StatusOK, EventsResponse{
		Message: "Registered events retrieved successfully",
		Events:  events,
	})
}

type EventCreateRequest struct {
	Name        string `json:"name" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
	Description string `json:"description"`
}

type EventUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty,datetime=15:04"`
	Description *string `json:"description"`
}

type EventResponse struct {
	Message string      `json:"message"`
	Event   types.Event `json:"event"`
}

type EventsResponse struct {
	Message string        `json:"message"`
	Events  []types.Event `json:"events"`
}

func parseEventID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "eventID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid event id")
	}
	return id, nil
}

func eventValidationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return "Name, date and time are required."
	}
	for _, fe := range fieldErrors {
		switch {
		case fe.Tag() == "required" || fe.Tag() == "min":
			return "Name, date and time are required."
		case fe.Field() == "Date":
			return "Date must be in YYYY-MM-DD format."
		case fe.Field() == "Time":
			return "Time must be in HH:MM format."
		}
	}
	return "Name, date and time are required."
}
