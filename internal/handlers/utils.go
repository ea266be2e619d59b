package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

// principal is the authenticated identity decoded from the bearer
// token and attached to the request context.
type principal struct {
	UserID int
	Role   string
}

func principalFromContext(ctx context.Context) (principal, error) {
	p, ok := ctx.Value(contextPrincipalKey).(principal)
	if !ok || p.UserID < 1 {
		return principal{}, errors.New("missing principal")
	}
	return p, nil
}

func withPrincipal(ctx context.Context, p principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, p)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a bare confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "ok"})
}
