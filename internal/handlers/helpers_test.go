package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	server   *httptest.Server
	users    *memUserRepo
	events   *memEventRepo
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUserRepo()
	events := newMemEventRepo(users)
	notifier := &fakeNotifier{}

	userService := services.NewUserService(users)
	eventService := services.NewEventService(events, users, notifier, zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret)
	})
	router.Route("/events", func(r chi.Router) {
		EventRouter(r, eventService, RequireAuth(testSecret))
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		server:   server,
		users:    users,
		events:   events,
		notifier: notifier,
	}
}

// do sends a JSON request, decodes the JSON response body into a
// generic map, and returns the status code with it.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(data)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := make(map[string]any)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// registerUser registers a user through the API and returns its token.
func (e *testEnv) registerUser(t *testing.T, username, email, role string) string {
	t.Helper()

	status, body := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": username,
		"email":    email,
		"password": "secret1",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status, "register %s: %v", email, body)
	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

// createEvent creates an event through the API and returns its ID.
func (e *testEnv) createEvent(t *testing.T, token, name, date, timeOfDay string) int {
	t.Helper()

	status, body := e.do(t, http.MethodPost, "/events/create-events", token, map[string]any{
		"name":        name,
		"date":        date,
		"time":        timeOfDay,
		"description": "desc",
	})
	require.Equal(t, http.StatusCreated, status, "create event %s: %v", name, body)
	event, ok := body["event"].(map[string]any)
	require.True(t, ok)
	return int(event["id"].(float64))
}

func eventFromBody(t *testing.T, body map[string]any) types.Event {
	t.Helper()

	raw, err := json.Marshal(body["event"])
	require.NoError(t, err)
	var event types.Event
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}
