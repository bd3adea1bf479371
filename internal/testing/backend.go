package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/gorilla/mux"
)

// RecordedRequest is one call received by a [FakeBackend].
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

type failure struct {
	status int
	body   string
}

// FakeBackend is an in-memory BeatMiles API served over httptest.
//
// Routes live under /api like the hosted service. Failures can be injected per route with [FakeBackend.Fail].
type FakeBackend struct {
	server *httptest.Server

	mu       sync.Mutex
	users    map[string]string
	tokens   map[string]string
	workouts []models.Workout
	nextID   int
	requests []RecordedRequest
	failures map[string]failure
}

// NewFakeBackend starts a backend that is closed when t finishes.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		users:    map[string]string{},
		tokens:   map[string]string{},
		failures: map[string]failure{},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(b.record, b.inject)
	api.HandleFunc("/auth/register", b.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", b.login).Methods(http.MethodPost)
	api.HandleFunc("/workouts", b.authed(b.listWorkouts)).Methods(http.MethodGet)
	api.HandleFunc("/workouts", b.authed(b.createWorkout)).Methods(http.MethodPost)
	api.HandleFunc("/workouts/{id}", b.authed(b.updateWorkout)).Methods(http.MethodPut)
	api.HandleFunc("/workouts/{id}", b.authed(b.deleteWorkout)).Methods(http.MethodDelete)

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// URL is the API base URL, including the /api prefix.
func (b *FakeBackend) URL() string { return b.server.URL + "/api" }

// AddUser registers an account and returns the token login would issue for it.
func (b *FakeBackend) AddUser(email, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = password
	token := "token-" + email
	b.tokens[token] = email
	return token
}

// Seed stores workouts, assigning IDs to those without one.
func (b *FakeBackend) Seed(ws ...models.Workout) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range ws {
		if w.ID == "" {
			w.ID = b.newID()
		}
		b.workouts = append(b.workouts, w)
	}
}

// Workouts returns a copy of the stored workouts.
func (b *FakeBackend) Workouts() []models.Workout {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Workout(nil), b.workouts...)
}

// Requests returns every request received so far.
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Fail makes route (for example "GET /workouts" or "DELETE /workouts/{id}") answer with status and a raw body.
func (b *FakeBackend) Fail(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, body: body}
}

// Recover removes every injected failure.
func (b *FakeBackend) Recover() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = map[string]failure{}
}

func (b *FakeBackend) newID() string {
	b.nextID++
	return fmt.Sprintf("w%d", b.nextID)
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, "/api"),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		tmpl, _ := route.GetPathTemplate()
		key := r.Method + " " + strings.TrimPrefix(tmpl, "/api")

		b.mu.Lock()
		f, ok := b.failures[key]
		b.mu.Unlock()

		if ok {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		_, known := b.tokens[token]
		b.mu.Unlock()

		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		h(w, r)
	}
}

func (b *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	b.mu.Lock()
	_, exists := b.users[creds.Email]
	b.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
		return
	}

	b.AddUser(creds.Email, creds.Password)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	b.mu.Lock()
	password, ok := b.users[creds.Email]
	b.mu.Unlock()
	if !ok || password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": "token-" + creds.Email})
}

func (b *FakeBackend) listWorkouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Workouts())
}

func (b *FakeBackend) createWorkout(w http.ResponseWriter, r *http.Request) {
	var workout models.Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid workout"})
		return
	}

	b.mu.Lock()
	workout.ID = b.newID()
	b.workouts = append(b.workouts, workout)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, workout)
}

func (b *FakeBackend) updateWorkout(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var workout models.Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid workout"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.workouts {
		if b.workouts[i].ID == id {
			workout.ID = id
			b.workouts[i] = workout
			writeJSON(w, http.StatusOK, workout)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Workout not found"})
}

func (b *FakeBackend) deleteWorkout(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.workouts {
		if b.workouts[i].ID == id {
			b.workouts = append(b.workouts[:i], b.workouts[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Workout deleted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Workout not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
