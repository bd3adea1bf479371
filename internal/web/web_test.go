package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/repositories"
	"github.com/desertthunder/beatmiles/internal/server"
	"github.com/desertthunder/beatmiles/internal/services"
	"github.com/desertthunder/beatmiles/internal/shared"
	"github.com/desertthunder/beatmiles/internal/tasks"
	tu "github.com/desertthunder/beatmiles/internal/testing"
)

type site struct {
	t       *testing.T
	backend *tu.FakeBackend
	store   *repositories.TokenStore
	router  *server.BasicRouter
}

func newSite(t *testing.T, loggedIn bool) *site {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if _, err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backend := tu.NewFakeBackend(t)
	store := repositories.NewTokenStore(repositories.NewSessionRepository(db))
	if loggedIn {
		token := backend.AddUser("a@b.com", "pw")
		if _, err := store.Save("a@b.com", token); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
	}

	api := services.NewAPIService(backend.URL(), nil, nil)
	engine := tasks.NewEngine(tasks.EngineOpts{
		Store:    store,
		Auth:     services.NewAuthService(api),
		Workouts: services.NewWorkoutService(api),
	})

	h, err := NewHandler(engine, "", nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	router := server.NewBasicRouter()
	router.Handler(h)

	return &site{t: t, backend: backend, store: store, router: router}
}

func (s *site) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (s *site) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *site) expectRedirect(rec *httptest.ResponseRecorder, to string) {
	s.t.Helper()
	if rec.Code != http.StatusSeeOther {
		s.t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != to {
		s.t.Fatalf("expected redirect to %q, got %q", to, got)
	}
}

func expectBody(t *testing.T, rec *httptest.ResponseRecorder, parts ...string) {
	t.Helper()
	body := rec.Body.String()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Errorf("expected body to contain %q", p)
		}
	}
}

func workoutForm(date, kind, duration string) url.Values {
	return url.Values{"date": {date}, "type": {kind}, "duration": {duration}, "distance": {""}, "calories": {"300"}}
}

func seed(s *site) {
	dist := 5.5
	s.backend.Seed(
		models.Workout{Date: "2024-03-01T00:00:00.000Z", Type: "running", Duration: 30, Distance: &dist},
		models.Workout{Date: "2024-03-02", Type: "cycling", Duration: 45},
	)
}

func TestIndex(t *testing.T) {
	t.Run("logged out", func(t *testing.T) {
		s := newSite(t, false)
		seed(s)

		rec := s.get("/")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		expectBody(t, rec, "Not logged in", tasks.LabelCreate)
		if strings.Contains(rec.Body.String(), "running") {
			t.Error("expected no workouts without a session")
		}
	})

	t.Run("logged in shows the table", func(t *testing.T) {
		s := newSite(t, true)
		seed(s)

		rec := s.get("/")

		expectBody(t, rec,
			"Logged in as a@b.com",
			"<td>2024-03-01</td>",
			"<td>running</td>",
			"<td>5.5</td>",
			"<td>cycling</td>",
			"/workouts/w1/edit",
			"/workouts/w2/delete",
		)
	})

	t.Run("fetch failure is alerted", func(t *testing.T) {
		s := newSite(t, true)
		s.backend.Fail("GET /workouts", http.StatusInternalServerError, `{"message":"db down"}`)

		rec := s.get("/")

		expectBody(t, rec, tasks.MsgFetchFailed, "alert error")
	})
}

func TestSubmit(t *testing.T) {
	t.Run("create redirects with an alert", func(t *testing.T) {
		s := newSite(t, true)

		s.expectRedirect(s.post("/workouts", workoutForm("2024-05-01", "rowing", "20")), "/")

		ws := s.backend.Workouts()
		if len(ws) != 1 || ws[0].Type != "rowing" || ws[0].Distance != nil {
			t.Fatalf("unexpected stored workouts: %+v", ws)
		}
		rec := s.get("/")
		expectBody(t, rec, tasks.MsgCreated, "<td>rowing</td>")

		rec = s.get("/")
		if strings.Contains(rec.Body.String(), tasks.MsgCreated) {
			t.Error("expected alert to be shown once")
		}
	})

	t.Run("missing fields re-render the form", func(t *testing.T) {
		s := newSite(t, true)

		rec := s.post("/workouts", workoutForm("2024-05-01", "", "20"))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		expectBody(t, rec, tasks.MsgRequiredFields, `value="2024-05-01"`, `value="300"`)
		if len(s.backend.Workouts()) != 0 {
			t.Error("expected nothing to be created")
		}
	})

	t.Run("logged out redirects to login", func(t *testing.T) {
		s := newSite(t, false)

		s.expectRedirect(s.post("/workouts", workoutForm("2024-05-01", "rowing", "20")), "/login")

		expectBody(t, s.get("/login"), "You must be logged in to add a workout.")
	})

	t.Run("server message on rejected create", func(t *testing.T) {
		s := newSite(t, true)
		s.backend.Fail("POST /workouts", http.StatusBadRequest, `{"message":"Duration too long"}`)

		rec := s.post("/workouts", workoutForm("2024-05-01", "rowing", "20"))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		expectBody(t, rec, "Duration too long")
	})
}

func TestEdit(t *testing.T) {
	t.Run("fills the form and saves changes", func(t *testing.T) {
		s := newSite(t, true)
		seed(s)

		rec := s.get("/workouts/w1/edit")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		expectBody(t, rec, `name="id" value="w1"`, tasks.LabelSave, `value="running"`, `value="2024-03-01"`, "Edit Workout")

		form := workoutForm("2024-03-01", "trail running", "35")
		form.Set("id", "w1")
		s.expectRedirect(s.post("/workouts", form), "/")

		got := s.backend.Workouts()[0]
		if got.Type != "trail running" || got.Duration != 35 {
			t.Errorf("unexpected updated workout: %+v", got)
		}
		expectBody(t, s.get("/"), tasks.MsgUpdated, tasks.LabelCreate)
	})

	t.Run("failed save keeps the edit id", func(t *testing.T) {
		s := newSite(t, true)
		seed(s)
		form := workoutForm("2024-03-01", "", "35")
		form.Set("id", "w1")

		rec := s.post("/workouts", form)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		expectBody(t, rec, tasks.MsgRequiredFields, `name="id" value="w1"`, tasks.LabelSave)
	})

	t.Run("unknown workout goes back to the table", func(t *testing.T) {
		s := newSite(t, true)
		seed(s)

		s.expectRedirect(s.get("/workouts/nope/edit"), "/")
	})

	t.Run("cancel", func(t *testing.T) {
		s := newSite(t, true)

		s.expectRedirect(s.post("/workouts/cancel", nil), "/")
	})
}

func TestDelete(t *testing.T) {
	t.Run("confirmation page", func(t *testing.T) {
		s := newSite(t, true)
		seed(s)

		rec := s.get("/workouts/w1/delete")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		expectBody(t, rec, tasks.MsgConfirmDelete, "running on 2024-03-01", `action="/workouts/w1/delete"`)
	})

	t.Run("without confirm nothing is deleted", func(t *testing.T) {
		s := newSite(t, true)
		seed(s)

		s.expectRedirect(s.post("/workouts/w1/delete", url.Values{}), "/")

		if len(s.backend.Workouts()) != 2 {
			t.Error("expected workouts to be untouched")
		}
	})

	t.Run("confirmed delete shows the server message", func(t *testing.T) {
		s := newSite(t, true)
		seed(s)

		s.expectRedirect(s.post("/workouts/w1/delete", url.Values{"confirm": {"yes"}}), "/")

		if ws := s.backend.Workouts(); len(ws) != 1 || ws[0].ID != "w2" {
			t.Fatalf("unexpected remaining workouts: %+v", ws)
		}
		expectBody(t, s.get("/"), "Workout deleted successfully")
	})

	t.Run("logged out goes to login", func(t *testing.T) {
		s := newSite(t, false)

		s.expectRedirect(s.get("/workouts/w1/delete"), "/login")

		expectBody(t, s.get("/login"), "You must be logged in to delete a workout.")
	})
}

func TestAuthPages(t *testing.T) {
	t.Run("login", func(t *testing.T) {
		s := newSite(t, false)
		s.backend.AddUser("a@b.com", "pw")

		s.expectRedirect(s.post("/login", url.Values{"email": {"a@b.com"}, "password": {"pw"}}), "/")

		expectBody(t, s.get("/"), tasks.MsgLoggedIn, "Logged in as a@b.com")
		if sess, _ := s.store.Load(); sess == nil {
			t.Error("expected session to be stored")
		}
	})

	t.Run("bad login keeps the email", func(t *testing.T) {
		s := newSite(t, false)
		s.backend.AddUser("a@b.com", "pw")

		rec := s.post("/login", url.Values{"email": {"a@b.com"}, "password": {"nope"}})

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		expectBody(t, rec, "Invalid credentials", `value="a@b.com"`)
	})

	t.Run("empty fields", func(t *testing.T) {
		s := newSite(t, false)

		rec := s.post("/register", url.Values{"email": {"a@b.com"}})

		expectBody(t, rec, tasks.MsgFillAllFields)
		if len(s.backend.Requests()) != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("register redirects to login", func(t *testing.T) {
		s := newSite(t, false)

		s.expectRedirect(s.post("/register", url.Values{"email": {"new@b.com"}, "password": {"pw"}}), "/login")

		expectBody(t, s.get("/login"), tasks.MsgRegistered)
	})

	t.Run("logout", func(t *testing.T) {
		s := newSite(t, true)

		s.expectRedirect(s.post("/logout", nil), "/")

		expectBody(t, s.get("/"), tasks.MsgLoggedOut, "Not logged in")
		if sess, _ := s.store.Load(); sess != nil {
			t.Error("expected session to be cleared")
		}
	})
}
