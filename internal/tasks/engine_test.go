package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/services"
	"github.com/desertthunder/beatmiles/internal/shared"
	tu "github.com/desertthunder/beatmiles/internal/testing"
)

// memStore is an in-memory [SessionStore].
type memStore struct {
	mu      sync.Mutex
	session *models.Session
	touched int
	loadErr error
}

func (s *memStore) Load() (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.loadErr
}

func (s *memStore) Save(email, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.NewSession(1, email, token)
	s.session.SetID("session-id")
	return s.session, nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

func (s *memStore) Touch(*models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched++
	return nil
}

type fixture struct {
	backend  *tu.FakeBackend
	store    *memStore
	recorder *Recorder
	engine   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := tu.NewFakeBackend(t)
	api := services.NewAPIService(backend.URL(), nil, nil)
	store := &memStore{}
	recorder := NewRecorder(true)
	engine := NewEngine(EngineOpts{
		Store:     store,
		Auth:      services.NewAuthService(api),
		Workouts:  services.NewWorkoutService(api),
		Presenter: recorder,
	})
	return &fixture{backend: backend, store: store, recorder: recorder, engine: engine}
}

// login stores a session the backend accepts.
func (f *fixture) login() {
	token := f.backend.AddUser("a@b.com", "pw")
	_, _ = f.store.Save("a@b.com", token)
}

func (f *fixture) requestCount(method string) int {
	n := 0
	for _, r := range f.backend.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func kinds(effects []Effect) string {
	var out []string
	for _, e := range effects {
		out = append(out, e.Kind.String())
	}
	return strings.Join(out, ",")
}

func validForm() models.WorkoutForm {
	return models.WorkoutForm{Date: "2024-01-01", Type: "run", Duration: "30"}
}

func TestEngineAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("Register Missing Fields", func(t *testing.T) {
		f := newFixture(t)

		err := f.engine.Register(ctx, models.Credentials{Email: "a@b.com"})
		if !errors.Is(err, shared.ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
		if got := f.recorder.Alerts(); len(got) != 1 || got[0] != MsgFillAllFields {
			t.Errorf("unexpected alerts %v", got)
		}
		if n := len(f.backend.Requests()); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("Register Success", func(t *testing.T) {
		f := newFixture(t)

		if err := f.engine.Register(ctx, models.Credentials{Email: "a@b.com", Password: "pw"}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if got := f.recorder.Alerts(); len(got) != 1 || got[0] != MsgRegistered {
			t.Errorf("unexpected alerts %v", got)
		}
		if nav, ok := f.recorder.Last(EffectNavigate); !ok || nav.Page != PageLogin {
			t.Errorf("expected navigation to login, got %+v", nav)
		}
		if s, _ := f.store.Load(); s != nil {
			t.Error("register must not create a session")
		}
	})

	t.Run("Register Failure Messages", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			body   string
			want   string
		}{
			{name: "server message", status: http.StatusBadRequest, body: `{"message":"Email taken"}`, want: "Email taken"},
			{name: "no message", status: http.StatusBadRequest, body: `{}`, want: MsgRegisterFailed},
			{name: "non-JSON body", status: http.StatusInternalServerError, body: `oops`, want: MsgRegisterFailed},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				f.backend.Fail("POST /auth/register", tt.status, tt.body)

				if err := f.engine.Register(ctx, models.Credentials{Email: "a@b.com", Password: "pw"}); err == nil {
					t.Fatal("expected error")
				}
				if got := f.recorder.Alerts(); len(got) != 1 || got[0] != tt.want {
					t.Errorf("alerts = %v, want [%s]", got, tt.want)
				}
				if _, ok := f.recorder.Last(EffectNavigate); ok {
					t.Error("expected no navigation on failure")
				}
			})
		}
	})

	t.Run("Register Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial tcp: refused"))}
		api := services.NewAPIService("http://example.invalid/api", client, nil)
		recorder := NewRecorder(true)
		engine := NewEngine(EngineOpts{Store: &memStore{}, Auth: services.NewAuthService(api), Presenter: recorder})

		err := engine.Register(ctx, models.Credentials{Email: "a@b.com", Password: "pw"})
		if services.Classify(err) != services.FailureTransport {
			t.Errorf("expected transport failure, got %v", err)
		}
		if got := recorder.Alerts(); len(got) != 1 || got[0] != MsgGenericError {
			t.Errorf("unexpected alerts %v", got)
		}
	})

	t.Run("Login Success", func(t *testing.T) {
		f := newFixture(t)
		token := f.backend.AddUser("a@b.com", "pw")

		if err := f.engine.Login(ctx, models.Credentials{Email: "a@b.com", Password: "pw"}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		sess, _ := f.store.Load()
		if sess == nil || sess.Token() != token {
			t.Fatalf("expected stored token %s, got %v", token, sess)
		}
		if got := f.recorder.Alerts(); len(got) != 1 || got[0] != MsgLoggedIn {
			t.Errorf("unexpected alerts %v", got)
		}
		if nav, _ := f.recorder.Last(EffectNavigate); nav.Page != PageMain {
			t.Errorf("expected navigation to main, got %v", nav.Page)
		}
	})

	t.Run("Login Rejected", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("a@b.com", "pw")

		if err := f.engine.Login(ctx, models.Credentials{Email: "a@b.com", Password: "wrong"}); err == nil {
			t.Fatal("expected error")
		}
		if got := f.recorder.Alerts(); got[0] != "Invalid credentials" {
			t.Errorf("unexpected alerts %v", got)
		}
		if s, _ := f.store.Load(); s != nil {
			t.Error("expected no session after failed login")
		}
	})

	t.Run("Login Without Token Is Generic Error", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Fail("POST /auth/login", http.StatusOK, `{}`)

		if err := f.engine.Login(ctx, models.Credentials{Email: "a@b.com", Password: "pw"}); !errors.Is(err, shared.ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
		if got := f.recorder.Alerts(); got[0] != MsgGenericError {
			t.Errorf("unexpected alerts %v", got)
		}
		if s, _ := f.store.Load(); s != nil {
			t.Error("expected no session")
		}
	})

	t.Run("Logout", func(t *testing.T) {
		f := newFixture(t)
		f.login()

		if err := f.engine.Logout(); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		if s, _ := f.store.Load(); s != nil {
			t.Error("expected session to be cleared")
		}
		if kinds(f.recorder.Effects()) != "alert,navigate" {
			t.Errorf("unexpected effects %s", kinds(f.recorder.Effects()))
		}
		if got := f.recorder.Alerts(); got[0] != MsgLoggedOut {
			t.Errorf("unexpected alerts %v", got)
		}
		if n := len(f.backend.Requests()); n != 0 {
			t.Errorf("logout must not call the API, got %d requests", n)
		}
	})

	t.Run("Status And ImportToken", func(t *testing.T) {
		f := newFixture(t)

		if s, err := f.engine.Status(); err != nil || s != nil {
			t.Fatalf("Status() = %v, %v", s, err)
		}
		if _, err := f.engine.ImportToken("a@b.com", "T1"); err != nil {
			t.Fatalf("ImportToken() error = %v", err)
		}
		s, _ := f.engine.Status()
		if s == nil || s.Token() != "T1" {
			t.Errorf("expected imported session, got %v", s)
		}
	})
}

func TestEngineSessionRequired(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name string
		verb string
		run  func(e *Engine) error
	}{
		{name: "Create", verb: "add", run: func(e *Engine) error { return e.Create(ctx, validForm()) }},
		{name: "Delete", verb: "delete", run: func(e *Engine) error { return e.Delete(ctx, "w1") }},
		{name: "BeginEdit", verb: "edit", run: func(e *Engine) error {
			_, err := e.BeginEdit(ctx, Creating(), "w1")
			return err
		}},
		{name: "SaveChanges", verb: "edit", run: func(e *Engine) error {
			_, err := e.SaveChanges(ctx, Editing("w1"), validForm())
			return err
		}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			if err := tt.run(f.engine); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Fatalf("expected ErrNotAuthenticated, got %v", err)
			}
			want := "You must be logged in to " + tt.verb + " a workout."
			if got := f.recorder.Alerts(); len(got) != 1 || got[0] != want {
				t.Errorf("alerts = %v, want [%s]", got, want)
			}
			if nav, ok := f.recorder.Last(EffectNavigate); !ok || nav.Page != PageLogin {
				t.Error("expected navigation to login")
			}
			if n := len(f.backend.Requests()); n != 0 {
				t.Errorf("expected no requests, got %d", n)
			}
		})
	}
}

func TestEngineWorkouts(t *testing.T) {
	ctx := context.Background()

	t.Run("List Without Session Is Silent", func(t *testing.T) {
		f := newFixture(t)

		ws, err := f.engine.List(ctx)
		if err != nil || ws != nil {
			t.Fatalf("List() = %v, %v", ws, err)
		}
		if len(f.recorder.Effects()) != 0 || len(f.backend.Requests()) != 0 {
			t.Error("expected no effects and no requests")
		}
	})

	t.Run("List Renders In Order", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		f.backend.Seed(
			models.Workout{Date: "2024-01-03", Type: "bike", Duration: 60},
			models.Workout{Date: "2024-01-01", Type: "run", Duration: 30},
		)

		if _, err := f.engine.List(ctx); err != nil {
			t.Fatalf("List() error = %v", err)
		}
		show, ok := f.recorder.Last(EffectShowWorkouts)
		if !ok || len(show.Workouts) != 2 || show.Workouts[0].Type != "bike" {
			t.Errorf("unexpected render %+v", show)
		}
		if f.store.touched != 1 {
			t.Errorf("expected session to be touched once, got %d", f.store.touched)
		}
	})

	t.Run("List Failure", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		f.backend.Fail("GET /workouts", http.StatusInternalServerError, `{"message":"db down"}`)

		if _, err := f.engine.List(ctx); err == nil {
			t.Fatal("expected error")
		}
		if got := f.recorder.Alerts(); len(got) != 1 || got[0] != MsgFetchFailed {
			t.Errorf("unexpected alerts %v", got)
		}
		if _, ok := f.recorder.Last(EffectShowWorkouts); ok {
			t.Error("expected table to be left alone")
		}
	})

	t.Run("Create Missing Fields", func(t *testing.T) {
		f := newFixture(t)
		f.login()

		err := f.engine.Create(ctx, models.WorkoutForm{Date: "2024-01-01", Type: "run", Duration: "abc"})
		if !errors.Is(err, shared.ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
		if got := f.recorder.Alerts(); got[0] != MsgRequiredFields {
			t.Errorf("unexpected alerts %v", got)
		}
		if f.requestCount(http.MethodPost) != 0 {
			t.Error("expected no POST")
		}
	})

	t.Run("Create Success", func(t *testing.T) {
		f := newFixture(t)
		f.login()

		form := validForm()
		form.Calories = "0"
		if err := f.engine.Create(ctx, form); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if got := kinds(f.recorder.Effects()); got != "alert,show_workouts,reset_form" {
			t.Errorf("unexpected effects %s", got)
		}
		if got := f.recorder.Alerts(); got[0] != MsgCreated {
			t.Errorf("unexpected alerts %v", got)
		}
		stored := f.backend.Workouts()
		if len(stored) != 1 || stored[0].Calories != nil {
			t.Errorf("expected one workout with null calories, got %+v", stored)
		}
	})

	t.Run("Create Failure", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		f.backend.Fail("POST /workouts", http.StatusBadRequest, `{"error":"bad"}`)

		if err := f.engine.Create(ctx, validForm()); err == nil {
			t.Fatal("expected error")
		}
		if got := kinds(f.recorder.Effects()); got != "alert" {
			t.Errorf("expected only an alert, got %s", got)
		}
		if got := f.recorder.Alerts(); got[0] != MsgCreateFailed {
			t.Errorf("unexpected alerts %v", got)
		}
	})

	t.Run("Delete Declined", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		f.backend.Seed(models.Workout{Date: "2024-01-01", Type: "run", Duration: 30})
		f.recorder.Answer = false

		if err := f.engine.Delete(ctx, "w1"); !errors.Is(err, shared.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
		if got := kinds(f.recorder.Effects()); got != "confirm" {
			t.Errorf("expected only the confirmation, got %s", got)
		}
		if c, _ := f.recorder.Last(EffectConfirm); c.Text != MsgConfirmDelete {
			t.Errorf("unexpected prompt %q", c.Text)
		}
		if f.requestCount(http.MethodDelete) != 0 {
			t.Error("expected no DELETE request")
		}
	})

	t.Run("Delete Success", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		f.backend.Seed(models.Workout{Date: "2024-01-01", Type: "run", Duration: 30})

		if err := f.engine.Delete(ctx, "w1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if got := kinds(f.recorder.Effects()); got != "confirm,alert,show_workouts" {
			t.Errorf("unexpected effects %s", got)
		}
		if got := f.recorder.Alerts(); got[0] != "Workout deleted successfully" {
			t.Errorf("unexpected alerts %v", got)
		}
		if show, _ := f.recorder.Last(EffectShowWorkouts); len(show.Workouts) != 0 {
			t.Errorf("expected empty table, got %+v", show.Workouts)
		}
	})

	t.Run("Delete Success Without Message", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		f.backend.Fail("DELETE /workouts/{id}", http.StatusOK, `{}`)

		if err := f.engine.Delete(ctx, "w1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if got := f.recorder.Alerts(); got[0] != MsgDeleted {
			t.Errorf("unexpected alerts %v", got)
		}
	})

	t.Run("Delete Failure", func(t *testing.T) {
		f := newFixture(t)
		f.login()

		if err := f.engine.Delete(ctx, "missing"); err == nil {
			t.Fatal("expected error")
		}
		if got := f.recorder.Alerts(); got[0] != "Workout not found" {
			t.Errorf("unexpected alerts %v", got)
		}
	})
}

func TestEngineEdit(t *testing.T) {
	ctx := context.Background()
	distance := 5.5

	seed := func(f *fixture) {
		f.login()
		f.backend.Seed(
			models.Workout{Date: "2024-01-01T00:00:00.000Z", Type: "run", Duration: 30, Distance: &distance},
			models.Workout{Date: "2024-01-02", Type: "swim", Duration: 20},
		)
	}

	t.Run("BeginEdit Found", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		state, err := f.engine.BeginEdit(ctx, Creating(), "w1")
		if err != nil {
			t.Fatalf("BeginEdit() error = %v", err)
		}
		if state != Editing("w1") {
			t.Errorf("expected editing(w1), got %s", state)
		}
		fill, _ := f.recorder.Last(EffectFillForm)
		want := models.WorkoutForm{Date: "2024-01-01", Type: "run", Duration: "30", Distance: "5.5"}
		if fill.Form != want {
			t.Errorf("filled %+v, want %+v", fill.Form, want)
		}
		if label, _ := f.recorder.Last(EffectSubmitLabel); label.Text != LabelSave {
			t.Errorf("expected label %q, got %q", LabelSave, label.Text)
		}
		if len(f.recorder.Alerts()) != 0 {
			t.Errorf("expected no alerts, got %v", f.recorder.Alerts())
		}
	})

	t.Run("BeginEdit Not Found", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		state, err := f.engine.BeginEdit(ctx, Creating(), "nope")
		if !errors.Is(err, shared.ErrWorkoutNotFound) {
			t.Fatalf("expected ErrWorkoutNotFound, got %v", err)
		}
		if state.IsEditing() {
			t.Error("expected state unchanged")
		}
		if len(f.recorder.Effects()) != 0 {
			t.Errorf("expected no effects, got %s", kinds(f.recorder.Effects()))
		}
	})

	t.Run("BeginEdit Fetch Failure", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		f.backend.Fail("GET /workouts", http.StatusServiceUnavailable, `{}`)

		state, err := f.engine.BeginEdit(ctx, Editing("w2"), "w1")
		if err == nil {
			t.Fatal("expected error")
		}
		if state != Editing("w2") {
			t.Errorf("expected state unchanged, got %s", state)
		}
		if got := kinds(f.recorder.Effects()); got != "alert" {
			t.Errorf("expected only an alert, got %s", got)
		}
		if got := f.recorder.Alerts(); got[0] != MsgFetchFailed {
			t.Errorf("unexpected alerts %v", got)
		}
	})

	t.Run("SaveChanges Success", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		form := models.WorkoutForm{Date: "2024-01-01", Type: "run", Duration: "45"}
		state, err := f.engine.SaveChanges(ctx, Editing("w1"), form)
		if err != nil {
			t.Fatalf("SaveChanges() error = %v", err)
		}
		if state.IsEditing() {
			t.Error("expected create state after save")
		}
		if got := kinds(f.recorder.Effects()); got != "alert,show_workouts,reset_form,submit_label" {
			t.Errorf("unexpected effects %s", got)
		}
		if label, _ := f.recorder.Last(EffectSubmitLabel); label.Text != LabelCreate {
			t.Errorf("expected label %q, got %q", LabelCreate, label.Text)
		}
		if got := f.recorder.Alerts(); got[0] != MsgUpdated {
			t.Errorf("unexpected alerts %v", got)
		}

		stored := f.backend.Workouts()[0]
		if stored.Duration != 45 || stored.Distance != nil {
			t.Errorf("expected replaced record, got %+v", stored)
		}
		reqs := f.backend.Requests()
		put := reqs[len(reqs)-2]
		if put.Method != http.MethodPut || put.Path != "/workouts/w1" {
			t.Errorf("unexpected request %s %s", put.Method, put.Path)
		}
	})

	t.Run("SaveChanges Failure Keeps State", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		f.backend.Fail("PUT /workouts/{id}", http.StatusInternalServerError, ``)

		state, err := f.engine.SaveChanges(ctx, Editing("w1"), validForm())
		if err == nil {
			t.Fatal("expected error")
		}
		if state != Editing("w1") {
			t.Errorf("expected editing(w1), got %s", state)
		}
		if got := f.recorder.Alerts(); got[0] != MsgUpdateFailed {
			t.Errorf("unexpected alerts %v", got)
		}
		if _, ok := f.recorder.Last(EffectSubmitLabel); ok {
			t.Error("label must not change on failure")
		}
	})

	t.Run("SaveChanges Validates", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		state, err := f.engine.SaveChanges(ctx, Editing("w1"), models.WorkoutForm{Type: "run"})
		if !errors.Is(err, shared.ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
		if state != Editing("w1") {
			t.Errorf("expected state unchanged, got %s", state)
		}
		if f.requestCount(http.MethodPut) != 0 {
			t.Error("expected no PUT")
		}
	})

	t.Run("SaveChanges Requires Editing", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		if _, err := f.engine.SaveChanges(ctx, Creating(), validForm()); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Submit Dispatches On State", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		state, err := f.engine.Submit(ctx, Creating(), validForm())
		if err != nil || state.IsEditing() {
			t.Fatalf("Submit(create) = %s, %v", state, err)
		}
		if f.requestCount(http.MethodPost) != 1 || f.requestCount(http.MethodPut) != 0 {
			t.Error("expected one POST and no PUT")
		}

		state, err = f.engine.Submit(ctx, Editing("w2"), validForm())
		if err != nil || state.IsEditing() {
			t.Fatalf("Submit(edit) = %s, %v", state, err)
		}
		if f.requestCount(http.MethodPut) != 1 {
			t.Error("expected one PUT")
		}
	})

	t.Run("CancelEdit", func(t *testing.T) {
		f := newFixture(t)

		state := f.engine.CancelEdit(Editing("w1"))
		if state.IsEditing() {
			t.Error("expected create state")
		}
		if got := kinds(f.recorder.Effects()); got != "reset_form,submit_label" {
			t.Errorf("unexpected effects %s", got)
		}
	})

	t.Run("Fetch", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.engine.Fetch(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}

		seed(f)
		ws, err := f.engine.Fetch(ctx)
		if err != nil || len(ws) != 2 {
			t.Errorf("Fetch() = %v, %v", ws, err)
		}
	})
}

func TestEditState(t *testing.T) {
	if Creating().IsEditing() || Creating().SubmitLabel() != LabelCreate {
		t.Error("zero state should be create")
	}
	s := Editing("w1")
	if !s.IsEditing() || s.WorkoutID() != "w1" || s.SubmitLabel() != LabelSave {
		t.Errorf("unexpected editing state %s", s)
	}
	if (EditState{}) != Creating() {
		t.Error("zero value should equal Creating()")
	}
}

func TestRecorderReplay(t *testing.T) {
	src := NewRecorder(true)
	src.Alert("hi")
	src.Confirm("sure?")
	src.Navigate(PageLogin)
	src.ShowWorkouts([]models.Workout{{ID: "w1"}})
	src.FillForm(validForm())
	src.SetSubmitLabel(LabelSave)
	src.ResetForm()

	dst := NewRecorder(false)
	src.Replay(dst)

	if got := kinds(dst.Effects()); got != "alert,navigate,show_workouts,fill_form,submit_label,reset_form" {
		t.Errorf("unexpected replay %s", got)
	}
}
