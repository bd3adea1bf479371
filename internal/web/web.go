package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/beatmiles/internal/formatter"
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/server"
	"github.com/desertthunder/beatmiles/internal/shared"
	"github.com/desertthunder/beatmiles/internal/tasks"
)

//go:embed templates/*.html
var templateFiles embed.FS

// row is one rendered workout.
type row struct {
	ID    string
	Cells []string
}

// page is the data every template renders.
type page struct {
	Title       string
	Email       string
	Alerts      []string
	Failed      bool
	Columns     []string
	Rows        []row
	Form        models.WorkoutForm
	EditID      string
	SubmitLabel string
	Action      string
	CredEmail   string
	Prompt      string
	PendingID   string
	Pending     *row
}

// Handler serves the workout pages.
//
// Actions run one at a time because every request shares the stored session.
// Alerts raised by an action that ends in a redirect are kept and shown on the next page.
type Handler struct {
	engine     *tasks.Engine
	dateFormat string
	logger     *log.Logger
	tmpl       *template.Template

	mu          sync.Mutex
	flash       []string
	flashFailed bool
}

var _ server.Handler = (*Handler)(nil)

// NewHandler parses the embedded templates. Logger may be nil.
func NewHandler(engine *tasks.Engine, dateFormat string, logger *log.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{engine: engine, dateFormat: dateFormat, logger: logger, tmpl: tmpl}, nil
}

// Routes implements [server.Handler].
func (h *Handler) Routes() []server.Route {
	return []server.Route{
		{Method: http.MethodGet, Path: "/", Handler: h.index},
		{Method: http.MethodGet, Path: "/login", Handler: h.loginPage},
		{Method: http.MethodPost, Path: "/login", Handler: h.login},
		{Method: http.MethodGet, Path: "/register", Handler: h.registerPage},
		{Method: http.MethodPost, Path: "/register", Handler: h.register},
		{Method: http.MethodPost, Path: "/logout", Handler: h.logout},
		{Method: http.MethodPost, Path: "/workouts", Handler: h.submit},
		{Method: http.MethodPost, Path: "/workouts/cancel", Handler: h.cancel},
		{Method: http.MethodGet, Path: "/workouts/{id}/edit", Handler: h.edit},
		{Method: http.MethodGet, Path: "/workouts/{id}/delete", Handler: h.confirmDelete},
		{Method: http.MethodPost, Path: "/workouts/{id}/delete", Handler: h.delete},
	}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := tasks.NewRecorder(false)
	_, err := h.engine.WithPresenter(rec).List(r.Context())
	p := h.mainPage(rec, err)
	h.render(w, http.StatusOK, "index", p)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state := tasks.Creating()
	if id := r.PostForm.Get("id"); id != "" {
		state = tasks.Editing(id)
	}
	form := formFromRequest(r)

	rec := tasks.NewRecorder(false)
	next, err := h.engine.WithPresenter(rec).Submit(r.Context(), state, form)
	if h.redirected(w, r, rec, err, "/") {
		return
	}

	// The form stays filled so the user can correct it.
	listRec := tasks.NewRecorder(false)
	_, _ = h.engine.WithPresenter(listRec).List(r.Context())
	p := h.mainPage(listRec, nil)
	p.Alerts = append(p.Alerts, rec.Alerts()...)
	p.Failed = true
	p.Form = form
	p.EditID = next.WorkoutID()
	p.SubmitLabel = next.SubmitLabel()
	h.render(w, http.StatusUnprocessableEntity, "index", p)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.engine.CancelEdit(tasks.Creating())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id := server.Vars(r)["id"]

	h.mu.Lock()
	defer h.mu.Unlock()

	rec := tasks.NewRecorder(false)
	engine := h.engine.WithPresenter(rec)
	next, err := engine.BeginEdit(r.Context(), tasks.Creating(), id)
	if err != nil {
		if errors.Is(err, shared.ErrWorkoutNotFound) {
			h.logger.Warn("edit requested for unknown workout", "id", id)
		}
		h.follow(w, r, rec, true, "/")
		return
	}

	listRec := tasks.NewRecorder(false)
	_, _ = h.engine.WithPresenter(listRec).List(r.Context())
	p := h.mainPage(listRec, nil)
	if fill, ok := rec.Last(tasks.EffectFillForm); ok {
		p.Form = fill.Form
	}
	if label, ok := rec.Last(tasks.EffectSubmitLabel); ok {
		p.SubmitLabel = label.Text
	}
	p.EditID = next.WorkoutID()
	h.render(w, http.StatusOK, "index", p)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id := server.Vars(r)["id"]

	h.mu.Lock()
	defer h.mu.Unlock()

	rec := tasks.NewRecorder(false)
	if sess, _ := h.engine.Status(); sess == nil {
		// Delete without a session alerts and sends the user to log in before any prompt.
		_ = h.engine.WithPresenter(rec).Delete(r.Context(), id)
		h.follow(w, r, rec, true, "/login")
		return
	}

	ws, err := h.engine.WithPresenter(rec).List(r.Context())
	if err != nil {
		h.follow(w, r, rec, true, "/")
		return
	}

	p := h.basePage("Delete Workout")
	p.Prompt = tasks.MsgConfirmDelete
	p.PendingID = id
	if wk, ok := models.FindWorkout(ws, id); ok {
		p.Pending = &row{ID: wk.ID, Cells: formatter.Row(wk, h.dateFormat)}
	}
	h.render(w, http.StatusOK, "confirm", p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	id := server.Vars(r)["id"]

	h.mu.Lock()
	defer h.mu.Unlock()

	rec := tasks.NewRecorder(r.PostForm.Get("confirm") == "yes")
	err := h.engine.WithPresenter(rec).Delete(r.Context(), id)
	if errors.Is(err, shared.ErrCancelled) {
		err = nil
	}
	h.follow(w, r, rec, err != nil, "/")
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.render(w, http.StatusOK, "credentials", h.credentialsPage("Login", "/login", ""))
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.render(w, http.StatusOK, "credentials", h.credentialsPage("Register", "/register", ""))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.credentials(w, r, "Login", "/login", func(e *tasks.Engine, creds models.Credentials) error {
		return e.Login(r.Context(), creds)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	h.credentials(w, r, "Register", "/register", func(e *tasks.Engine, creds models.Credentials) error {
		return e.Register(r.Context(), creds)
	})
}

// credentials runs a login or register action, re-rendering the form on failure.
func (h *Handler) credentials(w http.ResponseWriter, r *http.Request, title, action string, fn func(*tasks.Engine, models.Credentials) error) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	creds := models.Credentials{Email: r.PostForm.Get("email"), Password: r.PostForm.Get("password")}

	h.mu.Lock()
	defer h.mu.Unlock()

	rec := tasks.NewRecorder(false)
	err := fn(h.engine.WithPresenter(rec), creds)
	if h.redirected(w, r, rec, err, "/") {
		return
	}

	p := h.credentialsPage(title, action, creds.Email)
	p.Alerts = append(p.Alerts, rec.Alerts()...)
	p.Failed = true
	h.render(w, http.StatusUnprocessableEntity, "credentials", p)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := tasks.NewRecorder(false)
	err := h.engine.WithPresenter(rec).Logout()
	h.follow(w, r, rec, err != nil, "/")
}

// redirected follows the action when it navigated or succeeded, and reports whether it did.
func (h *Handler) redirected(w http.ResponseWriter, r *http.Request, rec *tasks.Recorder, err error, fallback string) bool {
	if _, navigated := rec.Last(tasks.EffectNavigate); !navigated && err != nil {
		return false
	}
	h.follow(w, r, rec, err != nil, fallback)
	return true
}

// follow keeps the recorded alerts for the next page and redirects to the recorded navigation target,
// or to fallback when there was none.
func (h *Handler) follow(w http.ResponseWriter, r *http.Request, rec *tasks.Recorder, failed bool, fallback string) {
	h.flash = append(h.flash, rec.Alerts()...)
	h.flashFailed = h.flashFailed || failed

	target := fallback
	if nav, ok := rec.Last(tasks.EffectNavigate); ok {
		target = pagePath(nav.Page)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// basePage starts a page with the session banner and any pending flash alerts.
func (h *Handler) basePage(title string) page {
	p := page{Title: title, Alerts: h.flash, Failed: h.flashFailed}
	h.flash, h.flashFailed = nil, false

	if sess, err := h.engine.Status(); err == nil && sess.Valid() {
		p.Email = sess.Email()
	}
	return p
}

// mainPage builds the workout page from a recorded list call.
func (h *Handler) mainPage(rec *tasks.Recorder, err error) page {
	p := h.basePage("Workouts")
	p.Columns = formatter.Columns
	p.SubmitLabel = tasks.LabelCreate
	p.Alerts = append(p.Alerts, rec.Alerts()...)
	p.Failed = p.Failed || err != nil

	if shown, ok := rec.Last(tasks.EffectShowWorkouts); ok {
		for _, wk := range shown.Workouts {
			p.Rows = append(p.Rows, row{ID: wk.ID, Cells: formatter.Row(wk, h.dateFormat)})
		}
	}
	return p
}

func (h *Handler) credentialsPage(title, action, email string) page {
	p := h.basePage(title)
	p.Action = action
	p.CredEmail = email
	return p
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, p page) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, p); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func pagePath(p tasks.Page) string {
	switch p {
	case tasks.PageLogin:
		return "/login"
	case tasks.PageRegister:
		return "/register"
	default:
		return "/"
	}
}

func formFromRequest(r *http.Request) models.WorkoutForm {
	return models.WorkoutForm{
		Date:         r.PostForm.Get("date"),
		Type:         r.PostForm.Get("type"),
		Duration:     r.PostForm.Get("duration"),
		Distance:     r.PostForm.Get("distance"),
		AvgSpeed:     r.PostForm.Get("avgSpeed"),
		AvgHeartRate: r.PostForm.Get("avgHeartRate"),
		Calories:     r.PostForm.Get("calories"),
	}
}
