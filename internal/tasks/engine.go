package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/services"
	"github.com/desertthunder/beatmiles/internal/shared"
)

// SessionStore persists the single login session.
type SessionStore interface {
	// Load returns nil without error when nobody is logged in.
	Load() (*models.Session, error)
	Save(email, token string) (*models.Session, error)
	Clear() error
}

// sessionToucher is implemented by stores that track when a session was last used.
type sessionToucher interface {
	Touch(sess *models.Session) error
}

// AuthClient registers accounts and exchanges credentials for tokens.
type AuthClient interface {
	Register(ctx context.Context, creds models.Credentials) error
	Login(ctx context.Context, creds models.Credentials) (string, error)
}

// WorkoutClient performs workout CRUD for a session.
type WorkoutClient interface {
	List(ctx context.Context, sess *models.Session) ([]models.Workout, error)
	Create(ctx context.Context, sess *models.Session, w models.Workout) error
	Update(ctx context.Context, sess *models.Session, id string, w models.Workout) error
	Delete(ctx context.Context, sess *models.Session, id string) (string, error)
}

// EngineOpts configures an [Engine]. Presenter and Logger may be nil.
type EngineOpts struct {
	Store     SessionStore
	Auth      AuthClient
	Workouts  WorkoutClient
	Presenter Presenter
	Logger    *log.Logger
}

// Engine runs the auth and workout flows and reports their outcome to a [Presenter].
type Engine struct {
	store     SessionStore
	auth      AuthClient
	workouts  WorkoutClient
	presenter Presenter
	logger    *log.Logger
}

// NewEngine creates an Engine from opts.
func NewEngine(opts EngineOpts) *Engine {
	e := &Engine{
		store:     opts.Store,
		auth:      opts.Auth,
		workouts:  opts.Workouts,
		presenter: opts.Presenter,
		logger:    opts.Logger,
	}
	if e.presenter == nil {
		e.presenter = discard{}
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// WithPresenter returns a copy of e that reports to p. The store and clients are shared.
func (e *Engine) WithPresenter(p Presenter) *Engine {
	c := *e
	c.presenter = p
	return &c
}

// Register creates an account. On success the user is sent to the login page.
func (e *Engine) Register(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		e.presenter.Alert(MsgFillAllFields)
		return err
	}

	if err := e.auth.Register(ctx, creds); err != nil {
		e.logger.Warn("registration failed", "email", creds.Email, "error", err)
		e.presenter.Alert(failureText(err, MsgRegisterFailed))
		return err
	}

	e.presenter.Alert(MsgRegistered)
	e.presenter.Navigate(PageLogin)
	return nil
}

// Login exchanges credentials for a token and stores it as the session.
func (e *Engine) Login(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		e.presenter.Alert(MsgFillAllFields)
		return err
	}

	token, err := e.auth.Login(ctx, creds)
	if err != nil {
		e.logger.Warn("login failed", "email", creds.Email, "error", err)
		e.presenter.Alert(failureText(err, MsgLoginFailed))
		return err
	}

	if _, err := e.store.Save(creds.Email, token); err != nil {
		e.logger.Error("failed to store session", "error", err)
		e.presenter.Alert(MsgGenericError)
		return err
	}

	e.logger.Info("logged in", "email", creds.Email)
	e.presenter.Alert(MsgLoggedIn)
	e.presenter.Navigate(PageMain)
	return nil
}

// Logout clears the session. It never calls the API.
func (e *Engine) Logout() error {
	err := e.store.Clear()
	if err != nil {
		e.logger.Error("failed to clear session", "error", err)
	}
	e.presenter.Alert(MsgLoggedOut)
	e.presenter.Navigate(PageMain)
	return err
}

// Status returns the current session, or nil when logged out.
func (e *Engine) Status() (*models.Session, error) {
	return e.store.Load()
}

// ImportToken stores a bearer token obtained outside the login flow as the session.
func (e *Engine) ImportToken(email, token string) (*models.Session, error) {
	sess, err := e.store.Save(email, token)
	if err != nil {
		return nil, err
	}
	e.logger.Info("imported session token", "session", sess)
	e.presenter.Alert(MsgTokenImported)
	return sess, nil
}

// List fetches and shows the workout table. Without a session it does nothing.
func (e *Engine) List(ctx context.Context) ([]models.Workout, error) {
	sess, err := e.store.Load()
	if err != nil {
		e.logger.Error("failed to load session", "error", err)
		e.presenter.Alert(MsgGenericError)
		return nil, err
	}
	if sess == nil {
		e.logger.Debug("not logged in, skipping workout list")
		return nil, nil
	}

	ws, err := e.workouts.List(ctx, sess)
	if err != nil {
		e.logger.Warn("failed to list workouts", "error", err)
		e.presenter.Alert(fetchFailureText(err))
		return nil, err
	}

	e.touch(sess)
	e.presenter.ShowWorkouts(ws)
	return ws, nil
}

// Create validates form and logs it as a new workout.
func (e *Engine) Create(ctx context.Context, form models.WorkoutForm) error {
	sess, err := e.requireSession(verbAdd)
	if err != nil {
		return err
	}

	w := form.Workout()
	if err := w.Validate(); err != nil {
		e.presenter.Alert(MsgRequiredFields)
		return err
	}

	if err := e.workouts.Create(ctx, sess, w); err != nil {
		e.logger.Warn("failed to create workout", "error", err)
		e.presenter.Alert(failureText(err, MsgCreateFailed))
		return err
	}

	e.logger.Info("workout created", "type", w.Type, "date", w.Date)
	e.presenter.Alert(MsgCreated)
	e.refresh(ctx)
	e.presenter.ResetForm()
	return nil
}

// Delete removes the workout with id after the user confirms.
//
// A declined confirmation returns [shared.ErrCancelled] without any request.
func (e *Engine) Delete(ctx context.Context, id string) error {
	sess, err := e.requireSession(verbDelete)
	if err != nil {
		return err
	}

	if !e.presenter.Confirm(MsgConfirmDelete) {
		e.logger.Debug("delete declined", "id", id)
		return shared.ErrCancelled
	}

	msg, err := e.workouts.Delete(ctx, sess, id)
	if err != nil {
		e.logger.Warn("failed to delete workout", "id", id, "error", err)
		e.presenter.Alert(failureText(err, MsgDeleteFailed))
		return err
	}

	if msg == "" {
		msg = MsgDeleted
	}
	e.logger.Info("workout deleted", "id", id)
	e.presenter.Alert(msg)
	e.refresh(ctx)
	return nil
}

// BeginEdit loads the workout with id into the form and returns the editing state.
//
// On any failure the returned state is the one passed in.
func (e *Engine) BeginEdit(ctx context.Context, state EditState, id string) (EditState, error) {
	sess, err := e.requireSession(verbEdit)
	if err != nil {
		return state, err
	}

	ws, err := e.workouts.List(ctx, sess)
	if err != nil {
		e.logger.Warn("failed to fetch workouts for edit", "id", id, "error", err)
		e.presenter.Alert(fetchFailureText(err))
		return state, err
	}

	w, ok := models.FindWorkout(ws, id)
	if !ok {
		e.logger.Warn("workout to edit not found", "id", id, "count", len(ws))
		return state, fmt.Errorf("%w: %s", shared.ErrWorkoutNotFound, id)
	}

	e.touch(sess)
	e.presenter.FillForm(models.FormFromWorkout(w))
	e.presenter.SetSubmitLabel(LabelSave)
	return Editing(id), nil
}

// SaveChanges updates the workout being edited with form and returns the create state.
//
// On any failure the returned state is the one passed in.
func (e *Engine) SaveChanges(ctx context.Context, state EditState, form models.WorkoutForm) (EditState, error) {
	sess, err := e.requireSession(verbEdit)
	if err != nil {
		return state, err
	}
	if !state.IsEditing() {
		return state, fmt.Errorf("%w: no workout is being edited", shared.ErrInvalidArgument)
	}

	w := form.Workout()
	if err := w.Validate(); err != nil {
		e.presenter.Alert(MsgRequiredFields)
		return state, err
	}

	if err := e.workouts.Update(ctx, sess, state.WorkoutID(), w); err != nil {
		e.logger.Warn("failed to update workout", "id", state.WorkoutID(), "error", err)
		e.presenter.Alert(failureText(err, MsgUpdateFailed))
		return state, err
	}

	e.logger.Info("workout updated", "id", state.WorkoutID())
	e.presenter.Alert(MsgUpdated)
	e.refresh(ctx)
	e.presenter.ResetForm()
	e.presenter.SetSubmitLabel(LabelCreate)
	return Creating(), nil
}

// Submit saves changes when editing and creates a workout otherwise.
func (e *Engine) Submit(ctx context.Context, state EditState, form models.WorkoutForm) (EditState, error) {
	if state.IsEditing() {
		return e.SaveChanges(ctx, state, form)
	}
	return state, e.Create(ctx, form)
}

// CancelEdit abandons an edit without any request.
func (e *Engine) CancelEdit(state EditState) EditState {
	if state.IsEditing() {
		e.logger.Debug("edit cancelled", "id", state.WorkoutID())
	}
	e.presenter.ResetForm()
	e.presenter.SetSubmitLabel(LabelCreate)
	return Creating()
}

// Fetch returns the workout list without rendering it.
func (e *Engine) Fetch(ctx context.Context) ([]models.Workout, error) {
	sess, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		e.presenter.Alert(MsgLoginToExport)
		e.presenter.Navigate(PageLogin)
		return nil, shared.ErrNotAuthenticated
	}

	ws, err := e.workouts.List(ctx, sess)
	if err != nil {
		e.presenter.Alert(fetchFailureText(err))
		return nil, err
	}
	e.touch(sess)
	return ws, nil
}

// requireSession loads the session, alerting and redirecting to login when there is none.
func (e *Engine) requireSession(verb string) (*models.Session, error) {
	sess, err := e.store.Load()
	if err != nil {
		e.logger.Error("failed to load session", "error", err)
		e.presenter.Alert(MsgGenericError)
		return nil, err
	}
	if sess == nil {
		e.presenter.Alert(loginRequired(verb))
		e.presenter.Navigate(PageLogin)
		return nil, shared.ErrNotAuthenticated
	}
	return sess, nil
}

// refresh re-renders the table after a mutation. Its failures are alerted by List.
func (e *Engine) refresh(ctx context.Context) {
	if _, err := e.List(ctx); err != nil {
		e.logger.Debug("refresh after mutation failed", "error", err)
	}
}

func (e *Engine) touch(sess *models.Session) {
	t, ok := e.store.(sessionToucher)
	if !ok {
		return
	}
	if err := t.Touch(sess); err != nil {
		e.logger.Debug("failed to record session use", "error", err)
	}
}

// failureText picks the alert for a failed request: the server's message or fallback for
// rejected requests, the generic error for everything else.
func failureText(err error, fallback string) string {
	if services.Classify(err) == services.FailureServer {
		return services.ServerMessage(err, fallback)
	}
	return MsgGenericError
}

// fetchFailureText is the list variant, which never shows the server's message.
func fetchFailureText(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		return MsgFetchFailed
	}
	return MsgGenericError
}
