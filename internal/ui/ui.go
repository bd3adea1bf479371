package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/beatmiles/internal/formatter"
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MainView ViewState = iota
	FormView
	ConfirmView
	LoginView
	RegisterView
)

func (v ViewState) String() string {
	switch v {
	case FormView:
		return "form"
	case ConfirmView:
		return "confirm"
	case LoginView:
		return "login"
	case RegisterView:
		return "register"
	default:
		return "main"
	}
}

var columnWidths = []int{12, 14, 15, 10, 10, 8, 9}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	engine      *tasks.Engine
	dateFormat  string
	view        ViewState
	width       int
	height      int
	table       table.Model
	workouts    []models.Workout
	form        inputGroup
	creds       inputGroup
	state       tasks.EditState
	submitLabel string
	pending     string // workout awaiting delete confirmation
	email       string // logged in user, "" when logged out
	status      string
	failed      bool
	busy        bool
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model that runs its actions through engine.
func NewModel(ctx context.Context, engine *tasks.Engine, dateFormat string) *Model {
	columns := make([]table.Column, len(formatter.Columns))
	for i, title := range formatter.Columns {
		columns[i] = table.Column{Title: title, Width: columnWidths[i]}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	return &Model{
		ctx:         ctx,
		engine:      engine,
		dateFormat:  dateFormat,
		view:        MainView,
		table:       t,
		form:        newInputGroup(workoutFields),
		creds:       newInputGroup(credentialFields),
		state:       tasks.Creating(),
		submitLabel: tasks.LabelCreate,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init loads the session and, when logged in, the workout table.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadSession(), m.list())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(5, msg.Height-12))
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgSessionLoaded:
			data := msg.data.(sessionData)
			m.email = ""
			if data.err == nil && data.session.Valid() {
				m.email = data.session.Email()
			}
			return m, nil
		case MsgEffects:
			return m.applyEffects(msg.data.(effectsData))
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.view {
		case MainView:
			return m.handleMainKeys(msg)
		case FormView:
			return m.handleFormKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case LoginView, RegisterView:
			return m.handleCredentialKeys(msg)
		}
	}

	return m, nil
}

// applyEffects replays an engine call's recorded effects and adopts its edit state.
func (m *Model) applyEffects(d effectsData) (tea.Model, tea.Cmd) {
	m.busy = false
	if len(d.recorder.Alerts()) > 0 {
		m.failed = d.err != nil
	}
	if d.op == opLogout {
		m.email = ""
		m.setWorkouts(nil)
	}

	d.recorder.Replay(&modelPresenter{m: m})
	m.state = d.state

	if d.op == opLogin && d.err == nil {
		m.creds.setValues()
		return m, tea.Batch(m.loadSession(), m.list())
	}
	return m, nil
}

func (m *Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.add):
		m.cancelEdit()
		m.view = FormView
		return m, nil
	case key.Matches(msg, m.keys.edit):
		if id, ok := m.selectedID(); ok {
			return m, m.beginEdit(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		if m.email == "" {
			return m, m.remove(id)
		}
		m.pending = id
		m.view = ConfirmView
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.list()
	case key.Matches(msg, m.keys.login):
		m.showCredentials(LoginView)
		return m, nil
	case key.Matches(msg, m.keys.register):
		m.showCredentials(RegisterView)
		return m, nil
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.cancelEdit()
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.next):
		m.form.next()
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.form.prev()
		return m, nil
	}
	return m, m.form.update(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		id := m.pending
		m.pending = ""
		m.view = MainView
		return m, m.remove(id)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.pending = ""
		m.view = MainView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleCredentialKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = MainView
		return m, nil
	case key.Matches(msg, m.keys.submit):
		creds := m.creds.credentials()
		if m.view == RegisterView {
			return m, m.run(opRegister, func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error) {
				return s, e.Register(m.ctx, creds)
			})
		}
		return m, m.run(opLogin, func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error) {
			return s, e.Login(m.ctx, creds)
		})
	case key.Matches(msg, m.keys.next):
		m.creds.next()
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.creds.prev()
		return m, nil
	}
	return m, m.creds.update(msg)
}

// run executes fn against a recording copy of the engine off the event loop.
func (m *Model) run(op operation, fn func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error)) tea.Cmd {
	m.busy = true
	engine, state := m.engine, m.state
	return func() tea.Msg {
		rec := tasks.NewRecorder(true)
		next, err := fn(engine.WithPresenter(rec), state)
		return effectsMsg(op, rec, next, err)
	}
}

func (m *Model) loadSession() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		sess, err := engine.Status()
		return sessionLoadedMsg(sess, err)
	}
}

func (m *Model) list() tea.Cmd {
	return m.run(opList, func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error) {
		_, err := e.List(m.ctx)
		return s, err
	})
}

func (m *Model) beginEdit(id string) tea.Cmd {
	return m.run(opBeginEdit, func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error) {
		return e.BeginEdit(m.ctx, s, id)
	})
}

func (m *Model) submit() tea.Cmd {
	form := m.form.workoutForm()
	return m.run(opSubmit, func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error) {
		return e.Submit(m.ctx, s, form)
	})
}

func (m *Model) remove(id string) tea.Cmd {
	return m.run(opDelete, func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error) {
		return s, e.Delete(m.ctx, id)
	})
}

func (m *Model) logout() tea.Cmd {
	return m.run(opLogout, func(e *tasks.Engine, s tasks.EditState) (tasks.EditState, error) {
		return s, e.Logout()
	})
}

// cancelEdit makes no request so it is applied directly.
func (m *Model) cancelEdit() {
	m.state = m.engine.WithPresenter(&modelPresenter{m: m}).CancelEdit(m.state)
}

func (m *Model) showCredentials(v ViewState) {
	email := m.creds.value(0)
	m.creds.setValues(email)
	m.creds.focusOn(0)
	if email != "" {
		m.creds.focusOn(1)
	}
	m.view = v
}

func (m *Model) setWorkouts(ws []models.Workout) {
	m.workouts = ws
	rows := make([]table.Row, 0, len(ws))
	for _, r := range formatter.Rows(ws, m.dateFormat) {
		rows = append(rows, table.Row(r))
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func (m *Model) selectedID() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.workouts) {
		return "", false
	}
	return m.workouts[i].ID, true
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case FormView:
		body = m.renderForm()
	case ConfirmView:
		body = m.renderConfirm()
	case LoginView:
		body = m.renderCredentials("Login")
	case RegisterView:
		body = m.renderCredentials("Register")
	default:
		body = m.renderMain()
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("BeatMiles"))
	b.WriteString("\n")
	b.WriteString(m.renderSession())
	b.WriteString("\n\n")
	b.WriteString(body)
	if line := m.renderStatus(); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func (m *Model) renderSession() string {
	if m.email == "" {
		return styles.warn.Render("Not logged in")
	}
	return styles.help.Render(fmt.Sprintf("Logged in as %s", m.email))
}

func (m *Model) renderStatus() string {
	switch {
	case m.busy:
		return styles.help.Render("Working...")
	case m.status == "":
		return ""
	case m.failed:
		return styles.err.Render(m.status)
	default:
		return styles.ok.Render(m.status)
	}
}

func (m *Model) renderMain() string {
	var content string
	if len(m.workouts) == 0 {
		content = styles.help.Render("No workouts to show.")
	} else {
		content = m.table.View()
	}

	helpKeys := []key.Binding{m.keys.add, m.keys.edit, m.keys.remove, m.keys.refresh}
	if m.email == "" {
		helpKeys = append(helpKeys, m.keys.login, m.keys.register)
	} else {
		helpKeys = append(helpKeys, m.keys.logout)
	}
	helpKeys = append(helpKeys, m.keys.quit)
	return fmt.Sprintf("%s\n\n%s", content, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderForm() string {
	title := "New Workout"
	if m.state.IsEditing() {
		title = "Edit Workout"
	}

	helpKeys := []key.Binding{m.keys.next, m.keys.prev, m.keys.submit, m.keys.back}
	return fmt.Sprintf(
		"%s\n%s\n%s\n\n%s",
		styles.title.Render(title),
		m.form.view(),
		styles.button.Render(m.submitLabel),
		m.help.ShortHelpView(helpKeys),
	)
}

func (m *Model) renderConfirm() string {
	var desc string
	if w, ok := models.FindWorkout(m.workouts, m.pending); ok {
		desc = fmt.Sprintf("\n%s on %s\n", w.Type, formatter.Row(w, m.dateFormat)[0])
	}
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", styles.warn.Render(tasks.MsgConfirmDelete), desc, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCredentials(title string) string {
	helpKeys := []key.Binding{m.keys.next, m.keys.submit, m.keys.back}
	return fmt.Sprintf(
		"%s\n%s\n%s\n\n%s",
		styles.title.Render(title),
		m.creds.view(),
		styles.button.Render(title),
		m.help.ShortHelpView(helpKeys),
	)
}

// Run starts the bubbletea program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, engine *tasks.Engine, dateFormat string) error {
	p := tea.NewProgram(NewModel(ctx, engine, dateFormat), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
