package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/beatmiles/internal/models"
)

// field describes one labelled text input.
type field struct {
	label       string
	placeholder string
	limit       int
	secret      bool
}

var workoutFields = []field{
	{label: "Date", placeholder: "YYYY-MM-DD", limit: 10},
	{label: "Type", placeholder: "running", limit: 32},
	{label: "Duration (min)", placeholder: "required", limit: 6},
	{label: "Distance", placeholder: "optional", limit: 10},
	{label: "Avg Speed", placeholder: "optional", limit: 10},
	{label: "Avg Heart Rate", placeholder: "optional", limit: 4},
	{label: "Calories", placeholder: "optional", limit: 6},
}

var credentialFields = []field{
	{label: "Email", placeholder: "you@example.com", limit: 128},
	{label: "Password", limit: 128, secret: true},
}

// inputGroup is an ordered set of text inputs with a single focused entry.
type inputGroup struct {
	fields []field
	inputs []textinput.Model
	focus  int
}

func newInputGroup(fields []field) inputGroup {
	g := inputGroup{fields: fields, inputs: make([]textinput.Model, len(fields))}
	for i, f := range fields {
		ti := textinput.New()
		ti.Placeholder = f.placeholder
		ti.CharLimit = f.limit
		ti.Prompt = ""
		ti.Cursor.SetMode(cursor.CursorStatic)
		if f.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		g.inputs[i] = ti
	}
	g.focusOn(0)
	return g
}

func (g *inputGroup) focusOn(i int) {
	n := len(g.inputs)
	g.focus = ((i % n) + n) % n
	for j := range g.inputs {
		if j == g.focus {
			g.inputs[j].Focus()
		} else {
			g.inputs[j].Blur()
		}
	}
}

func (g *inputGroup) next() { g.focusOn(g.focus + 1) }
func (g *inputGroup) prev() { g.focusOn(g.focus - 1) }

func (g *inputGroup) value(i int) string { return g.inputs[i].Value() }

func (g *inputGroup) setValues(values ...string) {
	for i := range g.inputs {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		g.inputs[i].SetValue(v)
	}
}

func (g *inputGroup) reset() {
	g.setValues()
	g.focusOn(0)
}

// update forwards msg to the focused input only.
func (g *inputGroup) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	g.inputs[g.focus], cmd = g.inputs[g.focus].Update(msg)
	return cmd
}

func (g inputGroup) view() string {
	var b strings.Builder
	for i, f := range g.fields {
		label := styles.label
		if i == g.focus {
			label = styles.focused
		}
		b.WriteString(label.Render(f.label))
		b.WriteString(g.inputs[i].View())
		b.WriteString("\n")
	}
	return b.String()
}

// workoutForm returns the typed field values in form order.
func (g *inputGroup) workoutForm() models.WorkoutForm {
	return models.WorkoutForm{
		Date:         g.value(0),
		Type:         g.value(1),
		Duration:     g.value(2),
		Distance:     g.value(3),
		AvgSpeed:     g.value(4),
		AvgHeartRate: g.value(5),
		Calories:     g.value(6),
	}
}

func (g *inputGroup) fillWorkout(f models.WorkoutForm) {
	g.setValues(f.Date, f.Type, f.Duration, f.Distance, f.AvgSpeed, f.AvgHeartRate, f.Calories)
	g.focusOn(0)
}

func (g *inputGroup) credentials() models.Credentials {
	return models.Credentials{Email: strings.TrimSpace(g.value(0)), Password: g.value(1)}
}
