package tasks

import (
	"sync"

	"github.com/desertthunder/beatmiles/internal/models"
)

// Page is a navigation target.
type Page int

const (
	PageMain Page = iota
	PageLogin
	PageRegister
)

func (p Page) String() string {
	switch p {
	case PageLogin:
		return "login"
	case PageRegister:
		return "register"
	default:
		return "main"
	}
}

// Presenter applies the user-visible effects of an operation.
type Presenter interface {
	Alert(msg string)
	Navigate(p Page)
	// Confirm asks a yes/no question and blocks until it is answered.
	Confirm(prompt string) bool
	// ShowWorkouts replaces the whole table with ws.
	ShowWorkouts(ws []models.Workout)
	ResetForm()
	FillForm(form models.WorkoutForm)
	SetSubmitLabel(label string)
}

// EffectKind identifies a recorded [Presenter] call.
type EffectKind int

const (
	EffectAlert EffectKind = iota
	EffectNavigate
	EffectConfirm
	EffectShowWorkouts
	EffectResetForm
	EffectFillForm
	EffectSubmitLabel
)

func (k EffectKind) String() string {
	switch k {
	case EffectAlert:
		return "alert"
	case EffectNavigate:
		return "navigate"
	case EffectConfirm:
		return "confirm"
	case EffectShowWorkouts:
		return "show_workouts"
	case EffectResetForm:
		return "reset_form"
	case EffectFillForm:
		return "fill_form"
	case EffectSubmitLabel:
		return "submit_label"
	default:
		return ""
	}
}

// Effect is one recorded presenter call. Only the field matching Kind is set.
type Effect struct {
	Kind     EffectKind
	Text     string // alert message, confirm prompt or submit label
	Page     Page
	Workouts []models.Workout
	Form     models.WorkoutForm
}

// Recorder is a [Presenter] that records effects in call order.
//
// Confirm records the prompt and returns Answer.
type Recorder struct {
	Answer bool

	mu      sync.Mutex
	effects []Effect
}

// NewRecorder creates a Recorder that answers every confirmation with answer.
func NewRecorder(answer bool) *Recorder {
	return &Recorder{Answer: answer}
}

func (r *Recorder) add(e Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, e)
}

func (r *Recorder) Alert(msg string)        { r.add(Effect{Kind: EffectAlert, Text: msg}) }
func (r *Recorder) Navigate(p Page)         { r.add(Effect{Kind: EffectNavigate, Page: p}) }
func (r *Recorder) ResetForm()              { r.add(Effect{Kind: EffectResetForm}) }
func (r *Recorder) SetSubmitLabel(l string) { r.add(Effect{Kind: EffectSubmitLabel, Text: l}) }

func (r *Recorder) Confirm(prompt string) bool {
	r.add(Effect{Kind: EffectConfirm, Text: prompt})
	return r.Answer
}

func (r *Recorder) ShowWorkouts(ws []models.Workout) {
	r.add(Effect{Kind: EffectShowWorkouts, Workouts: append([]models.Workout(nil), ws...)})
}

func (r *Recorder) FillForm(form models.WorkoutForm) {
	r.add(Effect{Kind: EffectFillForm, Form: form})
}

// Effects returns a copy of everything recorded so far.
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Effect(nil), r.effects...)
}

// Alerts returns only the alert messages, in order.
func (r *Recorder) Alerts() []string {
	var out []string
	for _, e := range r.Effects() {
		if e.Kind == EffectAlert {
			out = append(out, e.Text)
		}
	}
	return out
}

// Last returns the most recent effect of kind k.
func (r *Recorder) Last(k EffectKind) (Effect, bool) {
	effects := r.Effects()
	for i := len(effects) - 1; i >= 0; i-- {
		if effects[i].Kind == k {
			return effects[i], true
		}
	}
	return Effect{}, false
}

// Replay applies every recorded effect to p, except confirmations which were already answered.
func (r *Recorder) Replay(p Presenter) {
	for _, e := range r.Effects() {
		switch e.Kind {
		case EffectAlert:
			p.Alert(e.Text)
		case EffectNavigate:
			p.Navigate(e.Page)
		case EffectShowWorkouts:
			p.ShowWorkouts(e.Workouts)
		case EffectResetForm:
			p.ResetForm()
		case EffectFillForm:
			p.FillForm(e.Form)
		case EffectSubmitLabel:
			p.SetSubmitLabel(e.Text)
		}
	}
}

// discard is the Presenter used when none is configured.
type discard struct{}

func (discard) Alert(string)                  {}
func (discard) Navigate(Page)                 {}
func (discard) Confirm(string) bool           { return false }
func (discard) ShowWorkouts([]models.Workout) {}
func (discard) ResetForm()                    {}
func (discard) FillForm(models.WorkoutForm)   {}
func (discard) SetSubmitLabel(string)         {}
