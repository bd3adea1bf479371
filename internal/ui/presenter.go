package ui

import (
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/tasks"
)

// modelPresenter replays recorded engine effects onto the model.
// It is only used from Update.
type modelPresenter struct {
	m *Model
}

var _ tasks.Presenter = (*modelPresenter)(nil)

func (p *modelPresenter) Alert(msg string) {
	p.m.status = msg
}

func (p *modelPresenter) Navigate(page tasks.Page) {
	switch page {
	case tasks.PageLogin:
		p.m.showCredentials(LoginView)
	case tasks.PageRegister:
		p.m.showCredentials(RegisterView)
	default:
		p.m.view = MainView
	}
}

// Confirm is answered in [ConfirmView] before the engine runs.
func (p *modelPresenter) Confirm(string) bool { return true }

func (p *modelPresenter) ShowWorkouts(ws []models.Workout) {
	p.m.setWorkouts(ws)
}

func (p *modelPresenter) ResetForm() {
	p.m.form.reset()
	if p.m.view == FormView {
		p.m.view = MainView
	}
}

func (p *modelPresenter) FillForm(form models.WorkoutForm) {
	p.m.form.fillWorkout(form)
	p.m.view = FormView
}

func (p *modelPresenter) SetSubmitLabel(label string) {
	p.m.submitLabel = label
}
