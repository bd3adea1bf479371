package main

import (
	"strings"

	"github.com/desertthunder/beatmiles/internal/formatter"
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/tasks"
)

// cliPresenter prints engine effects to the runner's output.
//
// Form effects have no terminal counterpart and are only logged.
type cliPresenter struct {
	r         *Runner
	assumeYes bool
	withIDs   bool
}

var _ tasks.Presenter = (*cliPresenter)(nil)

func (r *Runner) presenter(assumeYes bool) *cliPresenter {
	return &cliPresenter{r: r, assumeYes: assumeYes, withIDs: true}
}

func (p *cliPresenter) Alert(msg string) {
	_ = p.r.writePlain("%s\n", msg)
}

func (p *cliPresenter) Navigate(page tasks.Page) {
	switch page {
	case tasks.PageLogin:
		_ = p.r.writePlain("Run 'beatmiles login' to sign in.\n")
	case tasks.PageRegister:
		_ = p.r.writePlain("Run 'beatmiles register' to create an account.\n")
	}
}

// Confirm reads y or yes from the input. Anything else, including EOF, declines.
func (p *cliPresenter) Confirm(prompt string) bool {
	if p.assumeYes {
		return true
	}
	answer, err := p.r.readLine(prompt + " [y/N]: ")
	if err != nil {
		p.r.logger.Debug("confirmation not answered", "error", err)
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (p *cliPresenter) ShowWorkouts(ws []models.Workout) {
	if len(ws) == 0 {
		_ = p.r.writePlain("No workouts found.\n")
		return
	}
	_ = p.r.writePlain("%s\n", formatter.RenderTable(ws, p.r.config.Display.DateFormat, p.withIDs))
}

func (p *cliPresenter) ResetForm() {}

func (p *cliPresenter) FillForm(form models.WorkoutForm) {
	p.r.logger.Debug("form filled", "date", form.Date, "type", form.Type)
}

func (p *cliPresenter) SetSubmitLabel(label string) {
	p.r.logger.Debug("submit label", "label", label)
}
