package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/beatmiles/internal/formatter"
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
	"github.com/desertthunder/beatmiles/internal/tasks"
	"github.com/urfave/cli/v3"
)

// formFromFlags collects the workout flags exactly as typed.
func formFromFlags(cmd *cli.Command) models.WorkoutForm {
	return models.WorkoutForm{
		Date:         cmd.String("date"),
		Type:         cmd.String("type"),
		Duration:     cmd.String("duration"),
		Distance:     cmd.String("distance"),
		AvgSpeed:     cmd.String("avg-speed"),
		AvgHeartRate: cmd.String("avg-heart-rate"),
		Calories:     cmd.String("calories"),
	}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// WorkoutsList prints the workout table, or the workouts in another format.
func (r *Runner) WorkoutsList(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))

	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}

	if format == "table" || format == "" {
		if sess, err := engine.Status(); err == nil && sess == nil {
			return r.writePlain("Not logged in. Run 'beatmiles login' to sign in.\n")
		}
		_, err := engine.List(ctx)
		return err
	}

	ws, err := engine.Fetch(ctx)
	if err != nil {
		return err
	}
	if format == formatter.FormatJSON {
		if ws == nil {
			ws = []models.Workout{}
		}
		return r.writeJSON(ws, cmd.Bool("pretty"))
	}

	data, err := formatter.Export(ws, format, r.config.Display.DateFormat)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// WorkoutsAdd logs a workout. The date defaults to today.
func (r *Runner) WorkoutsAdd(ctx context.Context, cmd *cli.Command) error {
	form := formFromFlags(cmd)
	if strings.TrimSpace(form.Date) == "" {
		form.Date = time.Now().Format(shared.ISODate)
	}

	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}
	return engine.Create(ctx, form)
}

// WorkoutsEdit loads a workout, applies the given flags on top and saves it.
func (r *Runner) WorkoutsEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	changes := formFromFlags(cmd)
	if changes.IsZero() {
		return fmt.Errorf("%w: nothing to change, pass at least one workout flag", shared.ErrMissingArgument)
	}

	engine, err := r.connect()
	if err != nil {
		return err
	}

	// The loaded form is captured instead of printed.
	rec := tasks.NewRecorder(false)
	state, err := engine.WithPresenter(rec).BeginEdit(ctx, tasks.Creating(), id)
	rec.Replay(&alertsOnly{r.presenter(false)})
	if err != nil {
		return err
	}
	filled, ok := rec.Last(tasks.EffectFillForm)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrWorkoutNotFound, id)
	}

	r.logger.Debug("editing workout", "state", state)
	_, err = engine.WithPresenter(r.presenter(false)).SaveChanges(ctx, state, filled.Form.Merge(changes))
	return err
}

// WorkoutsDelete deletes a workout after confirmation.
func (r *Runner) WorkoutsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	engine, err := r.engineFor(cmd.Bool("yes"))
	if err != nil {
		return err
	}

	if err := engine.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrCancelled) {
			return r.writePlain("Cancelled.\n")
		}
		return err
	}
	return nil
}

// WorkoutsExport writes every workout to a file, or to stdout with --output -.
func (r *Runner) WorkoutsExport(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")

	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}
	ws, err := engine.Fetch(ctx)
	if err != nil {
		return err
	}

	if output == "-" {
		data, err := formatter.Export(ws, format, r.config.Display.DateFormat)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	path, err := formatter.WriteExport(ws, format, output, r.config.Display.DateFormat)
	if err != nil {
		return err
	}
	r.logger.Info("workouts exported", "count", len(ws), "format", format, "path", path)
	return r.writePlain("✓ Exported %d workouts to %s\n", len(ws), path)
}

// WorkoutsImport logs every row of a CSV file with a bounded, rate limited worker pool.
func (r *Runner) WorkoutsImport(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "file")
	if err != nil {
		return err
	}

	forms, err := formatter.ParseCSVFile(path)
	if err != nil {
		return err
	}

	opts := tasks.BulkImportOpts{
		NumWorkers: r.config.Import.Workers,
		RateLimit:  r.config.Import.RateLimit,
		DryRun:     cmd.Bool("dry-run"),
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := engine.BulkImport(ctx, progress, forms, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	for _, row := range result.Results {
		if row.Error != nil {
			r.writePlain("✗ row %d: %v\n", row.Row, row.Error)
		}
	}
	if opts.DryRun {
		return r.writePlain("✓ %d of %d rows are valid\n", result.Total-result.Invalid, result.Total)
	}
	if result.Imported == 0 && result.Total > 0 {
		return fmt.Errorf("%w: no workouts were imported", shared.ErrAPIRequest)
	}
	return nil
}

// alertsOnly forwards alerts and navigation and drops everything else.
type alertsOnly struct {
	*cliPresenter
}

func (a *alertsOnly) ShowWorkouts([]models.Workout) {}
func (a *alertsOnly) Confirm(string) bool           { return false }
