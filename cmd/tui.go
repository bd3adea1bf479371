package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/beatmiles/internal/shared"
	"github.com/desertthunder/beatmiles/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive workout TUI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	engine, err := r.connect()
	if err != nil {
		return err
	}

	if err := ui.Run(ctx, engine, r.config.Display.DateFormat); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
