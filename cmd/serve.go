package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/beatmiles/internal/server"
	"github.com/desertthunder/beatmiles/internal/shared"
	"github.com/desertthunder/beatmiles/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web front end until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("port") {
		r.config.Server.Port = int(cmd.Int("port"))
	}

	engine, err := r.connect()
	if err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "web")
	pages, err := web.NewHandler(engine, r.config.Display.DateFormat, logger)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Recover(logger), server.Logging(logger))
	router.Handler(pages)

	ready := make(chan string, 1)
	go func() {
		addr, ok := <-ready
		if !ok {
			return
		}
		url := "http://" + addr
		r.writePlain("✓ Serving workouts at %s (Ctrl+C to stop)\n", url)
		if cmd.Bool("open") {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("failed to open browser", "url", url, "error", err)
			}
		}
	}()
	defer close(ready)

	return server.Serve(ctx, r.config.Addr(), router, logger, ready)
}
