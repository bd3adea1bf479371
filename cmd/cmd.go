// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/beatmiles/internal/formatter"
	"github.com/urfave/cli/v3"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "email",
			Aliases: []string{"e"},
			Usage:   "Account email (prompted when omitted)",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password (prompted without echo when omitted)",
			Sources: cli.EnvVars("BEATMILES_PASSWORD"),
		},
	}
}

// workoutFlags are the workout fields. Every value is taken as typed and parsed by the form.
func workoutFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Workout date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Workout type, e.g. running"},
		&cli.StringFlag{Name: "duration", Usage: "Duration in minutes"},
		&cli.StringFlag{Name: "distance", Usage: "Distance"},
		&cli.StringFlag{Name: "avg-speed", Usage: "Average speed"},
		&cli.StringFlag{Name: "avg-heart-rate", Aliases: []string{"hr"}, Usage: "Average heart rate"},
		&cli.StringFlag{Name: "calories", Usage: "Calories burned"},
	}
}

// setupCommand creates the config file and session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the session database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead of applying pending ones",
			},
		},
		Action: r.Setup,
	}
}

func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "register",
		Usage:  "Create a BeatMiles account",
		Flags:  credentialFlags(),
		Action: r.Register,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Log in and store the session token",
		Flags:  credentialFlags(),
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session token",
		Action: r.Logout,
	}
}

// sessionCommand inspects and seeds the stored session.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage the stored session",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show who is logged in",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SessionStatus,
			},
			{
				Name:  "import",
				Usage: "Store a bearer token obtained elsewhere, e.g. from the browser's DevTools",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Email to record with the token",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Bearer token",
					},
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing a cURL command",
					},
				},
				Action: r.SessionImport,
			},
		},
	}
}

// workoutsCommand handles workout CRUD, export and import.
func workoutsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "workouts",
		Aliases: []string{"w"},
		Usage:   "Log and manage workouts",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List workouts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table, json, csv, markdown or txt",
						Value:   "table",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.WorkoutsList,
			},
			{
				Name:   "add",
				Usage:  "Log a workout",
				Flags:  workoutFlags(),
				Action: r.WorkoutsAdd,
			},
			{
				Name:      "edit",
				Usage:     "Change a workout; fields that are not given keep their current value",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     workoutFlags(),
				Action:    r.WorkoutsEdit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a workout",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.WorkoutsDelete,
			},
			{
				Name:  "export",
				Usage: "Export workouts to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, json, markdown or txt",
						Value:   formatter.FormatCSV,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path, - for stdout (default: workouts_<unix time>.<ext>)",
					},
				},
				Action: r.WorkoutsExport,
			},
			{
				Name:      "import",
				Usage:     "Log every workout in a CSV file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent requests (default from config)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second (default from config)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Validate rows without sending them",
					},
				},
				Action: r.WorkoutsImport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive workout TUI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the TUI writes its logs",
				Value: "./tmp/beatmiles-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the local web front end.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the workout pages on localhost",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default from config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the pages in the default browser",
			},
		},
		Action: r.Serve,
	}
}
