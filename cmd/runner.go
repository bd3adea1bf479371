package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/beatmiles/internal/repositories"
	"github.com/desertthunder/beatmiles/internal/services"
	"github.com/desertthunder/beatmiles/internal/shared"
	"github.com/desertthunder/beatmiles/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configLoaded bool
	logger       *log.Logger
	output       io.Writer
	input        io.Reader
	reader       *bufio.Reader
	httpClient   *http.Client
	db           *sql.DB
	store        tasks.SessionStore
	api          *services.APIService
	engine       *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Config is used as is and the --config file is not read.
// A nil Store opens the SQLite session database named by the config on first use.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	HTTPClient *http.Client
	Store      tasks.SessionStore
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:       opts.Config,
		configLoaded: loaded,
		logger:       opts.Logger,
		output:       opts.Output,
		input:        opts.Input,
		httpClient:   opts.HTTPClient,
		store:        opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, registerCommand, loginCommand, logoutCommand, sessionCommand, workoutsCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config, applies BEATMILES_* overrides and sets the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !r.configLoaded {
		path := cmd.String("config")
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
		r.configLoaded = true
	}

	if err := shared.ApplyEnv(r.config); err != nil {
		return ctx, err
	}

	level := r.config.LogLevel()
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// After releases the session database.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close closes the session database if this runner opened it.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger used by the runner and anything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.engine = nil
	r.api = nil
}

// connect opens the session store and builds the API clients and engine on first use.
func (r *Runner) connect() (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	if r.store == nil {
		db, err := shared.OpenSessionDatabase(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		r.db = db
		r.store = repositories.NewTokenStore(repositories.NewSessionRepository(db))
	}

	client := r.httpClient
	if client == nil {
		client = &http.Client{Timeout: r.config.RequestTimeout()}
	}

	r.api = services.NewAPIService(r.config.API.BaseURL, client, r.logger)
	r.engine = tasks.NewEngine(tasks.EngineOpts{
		Store:    r.store,
		Auth:     services.NewAuthService(r.api),
		Workouts: services.NewWorkoutService(r.api),
		Logger:   r.logger,
	})
	r.logger.Debug("engine ready", "api", r.api.BaseURL(), "db", r.config.Database.Path)
	return r.engine, nil
}

// engineFor returns the engine reporting to the terminal. assumeYes answers every confirmation.
func (r *Runner) engineFor(assumeYes bool) (*tasks.Engine, error) {
	engine, err := r.connect()
	if err != nil {
		return nil, err
	}
	return engine.WithPresenter(r.presenter(assumeYes)), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// readLine prompts and reads one trimmed line from the runner's input.
func (r *Runner) readLine(prompt string) (string, error) {
	if err := r.writePlain("%s", prompt); err != nil {
		return "", err
	}
	if r.reader == nil {
		r.reader = bufio.NewReader(r.input)
	}
	line, err := r.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: failed to read input: %v", shared.ErrMissingArgument, err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads a password without echo when the input is a terminal.
func (r *Runner) readSecret(prompt string) (string, error) {
	f, ok := r.input.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r.readLine(prompt)
	}

	if err := r.writePlain("%s", prompt); err != nil {
		return "", err
	}
	secret, err := term.ReadPassword(int(f.Fd()))
	_ = r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}
