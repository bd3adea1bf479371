package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
	"github.com/urfave/cli/v3"
)

// Register creates an account with the API.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}
	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}
	return engine.Register(ctx, creds)
}

// Login exchanges credentials for a token and stores it as the session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}
	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}
	return engine.Login(ctx, creds)
}

// Logout forgets the stored session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}
	return engine.Logout()
}

// sessionStatus is the JSON shape of `session status --json`.
type sessionStatus struct {
	LoggedIn   bool       `json:"logged_in"`
	Email      string     `json:"email,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// SessionStatus reports who is logged in without calling the API.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}

	sess, err := engine.Status()
	if err != nil {
		return err
	}

	status := sessionStatus{LoggedIn: sess.Valid()}
	if status.LoggedIn {
		created := sess.CreatedAt()
		status.Email = sess.Email()
		status.CreatedAt = &created
		status.LastUsedAt = sess.LastUsedAt()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.LoggedIn {
		return r.writePlain("Not logged in.\n")
	}
	r.writePlain("Logged in as %s\n", status.Email)
	r.writePlain("Since:     %s\n", status.CreatedAt.Local().Format(time.DateTime))
	if status.LastUsedAt == nil {
		return r.writePlain("Last used: never\n")
	}
	return r.writePlain("Last used: %s\n", status.LastUsedAt.Local().Format(time.DateTime))
}

// SessionImport stores a token taken from --token or from the Authorization header of a cURL command.
func (r *Runner) SessionImport(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(cmd.String("token"))
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	sources := 0
	for _, s := range []string{token, curlCmd, curlFile} {
		if s != "" {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("%w: one of --token, --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if sources > 1 {
		return fmt.Errorf("%w: --token, --curl and --curl-file are mutually exclusive", shared.ErrInvalidArgument)
	}

	if token == "" {
		var req *shared.CurlRequest
		var err error
		if curlFile != "" {
			req, err = shared.ParseCurlFile(curlFile)
		} else {
			req, err = shared.ParseCurlCommand(curlCmd)
		}
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		if token, err = req.BearerToken(); err != nil {
			return err
		}
		r.warnHostMismatch(req.URL)
	}

	engine, err := r.engineFor(false)
	if err != nil {
		return err
	}
	sess, err := engine.ImportToken(cmd.String("email"), token)
	if err != nil {
		return err
	}
	r.logger.Debug("session stored", "session", sess)
	return nil
}

// warnHostMismatch logs when a copied request targeted a different API host than the configured one.
func (r *Runner) warnHostMismatch(raw string) {
	if raw == "" {
		return
	}
	copied, err := url.Parse(raw)
	if err != nil {
		return
	}
	configured, err := url.Parse(r.config.API.BaseURL)
	if err != nil {
		return
	}
	if copied.Host != configured.Host {
		r.logger.Warn("token was copied from a different host", "copied", copied.Host, "configured", configured.Host)
	}
}

// credentials reads --email and --password, prompting for whichever is missing.
func (r *Runner) credentials(cmd *cli.Command) (models.Credentials, error) {
	creds := models.Credentials{
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}

	var err error
	if creds.Email == "" {
		if creds.Email, err = r.readLine("Email: "); err != nil {
			return creds, err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.readSecret("Password: "); err != nil {
			return creds, err
		}
	}
	return creds, nil
}
