// Package commands implements the applitrack CLI actions.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"applitrack/internal/client"
	"applitrack/internal/models"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"
)

// appContext is what every action works with.
type appContext struct {
	Session *client.Session
	State   *client.State
}

func newAppContext(cmd *cli.Command) (*appContext, error) {
	path := cmd.String("session")
	if path == "" {
		p, err := client.DefaultTokenPath()
		if err != nil {
			return nil, fmt.Errorf("locate session file: %w", err)
		}
		path = p
	}

	state := &client.State{}
	sess := client.NewSession(client.New(cmd.String("api-url")), client.NewTokenStore(path), state.Setters())
	if err := sess.Restore(); err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return &appContext{Session: sess, State: state}, nil
}

func (a *appContext) requireLogin() error {
	if !a.State.Authenticated {
		return fmt.Errorf("%w: run `applitrack login` first", client.ErrNotLoggedIn)
	}
	return nil
}

func promptSecret(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	return prompt.Run()
}

// passwordFlag returns --password or prompts for it.
func passwordFlag(cmd *cli.Command) (string, error) {
	if pw := cmd.String("password"); pw != "" {
		return pw, nil
	}
	return promptSecret("Password")
}

// parseStatus accepts a status name or its number.
func parseStatus(raw string) (models.JobStatus, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		status := models.JobStatus(n)
		if !status.Valid() {
			return 0, fmt.Errorf("unknown status %d", n)
		}
		return status, nil
	}
	status, ok := models.ParseJobStatus(raw)
	if !ok {
		return 0, fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// parseDate validates an optional YYYY-MM-DD flag.
func parseDate(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
	}
	return d.Format(time.DateOnly), nil
}
