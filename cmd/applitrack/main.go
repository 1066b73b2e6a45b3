package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"applitrack/cmd/applitrack/commands"
	"applitrack/internal/client"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "applitrack",
		Usage: "Track job applications from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "gateway base URL",
				Value:   client.DefaultBaseURL,
				Sources: cli.EnvVars("APPLITRACK_API_URL"),
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "session file (default: user config dir)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "password (prompted when omitted)"},
				},
				Action: commands.SignupAction,
			},
			{
				Name:  "login",
				Usage: "Log in and remember the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "password (prompted when omitted)"},
				},
				Action: commands.LoginAction,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: commands.LogoutAction,
			},
			{
				Name:  "reset-password",
				Usage: "Request a password reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "account email", Required: true},
				},
				Action: commands.ResetPasswordAction,
			},
			{
				Name:  "jobs",
				Usage: "Job application commands",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List your job applications",
						Action: commands.JobsListAction,
					},
					{
						Name:  "add",
						Usage: "Record a job application",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "company", Usage: "company name", Required: true},
							&cli.StringFlag{Name: "position", Usage: "position title", Required: true},
							&cli.StringFlag{Name: "status", Usage: "applied, interview, second interview, third interview, offer, rejected, ghosted or 1-7", Value: "applied"},
							&cli.StringFlag{Name: "applied-at", Usage: "application date (YYYY-MM-DD)"},
							&cli.StringFlag{Name: "expires-at", Usage: "posting expiry date (YYYY-MM-DD)"},
							&cli.StringFlag{Name: "link", Usage: "posting URL"},
						},
						Action: commands.JobsAddAction,
					},
				},
			},
			{
				Name:   "dashboard",
				Usage:  "Show applications per status",
				Action: commands.DashboardAction,
			},
		},
	}
}
