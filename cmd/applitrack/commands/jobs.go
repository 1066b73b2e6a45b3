package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"applitrack/internal/client"
	"applitrack/internal/models"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

func newAPI(cmd *cli.Command) *client.Client {
	return client.New(cmd.String("api-url"))
}

// JobsListAction prints the caller's job applications.
func JobsListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	if err := appCtx.requireLogin(); err != nil {
		return err
	}
	if err := appCtx.Session.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to fetch jobs: %w", err)
	}

	if len(appCtx.State.Jobs) == 0 {
		fmt.Println("No job applications yet. Add one with `applitrack jobs add`.")
		return nil
	}
	return renderJobs(os.Stdout, appCtx.State.Jobs)
}

// JobsAddAction records a job application.
func JobsAddAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	if err := appCtx.requireLogin(); err != nil {
		return err
	}

	job, err := jobFromFlags(cmd)
	if err != nil {
		return err
	}

	created, err := appCtx.Session.AddJob(ctx, job)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	fmt.Printf("✓ Added %s at %s (%s)\n", created.Position, created.Company, created.Status)
	return nil
}

func jobFromFlags(cmd *cli.Command) (models.JobApplication, error) {
	status, err := parseStatus(cmd.String("status"))
	if err != nil {
		return models.JobApplication{}, err
	}
	appliedAt, err := parseDate(cmd.String("applied-at"))
	if err != nil {
		return models.JobApplication{}, err
	}
	expiresAt, err := parseDate(cmd.String("expires-at"))
	if err != nil {
		return models.JobApplication{}, err
	}

	return models.JobApplication{
		Company:   strings.TrimSpace(cmd.String("company")),
		Position:  strings.TrimSpace(cmd.String("position")),
		Status:    status,
		AppliedAt: appliedAt,
		ExpiresAt: expiresAt,
		Link:      cmd.String("link"),
	}, nil
}

func renderJobs(w io.Writer, jobs []models.JobApplication) error {
	table := tablewriter.NewWriter(w)
	table.Header("Company", "Position", "Status", "Applied", "Expires", "Link")
	for _, job := range jobs {
		if err := table.Append(job.Company, job.Position, job.Status.String(), job.AppliedAt, job.ExpiresAt, job.Link); err != nil {
			return err
		}
	}
	return table.Render()
}

// DashboardAction prints application counts per status.
func DashboardAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	if err := appCtx.requireLogin(); err != nil {
		return err
	}
	if err := appCtx.Session.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to fetch jobs: %w", err)
	}

	fmt.Printf("Applications: %d\n", len(appCtx.State.Jobs))
	return renderDashboard(os.Stdout, client.StatusCounts(appCtx.State.Jobs))
}

func renderDashboard(w io.Writer, counts []client.StatusCount) error {
	table := tablewriter.NewWriter(w)
	table.Header("Status", "Count", "")
	for _, c := range counts {
		if err := table.Append(c.Status.String(), fmt.Sprintf("%d", c.Count), strings.Repeat("█", c.Count)); err != nil {
			return err
		}
	}
	return table.Render()
}
