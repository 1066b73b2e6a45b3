package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// SignupAction creates an account.
func SignupAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	password, err := passwordFlag(cmd)
	if err != nil {
		return err
	}
	confirm := password
	if cmd.String("password") == "" {
		if confirm, err = promptSecret("Confirm password"); err != nil {
			return err
		}
	}

	user, err := appCtx.Session.Signup(ctx, cmd.String("email"), password, confirm)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	fmt.Printf("✓ Account created for %s (id %s)\n", user.Email, user.ID)
	return nil
}

// LoginAction logs in and stores the session.
func LoginAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	password, err := passwordFlag(cmd)
	if err != nil {
		return err
	}
	if err := appCtx.Session.Login(ctx, cmd.String("email"), password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println("✓ Logged in")
	return nil
}

// LogoutAction forgets the stored session.
func LogoutAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	if err := appCtx.Session.Logout(); err != nil {
		return err
	}
	fmt.Println("✓ Logged out")
	return nil
}

// ResetPasswordAction requests a password reset email.
func ResetPasswordAction(ctx context.Context, cmd *cli.Command) error {
	api := newAPI(cmd)
	if err := api.RequestPasswordReset(ctx, cmd.String("email")); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}
	fmt.Println("✓ If the account exists, a reset email is on its way")
	return nil
}
