package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lekka141/VaultConnect/internal/client/auth"
)

func (c *Cli) runWhoami(ctx context.Context) error {
	account, err := c.session.Profile(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) || errors.Is(err, auth.ErrSessionExpired) {
			c.loginHint()
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}

	c.io.Printf("Account ID: %s\n", account.ID)
	c.io.Printf("Username: %s\n", account.Username)
	c.io.Printf("Email: %s\n", account.Email)
	if account.DisplayName != "" {
		c.io.Printf("Display name: %s\n", account.DisplayName)
	}
	c.io.Printf("Member since: %s\n", account.CreatedAt.Local().Format(time.DateOnly))

	return nil
}

func (c *Cli) runChangePassword(ctx context.Context) error {
	c.io.Println("=== Change Password ===")
	c.io.Println()

	if _, err := c.session.Current(ctx); err != nil {
		c.loginHint()
		return err
	}

	current, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	next, err := c.promptPassword("New password (min 8 chars): ", "Confirm new password: ")
	if err != nil {
		return err
	}

	if err := c.session.ChangePassword(ctx, current, next); err != nil {
		return fmt.Errorf("password change failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Password changed!")
	c.io.Println("Sessions issued before the change stay valid until they expire.")

	return nil
}
