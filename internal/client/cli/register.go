package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Lekka141/VaultConnect/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	displayName, err := c.io.ReadInput("Display name (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read display name: %w", err)
	}

	password, err := c.promptPassword("Password (min 8 chars): ", "Confirm password: ")
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Registering account...")

	session, err := c.session.Register(ctx, api.RegisterRequest{
		Username:    username,
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("Account ID: %s\n", session.AccountID)
	c.io.Printf("Username: %s\n", session.Username)
	c.io.Printf("Session expires: %s\n", session.ExpiresAt.Local().Format(time.RFC3339))
	c.io.Println()
	c.io.Println("You are now logged in.")

	return nil
}
