package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lekka141/VaultConnect/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	session, err := c.session.Current(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.loginHint()
		return nil
	case errors.Is(err, auth.ErrSessionExpired):
		c.io.Println("Status: Session expired")
		c.io.Println()
		c.loginHint()
		return nil
	case err != nil:
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", session.Username)
	c.io.Printf("Server: %s\n", session.ServerURL)
	c.io.Printf("Token expires: %s\n", session.ExpiresAt.Local().Format(time.RFC3339))
	c.io.Printf("Time remaining: %s\n", session.ExpiresAt.Sub(c.now()).Round(time.Second))

	return nil
}
