// Package cli implements the interactive account commands of the client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lekka141/VaultConnect/internal/client/auth"
	"github.com/Lekka141/VaultConnect/internal/client/iocli"
)

// ErrUnknownCommand is returned by Run for an unrecognised command.
var ErrUnknownCommand = errors.New("unknown command")

// Cli runs one command against the session service.
type Cli struct {
	io      iocli.IO
	session auth.Service
	now     func() time.Time
	name    string
}

// New creates a Cli. name is the program name used in hints.
func New(io iocli.IO, session auth.Service, name string) *Cli {
	return &Cli{
		io:      io,
		session: session,
		now:     time.Now,
		name:    name,
	}
}

// Run dispatches args[0] to its command.
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintUsage()
		return ErrUnknownCommand
	}

	switch args[0] {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "passwd":
		return c.runChangePassword(ctx)
	case "help", "-h", "--help":
		c.PrintUsage()
		return nil
	default:
		c.PrintUsage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
}

// PrintUsage prints the command list.
func (c *Cli) PrintUsage() {
	c.io.Println("VaultConnect Client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Printf("  %s [OPTIONS] COMMAND\n", c.name)
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  --version       Show version information")
	c.io.Println("  --server URL    Server URL (default: http://localhost:8080)")
	c.io.Println("  --db PATH       Path to local session database (default: vaultconnect-client.db)")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  register        Create an account and start a session")
	c.io.Println("  login           Log in with username or email")
	c.io.Println("  logout          End the current session")
	c.io.Println("  status          Show local session status")
	c.io.Println("  whoami          Show the account of the current session")
	c.io.Println("  passwd          Change the account password")
}

// promptPassword reads a password twice and requires both to match.
func (c *Cli) promptPassword(prompt, confirm string) (string, error) {
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	confirmation, err := c.io.ReadPassword(confirm)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if password != confirmation {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func (c *Cli) loginHint() {
	c.io.Printf("Run '%s login' to authenticate.\n", c.name)
}
