package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Lekka141/VaultConnect/internal/client/api"
	"github.com/Lekka141/VaultConnect/internal/client/auth"
	"github.com/Lekka141/VaultConnect/internal/client/cli"
	"github.com/Lekka141/VaultConnect/internal/client/iocli"
	"github.com/Lekka141/VaultConnect/internal/client/storage/boltdb"
	"github.com/Lekka141/VaultConnect/internal/logging"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const programName = "vaultconnect"

func main() {
	os.Exit(run(os.Args[1:], iocli.NewStdio(), os.Stderr))
}

func run(args []string, term iocli.IO, stderr io.Writer) int {
	fs := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("version", false, "Show version information")
	serverURL := fs.String("server", envOr("VAULTCONNECT_SERVER", "http://localhost:8080"), "Server URL")
	dbPath := fs.String("db", envOr("VAULTCONNECT_DB", "vaultconnect-client.db"), "Path to local session database")
	verbose := fs.BoolP("verbose", "v", false, "Log debug output to stderr")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: %s [flags] <command>\n\nFlags:\n", programName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		// ContinueOnError leaves reporting to the caller.
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return 2
	}

	if *showVersion {
		printVersion(term)
		return 0
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger, err := logging.Setup(programName, Version, "text", level, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	session := auth.NewSession(api.NewClient(*serverURL), store, auth.WithLogger(logger))

	if err := cli.New(term, session, programName).Run(ctx, fs.Args()); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printVersion(term iocli.IO) {
	term.Printf("VaultConnect Client\n")
	term.Printf("Version:    %s\n", Version)
	term.Printf("Build Date: %s\n", BuildDate)
	term.Printf("Git Commit: %s\n", GitCommit)
}
