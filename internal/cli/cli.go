// Package cli implements the searchmind operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"

	"github.com/Harshitk-cp/searchmind/internal/app"
	"github.com/Harshitk-cp/searchmind/internal/buildconfig"
	"github.com/Harshitk-cp/searchmind/internal/config"
)

// ConnectFunc builds the services a command runs against. The returned
// func releases them.
type ConnectFunc func(ctx context.Context) (*app.Services, func(), error)

// Run executes the CLI with argv, connecting to Postgres from configuration.
func Run(ctx context.Context, argv []string) error {
	return New(connectPostgres).Run(ctx, argv)
}

// New returns the root command. Tests pass a connect func backed by fakes.
func New(connect ConnectFunc) *cli.Command {
	return &cli.Command{
		Name:    "searchmind",
		Usage:   "Search intelligence operator tools",
		Version: buildconfig.Version(),
		Commands: []*cli.Command{
			sleepCommand(connect),
			syncCommand(connect),
			askCommand(connect),
			versionCommand(),
		},
	}
}

func connectPostgres(ctx context.Context) (*app.Services, func(), error) {
	if err := config.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := app.NewLogger(config.LogLevel())
	if err != nil {
		return nil, nil, err
	}

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	svcs, err := app.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return svcs, func() {
		svcs.Close()
		pool.Close()
		_ = logger.Sync()
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(ctx context.Context, c *cli.Command) error {
			_, err := fmt.Fprintln(c.Root().Writer, buildconfig.Get().String())
			return err
		},
	}
}
