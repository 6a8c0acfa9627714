package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/service"
)

func sleepCommand(connect ConnectFunc) *cli.Command {
	return &cli.Command{
		Name:  "sleep",
		Usage: "Run one consolidation pass: merge, promote and garbage collect",
		Action: func(ctx context.Context, c *cli.Command) error {
			svcs, release, err := connect(ctx)
			if err != nil {
				return err
			}
			defer release()

			res, err := svcs.SleepCycle.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("sleep cycle: %w", err)
			}
			if err := printJSON(c.Root().Writer, res); err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("%d sleep cycle step(s) failed", len(res.Errors))
			}
			return nil
		},
	}
}

func syncCommand(connect ConnectFunc) *cli.Command {
	var (
		propertyID string
		days       int64
	)

	return &cli.Command{
		Name:  "sync",
		Usage: "Load recent search performance for a property",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "property",
				Aliases:     []string{"p"},
				Usage:       "Property ID",
				Sources:     cli.EnvVars("SEARCHMIND_PROPERTY"),
				Destination: &propertyID,
				Required:    true,
			},
			&cli.IntFlag{
				Name:        "days",
				Aliases:     []string{"d"},
				Usage:       "Number of finalized days to load",
				Value:       service.DefaultSyncDays,
				Destination: &days,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := uuid.Parse(propertyID)
			if err != nil {
				return fmt.Errorf("invalid property id %q", propertyID)
			}

			svcs, release, err := connect(ctx)
			if err != nil {
				return err
			}
			defer release()

			res, err := svcs.Sync.Sync(ctx, id, int(days))
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			return printJSON(c.Root().Writer, res)
		},
	}
}

func askCommand(connect ConnectFunc) *cli.Command {
	var (
		propertyID  string
		diagnostics string
	)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Run one turn and print its events as JSON lines",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "property",
				Aliases:     []string{"p"},
				Usage:       "Property ID to scope the question to",
				Sources:     cli.EnvVars("SEARCHMIND_PROPERTY"),
				Destination: &propertyID,
			},
			&cli.StringFlag{
				Name:        "diagnostics",
				Usage:       "Prior diagnostic output to pass to the agents",
				Destination: &diagnostics,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if message == "" {
				return errors.New("a message is required")
			}

			req := service.TurnRequest{Message: message, Diagnostics: diagnostics}
			if propertyID != "" {
				id, err := uuid.Parse(propertyID)
				if err != nil {
					return fmt.Errorf("invalid property id %q", propertyID)
				}
				req.PropertyID = id
			}

			svcs, release, err := connect(ctx)
			if err != nil {
				return err
			}
			defer release()

			enc := json.NewEncoder(c.Root().Writer)
			return svcs.Turns.HandleTurn(ctx, req, func(ev domain.Event) error {
				return enc.Encode(ev)
			})
		},
	}
}
