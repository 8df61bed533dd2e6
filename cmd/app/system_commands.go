package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vaultemu/cmd/app/commands"
	"github.com/allisson/vaultemu/internal/app"
	"github.com/allisson/vaultemu/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the management API and metrics servers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "validate-config",
			Usage: "Load the configuration and print the vaults that would be registered",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: text or json",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directory, err := container.VaultDirectory()
				if err != nil {
					return err
				}

				return commands.RunValidateConfig(
					ctx,
					directory,
					container.Logger(),
					os.Stdout,
					commands.OutputFormat(cmd.String("format")),
				)
			},
		},
	}
}
