package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shandysiswandi/hirelens/internal/app"
	"github.com/urfave/cli/v3"
)

const configFlag = "config"

func serve(_ context.Context, cmd *cli.Command) error {
	application := app.New(cmd.String(configFlag)) // Initialize the application
	wait := application.Start()                     // Start the application and wait for the termination signal
	<-wait                                          // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
	return nil
}

func migrateCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return app.Migrate(ctx, cmd.String(configFlag), name)
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "hirelens",
		Usage: "HireLens OTP backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Usage:   "path to the YAML config file",
				Value:   "./config/config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Manage the PostgreSQL schema",
				Commands: []*cli.Command{
					migrateCommand("up", "Apply all pending migrations"),
					migrateCommand("down", "Roll back the latest migration"),
					migrateCommand("status", "Print migration status"),
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
