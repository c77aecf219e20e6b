package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/onebridge/internal"
	"github.com/starford/onebridge/internal/notebookservice"
	pkgconfig "github.com/starford/onebridge/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv()
	if dir := cmd.String("backup-dir"); dir != "" {
		cfg.OneNote.BackupDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunServe(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// textCommand builds a one-shot command that prints a text operation.
func textCommand(name, usage string, args []string, fn func(context.Context, *notebookservice.Text, []string) string) *cli.Command {
	argsUsage := ""
	for _, a := range args {
		argsUsage += "<" + a + "> "
	}
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: argsUsage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != len(args) {
				return fmt.Errorf("%s expects %d argument(s), got %d", name, len(args), cmd.Args().Len())
			}
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			values := cmd.Args().Slice()
			return internal.RunCommand(ctx, func(ctx context.Context, t *notebookservice.Text) string {
				return fn(ctx, t, values)
			}, opts...)
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "onebridge",
		Usage:   "Read OneNote backups and write to the running OneNote app over MCP",
		Version: version,
		Action:  runMCP,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "backup-dir",
				Usage: "OneNote backup folder (overrides config and " + internal.BackupDirEnv + ")",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio (default)",
				Action: runMCP,
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API with live change events",
				Action: runServe,
			},
			textCommand("notebooks", "List notebooks in the backup folder", nil,
				func(ctx context.Context, t *notebookservice.Text, _ []string) string {
					return t.ListNotebooks(ctx)
				}),
			textCommand("sections", "List sections of a notebook", []string{"notebook"},
				func(ctx context.Context, t *notebookservice.Text, a []string) string {
					return t.ListSections(ctx, a[0])
				}),
			textCommand("read", "Print the text of a section", []string{"notebook", "section"},
				func(ctx context.Context, t *notebookservice.Text, a []string) string {
					return t.ReadSection(ctx, a[0], a[1])
				}),
			textCommand("search", "Search every section for text", []string{"query"},
				func(ctx context.Context, t *notebookservice.Text, a []string) string {
					return t.Search(ctx, a[0])
				}),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
