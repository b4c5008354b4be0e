package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mdexport/internal"
	pkgconfig "github.com/starford/mdexport/pkg/config"
)

// options loads the config file and applies flag overrides shared by all
// commands.
func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(configPath, "", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("vault") {
		cfg.Vault.Path = cmd.String("vault")
	}
	if cmd.IsSet("output") {
		cfg.Export.Output = cmd.String("output")
	}
	if cmd.IsSet("override") {
		cfg.Export.OverrideExisting = cmd.Bool("override")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Export(ctx, cmd.Args().First(), opts...)
}

func previewAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("preview takes exactly one note path")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	// Keep stdout for the note text.
	opts = append(opts, internal.WithLogOutput(os.Stderr))
	return internal.Preview(ctx, cmd.Args().First(), opts...)
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Watch(ctx, opts...)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	// stdout carries the MCP protocol.
	opts = append(opts, internal.WithLogOutput(os.Stderr))
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:  "mdexport",
		Usage: "Export a Markdown vault with wikilinks and embeds into portable Markdown",
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
				Name:    "vault",
				Usage:   "Vault directory (overrides vault.path)",
				Sources: cli.EnvVars("MDEXPORT_VAULT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides export.output)",
				Sources: cli.EnvVars("MDEXPORT_OUTPUT"),
			},
			&cli.BoolFlag{
				Name:  "override",
				Usage: "Overwrite existing output files (overrides export.override_existing)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Export a note, a folder or the whole vault",
				ArgsUsage: "[path]",
				Action:    exportAction,
			},
			{
				Name:      "preview",
				Usage:     "Print the exported form of one note without writing it",
				ArgsUsage: "<path>",
				Action:    previewAction,
			},
			{
				Name:   "watch",
				Usage:  "Export the vault and re-export notes as they change",
				Action: watchAction,
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API with live re-export",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
