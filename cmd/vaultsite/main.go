package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultsite/internal"
	pkgconfig "github.com/starford/vaultsite/pkg/config"
)

var version = "dev"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

// options loads the config named by --config. A missing file leaves the
// defaults in place.
func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Build(ctx, opts...)
}

func validate(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Validate(ctx, opts...)
}

func dashboard(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Dashboard(ctx, cmd.Bool("check"), opts...)
}

func links(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Links(ctx, cmd.Bool("dangling"), cmd.String("backlinks"), opts...)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "vaultsite",
		Usage:   "Publish a Markdown vault as a static site with resolved wiki-links and raw Markdown routes",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Render the vault into the output directory",
				Flags:  []cli.Flag{configFlag()},
				Action: build,
			},
			{
				Name:   "serve",
				Usage:  "Build, serve and rebuild on change with live reload",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:   "validate",
				Usage:  "Check note frontmatter against the schema",
				Flags:  []cli.Flag{configFlag()},
				Action: validate,
			},
			{
				Name:  "dashboard",
				Usage: "Regenerate the dashboard note",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Fail if the dashboard is out of date instead of writing it",
					},
				},
				Action: dashboard,
			},
			{
				Name:  "links",
				Usage: "Report on the link graph of the last build",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "dangling",
						Usage: "List links that resolve to no entry",
					},
					&cli.StringFlag{
						Name:  "backlinks",
						Usage: "List entries linking to `ID`",
					},
				},
				Action: links,
			},
			{
				Name:   "mcp",
				Usage:  "Serve vault tools over MCP on stdin/stdout",
				Flags:  []cli.Flag{configFlag()},
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
