package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/litgrep/internal/config"
	"github.com/standardbeagle/litgrep/internal/debug"
	"github.com/standardbeagle/litgrep/internal/version"
)

// loadConfig resolves the config path and loads it. Flag values are
// layered on top of the result later via Config.ApplyDefaults, so the
// file is read as-is here.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	configPath := c.String("config")
	if configPath == "" {
		configPath = filepath.Join(root, config.DefaultConfigName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "litgrep",
		Usage:                  "Streaming literal pattern search across file trees",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: <root>/.litgrep.toml)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to search (default: current directory)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only scan files matching glob patterns (e.g., --include '*.go' --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching glob patterns (e.g., --exclude '**/node_modules/**')",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a log file",
			},
		},
		Commands: []*cli.Command{
			searchCmd(),
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Println(version.FullInfo())
					return nil
				},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug-log") {
				return setupDebugLog()
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "litgrep: %v\n", err)
		os.Exit(1)
	}
}

// resolveRoot turns the --root flag (or the working directory) into an
// absolute path so results can be converted back to relative for display.
func resolveRoot(c *cli.Context) (string, error) {
	root := c.String("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}
	return abs, nil
}
