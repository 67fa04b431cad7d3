package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/preciselake/preciselake/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// Metadata keys set by the app's Before hook.
const (
	metaConfig = "config"
	metaSource = "configSource"
	metaLogger = "logger"
	metaFormat = "format"
	metaOutput = "output"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(code)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "preciselake",
		Usage:     "Static pattern detector for Python source",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Metadata:  make(map[string]interface{}),
		Description: `preciselake parses Python files and reports unused bindings, functions
and imports, nested and unbounded loops, overridden methods, repeated
arithmetic, and large loops or literals. It can also export a structural
graph of node kinds in DOT, Mermaid, or JSON.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"PRECISELAKE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
			c.App.Metadata[metaLogger] = logger
			// graph shadows --format, so commands read the global values here.
			c.App.Metadata[metaFormat] = c.String("format")
			c.App.Metadata[metaOutput] = c.String("output")

			var opts []config.LoadOption
			if path := c.String("config"); path != "" {
				opts = append(opts, config.WithPath(path))
			}
			result, err := config.LoadConfig(opts...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
			}
			if c.Bool("no-color") {
				result.Config.Output.Color = false
			}
			c.App.Metadata[metaConfig] = result.Config
			c.App.Metadata[metaSource] = result.Source
			logger.Debug("configuration loaded", "source", result.Source)
			return nil
		},
		// Exit codes are applied in main so tests can run the app.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			analyzeCmd(),
			graphCmd(),
			configCmd(),
		},
	}
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func appLogger(c *cli.Context) *slog.Logger {
	if logger, ok := c.App.Metadata[metaLogger].(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func globalString(c *cli.Context, key string) string {
	s, _ := c.App.Metadata[key].(string)
	return s
}

// getFiles returns positional args, requiring at least one.
func getFiles(c *cli.Context) ([]string, error) {
	if c.Args().Len() == 0 {
		return nil, cli.Exit("at least one Python file or directory is required", 2)
	}
	return c.Args().Slice(), nil
}
