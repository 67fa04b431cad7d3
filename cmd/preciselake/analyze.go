package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/preciselake/preciselake/internal/output"
	"github.com/preciselake/preciselake/internal/progress"
	"github.com/preciselake/preciselake/internal/scanner"
	"github.com/preciselake/preciselake/internal/service/analysis"
	"github.com/preciselake/preciselake/internal/telemetry"
	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/models"
	"github.com/preciselake/preciselake/pkg/parser"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Run every enabled detector over Python files or directories",
		ArgsUsage: "<path...>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "detectors",
				Aliases: []string{"d"},
				Usage:   "Detectors to run (overrides config): bindings, calls, nesting, termination, overrides, duplicates, cost, imports",
			},
			&cli.BoolFlag{
				Name:  "sequential",
				Usage: "Run detectors one at a time",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar on stderr when analyzing several files",
			},
			&cli.BoolFlag{
				Name:  "no-telemetry",
				Usage: "Do not append to the telemetry log",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	files, err := getFiles(c)
	if err != nil {
		return err
	}

	cfg := appConfig(c)
	if names := c.StringSlice("detectors"); len(names) > 0 {
		if err := analyzer.ValidateNames(names); err != nil {
			return cli.Exit(err.Error(), 2)
		}
		cfg.Analysis.Detectors = names
	}
	if c.Bool("sequential") {
		cfg.Analysis.Parallel = false
	}
	logger := appLogger(c)

	var appender *telemetry.Appender
	if cfg.Telemetry.Enabled && !c.Bool("no-telemetry") {
		appender = telemetry.NewAppender(cfg.Telemetry.LogFile)
	}

	files, err = scanner.NewScanner(cfg).Expand(files)
	if err != nil {
		return fmt.Errorf("failed to scan paths: %w", err)
	}
	if len(files) == 0 {
		return cli.Exit("no Python files found", 2)
	}

	opts := []analysis.Option{analysis.WithConfig(cfg), analysis.WithLogger(logger)}
	var tracker *progress.Tracker
	if c.Bool("progress") && len(files) > 1 {
		tracker = progress.NewTracker(c.App.ErrWriter, "Analyzing", len(files))
		opts = append(opts, analysis.WithProgress(tracker.Tick))
	}
	svc := analysis.New(opts...)

	results, errs := svc.AnalyzeFiles(c.Context, files)
	if tracker != nil {
		tracker.Finish()
	}
	var syntaxErrors int
	if errs != nil {
		for _, e := range errs.Errors {
			var syntaxErr *parser.SyntaxError
			if !errors.As(e.Err, &syntaxErr) {
				return fmt.Errorf("analysis failed: %w", e)
			}
			syntaxErrors++
			color.New(color.FgRed).Fprintln(c.App.ErrWriter, syntaxErr.Error())
		}
	}

	reports := make([]*models.Report, 0, len(results))
	for _, report := range results {
		if report == nil {
			continue
		}
		reports = append(reports, report)
		if appender != nil {
			if err := appender.Append(report.Telemetry); err != nil {
				logger.Warn("telemetry not recorded", "path", appender.Path(), "error", err)
			}
		}
	}

	if err := writeReports(c, reports); err != nil {
		return err
	}
	if syntaxErrors > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d file(s) could not be parsed", syntaxErrors, len(files)), 2)
	}
	return nil
}

func newFormatter(c *cli.Context) (*output.Formatter, error) {
	cfg := appConfig(c)
	format := cfg.Output.Format
	if f := globalString(c, metaFormat); f != "" {
		format = f
	}
	if path := globalString(c, metaOutput); path != "" {
		return output.NewFormatter(output.ParseFormat(format), path, false)
	}
	return output.NewWriterFormatter(output.ParseFormat(format), c.App.Writer, cfg.Output.Color), nil
}

func writeReports(c *cli.Context, reports []*models.Report) error {
	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	switch formatter.Format() {
	case output.FormatJSON, output.FormatTOON:
		if len(reports) == 1 {
			return formatter.Output(reports[0])
		}
		return formatter.Output(reports)
	default:
		for _, r := range reports {
			if err := formatter.Output(output.NewAnalysisView(r)); err != nil {
				return err
			}
		}
		return nil
	}
}
