package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/preciselake/preciselake/internal/output"
	"github.com/preciselake/preciselake/internal/service/analysis"
	"github.com/preciselake/preciselake/pkg/analyzer/graph"
	"github.com/preciselake/preciselake/pkg/parser"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"g"},
		Usage:     "Export the structural graph of node kinds",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: "dot",
				Usage: "Graph format: dot, mermaid, json",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print PageRank and degree metrics instead of the graph",
			},
		},
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	files, err := getFiles(c)
	if err != nil {
		return err
	}
	path := files[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	svc := analysis.New(analysis.WithConfig(appConfig(c)), analysis.WithLogger(appLogger(c)))
	g, err := svc.Graph(c.Context, source, path)
	var syntaxErr *parser.SyntaxError
	if errors.As(err, &syntaxErr) {
		return cli.Exit(syntaxErr.Error(), 2)
	}
	if err != nil {
		return err
	}

	if c.Bool("metrics") {
		formatter, err := newFormatter(c)
		if err != nil {
			return err
		}
		defer formatter.Close()
		return formatter.Output(output.NewMetricsView(graph.CalculateMetrics(g)))
	}

	var rendered string
	switch strings.ToLower(c.String("format")) {
	case "dot":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		rendered, err = graph.ToDOT(g, sanitizeGraphName(name))
	case "mermaid":
		rendered = graph.ToMermaid(g)
	case "json":
		rendered, err = graph.ToJSON(g)
	default:
		return cli.Exit(fmt.Sprintf("unknown graph format %q (want dot, mermaid, or json)", c.String("format")), 2)
	}
	if err != nil {
		return err
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}

	if out := globalString(c, metaOutput); out != "" {
		return os.WriteFile(out, []byte(rendered), 0o644)
	}
	_, err = fmt.Fprint(c.App.Writer, rendered)
	return err
}

// sanitizeGraphName makes a file stem usable as a DOT graph ID.
func sanitizeGraphName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 || (name[0] >= '0' && name[0] <= '9') {
		return "g_" + b.String()
	}
	return b.String()
}
