package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sourcegraph/conc/panics"

	"github.com/preciselake/preciselake/internal/fileproc"
	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/analyzer/bindings"
	"github.com/preciselake/preciselake/pkg/analyzer/calls"
	"github.com/preciselake/preciselake/pkg/analyzer/cost"
	"github.com/preciselake/preciselake/pkg/analyzer/duplicates"
	"github.com/preciselake/preciselake/pkg/analyzer/graph"
	"github.com/preciselake/preciselake/pkg/analyzer/imports"
	"github.com/preciselake/preciselake/pkg/analyzer/nesting"
	"github.com/preciselake/preciselake/pkg/analyzer/overrides"
	"github.com/preciselake/preciselake/pkg/analyzer/termination"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/config"
	"github.com/preciselake/preciselake/pkg/models"
	"github.com/preciselake/preciselake/pkg/parser"
)

// Service orchestrates one analysis run per source unit.
type Service struct {
	config    *config.Config
	logger    *slog.Logger
	detectors []analyzer.Detector
	progress  fileproc.ProgressFunc
	summarize func(unit *ast.Unit, paletteSize int) *models.StructuralGraph
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDetectors replaces the configured detector set (for testing).
// Detectors are run in the order given.
func WithDetectors(detectors ...analyzer.Detector) Option {
	return func(s *Service) {
		s.detectors = detectors
	}
}

// WithProgress sets a callback run after each file of AnalyzeFiles.
func WithProgress(fn func()) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config:    config.LoadOrDefault(),
		logger:    slog.Default(),
		summarize: graph.Summarize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detectors == nil {
		s.detectors = Detectors(s.config)
	}
	return s
}

// Detectors builds the enabled detectors in the fixed report order,
// whatever order the config lists them in.
func Detectors(cfg *config.Config) []analyzer.Detector {
	names := append([]string(nil), cfg.Analysis.Detectors...)
	sort.SliceStable(names, func(i, j int) bool {
		return analyzer.Rank(names[i]) < analyzer.Rank(names[j])
	})

	var out []analyzer.Detector
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case analyzer.Bindings:
			out = append(out, bindings.New())
		case analyzer.Calls:
			out = append(out, calls.New())
		case analyzer.Nesting:
			out = append(out, nesting.New())
		case analyzer.Termination:
			out = append(out, termination.New())
		case analyzer.Overrides:
			out = append(out, overrides.New())
		case analyzer.Duplicates:
			out = append(out, duplicates.New())
		case analyzer.Cost:
			out = append(out, cost.New(
				cost.WithLoopNodes(cfg.Thresholds.LoopNodes),
				cost.WithLiteralElements(cfg.Thresholds.LiteralElements),
			))
		case analyzer.Imports:
			out = append(out, imports.New())
		}
	}
	return out
}

// DetectorError records a detector that failed or panicked during a run.
type DetectorError struct {
	Detector string
	Err      error
	Panicked bool
}

func (e *DetectorError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("detector %s panicked: %v", e.Detector, e.Err)
	}
	return fmt.Sprintf("detector %s failed: %v", e.Detector, e.Err)
}

func (e *DetectorError) Unwrap() error {
	return e.Err
}

// graphStep names the structural graph summary in Report.Skipped.
const graphStep = "graph"

// structuralGraph summarizes unit, turning a panic into an error.
func (s *Service) structuralGraph(unit *ast.Unit) (*models.StructuralGraph, error) {
	var g *models.StructuralGraph
	var catcher panics.Catcher
	catcher.Try(func() {
		g = s.summarize(unit, s.config.Graph.PaletteSize)
	})
	if r := catcher.Recovered(); r != nil {
		return nil, r.AsError()
	}
	return g, nil
}

// Run analyzes a parsed unit. Findings are concatenated in detector order.
// A failing detector is logged, listed in Report.Skipped and returned as a
// DetectorError; the others still report.
func (s *Service) Run(ctx context.Context, unit *ast.Unit) (*models.Report, []*DetectorError) {
	probe := models.StartProbe()
	report := models.NewReport(unit.Path)

	var failures []*DetectorError
	for _, o := range analyzer.RunAll(ctx, unit, s.detectors, s.config.Workers()) {
		if o.Err != nil {
			derr := &DetectorError{Detector: o.Detector, Err: o.Err, Panicked: o.Panicked}
			failures = append(failures, derr)
			report.Skipped = append(report.Skipped, models.Skipped{Detector: o.Detector, Reason: o.Err.Error()})
			if errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded) {
				s.logger.Warn("detector skipped", "detector", o.Detector, "path", unit.Path, "error", o.Err)
			} else {
				s.logger.Error("detector failed", "detector", o.Detector, "path", unit.Path, "panicked", o.Panicked, "error", o.Err)
			}
			continue
		}
		report.Findings = append(report.Findings, o.Findings...)
	}

	if s.config.Graph.Enabled && ctx.Err() == nil {
		g, err := s.structuralGraph(unit)
		if err != nil {
			failures = append(failures, &DetectorError{Detector: graphStep, Err: err, Panicked: true})
			report.Skipped = append(report.Skipped, models.Skipped{Detector: graphStep, Reason: err.Error()})
			s.logger.Error("graph summary failed", "path", unit.Path, "error", err)
		}
		report.Graph = g
	}

	report.Telemetry = probe.Stop()
	s.logger.Debug("analysis complete",
		"path", unit.Path,
		"nodes", unit.NodeCount(),
		"findings", len(report.Findings),
		"skipped", len(report.Skipped),
		"elapsed", report.Telemetry.Elapsed,
	)
	return report, failures
}

// Analyze runs every enabled detector over unit.
func (s *Service) Analyze(ctx context.Context, unit *ast.Unit) *models.Report {
	report, _ := s.Run(ctx, unit)
	return report
}

// AnalyzeSource parses source and analyzes it. A syntax error is returned
// as *parser.SyntaxError with no report.
func (s *Service) AnalyzeSource(ctx context.Context, source []byte, path string) (*models.Report, error) {
	p := parser.New()
	defer p.Close()

	unit, err := p.ParseContext(ctx, source, path)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, unit), nil
}

// AnalyzeFile reads, parses and analyzes the file at path.
func (s *Service) AnalyzeFile(ctx context.Context, path string) (*models.Report, error) {
	p := parser.New()
	defer p.Close()

	unit, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, unit), nil
}

// AnalyzeFiles analyzes paths concurrently, one parser per worker.
// reports[i] belongs to paths[i] and is nil when that file could not be
// read or parsed; the failures are returned in file order.
func (s *Service) AnalyzeFiles(ctx context.Context, paths []string) ([]*models.Report, *fileproc.ProcessingErrors) {
	reports, errs := fileproc.MapFilesN(ctx, paths, s.config.Workers(),
		func(ctx context.Context, p *parser.Parser, path string) (*models.Report, error) {
			unit, err := p.ParseFile(path)
			if err != nil {
				return nil, err
			}
			return s.Analyze(ctx, unit), nil
		}, s.progress)
	if errs != nil {
		for _, e := range errs.Errors {
			s.logger.Debug("file not analyzed", "path", e.Path, "error", e.Err)
		}
	}
	return reports, errs
}

// Graph parses source and returns only its structural graph.
func (s *Service) Graph(ctx context.Context, source []byte, path string) (*models.StructuralGraph, error) {
	p := parser.New()
	defer p.Close()

	unit, err := p.ParseContext(ctx, source, path)
	if err != nil {
		return nil, err
	}
	return s.structuralGraph(unit)
}
