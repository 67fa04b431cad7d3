package analysis

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/preciselake/preciselake/internal/testutil"
	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/config"
	"github.com/preciselake/preciselake/pkg/models"
	"github.com/preciselake/preciselake/pkg/parser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubDetector struct {
	name  string
	err   error
	panic bool
}

func (d stubDetector) Name() string { return d.name }

func (d stubDetector) Detect(_ context.Context, _ *ast.Unit) ([]models.Finding, error) {
	if d.panic {
		panic("detector exploded")
	}
	if d.err != nil {
		return nil, d.err
	}
	return []models.Finding{models.NewFinding(models.FindingHeavyLoop, models.Location{Line: 1}, d.name, d.name)}, nil
}

func newService(t *testing.T, opts ...Option) (*Service, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{WithConfig(config.DefaultConfig()), WithLogger(logger)}, opts...)
	return New(opts...), &logs
}

const sample = `import os
import sys

class Base:
    def run(self):
        pass

class Child(Base):
    def run(self):
        pass

def helper():
    unused = 1
    while True:
        total = a + b
        again = a + b

def main():
    for i in range(3):
        for j in range(3):
            print(i, j)
    print(sys.argv)

main()
`

func TestNew(t *testing.T) {
	svc, _ := newService(t)
	require.NotNil(t, svc)
	assert.NotNil(t, svc.config)
	assert.NotNil(t, svc.logger)
	assert.Len(t, svc.detectors, len(analyzer.Order))
}

func TestDetectorsFollowFixedOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis.Detectors = []string{analyzer.Imports, analyzer.Bindings, analyzer.Cost, analyzer.Bindings}
	var names []string
	for _, d := range Detectors(cfg) {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{analyzer.Bindings, analyzer.Cost, analyzer.Imports}, names)
}

func TestAnalyzeSource(t *testing.T) {
	svc, _ := newService(t)
	report, err := svc.AnalyzeSource(context.Background(), []byte(sample), "sample.py")
	require.NoError(t, err)

	counts := report.CountByKind()
	assert.Equal(t, 1, counts[models.FindingUnusedImport], "os is unused")
	assert.Equal(t, 1, counts[models.FindingUnusedFunction], "helper is never called")
	assert.Equal(t, 1, counts[models.FindingNestedLoop])
	assert.Equal(t, 1, counts[models.FindingUnboundedLoop])
	assert.Equal(t, 1, counts[models.FindingOverriddenMethod])
	assert.Equal(t, 1, counts[models.FindingDuplicateExpression])
	assert.Positive(t, counts[models.FindingUnusedBinding])
	assert.Positive(t, counts[models.FindingHeavyLoop])
	assert.Empty(t, report.Skipped)

	require.NotNil(t, report.Graph)
	_, ok := report.Graph.Vertex("Module")
	assert.True(t, ok)
	assert.Positive(t, report.Telemetry.Elapsed)
}

func TestAnalyzeOrdersFindingsByDetector(t *testing.T) {
	svc, _ := newService(t)
	report, err := svc.AnalyzeSource(context.Background(), []byte(sample), "sample.py")
	require.NoError(t, err)

	last := -1
	for _, f := range report.Findings {
		rank := kindRank(f.Kind)
		assert.GreaterOrEqual(t, rank, last, "finding %s out of detector order", f.Kind)
		last = rank
	}
}

func kindRank(k models.FindingKind) int {
	switch k {
	case models.FindingUnusedBinding:
		return analyzer.Rank(analyzer.Bindings)
	case models.FindingUnusedFunction:
		return analyzer.Rank(analyzer.Calls)
	case models.FindingNestedLoop:
		return analyzer.Rank(analyzer.Nesting)
	case models.FindingUnboundedLoop:
		return analyzer.Rank(analyzer.Termination)
	case models.FindingOverriddenMethod:
		return analyzer.Rank(analyzer.Overrides)
	case models.FindingDuplicateExpression:
		return analyzer.Rank(analyzer.Duplicates)
	case models.FindingHeavyLoop, models.FindingHeavyLiteral:
		return analyzer.Rank(analyzer.Cost)
	default:
		return analyzer.Rank(analyzer.Imports)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	parallel, _ := newService(t)
	cfg := config.DefaultConfig()
	cfg.Analysis.Parallel = false
	sequential, _ := newService(t, WithConfig(cfg))

	a, err := parallel.AnalyzeSource(context.Background(), []byte(sample), "sample.py")
	require.NoError(t, err)
	b, err := sequential.AnalyzeSource(context.Background(), []byte(sample), "sample.py")
	require.NoError(t, err)
	assert.Equal(t, a.Findings, b.Findings)
	assert.Equal(t, a.Graph.Vertices, b.Graph.Vertices)
}

func TestSyntaxErrorYieldsNoReport(t *testing.T) {
	svc, _ := newService(t)
	report, err := svc.AnalyzeSource(context.Background(), []byte("def f(:\n"), "bad.py")
	assert.Nil(t, report)

	var syntaxErr *parser.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, "bad.py", syntaxErr.Path)
	assert.GreaterOrEqual(t, syntaxErr.Line, 1)
}

func TestFailingDetectorIsIsolated(t *testing.T) {
	sentinel := errors.New("bad input")
	svc, logs := newService(t, WithDetectors(
		stubDetector{name: "first"},
		stubDetector{name: "exploder", panic: true},
		stubDetector{name: "failer", err: sentinel},
		stubDetector{name: "last"},
	))

	unit, err := parser.Parse([]byte("x = 1\n"), "t.py")
	require.NoError(t, err)
	report, failures := svc.Run(context.Background(), unit)

	require.Len(t, report.Findings, 2)
	assert.Equal(t, "first", report.Findings[0].Subject)
	assert.Equal(t, "last", report.Findings[1].Subject)

	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "exploder", report.Skipped[0].Detector)
	assert.Contains(t, report.Skipped[0].Reason, "detector exploded")
	assert.Equal(t, "failer", report.Skipped[1].Detector)

	require.Len(t, failures, 2)
	assert.True(t, failures[0].Panicked)
	assert.ErrorIs(t, failures[1], sentinel)
	assert.Contains(t, failures[1].Error(), "detector failer failed")

	assert.Contains(t, logs.String(), "detector failed")
	assert.Contains(t, logs.String(), "analysis complete")
}

func TestCancelledRunSkipsEverything(t *testing.T) {
	svc, logs := newService(t)
	unit, err := parser.Parse([]byte("x = 1\n"), "t.py")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := svc.Analyze(ctx, unit)

	assert.Empty(t, report.Findings)
	assert.Len(t, report.Skipped, len(analyzer.Order))
	assert.Nil(t, report.Graph)
	assert.Contains(t, logs.String(), "detector skipped")
}

func explodingSummary(*ast.Unit, int) *models.StructuralGraph {
	panic("graph exploded")
}

func TestGraphPanicIsIsolated(t *testing.T) {
	svc, logs := newService(t, WithDetectors(stubDetector{name: "first"}))
	svc.summarize = explodingSummary

	unit, err := parser.Parse([]byte("x = 1\n"), "t.py")
	require.NoError(t, err)
	report, failures := svc.Run(context.Background(), unit)

	require.Len(t, report.Findings, 1)
	assert.Nil(t, report.Graph)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "graph", report.Skipped[0].Detector)
	assert.Contains(t, report.Skipped[0].Reason, "graph exploded")
	require.Len(t, failures, 1)
	assert.True(t, failures[0].Panicked)
	assert.Contains(t, logs.String(), "graph summary failed")
	assert.Contains(t, logs.String(), "analysis complete")

	_, err = svc.Graph(context.Background(), []byte("x = 1\n"), "t.py")
	assert.ErrorContains(t, err, "graph exploded")
}

func TestGraphDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Graph.Enabled = false
	svc, _ := newService(t, WithConfig(cfg))
	report, err := svc.AnalyzeSource(context.Background(), []byte("x = 1\n"), "t.py")
	require.NoError(t, err)
	assert.Nil(t, report.Graph)
}

func TestThresholdsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis.Detectors = []string{analyzer.Cost}
	cfg.Thresholds.LoopNodes = 1000
	svc, _ := newService(t, WithConfig(cfg))
	report, err := svc.AnalyzeSource(context.Background(), []byte("for i in x:\n    y = i\n"), "t.py")
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
}

func TestAnalyzeFile(t *testing.T) {
	svc, _ := newService(t)
	path := filepath.Join(t.TempDir(), "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("import os\n"), 0o644))

	report, err := svc.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Path)
	assert.Len(t, report.FindingsOf(models.FindingUnusedImport), 1)

	_, err = svc.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.py"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestAnalyzeFiles(t *testing.T) {
	var ticks atomic.Int32
	svc, _ := newService(t, WithProgress(func() { ticks.Add(1) }))
	dir := t.TempDir()
	paths := []string{
		testutil.WriteFile(t, filepath.Join(dir, "a.py"), "import os\n"),
		testutil.WriteFile(t, filepath.Join(dir, "broken.py"), "def (:\n"),
		testutil.WriteFile(t, filepath.Join(dir, "b.py"), "import sys\nimport re\n"),
	}

	reports, errs := svc.AnalyzeFiles(context.Background(), paths)
	require.Len(t, reports, 3)
	require.NotNil(t, errs)
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, paths[1], errs.Errors[0].Path)

	var syntaxErr *parser.SyntaxError
	assert.ErrorAs(t, errs, &syntaxErr)
	assert.Nil(t, reports[1])
	assert.Equal(t, paths[0], reports[0].Path)
	assert.Len(t, reports[0].FindingsOf(models.FindingUnusedImport), 1)
	assert.Len(t, reports[2].FindingsOf(models.FindingUnusedImport), 2)
	assert.Equal(t, int32(3), ticks.Load())
}

func TestGraph(t *testing.T) {
	svc, _ := newService(t)
	g, err := svc.Graph(context.Background(), []byte("x = [1, 2]\n"), "t.py")
	require.NoError(t, err)
	assert.Equal(t, 6, g.TotalNodes)
	assert.Len(t, g.Vertices, 5)
}
