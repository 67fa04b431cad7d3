package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/preciselake/preciselake/pkg/analyzer/graph"
	"github.com/preciselake/preciselake/pkg/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "output.txt")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.file == nil {
		t.Error("file should not be nil for file output")
	}
	if f.colored {
		t.Error("colored should be false when writing to file")
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Error("output file should exist")
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/directory/file.txt", false)
	if err == nil {
		t.Error("NewFormatter() should error for invalid path")
	}
}

func TestNewWriterFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, true)
	if f.Format() != FormatMarkdown || !f.Colored() || f.writer != &buf {
		t.Errorf("getters = %q, %v", f.Format(), f.Colored())
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() should not error without a file: %v", err)
	}
}

func TestMarkdownTableEscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	markdownTable(&buf, []string{"A", "B"}, [][]string{{"1", "x|y"}})
	want := "| A | B |\n| --- | --- |\n| 1 | x\\|y |\n\n"
	if buf.String() != want {
		t.Errorf("markdown = %q, want %q", buf.String(), want)
	}
}

func TestRenderTableFooter(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []string{"Location", "Kind"}, [][]string{{"1:0", "nested_loop"}}, []string{"Total", "1"})
	for _, want := range []string{"1:0", "nested_loop", "Total"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   any
		want   string
	}{
		{"json_map", FormatJSON, map[string]string{"key": "value"}, `"key": "value"`},
		{"toon_map", FormatTOON, map[string]int{"count": 42}, "count: 42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriterFormatter(tt.format, &buf, false).Output(tt.data); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want to contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFormatterOutputNeedsRenderable(t *testing.T) {
	for _, format := range []Format{FormatText, FormatMarkdown} {
		var buf bytes.Buffer
		if err := NewWriterFormatter(format, &buf, false).Output(map[string]int{"n": 1}); err == nil {
			t.Errorf("%s: Output() should reject plain data", format)
		}
	}
}

func TestKindColor(t *testing.T) {
	for _, kind := range []models.FindingKind{
		models.FindingUnusedBinding, models.FindingNestedLoop, models.FindingUnboundedLoop,
	} {
		if got := KindColor(kind, "msg"); !strings.Contains(got, "msg") {
			t.Errorf("KindColor(%s) lost the text: %q", kind, got)
		}
	}
	if got := KindColor(models.FindingKind("other"), "msg"); got != "msg" {
		t.Errorf("unknown kinds should be uncoloured, got %q", got)
	}
}

func sampleReport() *models.Report {
	r := models.NewReport("app.py")
	r.Findings = append(r.Findings,
		models.NewFinding(models.FindingUnusedImport, models.Location{Line: 1}, "os", "'os' imported but unused"),
		models.NewFinding(models.FindingHeavyLoop, models.Location{Line: 4, Column: 4}, "main", "High memory usage: For loop with 9 nodes in function 'main'"),
	)
	r.Skipped = []models.Skipped{{Detector: "duplicates", Reason: "boom"}}
	r.Telemetry = models.Telemetry{Elapsed: 1500 * time.Millisecond, MemoryDeltaBytes: 3 * 1024 * 1024}
	return r
}

func TestAnalysisViewText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatText, &buf, false).Output(NewAnalysisView(sampleReport())); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Analysis Report",
		"Findings: app.py",
		"4:4",
		"unused_import",
		"'os' imported but unused",
		"Skipped Detectors",
		"duplicates",
		"Memory Usage: 3.00 MB",
		"Execution Time: 1.5000 seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalysisViewMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatMarkdown, &buf, false).Output(NewAnalysisView(sampleReport())); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "# Analysis Report") || !strings.Contains(buf.String(), "| 1:0 | unused_import |") {
		t.Errorf("markdown = %s", buf.String())
	}
}

func TestAnalysisViewJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatJSON, &buf, false).Output(NewAnalysisView(sampleReport())); err != nil {
		t.Fatal(err)
	}
	var decoded models.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Path != "app.py" || len(decoded.Findings) != 2 || decoded.Findings[1].Location.Line != 4 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestAnalysisViewTOON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatTOON, &buf, false).Output(NewAnalysisView(sampleReport())); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"app.py", "unused_import", "1:0", "4:4", "duplicates", "memory_mb"} {
		if !strings.Contains(out, want) {
			t.Errorf("toon output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "secondary_location") {
		t.Errorf("absent secondary locations should be omitted:\n%s", out)
	}
}

func TestReportsTOONWithSecondaryAndGraph(t *testing.T) {
	r := sampleReport()
	r.Findings = append(r.Findings,
		models.NewFinding(models.FindingOverriddenMethod, models.Location{Line: 9, Column: 4}, "run", "method 'run' redefined").
			WithSecondary(models.Location{Line: 5, Column: 4}))
	g := models.NewStructuralGraph(20)
	g.AddVertex("Module", 0)
	g.AddVertex("Expr", 1)
	g.AddEdge("Module", "Expr")
	r.Graph = g

	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatTOON, &buf, false).Output([]*models.Report{r, nil, models.NewReport("empty.py")}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"secondary_location", "5:4", "Module", "Expr", "empty.py"} {
		if !strings.Contains(out, want) {
			t.Errorf("toon output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalysisViewRelatedColumn(t *testing.T) {
	r := models.NewReport("dup.py")
	r.Findings = append(r.Findings,
		models.NewFinding(models.FindingDuplicateExpression, models.Location{Line: 3, Column: 4}, "a + b", "expression 'a + b' computed again").
			WithSecondary(models.Location{Line: 2, Column: 4}))

	var text bytes.Buffer
	if err := NewAnalysisView(r).RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"RELATED", "2:4", "1 duplicate_expression"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}
	if strings.Contains(text.String(), "Skipped Detectors") {
		t.Error("skipped section should only appear when detectors were skipped")
	}

	var md bytes.Buffer
	if err := NewAnalysisView(r).RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.String(), "| 3:4 | duplicate_expression | a + b | 2:4 |") {
		t.Errorf("markdown = %s", md.String())
	}
}

func TestAnalysisViewNoFindings(t *testing.T) {
	var buf bytes.Buffer
	if err := NewAnalysisView(models.NewReport("clean.py")).RenderText(&buf, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No findings.") {
		t.Errorf("text = %s", buf.String())
	}
}

func sampleMetrics() *graph.Metrics {
	return &graph.Metrics{
		VertexMetrics: []graph.VertexMetric{
			{Label: "Module", PageRank: 0.25, OutDegree: 1},
			{Label: "If", PageRank: 0.75, InDegree: 2, OutDegree: 1, Recursive: true},
		},
		Summary: graph.Summary{
			TotalVertices: 2, TotalEdges: 2, TotalNodes: 5,
			CycleCount: 1, Cycles: [][]string{{"If", "If"}}, IsCyclic: true,
		},
	}
}

func TestMetricsViewText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatText, &buf, false).Output(NewMetricsView(sampleMetrics())); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Structural Graph Metrics", "0.7500", "yes", "2 kinds", "2 edges", "If -> If"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestMetricsViewMarkdownAndData(t *testing.T) {
	var md bytes.Buffer
	if err := NewWriterFormatter(FormatMarkdown, &md, false).Output(NewMetricsView(sampleMetrics())); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.String(), "| Module | 0.2500 | 0 | 1 |  |") || !strings.Contains(md.String(), "## Cycles") {
		t.Errorf("markdown = %s", md.String())
	}

	var js bytes.Buffer
	if err := NewWriterFormatter(FormatJSON, &js, false).Output(NewMetricsView(sampleMetrics())); err != nil {
		t.Fatal(err)
	}
	var decoded graph.Metrics
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil || decoded.Summary.TotalNodes != 5 {
		t.Errorf("decoded = %+v, err = %v", decoded, err)
	}
}
