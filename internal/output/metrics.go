package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/preciselake/preciselake/pkg/analyzer/graph"
)

// MetricsView renders PageRank and degree metrics of a structural graph.
type MetricsView struct {
	Metrics *graph.Metrics
}

// NewMetricsView wraps m for rendering.
func NewMetricsView(m *graph.Metrics) *MetricsView {
	return &MetricsView{Metrics: m}
}

func (v *MetricsView) RenderData() any {
	return v.Metrics
}

var metricsHeaders = []string{"Kind", "PageRank", "In", "Out", "Recursive"}

func (v *MetricsView) rows() [][]string {
	rows := make([][]string, 0, len(v.Metrics.VertexMetrics))
	for _, vm := range v.Metrics.VertexMetrics {
		recursive := ""
		if vm.Recursive {
			recursive = "yes"
		}
		rows = append(rows, []string{
			vm.Label,
			strconv.FormatFloat(vm.PageRank, 'f', 4, 64),
			strconv.Itoa(vm.InDegree),
			strconv.Itoa(vm.OutDegree),
			recursive,
		})
	}
	return rows
}

func (v *MetricsView) cycles() []string {
	out := make([]string, 0, len(v.Metrics.Summary.Cycles))
	for _, c := range v.Metrics.Summary.Cycles {
		out = append(out, strings.Join(c, " -> "))
	}
	return out
}

func (v *MetricsView) RenderText(w io.Writer, colored bool) error {
	s := v.Metrics.Summary
	heading(w, "Structural Graph Metrics", "=", colored, color.Bold)
	renderTable(w, metricsHeaders, v.rows(), []string{
		fmt.Sprintf("%d kinds", s.TotalVertices), "", "", fmt.Sprintf("%d edges", s.TotalEdges), "",
	})
	fmt.Fprintf(w, "\nNodes: %d  Density: %.4f  Avg degree: %.2f\n", s.TotalNodes, s.Density, s.AvgDegree)
	if cycles := v.cycles(); len(cycles) > 0 {
		fmt.Fprintf(w, "Cycles (%d):\n", s.CycleCount)
		for _, c := range cycles {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}
	return nil
}

func (v *MetricsView) RenderMarkdown(w io.Writer) error {
	s := v.Metrics.Summary
	fmt.Fprint(w, "# Structural Graph Metrics\n\n")
	markdownTable(w, metricsHeaders, v.rows())
	fmt.Fprintf(w, "**Kinds:** %d, **Edges:** %d, **Nodes:** %d\n", s.TotalVertices, s.TotalEdges, s.TotalNodes)
	if cycles := v.cycles(); len(cycles) > 0 {
		fmt.Fprint(w, "\n## Cycles\n\n")
		for _, c := range cycles {
			fmt.Fprintf(w, "- %s\n", c)
		}
	}
	return nil
}
