package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/preciselake/preciselake/pkg/models"
)

// AnalysisView renders a models.Report as a findings table followed by
// skipped detectors and run telemetry.
type AnalysisView struct {
	Report *models.Report
}

// NewAnalysisView wraps r for rendering.
func NewAnalysisView(r *models.Report) *AnalysisView {
	return &AnalysisView{Report: r}
}

func (v *AnalysisView) RenderData() any {
	return v.Report
}

var findingHeaders = []string{"Location", "Kind", "Subject", "Related", "Message"}

// findingRows lists findings in report order. Related is the secondary
// location (the earlier definition or first occurrence) or "-".
func (v *AnalysisView) findingRows(colored bool) [][]string {
	rows := make([][]string, 0, len(v.Report.Findings))
	for _, f := range v.Report.Findings {
		kind := f.Kind.String()
		if colored {
			kind = KindColor(f.Kind, kind)
		}
		rel := related(f)
		if rel == "" {
			rel = "-"
		}
		subject := f.Subject
		if subject == "" {
			subject = "-"
		}
		rows = append(rows, []string{f.Location.String(), kind, subject, rel, f.Message})
	}
	return rows
}

// kindSummary is "2 unused_import, 1 nested_loop" in kind order.
func (v *AnalysisView) kindSummary() string {
	counts := v.Report.CountByKind()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", counts[models.FindingKind(k)], k)
	}
	return strings.Join(parts, ", ")
}

func (v *AnalysisView) telemetryLines() []string {
	t := v.Report.Telemetry
	return []string{
		fmt.Sprintf("Memory Usage: %.2f MB", t.MemoryMB()),
		fmt.Sprintf("Execution Time: %.4f seconds", t.Elapsed.Seconds()),
	}
}

func (v *AnalysisView) RenderText(w io.Writer, colored bool) error {
	r := v.Report
	heading(w, "Analysis Report", "=", colored, color.Bold)
	fmt.Fprintln(w)

	heading(w, "Findings: "+r.Path, "-", colored, color.Bold)
	if len(r.Findings) == 0 {
		fmt.Fprintln(w, "No findings.")
	} else {
		renderTable(w, findingHeaders, v.findingRows(colored),
			[]string{"", "Total", fmt.Sprintf("%d", len(r.Findings)), "", v.kindSummary()})
	}
	fmt.Fprintln(w)

	if len(r.Skipped) > 0 {
		heading(w, "Skipped Detectors", "-", colored, color.Bold, color.FgYellow)
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s: %s\n", s.Detector, s.Reason)
		}
		fmt.Fprintln(w)
	}

	heading(w, "Telemetry", "-", colored, color.Bold)
	for _, line := range v.telemetryLines() {
		fmt.Fprintln(w, line)
	}
	return nil
}

func (v *AnalysisView) RenderMarkdown(w io.Writer) error {
	r := v.Report
	fmt.Fprintln(w, "# Analysis Report")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "## Findings: %s\n\n", r.Path)
	if len(r.Findings) == 0 {
		fmt.Fprint(w, "No findings.\n\n")
	} else {
		markdownTable(w, findingHeaders, v.findingRows(false))
		fmt.Fprintf(w, "**Total:** %d (%s)\n\n", len(r.Findings), v.kindSummary())
	}

	if len(r.Skipped) > 0 {
		fmt.Fprint(w, "## Skipped Detectors\n\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "- `%s`: %s\n", s.Detector, s.Reason)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprint(w, "## Telemetry\n\n")
	for _, line := range v.telemetryLines() {
		fmt.Fprintf(w, "- %s\n", line)
	}
	return nil
}
