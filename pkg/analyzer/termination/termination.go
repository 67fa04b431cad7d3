// Package termination reports top-level functions containing a while loop.
// The loop condition is not analyzed; every while counts as potentially
// unbounded.
package termination

import (
	"context"
	"fmt"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Flagged is a function with its first while loop.
type Flagged struct {
	Function string          `json:"function"`
	Location models.Location `json:"location"`
	Loop     models.Location `json:"loop"`
}

// Analyzer detects potentially non-terminating functions.
type Analyzer struct{}

// New creates an unbounded-loop analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Termination }

// Analyze returns flagged top-level functions in source order.
func (a *Analyzer) Analyze(unit *ast.Unit) []Flagged {
	var out []Flagged
	for _, stmt := range unit.TopLevel() {
		if !stmt.Kind().IsFunction() {
			continue
		}
		if loop := firstWhile(stmt); loop != nil {
			out = append(out, Flagged{
				Function: stmt.Ident(),
				Location: models.LocationOf(stmt),
				Loop:     models.LocationOf(loop),
			})
		}
	}
	return out
}

// firstWhile searches the function body, at any depth, in pre-order.
func firstWhile(fn *ast.Node) *ast.Node {
	for _, stmt := range fn.In(ast.FieldBody) {
		if w := ast.FindFirst(stmt, func(n *ast.Node) bool { return n.Kind() == ast.KindWhile }); w != nil {
			return w
		}
	}
	return nil
}

// Detect implements analyzer.Detector.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	flagged := a.Analyze(unit)
	findings := make([]models.Finding, 0, len(flagged))
	for _, f := range flagged {
		findings = append(findings, models.NewFinding(
			models.FindingUnboundedLoop,
			f.Location,
			f.Function,
			fmt.Sprintf("Function '%s' contains a while loop that may not terminate", f.Function),
		).WithSecondary(f.Loop))
	}
	return findings, nil
}
