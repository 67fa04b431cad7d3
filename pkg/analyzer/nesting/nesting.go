// Package nesting reports range() loops that contain another for loop.
package nesting

import (
	"context"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Analyzer detects nested loops under a range() loop.
type Analyzer struct{}

// New creates a nested-loop analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Nesting }

// Loops returns every for loop over range(...) with a for loop somewhere
// inside it, in pre-order.
func (a *Analyzer) Loops(unit *ast.Unit) []*ast.Node {
	var out []*ast.Node
	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		if n.Kind() == ast.KindFor && iteratesRange(n) && ast.HasDescendant(n, isFor) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Detect implements analyzer.Detector.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	loops := a.Loops(unit)
	findings := make([]models.Finding, 0, len(loops))
	for _, n := range loops {
		findings = append(findings, models.NewFinding(
			models.FindingNestedLoop,
			models.LocationOf(n),
			"",
			"Nested loops detected",
		))
	}
	return findings, nil
}

func isFor(n *ast.Node) bool {
	return n.Kind() == ast.KindFor || n.Kind() == ast.KindAsyncFor
}

func iteratesRange(loop *ast.Node) bool {
	iter := loop.First(ast.FieldIter)
	if iter == nil || iter.Kind() != ast.KindCall {
		return false
	}
	fn := iter.First(ast.FieldFunc)
	return fn != nil && fn.Kind() == ast.KindName && fn.Ident() == "range"
}
