// Package calls reports top-level functions that are never called by name.
package calls

import (
	"context"
	"fmt"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Function is a top-level function definition.
type Function struct {
	Name     string          `json:"name"`
	Location models.Location `json:"location"`
	Async    bool            `json:"async,omitempty"`
}

// Analysis holds defined and called names of a unit.
type Analysis struct {
	Defined []Function          `json:"defined"`
	Called  map[string]struct{} `json:"-"`
	// Unused lists one entry per distinct uncalled name, at its first definition.
	Unused []Function `json:"unused"`
}

// Analyzer detects uncalled top-level functions. Only direct calls through
// a bare name count; attribute calls, references and exports are ignored.
type Analyzer struct{}

// New creates a call-usage analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Calls }

// Analyze collects definitions and calls.
func (a *Analyzer) Analyze(unit *ast.Unit) *Analysis {
	analysis := &Analysis{
		Defined: make([]Function, 0),
		Called:  make(map[string]struct{}),
		Unused:  make([]Function, 0),
	}

	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		if n.Kind() != ast.KindCall {
			return true
		}
		if fn := n.First(ast.FieldFunc); fn != nil && fn.Kind() == ast.KindName {
			analysis.Called[fn.Ident()] = struct{}{}
		}
		return true
	})

	reported := make(map[string]bool)
	for _, stmt := range unit.TopLevel() {
		if !stmt.Kind().IsFunction() {
			continue
		}
		fn := Function{
			Name:     stmt.Ident(),
			Location: models.LocationOf(stmt),
			Async:    stmt.Kind() == ast.KindAsyncFunctionDef,
		}
		analysis.Defined = append(analysis.Defined, fn)
		if _, called := analysis.Called[fn.Name]; called || reported[fn.Name] {
			continue
		}
		reported[fn.Name] = true
		analysis.Unused = append(analysis.Unused, fn)
	}
	return analysis
}

// Detect implements analyzer.Detector.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	analysis := a.Analyze(unit)
	findings := make([]models.Finding, 0, len(analysis.Unused))
	for _, fn := range analysis.Unused {
		findings = append(findings, models.NewFinding(
			models.FindingUnusedFunction,
			fn.Location,
			fn.Name,
			fmt.Sprintf("Unused function '%s'", fn.Name),
		))
	}
	return findings, nil
}
