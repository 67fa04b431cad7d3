// Package imports reports imported names that the unit never reads.
package imports

import (
	"context"
	"fmt"
	"strings"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Import is one name bound by an import statement.
type Import struct {
	// Name is the identifier the statement binds in the module namespace.
	Name string `json:"name"`
	// Display is the imported path as written, with its alias if any.
	Display  string          `json:"display"`
	Location models.Location `json:"location"`
}

// Analysis lists bound imports and those never used.
type Analysis struct {
	Imports  []Import `json:"imports"`
	Exported []string `json:"exported,omitempty"`
	Unused   []Import `json:"unused"`
}

// Analyzer detects unused imports.
type Analyzer struct{}

// New creates an import analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Imports }

// Analyze collects import bindings and checks them against every Load-context
// name and the module's __all__ list.
func (a *Analyzer) Analyze(unit *ast.Unit) *Analysis {
	analysis := &Analysis{}
	used := make(map[string]bool)

	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		switch n.Kind() {
		case ast.KindImport:
			for _, al := range n.In(ast.FieldNames) {
				bound := al.Alias()
				if bound == "" {
					bound, _, _ = strings.Cut(al.Ident(), ".")
				}
				analysis.Imports = append(analysis.Imports, newImport(bound, al, n))
			}
		case ast.KindImportFrom:
			if n.Ident() == "__future__" {
				return false
			}
			for _, al := range n.In(ast.FieldNames) {
				if al.Ident() == "*" {
					continue
				}
				bound := al.Alias()
				if bound == "" {
					bound = al.Ident()
				}
				analysis.Imports = append(analysis.Imports, newImport(bound, al, n))
			}
		case ast.KindName:
			if n.Ctx() == ast.Load {
				used[n.Ident()] = true
			}
		}
		return true
	})

	analysis.Exported = exported(unit)
	for _, name := range analysis.Exported {
		used[name] = true
	}
	for _, imp := range analysis.Imports {
		if !used[imp.Name] {
			analysis.Unused = append(analysis.Unused, imp)
		}
	}
	return analysis
}

func newImport(bound string, al, stmt *ast.Node) Import {
	display := al.Ident()
	if al.Alias() != "" {
		display += " as " + al.Alias()
	}
	return Import{Name: bound, Display: display, Location: models.LocationOf(stmt)}
}

// exported returns the string constants listed in module-level assignments
// to __all__, including augmented ones.
func exported(unit *ast.Unit) []string {
	var names []string
	for _, stmt := range unit.TopLevel() {
		var targets []*ast.Node
		switch stmt.Kind() {
		case ast.KindAssign:
			targets = stmt.In(ast.FieldTargets)
		case ast.KindAugAssign, ast.KindAnnAssign:
			targets = stmt.In(ast.FieldTarget)
		default:
			continue
		}
		if !bindsAll(targets) {
			continue
		}
		value := stmt.First(ast.FieldValue)
		if value == nil || (value.Kind() != ast.KindList && value.Kind() != ast.KindTuple) {
			continue
		}
		for _, elt := range value.In(ast.FieldElts) {
			if elt.Kind() != ast.KindConstant {
				continue
			}
			if s, ok := stringValue(elt.Literal()); ok {
				names = append(names, s)
			}
		}
	}
	return names
}

func bindsAll(targets []*ast.Node) bool {
	for _, t := range targets {
		if t.Kind() == ast.KindName && t.Ident() == "__all__" {
			return true
		}
	}
	return false
}

// stringValue returns the contents of a simple string literal. Prefixed
// bytes literals and implicit concatenations are rejected.
func stringValue(lit string) (string, bool) {
	body := strings.TrimLeft(lit, "rRuU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			inner := body[len(q) : len(body)-len(q)]
			if strings.Contains(inner, q[:1]) {
				return "", false
			}
			return inner, true
		}
	}
	return "", false
}

// Detect implements analyzer.Detector.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	analysis := a.Analyze(unit)
	findings := make([]models.Finding, 0, len(analysis.Unused))
	for _, imp := range analysis.Unused {
		findings = append(findings, models.NewFinding(
			models.FindingUnusedImport,
			imp.Location,
			imp.Name,
			fmt.Sprintf("'%s' imported but unused", imp.Display),
		))
	}
	return findings, nil
}
