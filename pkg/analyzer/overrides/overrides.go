// Package overrides reports subclass methods that override a method of a
// base class defined in the same unit.
package overrides

import (
	"context"
	"fmt"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Method is a function defined directly in a class body.
type Method struct {
	Name     string          `json:"name"`
	Location models.Location `json:"location"`
}

// ClassInfo describes one class definition.
type ClassInfo struct {
	Name     string          `json:"name"`
	Location models.Location `json:"location"`
	// Bases holds the bare-name bases only; attribute and call bases are dropped.
	Bases   []string `json:"bases"`
	Methods []Method `json:"methods"`
}

// method returns the last definition of name in the class body.
func (c *ClassInfo) method(name string) (Method, bool) {
	for i := len(c.Methods) - 1; i >= 0; i-- {
		if c.Methods[i].Name == name {
			return c.Methods[i], true
		}
	}
	return Method{}, false
}

// Override is one entry of the override table.
type Override struct {
	Method   string `json:"method"`
	Base     string `json:"base"`
	Subclass string `json:"subclass"`

	BaseLocation     models.Location `json:"base_location"`
	SubclassLocation models.Location `json:"subclass_location"`
}

// Policy decides which record survives when two overrides share a method name.
type Policy int

const (
	// LastBaseWins keeps the most recently processed record.
	LastBaseWins Policy = iota
	// FirstBaseWins keeps the first record.
	FirstBaseWins
)

// Analysis holds the class table and the override table.
type Analysis struct {
	Classes   []ClassInfo `json:"classes"`
	Overrides []Override  `json:"overrides"`
}

// Analyzer detects method overrides.
type Analyzer struct {
	policy Policy
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithPolicy sets the collision policy for the method-keyed override table.
func WithPolicy(p Policy) Option {
	return func(a *Analyzer) {
		a.policy = p
	}
}

// New creates an override analyzer using LastBaseWins.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{policy: LastBaseWins}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Overrides }

// classTable maps class names to their latest definition. A redefinition
// replaces the value but keeps the first insertion position.
type classTable struct {
	order  []string
	byName map[string]*ClassInfo
}

func buildClasses(unit *ast.Unit) *classTable {
	t := &classTable{byName: make(map[string]*ClassInfo)}
	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		if n.Kind() != ast.KindClassDef {
			return true
		}
		info := &ClassInfo{
			Name:     n.Ident(),
			Location: models.LocationOf(n),
			Bases:    make([]string, 0),
			Methods:  make([]Method, 0),
		}
		for _, base := range n.In(ast.FieldBases) {
			if base.Kind() == ast.KindName {
				info.Bases = append(info.Bases, base.Ident())
			}
		}
		for _, stmt := range n.In(ast.FieldBody) {
			if stmt.Kind().IsFunction() {
				info.Methods = append(info.Methods, Method{Name: stmt.Ident(), Location: models.LocationOf(stmt)})
			}
		}
		if _, ok := t.byName[info.Name]; !ok {
			t.order = append(t.order, info.Name)
		}
		t.byName[info.Name] = info
		return true
	})
	return t
}

// Analyze builds the class and override tables.
func (a *Analyzer) Analyze(unit *ast.Unit) *Analysis {
	classes := buildClasses(unit)
	analysis := &Analysis{
		Classes:   make([]ClassInfo, 0, len(classes.order)),
		Overrides: make([]Override, 0),
	}

	keys := make([]string, 0)
	table := make(map[string]Override)
	for _, name := range classes.order {
		sub := classes.byName[name]
		analysis.Classes = append(analysis.Classes, *sub)
		for _, baseName := range sub.Bases {
			base, ok := classes.byName[baseName]
			if !ok {
				continue
			}
			for _, m := range sub.Methods {
				bm, ok := base.method(m.Name)
				if !ok {
					continue
				}
				rec := Override{
					Method:           m.Name,
					Base:             base.Name,
					Subclass:         sub.Name,
					BaseLocation:     bm.Location,
					SubclassLocation: m.Location,
				}
				if _, seen := table[m.Name]; !seen {
					keys = append(keys, m.Name)
				} else if a.policy == FirstBaseWins {
					continue
				}
				table[m.Name] = rec
			}
		}
	}

	for _, k := range keys {
		analysis.Overrides = append(analysis.Overrides, table[k])
	}
	return analysis
}

// Detect implements analyzer.Detector.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	analysis := a.Analyze(unit)
	findings := make([]models.Finding, 0, len(analysis.Overrides))
	for _, o := range analysis.Overrides {
		findings = append(findings, models.NewFinding(
			models.FindingOverriddenMethod,
			o.SubclassLocation,
			o.Method,
			fmt.Sprintf("Method '%s' in class '%s' overrides '%s.%s'", o.Method, o.Subclass, o.Base, o.Method),
		).WithSecondary(o.BaseLocation))
	}
	return findings, nil
}
