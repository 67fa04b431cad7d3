// Package cost flags loops and literal containers that look expensive by
// size alone.
package cost

import (
	"context"
	"fmt"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Defaults for the size thresholds. A loop whose subtree (the loop node
// included) holds more than DefaultLoopNodes nodes is flagged; so is a
// literal with more than DefaultLiteralElements elements.
const (
	DefaultLoopNodes       = 2
	DefaultLiteralElements = 100
)

// Component describes a flagged loop or literal.
type Component struct {
	Kind     models.FindingKind `json:"kind"`
	Node     string             `json:"node"`
	Size     int                `json:"size"`
	Function string             `json:"function,omitempty"`
	Location models.Location    `json:"location"`
}

// Analyzer detects heavy loops and literals.
type Analyzer struct {
	loopNodes       int
	literalElements int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithLoopNodes sets the loop subtree size threshold.
func WithLoopNodes(n int) Option {
	return func(a *Analyzer) {
		a.loopNodes = n
	}
}

// WithLiteralElements sets the literal element count threshold.
func WithLiteralElements(n int) Option {
	return func(a *Analyzer) {
		a.literalElements = n
	}
}

// New creates a cost analyzer with default thresholds.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		loopNodes:       DefaultLoopNodes,
		literalElements: DefaultLiteralElements,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Cost }

// Analyze returns flagged components in pre-order.
func (a *Analyzer) Analyze(unit *ast.Unit) []Component {
	sizes := ast.SubtreeSizes(unit.Root)
	var out []Component
	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		switch {
		case n.Kind().IsLoop():
			if size := sizes[n]; size > a.loopNodes {
				out = append(out, a.component(models.FindingHeavyLoop, n, size))
			}
		case n.Kind().IsLiteralContainer():
			if count := elementCount(n); count > a.literalElements {
				out = append(out, a.component(models.FindingHeavyLiteral, n, count))
			}
		}
		return true
	})
	return out
}

func (a *Analyzer) component(kind models.FindingKind, n *ast.Node, size int) Component {
	c := Component{
		Kind:     kind,
		Node:     n.Kind().String(),
		Size:     size,
		Location: models.LocationOf(n),
	}
	if fn := ast.EnclosingFunction(n); fn != nil {
		c.Function = fn.Ident()
	}
	return c
}

// elementCount counts list and set elements, and dict entries including
// ** splats.
func elementCount(n *ast.Node) int {
	if n.Kind() == ast.KindDict {
		return len(n.In(ast.FieldValues))
	}
	return len(n.In(ast.FieldElts))
}

// Detect implements analyzer.Detector.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	components := a.Analyze(unit)
	findings := make([]models.Finding, 0, len(components))
	for _, c := range components {
		findings = append(findings, models.NewFinding(c.Kind, c.Location, c.Function, message(c)))
	}
	return findings, nil
}

func message(c Component) string {
	where := "at module level"
	if c.Function != "" {
		where = fmt.Sprintf("in function '%s'", c.Function)
	}
	if c.Kind == models.FindingHeavyLoop {
		return fmt.Sprintf("High memory usage: %s loop with %d nodes %s", c.Node, c.Size, where)
	}
	return fmt.Sprintf("High memory usage: %s literal with %d elements %s", c.Node, c.Size, where)
}
