// Package bindings reports names that are assigned but never read.
//
// The unit is treated as one flat scope: a read anywhere, in any function or
// class, marks the name as used everywhere.
package bindings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Binding is one name with all of its writes.
type Binding struct {
	Name   string            `json:"name"`
	Writes []models.Location `json:"writes"`
	Reads  int               `json:"reads"`
}

// Analysis is the binding table of a unit.
type Analysis struct {
	// Bindings holds every written name, ordered by first write.
	Bindings []Binding `json:"bindings"`
	// Unused is the subset of Bindings with no reads.
	Unused []Binding `json:"unused"`
}

// Analyzer detects unused bindings.
type Analyzer struct{}

// New creates a binding analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Bindings }

// symbols interns identifiers to dense ids for the bitmaps.
type symbols struct {
	ids   map[string]uint32
	names []string
}

func (s *symbols) intern(name string) uint32 {
	if id, ok := s.ids[name]; ok {
		return id
	}
	id := uint32(len(s.names))
	s.ids[name] = id
	s.names = append(s.names, name)
	return id
}

// Analyze builds the binding table for unit.
func (a *Analyzer) Analyze(unit *ast.Unit) *Analysis {
	syms := &symbols{ids: make(map[string]uint32)}
	assigned := roaring.New()
	read := roaring.New()
	writes := make(map[uint32][]models.Location)
	reads := make(map[uint32]int)
	var firstWrite []uint32

	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		if n.Kind() != ast.KindName {
			return true
		}
		id := syms.intern(n.Ident())
		switch n.Ctx() {
		case ast.Store:
			if assigned.CheckedAdd(id) {
				firstWrite = append(firstWrite, id)
			}
			writes[id] = append(writes[id], models.LocationOf(n))
		case ast.Load:
			read.Add(id)
			reads[id]++
		}
		return true
	})

	unused := roaring.AndNot(assigned, read)
	analysis := &Analysis{
		Bindings: make([]Binding, 0, len(firstWrite)),
		Unused:   make([]Binding, 0, unused.GetCardinality()),
	}
	for _, id := range firstWrite {
		b := Binding{Name: syms.names[id], Writes: writes[id], Reads: reads[id]}
		analysis.Bindings = append(analysis.Bindings, b)
		if unused.Contains(id) {
			analysis.Unused = append(analysis.Unused, b)
		}
	}
	return analysis
}

// Detect implements analyzer.Detector. One finding per unused name, at its
// first write.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	analysis := a.Analyze(unit)
	findings := make([]models.Finding, 0, len(analysis.Unused))
	for _, b := range analysis.Unused {
		findings = append(findings, models.NewFinding(
			models.FindingUnusedBinding,
			b.Writes[0],
			b.Name,
			fmt.Sprintf("Unused variable '%s' (assigned on line %s)", b.Name, lineList(b.Writes)),
		))
	}
	return findings, nil
}

func lineList(locs []models.Location) string {
	parts := make([]string, len(locs))
	for i, l := range locs {
		parts[i] = strconv.Itoa(l.Line)
	}
	return strings.Join(parts, ", ")
}
