// Package duplicates reports arithmetic expressions computed more than once.
//
// Two expressions are the same when their 64-bit structural hashes are
// equal. A hash collision is reported as a duplicate; WithExactMatch
// confirms each match against ast.CanonicalKey instead.
package duplicates

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/preciselake/preciselake/pkg/analyzer"
	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Duplicate is a repeat of an earlier structurally equal expression.
type Duplicate struct {
	Expression string          `json:"expression"`
	Hash       uint64          `json:"hash"`
	First      models.Location `json:"first"`
	Repeat     models.Location `json:"repeat"`
}

// Analyzer detects structurally identical +, -, * and / expressions.
// Equality ignores source positions and does not consider data flow.
type Analyzer struct {
	exact  bool
	hashes func(root *ast.Node) map[*ast.Node]uint64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithExactMatch confirms every hash match by comparing canonical keys, so
// colliding but different expressions are not reported.
func WithExactMatch() Option {
	return func(a *Analyzer) {
		a.exact = true
	}
}

// New creates a duplicate-expression analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{hashes: structuralHashes}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements analyzer.Detector.
func (a *Analyzer) Name() string { return analyzer.Duplicates }

// candidate is a first occurrence; its canonical key is computed lazily
// to confirm a hash match.
type candidate struct {
	node *ast.Node
	key  string
}

// Analyze returns every repeat in pre-order.
func (a *Analyzer) Analyze(unit *ast.Unit) []Duplicate {
	hashes := a.hashes(unit.Root)
	seen := make(map[uint64][]*candidate)
	var out []Duplicate
	repeat := func(first, n *ast.Node, h uint64) {
		out = append(out, Duplicate{
			Expression: expressionText(unit, n),
			Hash:       h,
			First:      models.LocationOf(first),
			Repeat:     models.LocationOf(n),
		})
	}

	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		if n.Kind() != ast.KindBinOp || !n.Op().IsArithmetic() {
			return true
		}
		h := hashes[n]
		cands := seen[h]
		if len(cands) == 0 {
			seen[h] = append(cands, &candidate{node: n})
			return true
		}
		if !a.exact {
			repeat(cands[0].node, n, h)
			return true
		}
		key := ast.CanonicalKey(n)
		for _, c := range cands {
			if c.key == "" {
				c.key = ast.CanonicalKey(c.node)
			}
			if c.key == key {
				repeat(c.node, n, h)
				return true
			}
		}
		seen[h] = append(cands, &candidate{node: n, key: key})
		return true
	})
	return out
}

// Detect implements analyzer.Detector.
func (a *Analyzer) Detect(_ context.Context, unit *ast.Unit) ([]models.Finding, error) {
	dups := a.Analyze(unit)
	findings := make([]models.Finding, 0, len(dups))
	for _, d := range dups {
		findings = append(findings, models.NewFinding(
			models.FindingDuplicateExpression,
			d.Repeat,
			d.Expression,
			fmt.Sprintf("Redundant calculation '%s' (first computed on line %d)", d.Expression, d.First.Line),
		).WithSecondary(d.First))
	}
	return findings, nil
}

func expressionText(unit *ast.Unit, n *ast.Node) string {
	if text := unit.Text(n); text != "" {
		return text
	}
	return n.Kind().String()
}

// structuralHashes computes a location-free xxhash for every subtree in one
// post-order pass. Each hash covers the node payload and, for every child,
// its field role and hash. The node's own field role is excluded so equal
// expressions in different positions hash alike.
func structuralHashes(root *ast.Node) map[*ast.Node]uint64 {
	hashes := make(map[*ast.Node]uint64)
	if root == nil {
		return hashes
	}
	type frame struct {
		node *ast.Node
		next int
	}
	var buf [8]byte
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < top.node.Len() {
			child := top.node.Child(top.next)
			top.next++
			stack = append(stack, frame{node: child})
			continue
		}

		n := top.node
		d := xxhash.New()
		_, _ = d.Write([]byte{byte(n.Kind()), byte(n.Ctx())})
		for _, op := range n.Ops() {
			_, _ = d.Write([]byte{byte(op)})
		}
		writeString(d, n.Ident())
		writeString(d, n.Alias())
		writeString(d, n.Literal())
		for _, c := range n.Children() {
			_, _ = d.Write([]byte{byte(c.Field())})
			binary.LittleEndian.PutUint64(buf[:], hashes[c])
			_, _ = d.Write(buf[:])
		}
		hashes[n] = d.Sum64()
		stack = stack[:len(stack)-1]
	}
	return hashes
}

func writeString(d *xxhash.Digest, s string) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(s)
}
