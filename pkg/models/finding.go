package models

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/preciselake/preciselake/pkg/ast"
)

// FindingKind classifies a finding.
type FindingKind string

const (
	FindingUnusedBinding       FindingKind = "unused_binding"
	FindingUnusedFunction      FindingKind = "unused_function"
	FindingNestedLoop          FindingKind = "nested_loop"
	FindingUnboundedLoop       FindingKind = "unbounded_loop"
	FindingOverriddenMethod    FindingKind = "overridden_method"
	FindingDuplicateExpression FindingKind = "duplicate_expression"
	FindingHeavyLoop           FindingKind = "heavy_loop"
	FindingHeavyLiteral        FindingKind = "heavy_literal"
	FindingUnusedImport        FindingKind = "unused_import"
)

// Location is a source position: 1-based line, 0-based column.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// LocationOf returns the start location of n.
func LocationOf(n *ast.Node) Location {
	p := n.Pos()
	return Location{Line: p.Line, Column: p.Column}
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Finding is one diagnostic produced by a detector.
type Finding struct {
	Kind        FindingKind `json:"kind"`
	Location    Location    `json:"location"`
	Message     string      `json:"message"`
	Secondary   *Location   `json:"secondary_location,omitempty"`
	Subject     string      `json:"subject,omitempty"`
	Fingerprint string      `json:"fingerprint"`
}

// NewFinding creates a finding and computes its fingerprint.
func NewFinding(kind FindingKind, loc Location, subject, message string) Finding {
	return Finding{
		Kind:        kind,
		Location:    loc,
		Message:     message,
		Subject:     subject,
		Fingerprint: fingerprint(kind, subject, loc),
	}
}

// WithSecondary returns a copy of f carrying a related location.
func (f Finding) WithSecondary(loc Location) Finding {
	f.Secondary = &loc
	return f
}

// fingerprint hashes kind, subject and location with BLAKE3 and
// returns the first 16 hex characters. Strings are length-prefixed so no
// two field splits hash alike.
func fingerprint(kind FindingKind, subject string, loc Location) string {
	data := make([]byte, 0, 4*binary.MaxVarintLen64+len(kind)+len(subject))
	data = binary.AppendUvarint(data, uint64(len(kind)))
	data = append(data, string(kind)...)
	data = binary.AppendUvarint(data, uint64(len(subject)))
	data = append(data, subject...)
	data = binary.AppendVarint(data, int64(loc.Line))
	data = binary.AppendVarint(data, int64(loc.Column))
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// Skipped records a detector that did not contribute to a report.
type Skipped struct {
	Detector string `json:"detector"`
	Reason   string `json:"reason"`
}
