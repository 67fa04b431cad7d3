package parser

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError reports malformed input. Line is 1-based, Column 0-based.
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%d:%d: syntax error: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error: %s", e.Path, e.Line, e.Column, e.Message)
}

const snippetLimit = 32

// syntaxError locates the first ERROR or MISSING node in pre-order.
// Only subtrees that report an error are descended.
func syntaxError(root *sitter.Node, source []byte, path string) *SyntaxError {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.IsMissing() {
			return newSyntaxError(n, path, fmt.Sprintf("missing %q", n.Type()))
		}
		if n.Type() == "ERROR" {
			return newSyntaxError(n, path, fmt.Sprintf("invalid syntax near %q", snippet(n, source)))
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			child := n.Child(i)
			if child != nil && (child.HasError() || child.IsMissing()) {
				stack = append(stack, child)
			}
		}
	}
	// HasError was true on the root but no culprit was found.
	return newSyntaxError(root, path, "invalid syntax")
}

// legacyStatements maps Python 2 statement nodes the grammar still accepts
// to the message they are rejected with.
var legacyStatements = map[string]string{
	"print_statement": "Python 2 print statement; use print()",
	"exec_statement":  "Python 2 exec statement; use exec()",
	"chevron":         "Python 2 print redirection; use print(..., file=f)",
}

// legacyStatement returns an error for the first Python 2 only statement
// in pre-order, or nil.
func legacyStatement(root *sitter.Node, path string) *SyntaxError {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if msg, ok := legacyStatements[n.Type()]; ok {
			return newSyntaxError(n, path, msg)
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			if child := n.NamedChild(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return nil
}

func newSyntaxError(n *sitter.Node, path, msg string) *SyntaxError {
	pt := n.StartPoint()
	return &SyntaxError{
		Path:    path,
		Line:    int(pt.Row) + 1,
		Column:  int(pt.Column),
		Message: msg,
	}
}

func snippet(n *sitter.Node, source []byte) string {
	text := GetNodeText(n, source)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > snippetLimit {
		text = text[:snippetLimit]
	}
	return text
}
