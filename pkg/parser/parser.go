package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/preciselake/preciselake/pkg/ast"
)

// Parser wraps tree-sitter for Python parsing.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*ast.Unit, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(source, path)
}

// Parse parses Python source. path identifies the unit in errors and
// reports. Malformed input yields a *SyntaxError and no tree.
func (p *Parser) Parse(source []byte, path string) (*ast.Unit, error) {
	return p.ParseContext(context.Background(), source, path)
}

// ParseContext is Parse with cancellation.
func (p *Parser) ParseContext(ctx context.Context, source []byte, path string) (*ast.Unit, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source, path)
	}
	if err := legacyStatement(root, path); err != nil {
		return nil, err
	}

	c := &converter{source: source}
	return ast.NewUnit(path, source, c.convert(root)), nil
}

// Parse parses source with a throwaway parser.
func Parse(source []byte, path string) (*ast.Unit, error) {
	p := New()
	defer p.Close()
	return p.Parse(source, path)
}

// ParseFile reads and parses path with a throwaway parser.
func ParseFile(path string) (*ast.Unit, error) {
	p := New()
	defer p.Close()
	return p.ParseFile(path)
}

// IsPython reports whether path has a Python source extension.
func IsPython(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return true
	default:
		return false
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
