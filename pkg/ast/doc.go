// Package ast defines the immutable syntax tree shared by every detector.
//
// A tree is built once by the parser package and never modified afterwards.
// Each Node carries a Kind tag, a source span, the Field role it fills in its
// parent, a small payload (identifier, alias, literal text, operators,
// expression context) and its ordered children. Parent links are lookup-only.
//
// All traversals in this package use an explicit stack, so arbitrarily deep
// input does not grow the goroutine stack.
//
// Usage:
//
//	unit, err := parser.Parse(src, "example.py")
//	if err != nil {
//	    return err
//	}
//
//	ast.Inspect(unit.Root, func(n *ast.Node) bool {
//	    if n.Kind() == ast.KindCall {
//	        fmt.Printf("call at line %d\n", n.Pos().Line)
//	    }
//	    return true
//	})
package ast
