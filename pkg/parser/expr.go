package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/preciselake/preciselake/pkg/ast"
)

// expression maps expression nodes. ctx is the context the expression
// appears in; it reaches names through tuples, lists and starred targets.
func (c *converter) expression(n *sitter.Node, ctx ast.Context) *plan {
	switch n.Type() {
	case "identifier", "keyword_identifier":
		p := c.newPlan(ast.KindName, n)
		p.spec.Ident = c.text(n)
		p.spec.Ctx = ctx
		return p
	case "integer", "float", "true", "false", "none", "ellipsis":
		p := c.newPlan(ast.KindConstant, n)
		p.spec.Literal = c.text(n)
		return p
	case "string", "concatenated_string":
		return c.str(n)
	case "attribute":
		p := c.newPlan(ast.KindAttribute, n)
		p.spec.Ident = c.text(n.ChildByFieldName("attribute"))
		p.spec.Ctx = ctx
		p.add(ast.FieldValue, n.ChildByFieldName("object"), ast.Load)
		return p
	case "subscript":
		return c.subscript(n, ctx)
	case "slice":
		return c.slice(n)
	case "call":
		return c.call(n)
	case "keyword_argument":
		return c.keyword(n)
	case "binary_operator":
		p := c.newPlan(ast.KindBinOp, n)
		if op, ok := ast.BinaryOperator(c.text(n.ChildByFieldName("operator"))); ok {
			p.spec.Ops = []ast.Operator{op}
		}
		p.add(ast.FieldLeft, n.ChildByFieldName("left"), ast.Load)
		p.add(ast.FieldRight, n.ChildByFieldName("right"), ast.Load)
		return p
	case "boolean_operator":
		return c.boolOp(n)
	case "not_operator":
		p := c.newPlan(ast.KindUnaryOp, n)
		p.spec.Ops = []ast.Operator{ast.OpNot}
		p.add(ast.FieldOperand, n.ChildByFieldName("argument"), ast.Load)
		return p
	case "unary_operator":
		p := c.newPlan(ast.KindUnaryOp, n)
		if op, ok := ast.UnaryOperator(c.text(n.ChildByFieldName("operator"))); ok {
			p.spec.Ops = []ast.Operator{op}
		}
		p.add(ast.FieldOperand, n.ChildByFieldName("argument"), ast.Load)
		return p
	case "comparison_operator":
		return c.compare(n)
	case "lambda":
		p := c.newPlan(ast.KindLambda, n)
		p.nest(ast.FieldArgs, c.arguments(n, n.ChildByFieldName("parameters")))
		p.add(ast.FieldBody, n.ChildByFieldName("body"), ast.Load)
		return p
	case "conditional_expression":
		p := c.newPlan(ast.KindIfExp, n)
		kids := named(n)
		fields := []ast.Field{ast.FieldBody, ast.FieldTest, ast.FieldOrElse}
		for i, k := range kids {
			if i < len(fields) {
				p.add(fields[i], k, ast.Load)
			}
		}
		return p
	case "named_expression":
		p := c.newPlan(ast.KindNamedExpr, n)
		p.add(ast.FieldTarget, n.ChildByFieldName("name"), ast.Store)
		p.add(ast.FieldValue, n.ChildByFieldName("value"), ast.Load)
		return p
	case "list", "list_pattern":
		return c.sequence(ast.KindList, n, ctx)
	case "tuple", "tuple_pattern", "pattern_list", "expression_list":
		return c.sequence(ast.KindTuple, n, ctx)
	case "set":
		return c.sequence(ast.KindSet, n, ast.Load)
	case "dictionary":
		return c.dict(n)
	case "list_comprehension":
		return c.comprehension(ast.KindListComp, n)
	case "set_comprehension":
		return c.comprehension(ast.KindSetComp, n)
	case "generator_expression":
		return c.comprehension(ast.KindGeneratorExp, n)
	case "dictionary_comprehension":
		return c.comprehension(ast.KindDictComp, n)
	case "await":
		p := c.newPlan(ast.KindAwait, n)
		p.add(ast.FieldValue, firstNamed(n), ast.Load)
		return p
	case "yield":
		kind := ast.KindYield
		if hasToken(n, "from") {
			kind = ast.KindYieldFrom
		}
		p := c.newPlan(kind, n)
		p.add(ast.FieldValue, firstNamed(n), ast.Load)
		return p
	case "list_splat", "list_splat_pattern":
		p := c.newPlan(ast.KindStarred, n)
		p.spec.Ctx = ctx
		p.add(ast.FieldValue, firstNamed(n), ctx)
		return p
	}
	return nil
}

// sequence builds a List, Tuple or Set display.
func (c *converter) sequence(kind ast.Kind, n *sitter.Node, ctx ast.Context) *plan {
	p := c.newPlan(kind, n)
	if kind != ast.KindSet {
		p.spec.Ctx = ctx
	}
	for _, elt := range named(n) {
		p.add(ast.FieldElts, elt, ctx)
	}
	return p
}

// dict interleaves keys and values; a ** splat contributes a value only.
func (c *converter) dict(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindDict, n)
	for _, child := range named(n) {
		switch child.Type() {
		case "pair":
			p.add(ast.FieldKeys, child.ChildByFieldName("key"), ast.Load)
			p.add(ast.FieldValues, child.ChildByFieldName("value"), ast.Load)
		case "dictionary_splat":
			p.add(ast.FieldValues, firstNamed(child), ast.Load)
		default:
			p.add(ast.FieldValues, child, ast.Load)
		}
	}
	return p
}

func (c *converter) comprehension(kind ast.Kind, n *sitter.Node) *plan {
	p := c.newPlan(kind, n)
	body := n.ChildByFieldName("body")
	if kind == ast.KindDictComp && body != nil && body.Type() == "pair" {
		p.add(ast.FieldKey, body.ChildByFieldName("key"), ast.Load)
		p.add(ast.FieldValue, body.ChildByFieldName("value"), ast.Load)
	} else {
		p.add(ast.FieldElt, body, ast.Load)
	}

	var last *plan
	for _, clause := range named(n) {
		if same(clause, body) {
			continue
		}
		switch clause.Type() {
		case "for_in_clause":
			gen := c.newPlan(ast.KindComprehension, clause)
			gen.add(ast.FieldTarget, clause.ChildByFieldName("left"), ast.Store)
			gen.add(ast.FieldIter, clause.ChildByFieldName("right"), ast.Load)
			p.nest(ast.FieldGenerators, gen)
			last = gen
		case "if_clause":
			if last != nil {
				last.add(ast.FieldIfs, firstNamed(clause), ast.Load)
			}
		}
	}
	return p
}

func (c *converter) call(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindCall, n)
	p.add(ast.FieldFunc, n.ChildByFieldName("function"), ast.Load)
	args := n.ChildByFieldName("arguments")
	if args != nil && args.Type() == "generator_expression" {
		p.add(ast.FieldArgs, args, ast.Load)
		return p
	}
	for _, arg := range named(args) {
		switch arg.Type() {
		case "keyword_argument", "dictionary_splat":
			p.nest(ast.FieldKeywords, c.keyword(arg))
		default:
			p.add(ast.FieldArgs, arg, ast.Load)
		}
	}
	return p
}

func (c *converter) subscript(n *sitter.Node, ctx ast.Context) *plan {
	p := c.newPlan(ast.KindSubscript, n)
	p.spec.Ctx = ctx
	value := n.ChildByFieldName("value")
	p.add(ast.FieldValue, value, ast.Load)

	var index []*sitter.Node
	for _, child := range named(n) {
		if !same(child, value) {
			index = append(index, child)
		}
	}
	switch len(index) {
	case 0:
	case 1:
		p.add(ast.FieldSlice, index[0], ast.Load)
	default:
		tuple := c.newPlan(ast.KindTuple, index[0])
		tuple.spec.Ctx = ast.Load
		tuple.spec.End = c.spec(ast.KindTuple, index[len(index)-1]).End
		for _, idx := range index {
			tuple.add(ast.FieldElts, idx, ast.Load)
		}
		p.nest(ast.FieldSlice, tuple)
	}
	return p
}

func (c *converter) slice(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindSlice, n)
	fields := []ast.Field{ast.FieldLower, ast.FieldUpper, ast.FieldStep}
	slot := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || skippable(child) {
			continue
		}
		if !child.IsNamed() {
			if child.Type() == ":" {
				slot++
			}
			continue
		}
		if slot < len(fields) {
			p.add(fields[slot], child, ast.Load)
		}
	}
	return p
}

// boolOp flattens a left-nested chain of the same operator into one BoolOp.
func (c *converter) boolOp(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindBoolOp, n)
	opText := c.text(n.ChildByFieldName("operator"))
	if opText == "and" {
		p.spec.Ops = []ast.Operator{ast.OpAnd}
	} else {
		p.spec.Ops = []ast.Operator{ast.OpOr}
	}

	var rights []*sitter.Node
	cur := n
	for cur != nil && cur.Type() == "boolean_operator" && c.text(cur.ChildByFieldName("operator")) == opText {
		rights = append(rights, cur.ChildByFieldName("right"))
		cur = cur.ChildByFieldName("left")
	}
	p.add(ast.FieldValues, cur, ast.Load)
	for i := len(rights) - 1; i >= 0; i-- {
		p.add(ast.FieldValues, rights[i], ast.Load)
	}
	return p
}

// compare reads operands and operator tokens in order. Two-word operators
// may arrive as one aliased token or as two adjacent tokens.
func (c *converter) compare(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindCompare, n)
	first := true
	pending := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || skippable(child) {
			continue
		}
		if child.IsNamed() {
			if first {
				p.add(ast.FieldLeft, child, ast.Load)
				first = false
			} else {
				p.add(ast.FieldComparators, child, ast.Load)
			}
			continue
		}
		tok := child.Type()
		if pending != "" {
			tok = pending + " " + tok
			pending = ""
		} else if tok == "not" || tok == "is" {
			if next := n.Child(i + 1); next != nil && !next.IsNamed() && (next.Type() == "in" || next.Type() == "not") {
				pending = tok
				continue
			}
		}
		if op, ok := ast.CompareOperator(tok); ok {
			p.spec.Ops = append(p.spec.Ops, op)
		}
	}
	return p
}

// str yields a Constant, or a JoinedStr when any part interpolates.
func (c *converter) str(n *sitter.Node) *plan {
	parts := []*sitter.Node{n}
	if n.Type() == "concatenated_string" {
		parts = named(n)
	}
	var interpolations []*sitter.Node
	for _, part := range parts {
		for _, child := range named(part) {
			if child.Type() == "interpolation" {
				interpolations = append(interpolations, child)
			}
		}
	}
	if len(interpolations) == 0 {
		p := c.newPlan(ast.KindConstant, n)
		p.spec.Literal = c.text(n)
		return p
	}

	p := c.newPlan(ast.KindJoinedStr, n)
	for _, interp := range interpolations {
		fv := c.newPlan(ast.KindFormattedValue, interp)
		expr := interp.ChildByFieldName("expression")
		if expr == nil {
			expr = firstNamed(interp)
		}
		fv.add(ast.FieldValue, expr, ast.Load)
		p.nest(ast.FieldValues, fv)
	}
	return p
}
