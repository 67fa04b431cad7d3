package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/preciselake/preciselake/pkg/ast"
)

// item is one pending child of a plan: either a concrete node still to be
// converted, or a synthetic plan with no concrete node of its own.
type item struct {
	field ast.Field
	cst   *sitter.Node
	ctx   ast.Context
	plan  *plan
}

// plan is an ast.Node awaiting its children.
type plan struct {
	spec  ast.Spec
	items []item
}

func (p *plan) add(field ast.Field, n *sitter.Node, ctx ast.Context) {
	if n == nil {
		return
	}
	p.items = append(p.items, item{field: field, cst: n, ctx: ctx})
}

func (p *plan) nest(field ast.Field, child *plan) {
	p.items = append(p.items, item{field: field, plan: child})
}

type frame struct {
	field ast.Field
	plan  *plan
	next  int
	built []ast.Child
}

// converter turns a tree-sitter Python tree into an ast tree.
type converter struct {
	source []byte
}

// convert builds the tree post-order from an explicit stack of frames.
func (c *converter) convert(root *sitter.Node) *ast.Node {
	stack := []*frame{{plan: c.planFor(root, ast.Load)}}
	for {
		f := stack[len(stack)-1]
		if f.next < len(f.plan.items) {
			it := f.plan.items[f.next]
			f.next++
			child := it.plan
			if child == nil {
				child = c.planFor(it.cst, it.ctx)
				if child == nil {
					continue
				}
			}
			stack = append(stack, &frame{field: it.field, plan: child})
			continue
		}

		node := ast.NewNode(f.plan.spec, f.built...)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return node
		}
		parent := stack[len(stack)-1]
		parent.built = append(parent.built, ast.Child{Field: f.field, Node: node})
	}
}

func (c *converter) text(n *sitter.Node) string {
	return GetNodeText(n, c.source)
}

func (c *converter) spec(kind ast.Kind, n *sitter.Node) ast.Spec {
	sp, ep := n.StartPoint(), n.EndPoint()
	return ast.Spec{
		Kind:  kind,
		Start: ast.Position{Line: int(sp.Row) + 1, Column: int(sp.Column)},
		End:   ast.Position{Line: int(ep.Row) + 1, Column: int(ep.Column)},
	}
}

func (c *converter) newPlan(kind ast.Kind, n *sitter.Node) *plan {
	return &plan{spec: c.spec(kind, n)}
}

func skippable(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_continuation":
		return true
	}
	return false
}

// named returns the named children of n, minus comments.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || skippable(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := named(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

func same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func storeOr(ctx ast.Context) ast.Context {
	if ctx == ast.CtxNone {
		return ast.Load
	}
	return ctx
}

func (c *converter) addBlock(p *plan, field ast.Field, block *sitter.Node) {
	for _, stmt := range named(block) {
		p.add(field, stmt, ast.Load)
	}
}

// planFor maps one concrete node to the plan of one ast node, or nil when
// the node contributes nothing.
func (c *converter) planFor(n *sitter.Node, ctx ast.Context) *plan {
	var decorators []*sitter.Node
	for {
		if n == nil || skippable(n) {
			return nil
		}
		switch n.Type() {
		case "parenthesized_expression", "type":
			inner := firstNamed(n)
			if inner == nil {
				return c.newPlan(ast.KindTuple, n)
			}
			n = inner
			continue
		case "decorated_definition":
			for _, child := range named(n) {
				if child.Type() == "decorator" {
					decorators = append(decorators, child)
				}
			}
			n = n.ChildByFieldName("definition")
			continue
		case "expression_statement":
			kids := named(n)
			if len(kids) == 1 {
				switch kids[0].Type() {
				case "assignment", "augmented_assignment":
					n = kids[0]
					continue
				}
			}
			p := c.newPlan(ast.KindExpr, n)
			if len(kids) == 1 {
				p.add(ast.FieldValue, kids[0], ast.Load)
			} else {
				tuple := c.newPlan(ast.KindTuple, n)
				tuple.spec.Ctx = ast.Load
				for _, k := range kids {
					tuple.add(ast.FieldElts, k, ast.Load)
				}
				p.nest(ast.FieldValue, tuple)
			}
			return p
		}
		break
	}

	if p := c.statement(n); p != nil {
		if len(decorators) > 0 {
			prefix := make([]item, 0, len(decorators)+len(p.items))
			for _, d := range decorators {
				prefix = append(prefix, item{field: ast.FieldDecorators, cst: firstNamed(d), ctx: ast.Load})
			}
			p.items = append(prefix, p.items...)
		}
		return p
	}
	if p := c.expression(n, storeOr(ctx)); p != nil {
		return p
	}
	return c.other(n)
}

// other keeps an unmodeled construct with its named children as loads.
func (c *converter) other(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindOther, n)
	p.spec.Ident = n.Type()
	for _, child := range named(n) {
		p.add(ast.FieldValues, child, ast.Load)
	}
	return p
}

func (c *converter) statement(n *sitter.Node) *plan {
	switch n.Type() {
	case "module":
		p := c.newPlan(ast.KindModule, n)
		c.addBlock(p, ast.FieldBody, n)
		return p
	case "function_definition":
		return c.function(n)
	case "class_definition":
		return c.class(n)
	case "assignment":
		return c.assignment(n)
	case "augmented_assignment":
		p := c.newPlan(ast.KindAugAssign, n)
		if op, ok := ast.BinaryOperator(c.text(n.ChildByFieldName("operator"))); ok {
			p.spec.Ops = []ast.Operator{op}
		}
		p.add(ast.FieldTarget, n.ChildByFieldName("left"), ast.Store)
		p.add(ast.FieldValue, n.ChildByFieldName("right"), ast.Load)
		return p
	case "return_statement":
		p := c.newPlan(ast.KindReturn, n)
		p.add(ast.FieldValue, firstNamed(n), ast.Load)
		return p
	case "delete_statement":
		p := c.newPlan(ast.KindDelete, n)
		target := firstNamed(n)
		if target != nil && target.Type() == "expression_list" {
			for _, t := range named(target) {
				p.add(ast.FieldTargets, t, ast.Del)
			}
		} else {
			p.add(ast.FieldTargets, target, ast.Del)
		}
		return p
	case "pass_statement":
		return c.newPlan(ast.KindPass, n)
	case "break_statement":
		return c.newPlan(ast.KindBreak, n)
	case "continue_statement":
		return c.newPlan(ast.KindContinue, n)
	case "raise_statement":
		p := c.newPlan(ast.KindRaise, n)
		cause := n.ChildByFieldName("cause")
		for _, child := range named(n) {
			if same(child, cause) {
				p.add(ast.FieldCause, child, ast.Load)
			} else {
				p.add(ast.FieldExc, child, ast.Load)
			}
		}
		return p
	case "global_statement", "nonlocal_statement":
		kind := ast.KindGlobal
		if n.Type() == "nonlocal_statement" {
			kind = ast.KindNonlocal
		}
		p := c.newPlan(kind, n)
		var names []string
		for _, child := range named(n) {
			names = append(names, c.text(child))
		}
		p.spec.Ident = strings.Join(names, ",")
		return p
	case "assert_statement":
		p := c.newPlan(ast.KindAssert, n)
		for i, child := range named(n) {
			if i == 0 {
				p.add(ast.FieldTest, child, ast.Load)
			} else {
				p.add(ast.FieldMsg, child, ast.Load)
			}
		}
		return p
	case "import_statement":
		p := c.newPlan(ast.KindImport, n)
		for _, child := range named(n) {
			if a := c.alias(child); a != nil {
				p.nest(ast.FieldNames, a)
			}
		}
		return p
	case "import_from_statement", "future_import_statement":
		return c.importFrom(n)
	case "if_statement":
		return c.ifStatement(n)
	case "for_statement":
		kind := ast.KindFor
		if hasToken(n, "async") {
			kind = ast.KindAsyncFor
		}
		p := c.newPlan(kind, n)
		p.add(ast.FieldTarget, n.ChildByFieldName("left"), ast.Store)
		p.add(ast.FieldIter, n.ChildByFieldName("right"), ast.Load)
		c.addBlock(p, ast.FieldBody, n.ChildByFieldName("body"))
		c.addElse(p, n.ChildByFieldName("alternative"))
		return p
	case "while_statement":
		p := c.newPlan(ast.KindWhile, n)
		p.add(ast.FieldTest, n.ChildByFieldName("condition"), ast.Load)
		c.addBlock(p, ast.FieldBody, n.ChildByFieldName("body"))
		c.addElse(p, n.ChildByFieldName("alternative"))
		return p
	case "try_statement":
		return c.tryStatement(n)
	case "with_statement":
		return c.withStatement(n)
	case "match_statement":
		return c.matchStatement(n)
	}
	return nil
}

func (c *converter) addElse(p *plan, alt *sitter.Node) {
	if alt == nil {
		return
	}
	body := alt.ChildByFieldName("body")
	if body == nil {
		body = firstNamed(alt)
	}
	c.addBlock(p, ast.FieldOrElse, body)
}

func (c *converter) function(n *sitter.Node) *plan {
	kind := ast.KindFunctionDef
	if hasToken(n, "async") {
		kind = ast.KindAsyncFunctionDef
	}
	p := c.newPlan(kind, n)
	p.spec.Ident = c.text(n.ChildByFieldName("name"))
	p.nest(ast.FieldArgs, c.arguments(n, n.ChildByFieldName("parameters")))
	p.add(ast.FieldReturns, n.ChildByFieldName("return_type"), ast.Load)
	c.addBlock(p, ast.FieldBody, n.ChildByFieldName("body"))
	return p
}

// arguments builds an Arguments node. owner positions the node when the
// parameter list is absent (a bare lambda).
func (c *converter) arguments(owner, params *sitter.Node) *plan {
	if params == nil {
		return c.newPlan(ast.KindArguments, owner)
	}
	p := c.newPlan(ast.KindArguments, params)
	for _, param := range named(params) {
		field := ast.FieldArgs
		nameNode := param
		var annotation, value *sitter.Node

		switch param.Type() {
		case "identifier":
		case "default_parameter", "typed_default_parameter":
			nameNode = param.ChildByFieldName("name")
			annotation = param.ChildByFieldName("type")
			value = param.ChildByFieldName("value")
		case "typed_parameter":
			nameNode = firstNamed(param)
			annotation = param.ChildByFieldName("type")
		case "list_splat_pattern", "dictionary_splat_pattern":
		case "keyword_separator", "positional_separator":
			continue
		default:
			p.add(ast.FieldArgs, param, ast.Store)
			continue
		}

		if nameNode == nil {
			continue
		}
		switch nameNode.Type() {
		case "list_splat_pattern":
			field = ast.FieldVararg
			nameNode = firstNamed(nameNode)
		case "dictionary_splat_pattern":
			field = ast.FieldKwarg
			nameNode = firstNamed(nameNode)
		}
		if nameNode == nil {
			continue
		}

		arg := c.newPlan(ast.KindArg, param)
		arg.spec.Ident = c.text(nameNode)
		arg.add(ast.FieldAnnotation, annotation, ast.Load)
		p.nest(field, arg)
		p.add(ast.FieldDefaults, value, ast.Load)
	}
	return p
}

func (c *converter) class(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindClassDef, n)
	p.spec.Ident = c.text(n.ChildByFieldName("name"))
	for _, base := range named(n.ChildByFieldName("superclasses")) {
		switch base.Type() {
		case "keyword_argument", "dictionary_splat":
			p.nest(ast.FieldKeywords, c.keyword(base))
		default:
			p.add(ast.FieldBases, base, ast.Load)
		}
	}
	c.addBlock(p, ast.FieldBody, n.ChildByFieldName("body"))
	return p
}

func (c *converter) keyword(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindKeyword, n)
	if n.Type() == "dictionary_splat" {
		p.add(ast.FieldValue, firstNamed(n), ast.Load)
		return p
	}
	p.spec.Ident = c.text(n.ChildByFieldName("name"))
	p.add(ast.FieldValue, n.ChildByFieldName("value"), ast.Load)
	return p
}

// assignment flattens chained targets (a = b = 1) into a single Assign.
func (c *converter) assignment(n *sitter.Node) *plan {
	if annotation := n.ChildByFieldName("type"); annotation != nil {
		p := c.newPlan(ast.KindAnnAssign, n)
		p.add(ast.FieldTarget, n.ChildByFieldName("left"), ast.Store)
		p.add(ast.FieldAnnotation, annotation, ast.Load)
		p.add(ast.FieldValue, n.ChildByFieldName("right"), ast.Load)
		return p
	}

	p := c.newPlan(ast.KindAssign, n)
	p.add(ast.FieldTargets, n.ChildByFieldName("left"), ast.Store)
	value := n.ChildByFieldName("right")
	for value != nil && value.Type() == "assignment" && value.ChildByFieldName("type") == nil {
		p.add(ast.FieldTargets, value.ChildByFieldName("left"), ast.Store)
		value = value.ChildByFieldName("right")
	}
	p.add(ast.FieldValue, value, ast.Load)
	return p
}

func (c *converter) alias(n *sitter.Node) *plan {
	switch n.Type() {
	case "dotted_name", "identifier":
		p := c.newPlan(ast.KindAlias, n)
		p.spec.Ident = c.text(n)
		return p
	case "aliased_import":
		p := c.newPlan(ast.KindAlias, n)
		p.spec.Ident = c.text(n.ChildByFieldName("name"))
		p.spec.Alias = c.text(n.ChildByFieldName("alias"))
		return p
	case "wildcard_import":
		p := c.newPlan(ast.KindAlias, n)
		p.spec.Ident = "*"
		return p
	}
	return nil
}

func (c *converter) importFrom(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindImportFrom, n)
	module := n.ChildByFieldName("module_name")
	if n.Type() == "future_import_statement" {
		p.spec.Ident = "__future__"
	} else {
		p.spec.Ident = c.text(module)
	}
	for _, child := range named(n) {
		if same(child, module) {
			continue
		}
		if module != nil && child.StartByte() < module.EndByte() {
			continue
		}
		if a := c.alias(child); a != nil {
			p.nest(ast.FieldNames, a)
		}
	}
	return p
}

// ifStatement chains elif clauses as nested If nodes in orelse.
func (c *converter) ifStatement(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindIf, n)
	p.add(ast.FieldTest, n.ChildByFieldName("condition"), ast.Load)
	c.addBlock(p, ast.FieldBody, n.ChildByFieldName("consequence"))

	tail := p
	for _, clause := range named(n) {
		switch clause.Type() {
		case "elif_clause":
			elif := c.newPlan(ast.KindIf, clause)
			elif.add(ast.FieldTest, clause.ChildByFieldName("condition"), ast.Load)
			c.addBlock(elif, ast.FieldBody, clause.ChildByFieldName("consequence"))
			tail.nest(ast.FieldOrElse, elif)
			tail = elif
		case "else_clause":
			c.addElse(tail, clause)
		}
	}
	return p
}

func (c *converter) tryStatement(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindTry, n)
	c.addBlock(p, ast.FieldBody, n.ChildByFieldName("body"))
	for _, clause := range named(n) {
		switch clause.Type() {
		case "except_clause", "except_group_clause":
			p.nest(ast.FieldHandlers, c.handler(clause))
		case "else_clause":
			c.addElse(p, clause)
		case "finally_clause":
			for _, child := range named(clause) {
				if child.Type() == "block" {
					c.addBlock(p, ast.FieldFinalBody, child)
				}
			}
		}
	}
	return p
}

func (c *converter) handler(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindExceptHandler, n)
	var exprs []*sitter.Node
	var body *sitter.Node
	for _, child := range named(n) {
		if child.Type() == "block" {
			body = child
			continue
		}
		exprs = append(exprs, child)
	}
	if len(exprs) > 0 {
		typ := exprs[0]
		var nameNode *sitter.Node
		if typ.Type() == "as_pattern" {
			parts := named(typ)
			if len(parts) > 0 {
				typ = parts[0]
			}
			if len(parts) > 1 {
				nameNode = parts[1]
			}
		} else if len(exprs) > 1 {
			nameNode = exprs[1]
		}
		p.add(ast.FieldType, typ, ast.Load)
		if nameNode != nil && nameNode.Type() == "as_pattern_target" {
			nameNode = firstNamed(nameNode)
		}
		p.spec.Ident = c.text(nameNode)
	}
	c.addBlock(p, ast.FieldBody, body)
	return p
}

func (c *converter) withStatement(n *sitter.Node) *plan {
	kind := ast.KindWith
	if hasToken(n, "async") {
		kind = ast.KindAsyncWith
	}
	p := c.newPlan(kind, n)
	for _, child := range named(n) {
		if child.Type() != "with_clause" {
			continue
		}
		for _, wi := range named(child) {
			if wi.Type() != "with_item" {
				continue
			}
			p.nest(ast.FieldItems, c.withItem(wi))
		}
	}
	c.addBlock(p, ast.FieldBody, n.ChildByFieldName("body"))
	return p
}

func (c *converter) withItem(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindWithItem, n)
	value := n.ChildByFieldName("value")
	if value == nil {
		value = firstNamed(n)
	}
	target := n.ChildByFieldName("alias")
	if value != nil && value.Type() == "as_pattern" {
		parts := named(value)
		value = nil
		if len(parts) > 0 {
			value = parts[0]
		}
		if len(parts) > 1 {
			target = parts[1]
			if target.Type() == "as_pattern_target" {
				target = firstNamed(target)
			}
		}
	}
	p.add(ast.FieldContextExpr, value, ast.Load)
	p.add(ast.FieldOptionalVars, target, ast.Store)
	return p
}

func (c *converter) matchStatement(n *sitter.Node) *plan {
	p := c.newPlan(ast.KindMatch, n)
	body := n.ChildByFieldName("body")
	clauses := named(body)
	for _, child := range named(n) {
		switch {
		case same(child, body), child.Type() == "block":
			continue
		case child.Type() == "case_clause":
			if body == nil {
				clauses = append(clauses, child)
			}
			continue
		}
		p.add(ast.FieldSubject, child, ast.Load)
	}
	for _, clause := range clauses {
		if clause.Type() != "case_clause" {
			continue
		}
		mc := c.newPlan(ast.KindMatchCase, clause)
		for _, part := range named(clause) {
			switch part.Type() {
			case "case_pattern":
				pattern := c.newPlan(ast.KindOther, part)
				pattern.spec.Ident = part.Type()
				pattern.spec.Literal = c.text(part)
				mc.nest(ast.FieldPattern, pattern)
			case "if_clause":
				mc.add(ast.FieldGuard, firstNamed(part), ast.Load)
			case "block":
				c.addBlock(mc, ast.FieldBody, part)
			}
		}
		p.nest(ast.FieldCases, mc)
	}
	return p
}
