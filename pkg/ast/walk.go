package ast

// Inspect traverses the tree rooted at root in pre-order (document order).
// If fn returns false the children of that node are skipped. Traversal uses
// an explicit stack so deeply nested input cannot exhaust the goroutine stack.
func Inspect(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
}

// Count returns the number of nodes in the subtree rooted at root,
// root included.
func Count(root *Node) int {
	total := 0
	Inspect(root, func(*Node) bool {
		total++
		return true
	})
	return total
}

// FindAll returns every node in the subtree for which match is true,
// in pre-order.
func FindAll(root *Node, match func(*Node) bool) []*Node {
	var out []*Node
	Inspect(root, func(n *Node) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindKind returns every node of kind k in pre-order.
func FindKind(root *Node, kinds ...Kind) []*Node {
	return FindAll(root, func(n *Node) bool {
		for _, k := range kinds {
			if n.kind == k {
				return true
			}
		}
		return false
	})
}

// FindFirst returns the first node in pre-order for which match is true.
func FindFirst(root *Node, match func(*Node) bool) *Node {
	var found *Node
	Inspect(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// HasDescendant reports whether any strict descendant of n matches.
func HasDescendant(n *Node, match func(*Node) bool) bool {
	for _, c := range n.children {
		if FindFirst(c, match) != nil {
			return true
		}
	}
	return false
}

// EnclosingFunction returns the nearest enclosing function definition,
// or nil at module level.
func EnclosingFunction(n *Node) *Node {
	return n.Enclosing(func(p *Node) bool { return p.kind.IsFunction() })
}

// SubtreeSizes returns the node count of every subtree under root, computed
// in one post-order pass.
func SubtreeSizes(root *Node) map[*Node]int {
	sizes := make(map[*Node]int)
	if root == nil {
		return sizes
	}
	type frame struct {
		node *Node
		next int
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.children) {
			child := top.node.children[top.next]
			top.next++
			stack = append(stack, frame{node: child})
			continue
		}
		size := 1
		for _, c := range top.node.children {
			size += sizes[c]
		}
		sizes[top.node] = size
		stack = stack[:len(stack)-1]
	}
	return sizes
}
