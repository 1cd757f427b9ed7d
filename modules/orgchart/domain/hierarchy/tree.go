// Package hierarchy assembles self-referential entity sets into nested trees.
//
// Rows are addressed by key only; parent links are resolved through an index
// built per call, so a cycle in stored parent pointers can never be
// represented as a cycle in the output.
package hierarchy

import "sort"

type Node[T any] struct {
	Item     T
	Children []*Node[T]
}

type Options[T any, K comparable] struct {
	// Key returns the row identity.
	Key func(T) K
	// Parent returns the parent key; ok is false for rows without a parent.
	Parent func(T) (K, bool)
	// IsRoot selects the rows the tree starts from.
	IsRoot func(T) bool
	// Less orders siblings. Input order is kept when nil.
	Less func(a, b T) bool
}

// Build groups items by parent key and attaches children depth first from every root.
// A row already on the current path is not descended into again, and a row that was
// placed once is never placed a second time. Rows unreachable from a root are dropped.
func Build[T any, K comparable](items []T, opts Options[T, K]) []*Node[T] {
	children := make(map[K][]T, len(items))
	roots := make([]T, 0)
	for _, item := range items {
		if opts.IsRoot != nil && opts.IsRoot(item) {
			roots = append(roots, item)
			continue
		}
		if parent, ok := opts.Parent(item); ok {
			children[parent] = append(children[parent], item)
		}
	}

	if opts.Less != nil {
		sortItems(roots, opts.Less)
		for k := range children {
			sortItems(children[k], opts.Less)
		}
	}

	b := builder[T, K]{
		opts:     opts,
		children: children,
		placed:   make(map[K]struct{}, len(items)),
	}
	out := make([]*Node[T], 0, len(roots))
	for _, root := range roots {
		if node := b.attach(root, map[K]struct{}{}); node != nil {
			out = append(out, node)
		}
	}
	return out
}

type builder[T any, K comparable] struct {
	opts     Options[T, K]
	children map[K][]T
	placed   map[K]struct{}
}

func (b *builder[T, K]) attach(item T, path map[K]struct{}) *Node[T] {
	key := b.opts.Key(item)
	if _, seen := b.placed[key]; seen {
		return nil
	}
	b.placed[key] = struct{}{}

	node := &Node[T]{Item: item}
	path[key] = struct{}{}
	defer delete(path, key)

	for _, child := range b.children[key] {
		childKey := b.opts.Key(child)
		if _, onPath := path[childKey]; onPath {
			continue
		}
		if c := b.attach(child, path); c != nil {
			node.Children = append(node.Children, c)
		}
	}
	return node
}

func sortItems[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

// Walk visits nodes depth first, parents before children.
func Walk[T any](nodes []*Node[T], fn func(n *Node[T], depth int)) {
	var visit func(n *Node[T], depth int)
	visit = func(n *Node[T], depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, n := range nodes {
		visit(n, 0)
	}
}

// Flatten returns every item of the forest in Walk order.
func Flatten[T any](nodes []*Node[T]) []T {
	out := make([]T, 0)
	Walk(nodes, func(n *Node[T], _ int) {
		out = append(out, n.Item)
	})
	return out
}

// IsAncestor reports whether ancestor appears on the parent chain above node.
// The walk stops at the first repeated key, so an existing cycle cannot hang it.
func IsAncestor[K comparable](parentOf func(K) (K, bool), ancestor, node K) bool {
	seen := map[K]struct{}{node: {}}
	cur := node
	for {
		parent, ok := parentOf(cur)
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		if _, loop := seen[parent]; loop {
			return false
		}
		seen[parent] = struct{}{}
		cur = parent
	}
}
