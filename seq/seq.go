// Package seq provides an immutable sequence with O(1) concatenation.
//
// Network construction appends many small runs of node indices and
// operations before flattening everything exactly once, so the interesting
// operations are Concat and Flatten.  The sequence is a binary concatenation
// tree with a cached size at every node; no rebalancing is performed because
// the only correctness requirements are order preservation and size
// accuracy.
package seq

// Seq is an immutable ordered sequence.  The zero value is the empty
// sequence.
type Seq[T any] struct {
	root *node[T]
}

type node[T any] struct {
	size int

	// leaf payload; left and right are nil for leaves
	v T

	left, right *node[T]
}

// Empty returns the empty sequence.
func Empty[T any]() Seq[T] {
	return Seq[T]{}
}

// One returns the sequence containing exactly v.
func One[T any](v T) Seq[T] {
	return Seq[T]{root: &node[T]{size: 1, v: v}}
}

// FromSlice returns a sequence with the elements of vs in order.  The slice
// is not retained.
func FromSlice[T any](vs []T) Seq[T] {
	s := Empty[T]()
	for _, v := range vs {
		s = s.Append(v)
	}
	return s
}

// Len returns the number of elements.  O(1).
func (s Seq[T]) Len() int {
	if s.root == nil {
		return 0
	}
	return s.root.size
}

// Concat returns the sequence holding all of a followed by all of b.  O(1).
// Concatenation is associative, and Empty is its identity.
func Concat[T any](a, b Seq[T]) Seq[T] {
	if a.root == nil {
		return b
	}
	if b.root == nil {
		return a
	}
	return Seq[T]{root: &node[T]{
		size:  a.root.size + b.root.size,
		left:  a.root,
		right: b.root,
	}}
}

// Append returns s with v added at the end.
func (s Seq[T]) Append(v T) Seq[T] {
	return Concat(s, One(v))
}

// Flatten returns the elements in order as a fresh slice.
//
// The walk is iterative: append-heavy construction produces trees whose
// depth is proportional to the number of appends, which would blow the
// stack if we recursed.
func (s Seq[T]) Flatten() []T {
	out := make([]T, 0, s.Len())
	s.Each(func(v T) {
		out = append(out, v)
	})
	return out
}

// Each calls f once per element, in order.
func (s Seq[T]) Each(f func(T)) {
	if s.root == nil {
		return
	}

	stack := []*node[T]{s.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.left == nil {
			f(n.v)
			continue
		}

		// Right is pushed first so left is visited first.
		stack = append(stack, n.right, n.left)
	}
}

// SplitAt returns the first n elements and the remainder as two sequences.
// n is clamped to [0, Len()].
func (s Seq[T]) SplitAt(n int) (Seq[T], Seq[T]) {
	if n <= 0 {
		return Empty[T](), s
	}
	if n >= s.Len() {
		return s, Empty[T]()
	}
	l, r := splitNode(s.root, n)
	return Seq[T]{root: l}, Seq[T]{root: r}
}

func splitNode[T any](n *node[T], k int) (*node[T], *node[T]) {
	// Callers guarantee 0 < k < n.size, so n is never a leaf here.
	leftSize := n.left.size
	switch {
	case k == leftSize:
		return n.left, n.right
	case k < leftSize:
		ll, lr := splitNode(n.left, k)
		return ll, join(lr, n.right)
	default:
		rl, rr := splitNode(n.right, k-leftSize)
		return join(n.left, rl), rr
	}
}

func join[T any](a, b *node[T]) *node[T] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &node[T]{size: a.size + b.size, left: a, right: b}
}

// Map returns a new sequence with f applied to every element, preserving
// order.
func Map[T, U any](s Seq[T], f func(T) U) Seq[U] {
	out := Empty[U]()
	s.Each(func(v T) {
		out = out.Append(f(v))
	})
	return out
}
