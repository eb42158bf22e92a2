package graph

import (
	"fmt"
	"strings"
)

type opKind int

const (
	opWeightPatch opKind = iota
	opActivation
	opRandomize
	opSoftmax
	opSum
	opProduct
	opUnary
)

// op is one step of a finalized network.  The operation list is a total
// order: every op's sources are produced by a strictly earlier op, a raw
// input, or the bias node, and the engines must not reorder it.
type op struct {
	kind opKind

	// WeightPatch: source span start, destination span start, selector.
	src, dst int
	sel      Weights

	// Activation, Randomize, and the combinators: affected destination
	// span [start, end).
	start, end int
	fn         Activation
	sample     Sampler

	// Combinators: source span starts, each of width end-start.
	srcs []int
}

// A Structure is a finalized, immutable network: it may be evaluated
// concurrently and reused indefinitely.
type Structure struct {
	nodeCount   int
	weightCount int
	inputNodes  []int
	outputNodes []int
	ops         []op
	hasRandom   bool
}

// NodeCount returns the total number of nodes, including the bias node.
func (st *Structure) NodeCount() int { return st.nodeCount }

// WeightCount returns the length a parameter buffer must have to evaluate
// this structure.
func (st *Structure) WeightCount() int { return st.weightCount }

// InputCount returns the number of declared input nodes.
func (st *Structure) InputCount() int { return len(st.inputNodes) }

// OutputCount returns the number of declared output nodes, counting
// duplicates.
func (st *Structure) OutputCount() int { return len(st.outputNodes) }

// Stochastic reports whether evaluation requires a random generator.
func (st *Structure) Stochastic() bool { return st.hasRandom }

// String renders a one-op-per-line description for debugging.
func (st *Structure) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "structure nodes=%d weights=%d inputs=%v outputs=%v\n",
		st.nodeCount, st.weightCount, st.inputNodes, st.outputNodes)
	for n, o := range st.ops {
		switch o.kind {
		case opWeightPatch:
			kind := "fixed"
			if o.sel.trainable() {
				kind = fmt.Sprintf("base=%d", o.sel.base)
			}
			fmt.Fprintf(&sb, "  op %d: patch src=%d dst=%d in=%d out=%d %s\n",
				n, o.src, o.dst, o.sel.in, o.sel.out, kind)
		case opActivation:
			fmt.Fprintf(&sb, "  op %d: activate [%d,%d)\n", n, o.start, o.end)
		case opRandomize:
			fmt.Fprintf(&sb, "  op %d: randomize [%d,%d)\n", n, o.start, o.end)
		case opSoftmax:
			fmt.Fprintf(&sb, "  op %d: softmax src=%d [%d,%d)\n", n, o.srcs[0], o.start, o.end)
		case opSum:
			fmt.Fprintf(&sb, "  op %d: sum srcs=%v [%d,%d)\n", n, o.srcs, o.start, o.end)
		case opProduct:
			fmt.Fprintf(&sb, "  op %d: product srcs=%v [%d,%d)\n", n, o.srcs, o.start, o.end)
		case opUnary:
			fmt.Fprintf(&sb, "  op %d: unary src=%d [%d,%d)\n", n, o.srcs[0], o.start, o.end)
		}
	}
	return sb.String()
}
