package graph

import (
	"fmt"

	"github.com/ahmedtd/netgraph/seq"
)

// A Layer is a handle to a contiguous span of node indices allocated
// together by one builder.  Handles are only meaningful to the builder that
// created them.
type Layer struct {
	first, last int // inclusive; last < first for an empty span
	owner       *Builder
}

// Width returns the number of nodes in the layer.
func (l Layer) Width() int {
	if l.last < l.first {
		return 0
	}
	return l.last - l.first + 1
}

// Weights addresses a logical (input, output) weight matrix.  A block
// selector addresses a contiguous reservation in the shared parameter
// buffer; a fixed selector always reads one constant and is not trainable.
// Several selectors may be applied to the same parameter reservation to tie
// weights across layers.
type Weights struct {
	in, out int
	base    int     // offset of the block in the parameter buffer; -1 for fixed
	fixed   float64 // constant read by a fixed selector
	owner   *Builder
}

// InputWidth returns the selector's input dimension.
func (w Weights) InputWidth() int { return w.in }

// OutputWidth returns the selector's output dimension.
func (w Weights) OutputWidth() int { return w.out }

// trainable reports whether the selector addresses the parameter buffer.
func (w Weights) trainable() bool { return w.base >= 0 }

// offset returns the parameter-buffer slot for weight (i, j).  Only valid
// for block selectors.  Layout is input-major: base + i + in*j.
func (w Weights) offset(i, j int) int { return w.base + i + w.in*j }

// value reads weight (i, j) from params.
func (w Weights) value(params []float64, i, j int) float64 {
	if !w.trainable() {
		return w.fixed
	}
	return params[w.offset(i, j)]
}

// A Parent pairs a source layer with the weight selector connecting it to a
// layer under construction.
type Parent struct {
	Layer   Layer
	Weights Weights
}

// A Builder accumulates one network under construction.  Node index 0 is
// reserved for the bias node, whose value is permanently 1; fresh node
// indices and parameter-buffer slots are handed out in allocation order.
//
// A Builder is single-use: call the construction methods, then Finalize
// exactly once and discard the builder.
type Builder struct {
	nodeCount   int
	weightCount int

	inputs  seq.Seq[int]
	outputs seq.Seq[int]
	ops     seq.Seq[op]
}

// NewBuilder returns an empty construction session.
func NewBuilder() *Builder {
	return &Builder{nodeCount: 1} // node 0 is the bias node
}

// A StochasticBuilder is a construction session that additionally permits
// randomization operations.  The capability lives in the type so that a
// deterministic session cannot express a stochastic layer at all.
type StochasticBuilder struct {
	Builder
}

// NewStochasticBuilder returns an empty stochastic-capable session.
func NewStochasticBuilder() *StochasticBuilder {
	return &StochasticBuilder{Builder{nodeCount: 1}}
}

// checkLayer panics if l was created by a different builder.  Handle origin
// is a caller precondition, not a recoverable condition: a foreign handle's
// indices are meaningless here.
func (b *Builder) checkLayer(l Layer) {
	if l.owner != b {
		panic("graph: layer handle used with a builder that did not create it")
	}
}

func (b *Builder) checkWeights(w Weights) {
	if w.owner != b {
		panic("graph: weight selector used with a builder that did not create it")
	}
}

// allocNodes reserves n fresh node indices and returns the spanning handle.
func (b *Builder) allocNodes(n int) Layer {
	l := Layer{first: b.nodeCount, last: b.nodeCount + n - 1, owner: b}
	b.nodeCount += n
	return l
}

// Bias returns the handle of the permanent bias node.  Its value is always
// 1, so connecting it to a layer through a 1-by-out weight block gives that
// layer trainable per-node biases.
func (b *Builder) Bias() Layer {
	return Layer{first: 0, last: 0, owner: b}
}

// AddInputs allocates n new nodes, declares them as network inputs in
// order, and returns their handle.  n == 0 is permitted and yields a valid
// empty span.
func (b *Builder) AddInputs(n int) Layer {
	if n < 0 {
		panic("graph: AddInputs with negative count")
	}
	l := b.allocNodes(n)
	for i := l.first; i <= l.last; i++ {
		b.inputs = b.inputs.Append(i)
	}
	return l
}

// AddBaseWeights reserves in*out fresh slots in the parameter buffer and
// returns a block selector addressing them.
func (b *Builder) AddBaseWeights(in, out int) Weights {
	if in < 0 || out < 0 {
		panic("graph: AddBaseWeights with negative width")
	}
	w := Weights{in: in, out: out, base: b.weightCount, owner: b}
	b.weightCount += in * out
	return w
}

// FixedWeights returns a selector that reads c for every (i, j) pair and
// reserves no parameter-buffer space.  Fixed weights receive no gradient.
func (b *Builder) FixedWeights(in, out int, c float64) Weights {
	if in < 0 || out < 0 {
		panic("graph: FixedWeights with negative width")
	}
	return Weights{in: in, out: out, base: -1, fixed: c, owner: b}
}

// validateParents checks a parent list for StandardLayer and friends,
// returning the common output width.  It must not mutate builder state: a
// failed layer call leaves the session exactly as it was.
func (b *Builder) validateParents(parents []Parent) (int, error) {
	if len(parents) == 0 {
		return 0, fmt.Errorf("layer needs at least one parent: %w", ErrShapeMismatch)
	}
	out := parents[0].Weights.out
	for n, p := range parents {
		b.checkLayer(p.Layer)
		b.checkWeights(p.Weights)
		if p.Layer.Width() != p.Weights.in {
			return 0, fmt.Errorf("parent %d has width %d but its selector wants %d inputs: %w",
				n, p.Layer.Width(), p.Weights.in, ErrShapeMismatch)
		}
		if p.Weights.out != out {
			return 0, fmt.Errorf("parent %d selector has %d outputs, parent 0 has %d: %w",
				n, p.Weights.out, out, ErrShapeMismatch)
		}
	}
	return out, nil
}

// StandardLayer allocates a new layer fed by the given parents.
//
// Each parent contributes one weighted patch into the same destination
// span, so multi-parent fan-in accumulates additively, in parent order.
// After the patches, fn is applied over the span.  On error the builder is
// unchanged.
func (b *Builder) StandardLayer(parents []Parent, fn Activation) (Layer, error) {
	out, err := b.validateParents(parents)
	if err != nil {
		return Layer{}, err
	}

	l := b.allocNodes(out)
	for _, p := range parents {
		b.ops = b.ops.Append(op{
			kind: opWeightPatch,
			src:  p.Layer.first,
			dst:  l.first,
			sel:  p.Weights,
		})
	}
	b.ops = b.ops.Append(op{kind: opActivation, start: l.first, end: l.first + out, fn: fn})
	return l, nil
}

// StochasticLayer is StandardLayer followed by a randomization pass over
// the new span using sample.  The structure produced by this session will
// require a generator at evaluation time.
func (b *StochasticBuilder) StochasticLayer(parents []Parent, fn Activation, sample Sampler) (Layer, error) {
	l, err := b.StandardLayer(parents, fn)
	if err != nil {
		return Layer{}, err
	}
	b.ops = b.ops.Append(op{kind: opRandomize, start: l.first, end: l.first + l.Width(), sample: sample})
	return l, nil
}

// validateSameWidth checks a combinator parent list: non-empty, all layers
// owned by b, all the same width.  Returns the common width.
func (b *Builder) validateSameWidth(parents []Layer) (int, error) {
	if len(parents) == 0 {
		return 0, fmt.Errorf("combinator layer needs at least one parent: %w", ErrShapeMismatch)
	}
	width := parents[0].Width()
	for n, p := range parents {
		b.checkLayer(p)
		if p.Width() != width {
			return 0, fmt.Errorf("parent %d has width %d, parent 0 has %d: %w",
				n, p.Width(), width, ErrShapeMismatch)
		}
	}
	return width, nil
}

// SumLayer allocates a layer computing the elementwise sum of its parents.
// Combinator layers are gradient-opaque: the reverse pass propagates error
// only through weighted patches, so a trainable path must not run through
// them.
func (b *Builder) SumLayer(parents []Layer) (Layer, error) {
	return b.combinatorLayer(opSum, parents, nil)
}

// ProductLayer allocates a layer computing the elementwise product of its
// parents.  Gradient-opaque, like SumLayer.
func (b *Builder) ProductLayer(parents []Layer) (Layer, error) {
	return b.combinatorLayer(opProduct, parents, nil)
}

// UnaryLayer allocates a layer applying fn pointwise to one parent.
// Gradient-opaque, like SumLayer.
func (b *Builder) UnaryLayer(parent Layer, fn Activation) (Layer, error) {
	return b.combinatorLayer(opUnary, []Layer{parent}, fn)
}

// SoftmaxLayer allocates a layer computing the softmax of one parent span.
// Gradient-opaque, like SumLayer.
func (b *Builder) SoftmaxLayer(parent Layer) (Layer, error) {
	return b.combinatorLayer(opSoftmax, []Layer{parent}, nil)
}

func (b *Builder) combinatorLayer(kind opKind, parents []Layer, fn Activation) (Layer, error) {
	width, err := b.validateSameWidth(parents)
	if err != nil {
		return Layer{}, err
	}

	srcs := make([]int, len(parents))
	for n, p := range parents {
		srcs[n] = p.first
	}

	l := b.allocNodes(width)
	b.ops = b.ops.Append(op{
		kind:  kind,
		srcs:  srcs,
		start: l.first,
		end:   l.first + width,
		fn:    fn,
	})
	return l, nil
}

// AddOutputs declares the layer's nodes, in order, as network outputs.
// Declaring the same span twice produces duplicate output entries; that is
// permitted, and avoiding it is the caller's business.
func (b *Builder) AddOutputs(l Layer) {
	b.checkLayer(l)
	for i := l.first; i <= l.last; i++ {
		b.outputs = b.outputs.Append(i)
	}
}

// Finalize flattens the accumulated sequences into an immutable Structure.
// The builder should be discarded afterwards.
func (b *Builder) Finalize() *Structure {
	st := &Structure{
		nodeCount:   b.nodeCount,
		weightCount: b.weightCount,
		inputNodes:  b.inputs.Flatten(),
		outputNodes: b.outputs.Flatten(),
		ops:         b.ops.Flatten(),
	}
	for _, o := range st.ops {
		if o.kind == opRandomize {
			st.hasRandom = true
		}
	}
	return st
}
