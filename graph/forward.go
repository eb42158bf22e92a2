package graph

import (
	"fmt"
	"math"
	"math/rand"
)

// A Result is the snapshot of one forward evaluation: every node's output
// value and the local derivative recorded at it.  A Result is read-only
// after Evaluate returns, and feeds at most one Backpropagate call.
type Result struct {
	st     *Structure
	params Buffer

	outputs []float64 // node values, length NodeCount
	derivs  []float64 // local activation derivatives, length NodeCount
}

// Evaluate runs the structure's operations in order over a fresh node
// buffer pair.
//
// params must have exactly WeightCount values; this is stricter than
// buffer combination, which zero-extends, because a silently short
// parameter vector during evaluation is almost always a bug.
//
// inputs aligns positionally with the declared input nodes: missing
// trailing values default to 0 and extra values are ignored.
//
// r supplies randomness for stochastic structures and may be nil
// otherwise.
func (st *Structure) Evaluate(params Buffer, inputs []float64, r *rand.Rand) (*Result, error) {
	if len(params) != st.weightCount {
		return nil, fmt.Errorf("parameter buffer has %d values, structure needs %d: %w",
			len(params), st.weightCount, ErrSizeMismatch)
	}
	if st.hasRandom && r == nil {
		return nil, fmt.Errorf("structure has randomization ops but no generator was supplied")
	}

	res := &Result{
		st:      st,
		params:  params,
		outputs: make([]float64, st.nodeCount),
		derivs:  make([]float64, st.nodeCount),
	}

	// Bias convention: node 0 is pinned to 1 in both buffers.
	res.outputs[0] = 1
	res.derivs[0] = 1

	for k, n := range st.inputNodes {
		if k >= len(inputs) {
			break
		}
		res.outputs[n] = inputs[k]
	}

	for _, o := range st.ops {
		switch o.kind {
		case opWeightPatch:
			forwardPatch(o, params, res.outputs)
		case opActivation:
			o.fn(res.outputs[o.start:o.end], res.derivs[o.start:o.end])
		case opRandomize:
			for i := o.start; i < o.end; i++ {
				res.outputs[i], res.derivs[i] = o.sample(r, res.outputs[i], res.derivs[i])
			}
		case opSum:
			forwardSum(o, res.outputs, res.derivs)
		case opProduct:
			forwardProduct(o, res.outputs, res.derivs)
		case opUnary:
			width := o.end - o.start
			copy(res.outputs[o.start:o.end], res.outputs[o.srcs[0]:o.srcs[0]+width])
			o.fn(res.outputs[o.start:o.end], res.derivs[o.start:o.end])
		case opSoftmax:
			forwardSoftmax(o, res.outputs, res.derivs)
		default:
			panic("unhandled operation kind")
		}
	}

	return res, nil
}

// forwardPatch accumulates one weighted patch.  Equivalent to
//
//	for j := 0; j < sel.out; j++ {
//		for i := 0; i < sel.in; i++ {
//			outputs[o.dst+j] += outputs[o.src+i] * sel.value(params, i, j)
//		}
//	}
//
// The i-ascending summation order is part of the observable contract.
func forwardPatch(o op, params, outputs []float64) {
	sel := o.sel

	if sel.trainable() {
		// For a block selector the weights feeding output j are
		// contiguous: [base+in*j, base+in*j+in).
		src := outputs[o.src : o.src+sel.in]
		for j := 0; j < sel.out; j++ {
			row := params[sel.base+sel.in*j : sel.base+sel.in*j+sel.in]
			outputs[o.dst+j] += dot(src, row)
		}
		return
	}

	for j := 0; j < sel.out; j++ {
		var sum float64
		for i := 0; i < sel.in; i++ {
			sum += outputs[o.src+i] * sel.fixed
		}
		outputs[o.dst+j] += sum
	}
}

func forwardSum(o op, outputs, derivs []float64) {
	for k := 0; k < o.end-o.start; k++ {
		var sum float64
		for _, src := range o.srcs {
			sum += outputs[src+k]
		}
		outputs[o.start+k] = sum
		derivs[o.start+k] = 1
	}
}

func forwardProduct(o op, outputs, derivs []float64) {
	for k := 0; k < o.end-o.start; k++ {
		prod := 1.0
		for _, src := range o.srcs {
			prod *= outputs[src+k]
		}
		outputs[o.start+k] = prod
		derivs[o.start+k] = 1
	}
}

func forwardSoftmax(o op, outputs, derivs []float64) {
	width := o.end - o.start
	src := o.srcs[0]

	// Subtract the max element before exponentiating so the sum stays
	// finite.
	//
	// https://stackoverflow.com/questions/42599498/numerically-stable-softmax
	maxv := math.Inf(-1)
	for i := 0; i < width; i++ {
		if outputs[src+i] > maxv {
			maxv = outputs[src+i]
		}
	}

	var sum float64
	for i := 0; i < width; i++ {
		sum += math.Exp(outputs[src+i] - maxv)
	}

	for i := 0; i < width; i++ {
		s := math.Exp(outputs[src+i]-maxv) / sum
		outputs[o.start+i] = s
		derivs[o.start+i] = s * (1 - s)
	}
}

// Value returns the k'th declared output, or 0 if k is outside the declared
// output range.
func (res *Result) Value(k int) float64 {
	if k < 0 || k >= len(res.st.outputNodes) {
		return 0
	}
	return res.outputs[res.st.outputNodes[k]]
}

// Values returns all declared outputs in declaration order.
func (res *Result) Values() []float64 {
	out := make([]float64, len(res.st.outputNodes))
	for k, n := range res.st.outputNodes {
		out[k] = res.outputs[n]
	}
	return out
}

// dot computes the inner product of x and w, summing in ascending index
// order.
func dot(x, w []float64) float64 {
	if len(x) != len(w) {
		panic("mismatched length")
	}
	var sum float64
	for i := range x {
		sum += x[i] * w[i]
	}
	return sum
}
