package graph

// Backpropagate replays the operation list in reverse and returns the
// gradient of the loss with respect to every parameter-buffer slot and
// every declared input.
//
// targetErrors aligns positionally with the declared output nodes under the
// same policy as forward inputs: missing trailing values default to 0 and
// extra values are ignored.  Errors for duplicate output declarations
// accumulate additively.
//
// Only weighted patches carry gradient.  Activation derivatives recorded
// during the forward pass are folded in at each patch destination
// (chain rule); randomization and combinator operations are
// gradient-opaque, so trainable paths must be built from weighted patches.
func (res *Result) Backpropagate(targetErrors []float64) (weightGrad, inputSens Buffer) {
	st := res.st

	acc := make([]float64, st.nodeCount)
	for k, n := range st.outputNodes {
		if k >= len(targetErrors) {
			break
		}
		acc[n] += targetErrors[k]
	}

	weightGrad = make(Buffer, st.weightCount)

	for n := len(st.ops) - 1; n >= 0; n-- {
		o := st.ops[n]
		if o.kind != opWeightPatch {
			continue
		}
		sel := o.sel

		for j := 0; j < sel.out; j++ {
			e := acc[o.dst+j] * res.derivs[o.dst+j]

			if sel.trainable() {
				for i := 0; i < sel.in; i++ {
					weightGrad[sel.offset(i, j)] += res.outputs[o.src+i] * e
					acc[o.src+i] += res.params[sel.offset(i, j)] * e
				}
			} else {
				// Fixed selectors are not trainable, but they still
				// propagate error to their sources.
				for i := 0; i < sel.in; i++ {
					acc[o.src+i] += sel.fixed * e
				}
			}
		}
	}

	inputSens = make(Buffer, len(st.inputNodes))
	for k, n := range st.inputNodes {
		inputSens[k] = acc[n]
	}

	return weightGrad, inputSens
}
