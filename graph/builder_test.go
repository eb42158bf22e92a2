package graph

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func identity(v, d []float64) {
	for i := range d {
		d[i] = 1
	}
}

func TestAddInputsFinalize(t *testing.T) {
	b := NewBuilder()
	in := b.AddInputs(3)

	if in.Width() != 3 {
		t.Errorf("input layer Width() = %d, want 3", in.Width())
	}

	st := b.Finalize()
	if st.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4 (3 inputs + bias)", st.NodeCount())
	}
	if diff := cmp.Diff([]int{1, 2, 3}, st.inputNodes); diff != "" {
		t.Errorf("input nodes diff (-want +got):\n%s", diff)
	}
	if st.WeightCount() != 0 {
		t.Errorf("WeightCount() = %d, want 0", st.WeightCount())
	}
}

func TestAddInputsZeroIsEmptySpan(t *testing.T) {
	b := NewBuilder()
	l := b.AddInputs(0)

	if l.Width() != 0 {
		t.Errorf("Width() = %d, want 0", l.Width())
	}

	st := b.Finalize()
	if st.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", st.NodeCount())
	}
	if st.InputCount() != 0 {
		t.Errorf("InputCount() = %d, want 0", st.InputCount())
	}
}

func TestStandardLayerRejectsEmptyParents(t *testing.T) {
	b := NewBuilder()
	b.AddInputs(2)

	_, err := b.StandardLayer(nil, identity)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("StandardLayer(nil) error = %v, want ErrShapeMismatch", err)
	}
}

func TestStandardLayerRejectsWidthMismatch(t *testing.T) {
	b := NewBuilder()
	in := b.AddInputs(2)
	w := b.AddBaseWeights(3, 1) // wrong input width

	before := snapshotBuilder(b)

	_, err := b.StandardLayer([]Parent{{in, w}}, identity)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("StandardLayer error = %v, want ErrShapeMismatch", err)
	}

	if diff := cmp.Diff(before, snapshotBuilder(b)); diff != "" {
		t.Errorf("builder state changed by failed call (-before +after):\n%s", diff)
	}
}

func TestStandardLayerRejectsOutputWidthDisagreement(t *testing.T) {
	b := NewBuilder()
	in := b.AddInputs(2)
	w1 := b.AddBaseWeights(2, 3)
	w2 := b.AddBaseWeights(2, 4)

	before := snapshotBuilder(b)

	_, err := b.StandardLayer([]Parent{{in, w1}, {in, w2}}, identity)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("StandardLayer error = %v, want ErrShapeMismatch", err)
	}

	if diff := cmp.Diff(before, snapshotBuilder(b)); diff != "" {
		t.Errorf("builder state changed by failed call (-before +after):\n%s", diff)
	}
}

type builderSnapshot struct {
	NodeCount, WeightCount, Inputs, Outputs, Ops int
}

func snapshotBuilder(b *Builder) builderSnapshot {
	return builderSnapshot{
		NodeCount:   b.nodeCount,
		WeightCount: b.weightCount,
		Inputs:      b.inputs.Len(),
		Outputs:     b.outputs.Len(),
		Ops:         b.ops.Len(),
	}
}

func TestStandardLayerAllocation(t *testing.T) {
	b := NewBuilder()
	in := b.AddInputs(2)
	w := b.AddBaseWeights(2, 3)

	l, err := b.StandardLayer([]Parent{{in, w}}, identity)
	if err != nil {
		t.Fatalf("StandardLayer: %v", err)
	}
	if l.Width() != 3 {
		t.Errorf("layer Width() = %d, want 3", l.Width())
	}

	b.AddOutputs(l)
	st := b.Finalize()

	if st.NodeCount() != 6 {
		t.Errorf("NodeCount() = %d, want 6", st.NodeCount())
	}
	if st.WeightCount() != 6 {
		t.Errorf("WeightCount() = %d, want 6", st.WeightCount())
	}
	if diff := cmp.Diff([]int{3, 4, 5}, st.outputNodes); diff != "" {
		t.Errorf("output nodes diff (-want +got):\n%s", diff)
	}
	// One patch plus one activation.
	if len(st.ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2", len(st.ops))
	}
	if st.ops[0].kind != opWeightPatch || st.ops[1].kind != opActivation {
		t.Errorf("ops = [%v, %v], want [patch, activation]", st.ops[0].kind, st.ops[1].kind)
	}
}

func TestDuplicateAddOutputs(t *testing.T) {
	b := NewBuilder()
	in := b.AddInputs(2)
	b.AddOutputs(in)
	b.AddOutputs(in)

	st := b.Finalize()
	if diff := cmp.Diff([]int{1, 2, 1, 2}, st.outputNodes); diff != "" {
		t.Errorf("output nodes diff (-want +got):\n%s", diff)
	}
}

func TestCrossSessionHandlePanics(t *testing.T) {
	b1 := NewBuilder()
	b2 := NewBuilder()
	foreign := b1.AddInputs(2)

	defer func() {
		if recover() == nil {
			t.Errorf("AddOutputs with a foreign handle did not panic")
		}
	}()
	b2.AddOutputs(foreign)
}

func TestFixedWeightsReserveNothing(t *testing.T) {
	b := NewBuilder()
	in := b.AddInputs(2)
	w := b.FixedWeights(2, 2, 0.5)

	if _, err := b.StandardLayer([]Parent{{in, w}}, identity); err != nil {
		t.Fatalf("StandardLayer: %v", err)
	}

	if st := b.Finalize(); st.WeightCount() != 0 {
		t.Errorf("WeightCount() = %d, want 0", st.WeightCount())
	}
}

func TestStochasticStructureFlag(t *testing.T) {
	b := NewStochasticBuilder()
	in := b.AddInputs(1)
	w := b.AddBaseWeights(1, 1)

	passthrough := func(_ *rand.Rand, v, d float64) (float64, float64) { return v, d }
	if _, err := b.StochasticLayer([]Parent{{in, w}}, identity, passthrough); err != nil {
		t.Fatalf("StochasticLayer: %v", err)
	}

	if st := b.Finalize(); !st.Stochastic() {
		t.Errorf("Stochastic() = false, want true")
	}
}
