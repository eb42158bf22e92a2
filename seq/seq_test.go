package seq

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlattenPreservesAppendOrder(t *testing.T) {
	s := Empty[int]()
	want := []int{}
	for i := 0; i < 100; i++ {
		s = s.Append(i)
		want = append(want, i)
	}

	if got := s.Len(); got != 100 {
		t.Errorf("Len() = %d, want 100", got)
	}
	if diff := cmp.Diff(want, s.Flatten()); diff != "" {
		t.Errorf("Flatten() diff (-want +got):\n%s", diff)
	}
}

func TestConcatOrderAndSize(t *testing.T) {
	a := FromSlice([]int{1, 2, 3})
	b := FromSlice([]int{4, 5})
	c := FromSlice([]int{6})

	// Concatenation is associative.
	left := Concat(Concat(a, b), c)
	right := Concat(a, Concat(b, c))

	want := []int{1, 2, 3, 4, 5, 6}
	if diff := cmp.Diff(want, left.Flatten()); diff != "" {
		t.Errorf("(a+b)+c diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, right.Flatten()); diff != "" {
		t.Errorf("a+(b+c) diff (-want +got):\n%s", diff)
	}
	if left.Len() != 6 || right.Len() != 6 {
		t.Errorf("Len() = %d / %d, want 6 / 6", left.Len(), right.Len())
	}
}

func TestEmptyIsConcatIdentity(t *testing.T) {
	a := FromSlice([]int{7, 8})

	if diff := cmp.Diff(a.Flatten(), Concat(Empty[int](), a).Flatten()); diff != "" {
		t.Errorf("Empty+a diff:\n%s", diff)
	}
	if diff := cmp.Diff(a.Flatten(), Concat(a, Empty[int]()).Flatten()); diff != "" {
		t.Errorf("a+Empty diff:\n%s", diff)
	}
	if Empty[int]().Len() != 0 {
		t.Errorf("Empty().Len() != 0")
	}
	if got := Empty[int]().Flatten(); len(got) != 0 {
		t.Errorf("Empty().Flatten() = %v, want empty", got)
	}
}

func TestSplitAt(t *testing.T) {
	s := Concat(FromSlice([]int{0, 1, 2}), Concat(FromSlice([]int{3, 4}), FromSlice([]int{5, 6, 7})))

	for n := -1; n <= 9; n++ {
		l, r := s.SplitAt(n)

		wantN := n
		if wantN < 0 {
			wantN = 0
		}
		if wantN > 8 {
			wantN = 8
		}

		if l.Len() != wantN {
			t.Errorf("SplitAt(%d): left Len() = %d, want %d", n, l.Len(), wantN)
		}
		if diff := cmp.Diff(s.Flatten(), Concat(l, r).Flatten()); diff != "" {
			t.Errorf("SplitAt(%d): rejoin diff (-want +got):\n%s", n, diff)
		}
	}
}

func TestMap(t *testing.T) {
	s := FromSlice([]int{1, 2, 3})
	got := Map(s, func(v int) int { return v * 10 }).Flatten()
	if diff := cmp.Diff([]int{10, 20, 30}, got); diff != "" {
		t.Errorf("Map diff (-want +got):\n%s", diff)
	}
}

func TestEachVisitsInOrder(t *testing.T) {
	s := Concat(FromSlice([]int{1, 2}), FromSlice([]int{3}))
	got := []int{}
	s.Each(func(v int) { got = append(got, v) })
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Errorf("Each diff (-want +got):\n%s", diff)
	}
}

func TestDeepAppendDoesNotOverflow(t *testing.T) {
	// Append builds a maximally unbalanced tree; Flatten must cope.
	const n = 200000
	s := Empty[int]()
	for i := 0; i < n; i++ {
		s = s.Append(i)
	}
	flat := s.Flatten()
	if len(flat) != n {
		t.Fatalf("len(Flatten()) = %d, want %d", len(flat), n)
	}
	if flat[0] != 0 || flat[n-1] != n-1 {
		t.Errorf("Flatten() endpoints = %d, %d; want 0, %d", flat[0], flat[n-1], n-1)
	}
}
