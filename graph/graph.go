// Package graph builds and evaluates directed-acyclic networks of scalar
// nodes over a single flat parameter buffer.
//
// A Builder accumulates node allocations, weight-buffer reservations, and an
// ordered operation list, and finalizes them into an immutable Structure.
// The Structure can then be evaluated forward many times, and each forward
// Result can be backpropagated once to produce a weight gradient and an
// input sensitivity, both as flat Buffers.  Optimizers, data loading, and
// the training loop itself are the embedding application's problem.
package graph

import (
	"errors"
	"math/rand"
)

// ErrShapeMismatch reports a recoverable layer-construction failure: an
// empty parent list, a parent layer whose width disagrees with its weight
// selector, or selectors that disagree on output width.  The builder's state
// is unchanged when this is returned, so the caller may retry.
var ErrShapeMismatch = errors.New("shape mismatch")

// ErrSizeMismatch reports a buffer whose length disagrees with what a
// structure or decoder requires.
var ErrSizeMismatch = errors.New("size mismatch")

// An Activation maps the pre-activation values in v to activated values and
// their local derivatives, elementwise.  On entry v holds the raw values; on
// return v holds the activated values and d the derivative of each activated
// value with respect to its raw value.  len(v) == len(d).
type Activation func(v, d []float64)

// A Sampler stochastically transforms one node's value and local derivative,
// advancing the supplied generator.  It must draw randomness only from r.
type Sampler func(r *rand.Rand, v, d float64) (newV, newD float64)
