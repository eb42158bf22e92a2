// Package act is the default catalogue of activation functions and
// stochastic samplers for graph networks.
//
// The engine treats activations as opaque collaborators; anything with the
// graph.Activation signature works.  These are just the usual suspects.
package act

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ahmedtd/netgraph/graph"
)

// Identity leaves values unchanged.  The local derivative is 1 everywhere.
func Identity(v, d []float64) {
	for i := range d {
		d[i] = 1
	}
}

// ReLU clamps negative values to zero.
func ReLU(v, d []float64) {
	for i := range v {
		if v[i] <= 0 {
			v[i] = 0
			d[i] = 0
		} else {
			d[i] = 1
		}
	}
}

// Sigmoid applies the logistic function.
func Sigmoid(v, d []float64) {
	for i := range v {
		s := 1 / (1 + math.Exp(-v[i]))
		v[i] = s
		d[i] = s * (1 - s)
	}
}

// Tanh applies the hyperbolic tangent.
func Tanh(v, d []float64) {
	for i := range v {
		t := math.Tanh(v[i])
		v[i] = t
		d[i] = 1 - t*t
	}
}

// expRandSource adapts a math/rand generator to the source interface gonum
// distributions draw from, so a sampler's randomness stays confined to the
// caller's generator.
type expRandSource struct {
	r *rand.Rand
}

func (s expRandSource) Uint64() uint64 {
	return s.r.Uint64()
}

func (s expRandSource) Seed(seed uint64) {
	s.r.Seed(int64(seed))
}

// GaussianNoise returns a sampler adding zero-mean Gaussian noise with the
// given standard deviation.  The local derivative passes through unchanged.
func GaussianNoise(sigma float64) graph.Sampler {
	return func(r *rand.Rand, v, d float64) (float64, float64) {
		n := distuv.Normal{Mu: 0, Sigma: sigma, Src: expRandSource{r}}
		return v + n.Rand(), d
	}
}

// Dropout returns an inverted-dropout sampler: each value is zeroed with
// probability p, and survivors are scaled by 1/(1-p) so the expected value
// is preserved.  The local derivative is transformed the same way.
func Dropout(p float64) graph.Sampler {
	if p < 0 || p >= 1 {
		panic("act: dropout probability must be in [0, 1)")
	}
	keep := 1 - p
	return func(r *rand.Rand, v, d float64) (float64, float64) {
		b := distuv.Bernoulli{P: keep, Src: expRandSource{r}}
		if b.Rand() == 0 {
			return 0, 0
		}
		return v / keep, d / keep
	}
}
