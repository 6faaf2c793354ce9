// Package nn implements the small dense networks behind the actor and
// critic, together with an Adam optimizer. There is no autodiff: each net
// has a single ReLU hidden layer whose backward pass is written out by
// hand, and callers supply the gradient of the loss with respect to the
// network output.
package nn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

type Net struct {
	in     int
	hidden int
	out    int

	w1 *mat.Dense    // shape: [hidden][in]
	b1 *mat.VecDense // shape: [hidden]
	w2 *mat.Dense    // shape: [out][hidden]
	b2 *mat.VecDense // shape: [out]
}

// Tape captures the intermediate activations of one forward pass so a
// backward pass can be run against it later.
type Tape struct {
	x []float64
	z []float64 // pre-activation hidden layer
	h []float64 // post-ReLU hidden layer
}

// Grads accumulates parameter gradients across a batch. Layouts match the
// corresponding Net parameters.
type Grads struct {
	W1 []float64
	B1 []float64
	W2 []float64
	B2 []float64
}

// State is the serializable snapshot of a Net's parameters.
type State struct {
	In     int       `json:"in"`
	Hidden int       `json:"hidden"`
	Out    int       `json:"out"`
	W1     []float64 `json:"w1"` // shape: [hidden][in], row-major
	B1     []float64 `json:"b1"` // shape: [hidden]
	W2     []float64 `json:"w2"` // shape: [out][hidden], row-major
	B2     []float64 `json:"b2"` // shape: [out]
}

// New builds a network with the given layer sizes, all of which must be
// positive. Weights and biases are initialized uniformly in
// [-1/sqrt(fanIn), +1/sqrt(fanIn)].
func New(in, hidden, out int, rng *rand.Rand) *Net {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	}
	n := &Net{
		in:     in,
		hidden: hidden,
		out:    out,
		w1:     mat.NewDense(hidden, in, nil),
		b1:     mat.NewVecDense(hidden, nil),
		w2:     mat.NewDense(out, hidden, nil),
		b2:     mat.NewVecDense(out, nil),
	}
	initUniform(n.w1.RawMatrix().Data, in, rng)
	initUniform(n.b1.RawVector().Data, in, rng)
	initUniform(n.w2.RawMatrix().Data, hidden, rng)
	initUniform(n.b2.RawVector().Data, hidden, rng)
	return n
}

func initUniform(dst []float64, fanIn int, rng *rand.Rand) {
	bound := 1 / math.Sqrt(float64(fanIn))
	for i := range dst {
		dst[i] = (rng.Float64()*2 - 1) * bound
	}
}

// Forward evaluates the network without retaining anything for a backward
// pass. It never mutates the network.
func (n *Net) Forward(x []float64) []float64 {
	out, _ := n.ForwardTape(x)
	return out
}

// ForwardTape evaluates the network and returns the activations needed by
// Backward.
func (n *Net) ForwardTape(x []float64) ([]float64, *Tape) {
	xv := mat.NewVecDense(n.in, x)

	var z mat.VecDense
	z.MulVec(n.w1, xv)
	z.AddVec(&z, n.b1)

	h := make([]float64, n.hidden)
	for i := range h {
		if v := z.AtVec(i); v > 0 {
			h[i] = v
		}
	}
	hv := mat.NewVecDense(n.hidden, h)

	var o mat.VecDense
	o.MulVec(n.w2, hv)
	o.AddVec(&o, n.b2)

	out := make([]float64, n.out)
	copy(out, o.RawVector().Data)

	return out, &Tape{x: x, z: z.RawVector().Data, h: h}
}

// Backward accumulates into g the gradient of a scalar loss with respect to
// every parameter, given dOut = dLoss/dOutput for the forward pass recorded
// on t.
func (n *Net) Backward(t *Tape, dOut []float64, g *Grads) {
	dh := make([]float64, n.hidden)
	for o := 0; o < n.out; o++ {
		d := dOut[o]
		g.B2[o] += d
		for j := 0; j < n.hidden; j++ {
			g.W2[o*n.hidden+j] += d * t.h[j]
			dh[j] += n.w2.At(o, j) * d
		}
	}
	for j := 0; j < n.hidden; j++ {
		if t.z[j] <= 0 {
			continue
		}
		d := dh[j]
		g.B1[j] += d
		for i := 0; i < n.in; i++ {
			g.W1[j*n.in+i] += d * t.x[i]
		}
	}
}

// NewGrads returns a zeroed gradient accumulator shaped like the network.
func (n *Net) NewGrads() *Grads {
	return &Grads{
		W1: make([]float64, n.hidden*n.in),
		B1: make([]float64, n.hidden),
		W2: make([]float64, n.out*n.hidden),
		B2: make([]float64, n.out),
	}
}

// Reset zeroes the accumulator for reuse.
func (g *Grads) Reset() {
	for _, s := range [][]float64{g.W1, g.B1, g.W2, g.B2} {
		for i := range s {
			s[i] = 0
		}
	}
}

// State returns a copy of the current parameters.
func (n *Net) State() State {
	return State{
		In:     n.in,
		Hidden: n.hidden,
		Out:    n.out,
		W1:     append([]float64(nil), n.w1.RawMatrix().Data...),
		B1:     append([]float64(nil), n.b1.RawVector().Data...),
		W2:     append([]float64(nil), n.w2.RawMatrix().Data...),
		B2:     append([]float64(nil), n.b2.RawVector().Data...),
	}
}

// CheckState reports whether s can be applied to this network.
func (n *Net) CheckState(s State) error {
	if s.In != n.in || s.Hidden != n.hidden || s.Out != n.out {
		return fmt.Errorf("state shape %dx%dx%d does not match network %dx%dx%d",
			s.In, s.Hidden, s.Out, n.in, n.hidden, n.out)
	}
	if len(s.W1) != n.hidden*n.in || len(s.B1) != n.hidden ||
		len(s.W2) != n.out*n.hidden || len(s.B2) != n.out {
		return fmt.Errorf("state parameter lengths do not match network %dx%dx%d",
			n.in, n.hidden, n.out)
	}
	return nil
}

// SetState replaces all parameters with s. On error the network is left
// unchanged.
func (n *Net) SetState(s State) error {
	if err := n.CheckState(s); err != nil {
		return err
	}
	copy(n.w1.RawMatrix().Data, s.W1)
	copy(n.b1.RawVector().Data, s.B1)
	copy(n.w2.RawMatrix().Data, s.W2)
	copy(n.b2.RawVector().Data, s.B2)
	return nil
}
