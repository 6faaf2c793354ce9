package nn

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestForwardKnownValues(t *testing.T) {
	n := New(2, 2, 1, rand.New(rand.NewSource(1)))
	err := n.SetState(State{
		In: 2, Hidden: 2, Out: 1,
		W1: []float64{1, 2, -1, 0.5},
		B1: []float64{0.1, -0.2},
		W2: []float64{1.5, -1},
		B2: []float64{0.25},
	})
	if err != nil {
		t.Fatal(err)
	}

	// z = [2.1, -0.95], h = [2.1, 0], out = 1.5*2.1 + 0.25 = 3.4
	out := n.Forward([]float64{1, 0.5})
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	if math.Abs(out[0]-3.4) > 1e-12 {
		t.Errorf("expected output 3.4, got %v", out[0])
	}
}

func TestForwardIsDeterministic(t *testing.T) {
	n := New(3, 8, 1, rand.New(rand.NewSource(5)))
	x := []float64{0.2, -0.4, 0.9}
	a := n.Forward(x)
	b := n.Forward(x)
	if a[0] != b[0] {
		t.Errorf("two forward passes disagree: %v vs %v", a[0], b[0])
	}
}

func TestBackwardMatchesFiniteDifference(t *testing.T) {
	net := New(3, 8, 1, rand.New(rand.NewSource(42)))
	x := []float64{0.3, -0.7, 1.1}

	_, tape := net.ForwardTape(x)
	g := net.NewGrads()
	net.Backward(tape, []float64{1}, g)

	eval := func(s State) float64 {
		m := New(3, 8, 1, rand.New(rand.NewSource(1)))
		if err := m.SetState(s); err != nil {
			t.Fatal(err)
		}
		return m.Forward(x)[0]
	}

	groups := []struct {
		name string
		sel  func(*State) []float64
		grad []float64
	}{
		{"w1", func(s *State) []float64 { return s.W1 }, g.W1},
		{"b1", func(s *State) []float64 { return s.B1 }, g.B1},
		{"w2", func(s *State) []float64 { return s.W2 }, g.W2},
		{"b2", func(s *State) []float64 { return s.B2 }, g.B2},
	}

	const h = 1e-6
	for _, grp := range groups {
		for i := range grp.grad {
			s := net.State()
			grp.sel(&s)[i] += h
			plus := eval(s)

			s = net.State()
			grp.sel(&s)[i] -= h
			minus := eval(s)

			numeric := (plus - minus) / (2 * h)
			tol := 1e-5 * math.Max(1, math.Abs(grp.grad[i]))
			if math.Abs(numeric-grp.grad[i]) > tol {
				t.Errorf("%s[%d]: analytic gradient %v, numeric %v", grp.name, i, grp.grad[i], numeric)
			}
		}
	}
}

func TestAdamFirstStep(t *testing.T) {
	net := New(2, 3, 1, rand.New(rand.NewSource(3)))
	_, tape := net.ForwardTape([]float64{0.5, -0.25})
	g := net.NewGrads()
	net.Backward(tape, []float64{1}, g)

	// dOut/dB2 is exactly 1, so the first Adam step moves b2 by
	// -lr * 1/(1+eps).
	before := net.State().B2[0]
	adam := NewAdam(0.01, net)
	adam.Step(net, g)
	after := net.State().B2[0]

	if math.Abs(after-before+0.01) > 1e-9 {
		t.Errorf("expected b2 to move by -0.01, moved by %v", after-before)
	}
}

func TestStateRoundTrip(t *testing.T) {
	src := New(3, 5, 2, rand.New(rand.NewSource(11)))
	dst := New(3, 5, 2, rand.New(rand.NewSource(99)))

	if err := dst.SetState(src.State()); err != nil {
		t.Fatal(err)
	}

	x := []float64{1.5, -0.3, 0.8}
	a := src.Forward(x)
	b := dst.Forward(x)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("output %d: expected %v, got %v", i, a[i], b[i])
		}
	}
}

func TestSetStateRejectsMismatch(t *testing.T) {
	n := New(3, 4, 1, rand.New(rand.NewSource(2)))
	before := n.State()

	bad := n.State()
	bad.Hidden = 5
	if err := n.SetState(bad); err == nil {
		t.Error("expected error for mismatched hidden size, got nil")
	}

	bad = n.State()
	bad.W1 = bad.W1[:len(bad.W1)-1]
	if err := n.SetState(bad); err == nil {
		t.Error("expected error for truncated weights, got nil")
	}

	after := n.State()
	for i := range before.W1 {
		if before.W1[i] != after.W1[i] {
			t.Fatal("failed SetState mutated the network")
		}
	}
}
