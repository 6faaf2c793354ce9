package nn

import "math"

// Adam applies Adam updates with the usual defaults (beta1 0.9,
// beta2 0.999, eps 1e-8) and a fixed learning rate bound at construction.
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	step  int
	m     *Grads
	v     *Grads
}

func NewAdam(lr float64, n *Net) *Adam {
	return &Adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     n.NewGrads(),
		v:     n.NewGrads(),
	}
}

// Step applies one update to the network parameters in place.
func (a *Adam) Step(n *Net, g *Grads) {
	a.step++
	a.update(n.w1.RawMatrix().Data, g.W1, a.m.W1, a.v.W1)
	a.update(n.b1.RawVector().Data, g.B1, a.m.B1, a.v.B1)
	a.update(n.w2.RawMatrix().Data, g.W2, a.m.W2, a.v.W2)
	a.update(n.b2.RawVector().Data, g.B2, a.m.B2, a.v.B2)
}

func (a *Adam) update(params, grad, m, v []float64) {
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))
	for i := range params {
		m[i] = a.beta1*m[i] + (1-a.beta1)*grad[i]
		v[i] = a.beta2*v[i] + (1-a.beta2)*grad[i]*grad[i]
		params[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
	}
}
