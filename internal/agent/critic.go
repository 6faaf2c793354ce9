package agent

import (
	"golang.org/x/exp/rand"

	"pendulum-ppo/internal/nn"
)

// Critic estimates the expected return of a state.
type Critic struct {
	net *nn.Net
	opt *nn.Adam
}

func NewCritic(inputs, hidden int, lr float64, rng *rand.Rand) *Critic {
	c := &Critic{net: nn.New(inputs, hidden, 1, rng)}
	c.opt = nn.NewAdam(lr, c.net)
	return c
}

// Value returns V(state). Pure function of state and parameters.
func (c *Critic) Value(state []float64) float64 {
	return c.net.Forward(state)[0]
}

func (c *Critic) eval(state []float64) (float64, *nn.Tape) {
	out, tape := c.net.ForwardTape(state)
	return out[0], tape
}

func (c *Critic) backward(tape *nn.Tape, dValue float64, g *nn.Grads) {
	c.net.Backward(tape, []float64{dValue}, g)
}

func (c *Critic) grads() *nn.Grads {
	return c.net.NewGrads()
}

func (c *Critic) update(g *nn.Grads) {
	c.opt.Step(c.net, g)
}

func (c *Critic) State() nn.State {
	return c.net.State()
}

func (c *Critic) CheckState(s nn.State) error {
	return c.net.CheckState(s)
}

func (c *Critic) SetState(s nn.State) error {
	return c.net.SetState(s)
}
