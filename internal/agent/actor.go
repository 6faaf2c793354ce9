package agent

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	"pendulum-ppo/internal/nn"
)

// Actor is the Gaussian policy. Two independent towers map a state to the
// distribution's mean, tanh-bounded to the action range, and its standard
// deviation, kept strictly positive by a softplus head.
type Actor struct {
	mean   *nn.Net
	std    *nn.Net
	bounds r1.Interval
	scale  float64

	optMean *nn.Adam
	optStd  *nn.Adam
}

func NewActor(inputs, hidden int, bounds r1.Interval, lr float64, rng *rand.Rand) *Actor {
	a := &Actor{
		mean:   nn.New(inputs, hidden, 1, rng),
		std:    nn.New(inputs, hidden, 1, rng),
		bounds: bounds,
		scale:  (bounds.Max - bounds.Min) / 2,
	}
	a.optMean = nn.NewAdam(lr, a.mean)
	a.optStd = nn.NewAdam(lr, a.std)
	return a
}

// Forward returns the distribution parameters for a state without tracking
// gradients. It never mutates the actor.
func (a *Actor) Forward(state []float64) (mean, std float64) {
	mean = math.Tanh(a.mean.Forward(state)[0]) * a.scale
	std = softplus(a.std.Forward(state)[0])
	return mean, std
}

// Sample draws an action, clamps it to the action range, and returns it
// together with the log-probability of the unclamped draw.
func (a *Actor) Sample(state []float64, rng *rand.Rand) (action, logProb float64) {
	mean, std := a.Forward(state)
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: rng}
	raw := dist.Rand()
	return clamp(raw, a.bounds.Min, a.bounds.Max), dist.LogProb(raw)
}

type actorEval struct {
	mean, std float64
	meanTape  *nn.Tape
	stdTape   *nn.Tape
}

// eval is the gradient-tracking counterpart of Forward.
func (a *Actor) eval(state []float64) actorEval {
	rawMean, meanTape := a.mean.ForwardTape(state)
	rawStd, stdTape := a.std.ForwardTape(state)
	return actorEval{
		mean:     math.Tanh(rawMean[0]) * a.scale,
		std:      softplus(rawStd[0]),
		meanTape: meanTape,
		stdTape:  stdTape,
	}
}

// backward accumulates tower gradients given the loss gradient with respect
// to the distribution parameters, chaining through the tanh and softplus
// heads.
func (a *Actor) backward(ev actorEval, dMean, dStd float64, gMean, gStd *nn.Grads) {
	dRawMean := dMean * (a.scale - ev.mean*ev.mean/a.scale)
	dRawStd := dStd * (1 - math.Exp(-ev.std))
	a.mean.Backward(ev.meanTape, []float64{dRawMean}, gMean)
	a.std.Backward(ev.stdTape, []float64{dRawStd}, gStd)
}

func (a *Actor) grads() (gMean, gStd *nn.Grads) {
	return a.mean.NewGrads(), a.std.NewGrads()
}

func (a *Actor) update(gMean, gStd *nn.Grads) {
	a.optMean.Step(a.mean, gMean)
	a.optStd.Step(a.std, gStd)
}

// ActorState pairs the serialized parameters of both towers.
type ActorState struct {
	Mean nn.State `json:"mean"`
	Std  nn.State `json:"std"`
}

func (a *Actor) State() ActorState {
	return ActorState{Mean: a.mean.State(), Std: a.std.State()}
}

// SetState replaces the parameters of both towers, or neither on error.
func (a *Actor) SetState(s ActorState) error {
	if err := a.mean.CheckState(s.Mean); err != nil {
		return err
	}
	if err := a.std.CheckState(s.Std); err != nil {
		return err
	}
	if err := a.mean.SetState(s.Mean); err != nil {
		return err
	}
	return a.std.SetState(s.Std)
}

func softplus(x float64) float64 {
	return math.Log1p(math.Exp(-math.Abs(x))) + math.Max(x, 0)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
