package pendulum

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	gravity   = 10.0
	mass      = 1.0
	length    = 1.0
	dt        = 0.05
	maxSpeed  = 8.0
	maxTorque = 2.0
	maxSteps  = 200

	// ObservationSize is the length of the observation vector
	// [cos(theta), sin(theta), thetaDot].
	ObservationSize = 3

	// RewardMin is the reward of the worst state-action pair,
	// -(pi^2 + 0.1*8^2 + 0.001*2^2).
	RewardMin = -16.2736044
	RewardMax = 0.0
)

type State struct {
	Theta    float64 `json:"theta"`
	ThetaDot float64 `json:"theta_dot"`
}

type Env struct {
	State State
	Steps int
	Rand  *rand.Rand
}

func NewEnv(rng *rand.Rand) *Env {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	}
	env := &Env{Rand: rng}
	env.Reset()
	return env
}

// ActionBounds is the torque range the environment accepts; actions outside
// it are clamped.
func ActionBounds() r1.Interval {
	return r1.Interval{Min: -maxTorque, Max: maxTorque}
}

func (e *Env) Reset() []float64 {
	e.State = State{
		Theta:    e.Rand.Float64()*2*math.Pi - math.Pi,
		ThetaDot: e.Rand.Float64()*2 - 1,
	}
	e.Steps = 0
	return e.obs()
}

// Step applies a torque for one tick and returns the next observation, the
// reward, and whether the episode is over. Episodes end after a fixed number
// of steps, never earlier.
func (e *Env) Step(action float64) ([]float64, float64, bool) {
	torque := math.Max(-maxTorque, math.Min(maxTorque, action))

	theta := e.State.Theta
	thetaDot := e.State.ThetaDot

	angle := angleNormalize(theta)
	cost := angle*angle + 0.1*thetaDot*thetaDot + 0.001*torque*torque

	thetaDot += (-3*gravity/(2*length)*math.Sin(theta+math.Pi) + 3/(mass*length*length)*torque) * dt
	theta += thetaDot * dt
	thetaDot = math.Max(-maxSpeed, math.Min(maxSpeed, thetaDot))

	e.State = State{Theta: theta, ThetaDot: thetaDot}
	e.Steps++

	return e.obs(), -cost, e.Steps >= maxSteps
}

// Render returns a one-line textual view: a dial over [-pi, pi) with the
// pendulum's current angle marked, upright at the center.
func (e *Env) Render() string {
	dial := []byte("-------------------")
	angle := angleNormalize(e.State.Theta)
	pos := int((angle + math.Pi) / (2 * math.Pi) * float64(len(dial)))
	if pos < 0 {
		pos = 0
	}
	if pos >= len(dial) {
		pos = len(dial) - 1
	}
	dial[pos] = '*'
	return fmt.Sprintf("step %3d [%s] theta %+5.2f thetaDot %+5.2f", e.Steps, dial, angle, e.State.ThetaDot)
}

func MaxSteps() int {
	return maxSteps
}

func (e *Env) obs() []float64 {
	return []float64{math.Cos(e.State.Theta), math.Sin(e.State.Theta), e.State.ThetaDot}
}

// angleNormalize wraps x into [-pi, pi).
func angleNormalize(x float64) float64 {
	m := math.Mod(x+math.Pi, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return m - math.Pi
}
