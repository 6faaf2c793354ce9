package pendulum

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestResetWithinBounds(t *testing.T) {
	env := NewEnv(rand.New(rand.NewSource(1)))

	for i := 0; i < 50; i++ {
		obs := env.Reset()
		if len(obs) != ObservationSize {
			t.Fatalf("expected observation of length %d, got %d", ObservationSize, len(obs))
		}
		if norm := obs[0]*obs[0] + obs[1]*obs[1]; math.Abs(norm-1) > 1e-12 {
			t.Errorf("cos^2+sin^2 = %v, expected 1", norm)
		}
		if env.State.Theta < -math.Pi || env.State.Theta > math.Pi {
			t.Errorf("theta %v outside [-pi, pi]", env.State.Theta)
		}
		if env.State.ThetaDot < -1 || env.State.ThetaDot > 1 {
			t.Errorf("thetaDot %v outside [-1, 1]", env.State.ThetaDot)
		}
		if env.Steps != 0 {
			t.Errorf("expected step counter reset to 0, got %d", env.Steps)
		}
	}
}

func TestResetIsReproducible(t *testing.T) {
	a := NewEnv(rand.New(rand.NewSource(9)))
	b := NewEnv(rand.New(rand.NewSource(9)))
	if a.State != b.State {
		t.Errorf("same seed produced different states: %+v vs %+v", a.State, b.State)
	}
}

func TestEpisodeEndsAfterMaxSteps(t *testing.T) {
	env := NewEnv(rand.New(rand.NewSource(2)))
	env.Reset()

	steps := 0
	for {
		_, _, done := env.Step(0)
		steps++
		if done {
			break
		}
		if steps > MaxSteps() {
			t.Fatalf("episode did not end after %d steps", MaxSteps())
		}
	}
	if steps != MaxSteps() {
		t.Errorf("expected episode length %d, got %d", MaxSteps(), steps)
	}
}

func TestRewardWithinTaskBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	env := NewEnv(rng)
	env.Reset()

	for i := 0; i < MaxSteps(); i++ {
		action := rng.Float64()*4 - 2
		_, reward, _ := env.Step(action)
		if reward > RewardMax {
			t.Errorf("step %d: reward %v above %v", i, reward, RewardMax)
		}
		if reward < RewardMin-1e-6 {
			t.Errorf("step %d: reward %v below %v", i, reward, RewardMin)
		}
	}
}

func TestStepClampsTorque(t *testing.T) {
	a := NewEnv(rand.New(rand.NewSource(4)))
	b := NewEnv(rand.New(rand.NewSource(4)))

	a.Step(100)
	b.Step(maxTorque)
	if a.State != b.State {
		t.Errorf("oversized torque not clamped: %+v vs %+v", a.State, b.State)
	}

	a.Reset()
	b.Reset()
	a.Step(-100)
	b.Step(-maxTorque)
	if a.State != b.State {
		t.Errorf("oversized negative torque not clamped: %+v vs %+v", a.State, b.State)
	}
}

func TestAngleNormalize(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{2 * math.Pi, 0},
		{math.Pi, -math.Pi},
		{-math.Pi, -math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
	}
	for _, c := range cases {
		if got := angleNormalize(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("angleNormalize(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestRenderDoesNotAffectState(t *testing.T) {
	env := NewEnv(rand.New(rand.NewSource(5)))
	before := env.State

	if out := env.Render(); out == "" {
		t.Error("expected non-empty render output")
	}
	if env.State != before {
		t.Errorf("render mutated state: %+v vs %+v", env.State, before)
	}
}
