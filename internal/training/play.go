package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"pendulum-ppo/internal/agent"
)

// Renderer is implemented by environments that can draw their state.
type Renderer interface {
	Render() string
}

// Player runs episodes with the current policy, rendering each step when
// the environment supports it. Actions are sampled, not taken greedily, so
// a played episode looks like a training rollout.
type Player struct {
	Env   Environment
	Agent *agent.PPO

	// Episodes limits the run; zero or negative plays until the context
	// is canceled.
	Episodes  int
	StepDelay time.Duration
	Out       io.Writer
	Log       zerolog.Logger
}

func (p *Player) Run(ctx context.Context) error {
	if p.Env == nil {
		return errors.New("environment must be set")
	}
	if p.Agent == nil {
		return errors.New("agent must be set")
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	logger := p.Log.With().Str("component", "play").Logger()
	renderer, _ := p.Env.(Renderer)

	for episode := 1; p.Episodes <= 0 || episode <= p.Episodes; episode++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		state := p.Env.Reset()
		rewards := 0.0
		steps := 0
		for {
			if renderer != nil {
				fmt.Fprintln(out, renderer.Render())
			}
			if p.StepDelay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.StepDelay):
				}
			}

			action, _ := p.Agent.Action(state)
			next, reward, done := p.Env.Step(action)
			rewards += reward
			steps++
			state = next
			if done {
				break
			}
		}

		logger.Info().
			Int("episode", episode).
			Int("steps", steps).
			Float64("reward", rewards).
			Msg("episode finished")
	}
	return nil
}
