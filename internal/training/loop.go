package training

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"pendulum-ppo/internal/agent"
	"pendulum-ppo/internal/buffer"
	"pendulum-ppo/internal/pendulum"
)

const (
	DefaultWindow       = 100
	DefaultWindowInit   = -2000
	DefaultSuccessScore = -300
	DefaultSaveEvery    = 20
)

// Environment is a bounded-episode control task with a single continuous
// action.
type Environment interface {
	Reset() []float64
	Step(action float64) (next []float64, reward float64, done bool)
}

// Loop trains an agent on an environment until the rolling score reaches
// SuccessScore or the context is canceled.
type Loop struct {
	Env   Environment
	Agent *agent.PPO

	// SavePath receives a checkpoint every SaveEvery episodes and once
	// more when the success score is reached.
	SavePath     string
	SuccessScore float64
	SaveEvery    int
	Window       int
	WindowInit   float64
	Log          zerolog.Logger
}

func (l *Loop) Run(ctx context.Context) error {
	if l.Env == nil {
		return errors.New("environment must be set")
	}
	if l.Agent == nil {
		return errors.New("agent must be set")
	}
	if l.SavePath == "" {
		return errors.New("save path must be set")
	}
	if l.SuccessScore == 0 {
		l.SuccessScore = DefaultSuccessScore
	}
	if l.SaveEvery <= 0 {
		l.SaveEvery = DefaultSaveEvery
	}
	if l.Window <= 0 {
		l.Window = DefaultWindow
	}
	if l.WindowInit == 0 {
		l.WindowInit = DefaultWindowInit
	}
	logger := l.Log.With().Str("component", "training").Logger()

	score, err := NewRollingScore(l.Window, l.WindowInit)
	if err != nil {
		return err
	}

	var episode int
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		state := l.Env.Reset()
		rewards := 0.0
		for {
			action, logProb := l.Agent.Action(state)
			next, reward, done := l.Env.Step(action)
			rewards += reward

			l.Agent.Store(buffer.Transition{
				State:      state,
				NextState:  next,
				Reward:     shapeReward(reward),
				Action:     action,
				Done:       done,
				OldLogProb: logProb,
			})
			l.Agent.Train()

			state = next
			if done {
				break
			}
		}

		score.Push(rewards)
		mean := score.Mean()
		if mean >= l.SuccessScore {
			if err := l.Agent.Save(l.SavePath); err != nil {
				return fmt.Errorf("save on success: %w", err)
			}
			logger.Info().
				Int("episodes", episode).
				Float64("score", mean).
				Msg("target score reached")
			return nil
		}

		episode++
		logger.Info().
			Int("episode", episode).
			Float64("reward", rewards).
			Float64("score", mean).
			Msg("episode finished")

		if episode%l.SaveEvery == 0 {
			if err := l.Agent.Save(l.SavePath); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
		}
	}
}

// shapeReward maps the raw task reward onto [0, 0.5] so stored rewards are
// bounded and non-negative while preserving their ordering.
func shapeReward(reward float64) float64 {
	return 0.5 * (reward - pendulum.RewardMin) / (pendulum.RewardMax - pendulum.RewardMin)
}
