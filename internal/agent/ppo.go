package agent

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	"pendulum-ppo/internal/buffer"
)

// Config holds the PPO hyperparameters.
type Config struct {
	LearningRate float64
	Gamma        float64
	Epsilon      float64
	EntropyCoef  float64
	ValueCoef    float64
	Epochs       int
	MemorySize   int
	BatchSize    int
	UpdateEvery  int
	HiddenSize   int
}

func DefaultConfig() Config {
	return Config{
		LearningRate: 5e-5,
		Gamma:        0.9,
		Epsilon:      0.2,
		EntropyCoef:  1e-6,
		ValueCoef:    1e-6,
		Epochs:       10,
		MemorySize:   10000,
		BatchSize:    32,
		UpdateEvery:  1,
		HiddenSize:   128,
	}
}

// PPO owns the actor, the critic, and the experience buffer, and advances
// all three one environment step at a time.
type PPO struct {
	cfg    Config
	actor  *Actor
	critic *Critic
	memory *buffer.Buffer
	rng    *rand.Rand
	log    zerolog.Logger
	id     string
	update int
}

func New(cfg Config, inputs int, bounds r1.Interval, rng *rand.Rand, log zerolog.Logger) (*PPO, error) {
	switch {
	case inputs <= 0:
		return nil, errors.New("inputs must be greater than zero")
	case bounds.Min >= bounds.Max:
		return nil, errors.New("action bounds must satisfy min < max")
	case cfg.LearningRate <= 0:
		return nil, errors.New("learning rate must be greater than zero")
	case cfg.Gamma <= 0 || cfg.Gamma > 1:
		return nil, errors.New("gamma must be in (0, 1]")
	case cfg.Epsilon <= 0:
		return nil, errors.New("epsilon must be greater than zero")
	case cfg.Epochs <= 0:
		return nil, errors.New("epochs must be greater than zero")
	case cfg.BatchSize <= 0:
		return nil, errors.New("batch size must be greater than zero")
	case cfg.MemorySize < cfg.BatchSize:
		return nil, errors.New("memory size must be at least the batch size")
	case cfg.UpdateEvery <= 0:
		return nil, errors.New("update period must be greater than zero")
	case cfg.HiddenSize <= 0:
		return nil, errors.New("hidden size must be greater than zero")
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	}
	memory, err := buffer.New(cfg.MemorySize)
	if err != nil {
		return nil, err
	}

	return &PPO{
		cfg:    cfg,
		actor:  NewActor(inputs, cfg.HiddenSize, bounds, cfg.LearningRate, rng),
		critic: NewCritic(inputs, cfg.HiddenSize, cfg.LearningRate, rng),
		memory: memory,
		rng:    rng,
		log:    log.With().Str("component", "ppo").Logger(),
		id:     uuid.NewString(),
	}, nil
}

// RunID identifies this agent instance in logs and checkpoints.
func (p *PPO) RunID() string {
	return p.id
}

// Action samples an action from the current policy. It never mutates the
// buffer or the parameters.
func (p *PPO) Action(state []float64) (action, logProb float64) {
	return p.actor.Sample(state, p.rng)
}

// Store appends one transition to the experience buffer.
func (p *PPO) Store(t buffer.Transition) {
	p.memory.Store(t)
}

// Train runs one gated optimization pass and reports whether parameters
// changed. It is called once per environment step: while the buffer holds
// fewer transitions than a batch it does nothing, and once data has
// accumulated it trains only every UpdateEvery-th call.
func (p *PPO) Train() bool {
	if p.memory.Len() < p.cfg.BatchSize {
		return false
	}
	p.update++
	if p.update%p.cfg.UpdateEvery != 0 {
		return false
	}

	batch, err := p.memory.Sample(p.cfg.BatchSize, p.rng)
	if err != nil {
		return false
	}

	// Targets and advantages are fixed for the whole update; only the
	// forward passes below see the parameters move between epochs.
	q, adv := targets(batch, p.cfg.Gamma, p.critic.Value)

	n := float64(len(batch))
	gCritic := p.critic.grads()
	gMean, gStd := p.actor.grads()

	var criticLoss, actorLoss float64
	for epoch := 0; epoch < p.cfg.Epochs; epoch++ {
		gCritic.Reset()
		gMean.Reset()
		gStd.Reset()

		criticLoss = 0
		surrSum := 0.0
		entropySum := 0.0

		for i, tr := range batch {
			v, tape := p.critic.eval(tr.State)
			diff := v - q[i]
			criticLoss += diff * diff
			p.critic.backward(tape, 2*diff/n, gCritic)

			ev := p.actor.eval(tr.State)
			dist := distuv.Normal{Mu: ev.mean, Sigma: ev.std}
			logProb := dist.LogProb(tr.Action)
			entropySum += dist.Entropy()

			ratio := math.Exp(logProb - tr.OldLogProb)
			surr, unclipped := surrogate(ratio, adv[i], p.cfg.Epsilon)
			surrSum += surr

			// Gradients flow only through the branch the minimum
			// selected; a ratio clipped outside the band contributes
			// nothing.
			var dMean, dStd float64
			if unclipped {
				delta := tr.Action - ev.mean
				variance := ev.std * ev.std
				factor := adv[i] * ratio
				dMean = -factor * delta / variance / n
				dStd = -factor * (delta*delta - variance) / (variance * ev.std) / n
			}
			dStd -= p.cfg.EntropyCoef / ev.std / n
			p.actor.backward(ev, dMean, dStd, gMean, gStd)
		}

		criticLoss /= n
		actorLoss = -surrSum/n + p.cfg.ValueCoef*criticLoss - p.cfg.EntropyCoef*entropySum/n

		p.critic.update(gCritic)
		p.actor.update(gMean, gStd)
	}

	p.log.Debug().
		Int("update", p.update).
		Float64("critic_loss", criticLoss).
		Float64("actor_loss", actorLoss).
		Msg("parameters updated")
	return true
}

// targets computes bootstrapped returns and advantages for a batch without
// gradient tracking. The bootstrap term is applied on terminal transitions
// too, matching the collection-time behavior this system was trained with
// rather than the (1-done) masked variant.
func targets(batch []buffer.Transition, gamma float64, value func([]float64) float64) (q, adv []float64) {
	q = make([]float64, len(batch))
	adv = make([]float64, len(batch))
	for i, tr := range batch {
		q[i] = tr.Reward + gamma*value(tr.NextState)
		adv[i] = q[i] - value(tr.State)
	}
	return q, adv
}

// surrogate returns the pessimistic clipped objective term
// min(ratio*adv, clip(ratio, 1-eps, 1+eps)*adv) and whether the unclipped
// branch was selected.
func surrogate(ratio, adv, epsilon float64) (float64, bool) {
	unclipped := ratio * adv
	clipped := clamp(ratio, 1-epsilon, 1+epsilon) * adv
	if unclipped <= clipped {
		return unclipped, true
	}
	return clipped, false
}
