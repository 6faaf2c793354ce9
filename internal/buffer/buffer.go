package buffer

import (
	"errors"

	"golang.org/x/exp/rand"
)

// Transition is one environment step. OldLogProb is the log-probability of
// the sampled action under the policy that was active when the step was
// taken; it is frozen here and never recomputed.
type Transition struct {
	State      []float64 `json:"state"`
	NextState  []float64 `json:"next_state"`
	Reward     float64   `json:"reward"`
	Action     float64   `json:"action"`
	Done       bool      `json:"done"`
	OldLogProb float64   `json:"old_log_prob"`
}

// Buffer keeps the most recent transitions up to a fixed capacity. It is
// owned by a single goroutine; callers that share one must serialize access
// themselves.
type Buffer struct {
	transitions []Transition
	capacity    int
}

var ErrNotEnough = errors.New("not enough transitions buffered")

func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, errors.New("capacity must be greater than zero")
	}
	return &Buffer{
		transitions: make([]Transition, 0, capacity),
		capacity:    capacity,
	}, nil
}

// Store appends t, evicting the oldest transition once the buffer is full.
func (b *Buffer) Store(t Transition) {
	if len(b.transitions) == b.capacity {
		copy(b.transitions, b.transitions[1:])
		b.transitions[len(b.transitions)-1] = t
		return
	}
	b.transitions = append(b.transitions, t)
}

// Sample returns n distinct transitions drawn uniformly at random, in no
// particular order.
func (b *Buffer) Sample(n int, rng *rand.Rand) ([]Transition, error) {
	if n <= 0 {
		return nil, errors.New("sample size must be greater than zero")
	}
	if n > len(b.transitions) {
		return nil, ErrNotEnough
	}
	batch := make([]Transition, 0, n)
	for _, i := range rng.Perm(len(b.transitions))[:n] {
		batch = append(batch, b.transitions[i])
	}
	return batch, nil
}

func (b *Buffer) Len() int {
	return len(b.transitions)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}
