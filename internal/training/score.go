package training

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// RollingScore tracks the mean episode reward over a fixed window. The
// window starts prefilled with a pessimistic baseline so the mean stays low
// until enough real episodes have been recorded.
type RollingScore struct {
	scores []float64
}

func NewRollingScore(window int, initial float64) (*RollingScore, error) {
	if window <= 0 {
		return nil, errors.New("window must be greater than zero")
	}
	scores := make([]float64, window)
	for i := range scores {
		scores[i] = initial
	}
	return &RollingScore{scores: scores}, nil
}

// Push records an episode reward, evicting the oldest entry.
func (r *RollingScore) Push(score float64) {
	copy(r.scores, r.scores[1:])
	r.scores[len(r.scores)-1] = score
}

// Mean returns the average over the whole window, baseline entries included.
func (r *RollingScore) Mean() float64 {
	return stat.Mean(r.scores, nil)
}
