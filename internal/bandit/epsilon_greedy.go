package bandit

import (
	"fmt"
	"math/rand"

	"banditd/internal/model"
)

// EpsilonGreedy explores a uniformly random arm with probability Epsilon and
// otherwise exploits the arm with the highest mean reward.
type EpsilonGreedy struct {
	Epsilon float64
	arms    arms
}

func NewEpsilonGreedy(numArms int, epsilon float64) (*EpsilonGreedy, error) {
	if numArms <= 0 {
		return nil, fmt.Errorf("%w: num_arms must be > 0", model.ErrInvalidConfig)
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("%w: epsilon must be in [0, 1], got %v", model.ErrInvalidConfig, epsilon)
	}
	return &EpsilonGreedy{Epsilon: epsilon, arms: make(arms, numArms)}, nil
}

func (e *EpsilonGreedy) Name() string { return StrategyEpsilonGreedy }

func (e *EpsilonGreedy) Select(rng *rand.Rand) int {
	if rng.Float64() < e.Epsilon {
		return rng.Intn(len(e.arms))
	}
	return e.arms.argmax(func(i int) float64 { return e.arms[i].Mean() })
}

func (e *EpsilonGreedy) Update(arm int, reward float64) error {
	return e.arms.update(arm, reward)
}

func (e *EpsilonGreedy) Stats() []model.ArmStats {
	return e.arms.snapshot()
}
