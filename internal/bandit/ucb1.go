package bandit

import (
	"fmt"
	"math"
	"math/rand"

	"banditd/internal/model"
)

// UCB1 plays every arm once, then picks the arm maximizing
// mean + C*sqrt(2 ln t / n). It never consumes randomness.
type UCB1 struct {
	C    float64
	arms arms
}

func NewUCB1(numArms int, c float64) (*UCB1, error) {
	if numArms <= 0 {
		return nil, fmt.Errorf("%w: num_arms must be > 0", model.ErrInvalidConfig)
	}
	if c < 0 {
		return nil, fmt.Errorf("%w: exploration factor must be >= 0, got %v", model.ErrInvalidConfig, c)
	}
	return &UCB1{C: c, arms: make(arms, numArms)}, nil
}

func (u *UCB1) Name() string { return StrategyUCB1 }

func (u *UCB1) Select(_ *rand.Rand) int {
	var total uint64
	for i := range u.arms {
		n := u.arms[i].Count()
		if n == 0 {
			return i
		}
		total += n
	}
	logT := math.Log(float64(total))
	return u.arms.argmax(func(i int) float64 {
		n := float64(u.arms[i].Count())
		return u.arms[i].Mean() + u.C*math.Sqrt(2*logT/n)
	})
}

func (u *UCB1) Update(arm int, reward float64) error {
	return u.arms.update(arm, reward)
}

func (u *UCB1) Stats() []model.ArmStats {
	return u.arms.snapshot()
}
