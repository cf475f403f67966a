package stats

import "math"

// RewardNormalizer maps raw rewards into (0, 1) by passing their z-score,
// relative to a rolling window, through a logistic function. It returns 0.5
// while the window is empty or has zero spread.
type RewardNormalizer struct {
	window *RewardTracker
}

func NewRewardNormalizer(window int) *RewardNormalizer {
	return &RewardNormalizer{window: NewRewardTracker(window)}
}

func (n *RewardNormalizer) Update(reward float64) {
	n.window.Update(reward)
}

func (n *RewardNormalizer) Normalized(reward float64) float64 {
	values := n.window.Values()
	if len(values) == 0 {
		return 0.5
	}
	var acc RunningStat
	for _, v := range values {
		_ = acc.Update(v)
	}
	std := math.Sqrt(acc.Variance())
	if std == 0 {
		return 0.5
	}
	z := (reward - acc.Mean()) / std
	return 1 / (1 + math.Exp(-z))
}

// Observe records reward and returns its normalized value against the
// window including it.
func (n *RewardNormalizer) Observe(reward float64) float64 {
	n.Update(reward)
	return n.Normalized(reward)
}
