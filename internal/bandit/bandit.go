package bandit

import (
	"fmt"
	"math/rand"
	"time"

	"banditd/internal/model"
	"banditd/internal/stats"
)

const (
	DefaultTrackerWindow      = 50
	DefaultMaxArms            = 1 << 16
	DefaultMaxNormalizeWindow = 1 << 20
)

type Config struct {
	Strategy string
	Param    float64
	NumArms  int
	// Seed fixes the exploration sequence; 0 seeds from the clock.
	Seed int64
	// NormalizeWindow > 0 feeds arms rewards rescaled into (0, 1) against a
	// rolling window of that size.
	NormalizeWindow int
	// TrackerWindow sizes the recent-reward summary; 0 uses the default.
	TrackerWindow int
	// MaxArms and MaxNormalizeWindow cap allocation sizes; 0 uses the
	// package defaults.
	MaxArms            int
	MaxNormalizeWindow int
}

func (c Config) Validate() error {
	if c.NumArms <= 0 {
		return fmt.Errorf("%w: num_arms must be > 0", model.ErrInvalidConfig)
	}
	if maxArms := orDefault(c.MaxArms, DefaultMaxArms); c.NumArms > maxArms {
		return fmt.Errorf("%w: num_arms must be <= %d", model.ErrInvalidConfig, maxArms)
	}
	if c.NormalizeWindow < 0 {
		return fmt.Errorf("%w: normalize_window must be >= 0", model.ErrInvalidConfig)
	}
	if maxWindow := orDefault(c.MaxNormalizeWindow, DefaultMaxNormalizeWindow); c.NormalizeWindow > maxWindow {
		return fmt.Errorf("%w: normalize_window must be <= %d", model.ErrInvalidConfig, maxWindow)
	}
	if c.TrackerWindow < 0 || c.TrackerWindow > DefaultMaxNormalizeWindow {
		return fmt.Errorf("%w: tracker_window must be in [0, %d]", model.ErrInvalidConfig, DefaultMaxNormalizeWindow)
	}
	return nil
}

// Bandit is one arm-selection instance. It owns its random source so that
// selection sequences are independent across instances and reproducible when
// seeded. A Bandit is not safe for concurrent use; Registry serializes access.
type Bandit struct {
	strategy   Strategy
	rng        *rand.Rand
	numArms    int
	recent     *stats.RewardTracker
	normalizer *stats.RewardNormalizer
}

func New(cfg Config) (*Bandit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := NewStrategy(cfg.Strategy, cfg.Param, cfg.NumArms)
	if err != nil {
		return nil, err
	}
	window := orDefault(cfg.TrackerWindow, DefaultTrackerWindow)
	b := &Bandit{
		strategy: strategy,
		rng:      newRand(cfg.Seed),
		numArms:  cfg.NumArms,
		recent:   stats.NewRewardTracker(window),
	}
	if cfg.NormalizeWindow > 0 {
		b.normalizer = stats.NewRewardNormalizer(cfg.NormalizeWindow)
	}
	return b, nil
}

func (b *Bandit) NumArms() int { return b.numArms }

func (b *Bandit) Strategy() string { return b.strategy.Name() }

func (b *Bandit) Select() int {
	return b.strategy.Select(b.rng)
}

// Update validates before mutating anything, so a rejected reward leaves
// every arm and the recent window untouched.
func (b *Bandit) Update(arm int, reward float64) error {
	if arm < 0 || arm >= b.numArms {
		return fmt.Errorf("%w: %d not in [0, %d)", model.ErrInvalidArm, arm, b.numArms)
	}
	if !stats.IsFinite(reward) {
		return fmt.Errorf("%w: reward %v", model.ErrInvalidValue, reward)
	}
	fed := reward
	if b.normalizer != nil {
		fed = b.normalizer.Observe(reward)
	}
	if err := b.strategy.Update(arm, fed); err != nil {
		return err
	}
	b.recent.Update(reward)
	return nil
}

func (b *Bandit) Stats() model.BanditStats {
	return model.BanditStats{
		Strategy: b.strategy.Name(),
		Arms:     b.strategy.Stats(),
		Recent:   b.recent.Summary(),
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
