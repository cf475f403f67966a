package tuning

import (
	"fmt"
	"math/rand"
	"time"

	"banditd/internal/model"
	"banditd/internal/stats"
)

const (
	DefaultInitialStep = 1.0
	DefaultMinStep     = 1e-3
	DefaultGrow        = 1.2
	DefaultShrink      = 0.8
)

// Config tunes the step adaptation of an Optimizer. Zero fields take the
// package defaults.
type Config struct {
	X0          float64
	InitialStep float64
	MinStep     float64
	Grow        float64
	Shrink      float64
	// Seed drives the side choice once both sides of the best point have
	// been probed; 0 seeds from the clock.
	Seed int64
}

func (c Config) withDefaults() Config {
	if c.InitialStep == 0 {
		c.InitialStep = DefaultInitialStep
	}
	if c.MinStep == 0 {
		c.MinStep = DefaultMinStep
	}
	if c.Grow == 0 {
		c.Grow = DefaultGrow
	}
	if c.Shrink == 0 {
		c.Shrink = DefaultShrink
	}
	return c
}

func (c Config) Validate() error {
	c = c.withDefaults()
	if !stats.IsFinite(c.X0) {
		return fmt.Errorf("%w: x0 must be finite", model.ErrInvalidConfig)
	}
	if !stats.IsFinite(c.InitialStep) || c.InitialStep <= 0 {
		return fmt.Errorf("%w: initial step must be > 0", model.ErrInvalidConfig)
	}
	if !stats.IsFinite(c.MinStep) || c.MinStep <= 0 {
		return fmt.Errorf("%w: min step must be > 0", model.ErrInvalidConfig)
	}
	if !stats.IsFinite(c.Grow) || c.Grow <= 1 {
		return fmt.Errorf("%w: grow factor must be > 1", model.ErrInvalidConfig)
	}
	if c.Shrink <= 0 || c.Shrink >= 1 {
		return fmt.Errorf("%w: shrink factor must be in (0, 1)", model.ErrInvalidConfig)
	}
	return nil
}

// Optimizer is a 1-D adaptive-step local search. Each proposal perturbs the
// best point seen so far by the current step; improvements grow the step and
// everything else shrinks it, never below MinStep.
//
// An Optimizer is not safe for concurrent use; Registry serializes access.
type Optimizer struct {
	cfg Config
	rng *rand.Rand

	currentX   float64
	bestX      float64
	bestReward *float64
	step       float64
	history    []model.Observation

	pending bool
	// dir is the side tried first around the current best; tried records
	// which sides have been probed since the best last moved.
	dir       float64
	triedUp   bool
	triedDown bool
}

func New(cfg Config) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Optimizer{
		cfg:      cfg,
		rng:      newRand(cfg.Seed),
		currentX: cfg.X0,
		bestX:    cfg.X0,
		step:     cfg.InitialStep,
		dir:      1,
	}, nil
}

// Suggest returns the next point to evaluate. Until Observe is called the
// same point is returned.
func (o *Optimizer) Suggest() float64 {
	if o.pending {
		return o.currentX
	}
	if len(o.history) == 0 {
		o.currentX = o.cfg.X0
		o.pending = true
		return o.currentX
	}

	var side float64
	switch {
	case !o.tried(o.dir):
		side = o.dir
	case !o.tried(-o.dir):
		side = -o.dir
	default:
		side = 1
		if o.rng.Intn(2) == 0 {
			side = -1
		}
	}
	if side > 0 {
		o.triedUp = true
	} else {
		o.triedDown = true
	}
	o.currentX = o.bestX + side*o.step
	o.pending = true
	return o.currentX
}

// Observe records reward for the pending suggestion.
func (o *Optimizer) Observe(reward float64) error {
	if !stats.IsFinite(reward) {
		return fmt.Errorf("%w: reward %v", model.ErrInvalidValue, reward)
	}
	if !o.pending {
		return model.ErrNoPendingSuggestion
	}

	o.history = append(o.history, model.Observation{X: o.currentX, Reward: reward})
	o.pending = false

	if o.bestReward == nil || reward > *o.bestReward {
		if o.currentX != o.bestX {
			o.dir = 1
			if o.currentX < o.bestX {
				o.dir = -1
			}
		}
		r := reward
		o.bestReward = &r
		o.bestX = o.currentX
		o.triedUp, o.triedDown = false, false
		o.step *= o.cfg.Grow
	} else {
		o.step *= o.cfg.Shrink
	}
	if o.step < o.cfg.MinStep {
		o.step = o.cfg.MinStep
	}
	return nil
}

func (o *Optimizer) State() model.OptimizerState {
	st := model.OptimizerState{
		CurrentX:      o.currentX,
		BestX:         o.bestX,
		HistoryLength: len(o.history),
		StepSize:      o.step,
		Pending:       o.pending,
	}
	if o.bestReward != nil {
		r := *o.bestReward
		st.BestReward = &r
	}
	return st
}

// History returns a copy of all observations in arrival order.
func (o *Optimizer) History() []model.Observation {
	return append([]model.Observation(nil), o.history...)
}

func (o *Optimizer) tried(side float64) bool {
	if side > 0 {
		return o.triedUp
	}
	return o.triedDown
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
