package bandit

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"banditd/internal/model"
	"banditd/internal/stats"
)

const (
	StrategyEpsilonGreedy = "epsilon_greedy"
	StrategyUCB1          = "ucb1"
)

var ErrStrategyExists = errors.New("strategy already registered")

// Strategy is the capability set every arm-selection policy provides. Select
// draws any randomness it needs from rng, which is owned by the calling
// Bandit. Implementations are not safe for concurrent use.
type Strategy interface {
	Name() string
	Select(rng *rand.Rand) int
	Update(arm int, reward float64) error
	Stats() []model.ArmStats
}

// Factory builds a strategy from its single numeric parameter.
type Factory func(param float64, numArms int) (Strategy, error)

var strategyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func init() {
	initializeBuiltInStrategies()
}

func initializeBuiltInStrategies() {
	MustRegisterStrategy(StrategyEpsilonGreedy, func(param float64, numArms int) (Strategy, error) {
		return NewEpsilonGreedy(numArms, param)
	})
	MustRegisterStrategy(StrategyUCB1, func(param float64, numArms int) (Strategy, error) {
		return NewUCB1(numArms, param)
	})
}

func RegisterStrategy(name string, factory Factory) error {
	if name == "" {
		return errors.New("strategy name is required")
	}
	if factory == nil {
		return errors.New("strategy factory is required")
	}

	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()

	if _, exists := strategyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, name)
	}
	strategyRegistry.m[name] = factory
	return nil
}

func MustRegisterStrategy(name string, factory Factory) {
	if err := RegisterStrategy(name, factory); err != nil {
		panic(err)
	}
}

// NewStrategy resolves name and builds a strategy. Unknown names and invalid
// parameters report model.ErrInvalidConfig.
func NewStrategy(name string, param float64, numArms int) (Strategy, error) {
	strategyRegistry.mu.RLock()
	factory, ok := strategyRegistry.m[name]
	strategyRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unsupported strategy %q", model.ErrInvalidConfig, name)
	}
	if numArms <= 0 {
		return nil, fmt.Errorf("%w: num_arms must be > 0", model.ErrInvalidConfig)
	}
	if !stats.IsFinite(param) {
		return nil, fmt.Errorf("%w: param must be finite", model.ErrInvalidConfig)
	}
	return factory(param, numArms)
}

func Strategies() []string {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	names := make([]string, 0, len(strategyRegistry.m))
	for name := range strategyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetStrategyRegistryForTests() {
	strategyRegistry.mu.Lock()
	strategyRegistry.m = make(map[string]Factory)
	strategyRegistry.mu.Unlock()
	initializeBuiltInStrategies()
}

// arms is the per-arm reward state shared by the built-in strategies.
type arms []stats.RunningStat

func (a arms) update(arm int, reward float64) error {
	if arm < 0 || arm >= len(a) {
		return fmt.Errorf("%w: %d not in [0, %d)", model.ErrInvalidArm, arm, len(a))
	}
	return a[arm].Update(reward)
}

func (a arms) snapshot() []model.ArmStats {
	out := make([]model.ArmStats, len(a))
	for i := range a {
		out[i] = a[i].Snapshot()
	}
	return out
}

// argmax returns the arm with the highest score, lowest index on ties.
func (a arms) argmax(score func(i int) float64) int {
	best := 0
	bestScore := score(0)
	for i := 1; i < len(a); i++ {
		if s := score(i); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}
