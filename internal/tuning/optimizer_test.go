package tuning

import (
	"errors"
	"math"
	"testing"

	"banditd/internal/model"
)

func mustOptimizer(t *testing.T, cfg Config) *Optimizer {
	t.Helper()
	o, err := New(cfg)
	if err != nil {
		t.Fatalf("new optimizer: %v", err)
	}
	return o
}

func TestFirstSuggestionIsSeed(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 2.5, Seed: 1})
	if x := o.Suggest(); x != 2.5 {
		t.Fatalf("expected seed 2.5, got %v", x)
	}
}

func TestSuggestIsIdempotentUntilObserved(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 0, Seed: 1})
	for round := 0; round < 5; round++ {
		first := o.Suggest()
		if second := o.Suggest(); second != first {
			t.Fatalf("round %d: suggest changed without observe: %v -> %v", round, first, second)
		}
		if err := o.Observe(float64(round % 2)); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
}

func TestObserveRequiresPendingSuggestion(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 1, Seed: 1})
	if err := o.Observe(1); !errors.Is(err, model.ErrNoPendingSuggestion) {
		t.Fatalf("fresh optimizer: expected ErrNoPendingSuggestion, got %v", err)
	}
	o.Suggest()
	if err := o.Observe(1); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if err := o.Observe(1); !errors.Is(err, model.ErrNoPendingSuggestion) {
		t.Fatalf("second observe: expected ErrNoPendingSuggestion, got %v", err)
	}
	if got := o.State().HistoryLength; got != 1 {
		t.Fatalf("history length %d want 1", got)
	}
}

func TestObserveRejectsNonFinite(t *testing.T) {
	o := mustOptimizer(t, Config{Seed: 1})
	o.Suggest()
	before := o.State()
	for _, r := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := o.Observe(r); !errors.Is(err, model.ErrInvalidValue) {
			t.Fatalf("reward %v: expected ErrInvalidValue, got %v", r, err)
		}
	}
	after := o.State()
	if after.HistoryLength != before.HistoryLength || !after.Pending || after.StepSize != before.StepSize {
		t.Fatalf("state changed after rejected observe: %+v -> %+v", before, after)
	}
}

func TestStateAfterFirstObservation(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 0, Seed: 1})
	if x := o.Suggest(); x != 0 {
		t.Fatalf("expected 0, got %v", x)
	}
	if err := o.Observe(8.2); err != nil {
		t.Fatalf("observe: %v", err)
	}
	st := o.State()
	if st.CurrentX != 0 || st.BestX != 0 || st.BestReward == nil || *st.BestReward != 8.2 || st.HistoryLength != 1 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestBestTracksMaximumReward(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 0, Seed: 1})
	var proposals []float64
	for _, r := range []float64{1.0, 2.0, 0.5} {
		proposals = append(proposals, o.Suggest())
		if err := o.Observe(r); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	st := o.State()
	if st.BestReward == nil || *st.BestReward != 2.0 {
		t.Fatalf("best reward %v want 2.0", st.BestReward)
	}
	if st.BestX != proposals[1] {
		t.Fatalf("best x %v want second proposal %v", st.BestX, proposals[1])
	}
	history := o.History()
	if len(history) != 3 || history[2].Reward != 0.5 || history[0].X != 0 {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestStepGrowsOnImprovementAndShrinksOtherwise(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 0, Seed: 1})
	cases := []struct {
		reward float64
		grows  bool
	}{
		{1, true},
		{2, true},
		{0.5, false},
		{2, false}, // ties do not improve
		{3, true},
		{-1, false},
	}
	for i, tc := range cases {
		before := o.State().StepSize
		o.Suggest()
		if err := o.Observe(tc.reward); err != nil {
			t.Fatalf("observe: %v", err)
		}
		after := o.State().StepSize
		if tc.grows && !(after > before) {
			t.Fatalf("case %d: expected step growth %v -> %v", i, before, after)
		}
		if !tc.grows && !(after < before) {
			t.Fatalf("case %d: expected step shrink %v -> %v", i, before, after)
		}
	}
}

func TestTiesKeepEarliestBest(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 4, Seed: 1})
	o.Suggest()
	_ = o.Observe(1)
	o.Suggest()
	_ = o.Observe(1)
	if st := o.State(); st.BestX != 4 {
		t.Fatalf("tie moved best to %v", st.BestX)
	}
}

func TestProbesBothSidesBeforeRandomizing(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 10, InitialStep: 1, Seed: 3})
	o.Suggest()
	_ = o.Observe(5)

	up := o.Suggest()
	_ = o.Observe(0)
	down := o.Suggest()
	_ = o.Observe(0)
	if !(up > 10 && down < 10) {
		t.Fatalf("expected one probe on each side of 10, got %v and %v", up, down)
	}
}

func TestStepNeverFallsBelowFloor(t *testing.T) {
	o := mustOptimizer(t, Config{X0: 0, MinStep: 0.01, Seed: 9})
	o.Suggest()
	_ = o.Observe(100)
	for i := 0; i < 200; i++ {
		o.Suggest()
		_ = o.Observe(-float64(i))
	}
	if st := o.State(); st.StepSize != 0.01 {
		t.Fatalf("step %v want floor 0.01", st.StepSize)
	}
}

func TestConvergesOnConcaveReward(t *testing.T) {
	reward := func(x float64) float64 { return 10 - (x-3)*(x-3) }
	o := mustOptimizer(t, Config{X0: 0, InitialStep: 0.5, Seed: 11})
	for i := 0; i < 300; i++ {
		x := o.Suggest()
		if err := o.Observe(reward(x)); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	if st := o.State(); math.Abs(st.BestX-3) > 0.05 {
		t.Fatalf("expected best near 3, got %v", st.BestX)
	}
}

func TestSeededOptimizersAreReproducible(t *testing.T) {
	reward := func(x float64) float64 { return -math.Abs(x - 1.7) }
	a := mustOptimizer(t, Config{X0: 1, Seed: 5})
	b := mustOptimizer(t, Config{X0: 1, Seed: 5})
	for i := 0; i < 60; i++ {
		xa, xb := a.Suggest(), b.Suggest()
		if xa != xb {
			t.Fatalf("step %d diverged: %v vs %v", i, xa, xb)
		}
		_ = a.Observe(reward(xa))
		_ = b.Observe(reward(xb))
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []Config{
		{X0: math.NaN()},
		{X0: math.Inf(1)},
		{InitialStep: -1},
		{MinStep: -1},
		{Grow: 0.9},
		{Shrink: 1.5},
		{Shrink: -0.2},
	}
	for i, cfg := range cases {
		if _, err := New(cfg); !errors.Is(err, model.ErrInvalidConfig) {
			t.Fatalf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}
