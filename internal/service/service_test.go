package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banditd/internal/bandit"
	"banditd/internal/logging"
	"banditd/internal/model"
	"banditd/internal/observability"
	"banditd/internal/registry"
	"banditd/internal/storage"
	"banditd/internal/tuning"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingStore struct{ storage.Store }

func (failingStore) AppendEvent(context.Context, model.Event) (model.Event, error) {
	return model.Event{}, errors.New("disk full")
}

type fixture struct {
	svc     *Service
	store   *storage.MemoryStore
	metrics *observability.Metrics
	clock   *fakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	svc, err := New(Options{
		Bandits:           bandit.NewRegistry(registry.WithClock[*bandit.Bandit](clock.Now)),
		Optimizers:        tuning.NewRegistry(registry.WithClock[*tuning.Optimizer](clock.Now)),
		Store:             store,
		Metrics:           metrics,
		Logger:            logging.NewTestLogger(),
		TrackerWindow:     10,
		OptimizerDefaults: DefaultOptimizerConfig(1.0, 1e-3, 1.2, 0.8),
		Now:               clock.Now,
	})
	require.NoError(t, err)
	return fixture{svc: svc, store: store, metrics: metrics, clock: clock}
}

func ptr[T any](v T) *T { return &v }

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Bandits: bandit.NewRegistry(), Optimizers: tuning.NewRegistry()})
	assert.Error(t, err)
}

func TestBanditLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateBandit(ctx, CreateBanditRequest{
		Strategy: bandit.StrategyEpsilonGreedy,
		Param:    0,
		NumArms:  3,
		Seed:     7,
	})
	require.NoError(t, err)
	assert.Equal(t, "bandit-1", created.ID)

	_, err = f.svc.UpdateReward(ctx, created.ID, UpdateRewardRequest{Arm: ptr(1), Reward: ptr(0.9)})
	require.NoError(t, err)

	sel, err := f.svc.SelectArm(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Arm)

	st, err := f.svc.BanditStats(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bandit.StrategyEpsilonGreedy, st.Strategy)
	require.Len(t, st.Arms, 3)
	assert.Equal(t, uint64(1), st.Arms[1].Count)
	assert.InDelta(t, 0.9, st.Arms[1].Mean, 1e-12)
	assert.Equal(t, 1, st.Recent.Count)

	assert.Equal(t, []string{created.ID}, f.svc.ListBandits(ctx).IDs)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Instances.WithLabelValues("bandit")))

	require.NoError(t, f.svc.RemoveBandit(ctx, created.ID))
	_, err = f.svc.SelectArm(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, f.svc.RemoveBandit(ctx, created.ID), model.ErrNotFound)
	assert.Empty(t, f.svc.ListBandits(ctx).IDs)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Instances.WithLabelValues("bandit")))

	events, err := f.svc.Events(ctx, model.KindBandit, created.ID, 0)
	require.NoError(t, err)
	require.Len(t, events.Events, 3)
	assert.Equal(t, model.OpCreate, events.Events[0].Op)
	assert.Equal(t, model.OpUpdate, events.Events[1].Op)
	require.NotNil(t, events.Events[1].Arm)
	assert.Equal(t, 1, *events.Events[1].Arm)
	assert.Equal(t, model.OpRemove, events.Events[2].Op)
}

func TestCreateBanditRespectsSizeLimits(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	svc, err := New(Options{
		Bandits:            bandit.NewRegistry(),
		Optimizers:         tuning.NewRegistry(),
		Store:              store,
		MaxArms:            4,
		MaxNormalizeWindow: 16,
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyEpsilonGreedy, Param: 0.1, NumArms: 5})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	_, err = svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyEpsilonGreedy, Param: 0.1, NumArms: 2, NormalizeWindow: 17})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	_, err = svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyEpsilonGreedy, Param: 0.1, NumArms: 4, NormalizeWindow: 16})
	assert.NoError(t, err)
	assert.Len(t, svc.ListBandits(ctx).IDs, 1)
}

func TestBanditErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBandit(ctx, CreateBanditRequest{Strategy: "softmax", NumArms: 3})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	_, err = f.svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyEpsilonGreedy, Param: 0.1, NumArms: 0})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	created, err := f.svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyEpsilonGreedy, Param: 0.1, NumArms: 2})
	require.NoError(t, err)

	_, err = f.svc.UpdateReward(ctx, created.ID, UpdateRewardRequest{Arm: ptr(5), Reward: ptr(1.0)})
	assert.ErrorIs(t, err, model.ErrInvalidArm)
	_, err = f.svc.UpdateReward(ctx, created.ID, UpdateRewardRequest{Reward: ptr(1.0)})
	assert.ErrorIs(t, err, model.ErrInvalidArm)
	_, err = f.svc.UpdateReward(ctx, "bandit-99", UpdateRewardRequest{Arm: ptr(0), Reward: ptr(1.0)})
	assert.ErrorIs(t, err, model.ErrNotFound)

	st, err := f.svc.BanditStats(ctx, created.ID)
	require.NoError(t, err)
	for _, arm := range st.Arms {
		assert.Zero(t, arm.Count)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.OperationsTotal.WithLabelValues("bandit", "create", observability.OutcomeError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.OperationsTotal.WithLabelValues("bandit", "update", observability.OutcomeError)))

	events, err := f.svc.Events(ctx, model.KindBandit, created.ID, 0)
	require.NoError(t, err)
	assert.Len(t, events.Events, 1, "rejected writes are not journaled")
}

func TestOptimizerLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateOptimizer(ctx, CreateOptimizerRequest{X0: ptr(0.0), Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, "optimizer-1", created.ID)

	_, err = f.svc.Observe(ctx, created.ID, ObserveRequest{Reward: ptr(1.0)})
	assert.ErrorIs(t, err, model.ErrNoPendingSuggestion)

	first, err := f.svc.Suggest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.X)
	again, err := f.svc.Suggest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first.X, again.X)

	_, err = f.svc.Observe(ctx, created.ID, ObserveRequest{Reward: ptr(1.0)})
	require.NoError(t, err)

	next, err := f.svc.Suggest(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, abs(next.X), 1e-12)

	st, err := f.svc.OptimizerState(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.HistoryLength)
	require.NotNil(t, st.BestReward)
	assert.Equal(t, 1.0, *st.BestReward)
	assert.True(t, st.Pending)

	hist, err := f.svc.OptimizerHistory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Observation{{X: 0, Reward: 1}}, hist.Observations)

	events, err := f.svc.Events(ctx, model.KindOptimizer, created.ID, 1)
	require.NoError(t, err)
	require.Len(t, events.Events, 1)
	assert.Equal(t, model.OpObserve, events.Events[0].Op)
	require.NotNil(t, events.Events[0].X)
	assert.Equal(t, 0.0, *events.Events[0].X)

	_, err = f.svc.Events(ctx, model.KindBandit, created.ID, 0)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, f.svc.RemoveOptimizer(ctx, created.ID))
	_, err = f.svc.OptimizerState(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreateOptimizerOverridesAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateOptimizer(ctx, CreateOptimizerRequest{X0: ptr(2.0), InitialStep: 0.25})
	require.NoError(t, err)
	st, err := f.svc.OptimizerState(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.25, st.StepSize)
	assert.Equal(t, 2.0, st.BestX)

	_, err = f.svc.CreateOptimizer(ctx, CreateOptimizerRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	_, err = f.svc.CreateOptimizer(ctx, CreateOptimizerRequest{X0: ptr(0.0), Shrink: 3})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	assert.Equal(t, []string{created.ID}, f.svc.ListOptimizers(ctx).IDs)
}

func TestSweepExpiresIdleInstances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyUCB1, Param: 1, NumArms: 2})
	require.NoError(t, err)
	o, err := f.svc.CreateOptimizer(ctx, CreateOptimizerRequest{X0: ptr(0.0)})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.Suggest(ctx, o.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	res := f.svc.Sweep(ctx, 15*time.Minute)
	assert.Equal(t, []string{b.ID}, res.Bandits)
	assert.Empty(t, res.Optimizers)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExpiredTotal.WithLabelValues("bandit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Instances.WithLabelValues("bandit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Instances.WithLabelValues("optimizer")))

	events, err := f.svc.Events(ctx, model.KindBandit, b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.OpExpire, events.Events[len(events.Events)-1].Op)

	assert.Empty(t, f.svc.Sweep(ctx, 0).Optimizers, "non-positive ttl disables eviction")
}

func TestJournalFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.svc.store = failingStore{Store: f.store}
	ctx := context.Background()

	created, err := f.svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyEpsilonGreedy, Param: 0, NumArms: 2})
	require.NoError(t, err)
	_, err = f.svc.UpdateReward(ctx, created.ID, UpdateRewardRequest{Arm: ptr(0), Reward: ptr(0.5)})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.JournalErrorsTotal))
	st, err := f.svc.BanditStats(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Arms[0].Count)
}

func TestConcurrentUpdatesThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateBandit(ctx, CreateBanditRequest{Strategy: bandit.StrategyEpsilonGreedy, Param: 0.5, NumArms: 4})
	require.NoError(t, err)

	const workers, perWorker = 8, 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := f.svc.SelectArm(ctx, created.ID); err != nil {
					t.Errorf("select: %v", err)
					return
				}
				if _, err := f.svc.UpdateReward(ctx, created.ID, UpdateRewardRequest{Arm: ptr(w % 4), Reward: ptr(1.0)}); err != nil {
					t.Errorf("update: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	st, err := f.svc.BanditStats(ctx, created.ID)
	require.NoError(t, err)
	var total uint64
	for _, arm := range st.Arms {
		total += arm.Count
	}
	assert.Equal(t, uint64(workers*perWorker), total)

	events, err := f.svc.Events(ctx, model.KindBandit, created.ID, 0)
	require.NoError(t, err)
	assert.Len(t, events.Events, workers*perWorker+1)
}

func TestStrategiesListsBuiltins(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.svc.Strategies().Strategies, bandit.StrategyEpsilonGreedy)
	assert.Contains(t, f.svc.Strategies().Strategies, bandit.StrategyUCB1)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
