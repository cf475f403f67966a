package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banditd/internal/bandit"
	"banditd/internal/httpapi"
	"banditd/internal/service"
	"banditd/internal/storage"
	"banditd/internal/tuning"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	svc, err := service.New(service.Options{
		Bandits:    bandit.NewRegistry(),
		Optimizers: tuning.NewRegistry(),
		Store:      store,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(httpapi.NewRouter(httpapi.Options{Service: svc, Version: "test"}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestBanditRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateBandit(ctx, BanditConfig{Strategy: "epsilon_greedy", Param: 0, NumArms: 3, Seed: 9})
	require.NoError(t, err)
	assert.Equal(t, "bandit-1", id)

	require.NoError(t, c.UpdateReward(ctx, id, 2, 0.7))
	arm, err := c.SelectArm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, arm)

	st, err := c.BanditStats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "epsilon_greedy", st.Strategy)
	assert.Equal(t, uint64(1), st.Arms[2].Count)
	assert.Equal(t, 1, st.Recent.Count)

	ids, err := c.ListBandits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	events, err := c.BanditEvents(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "update", events[1].Op)

	require.NoError(t, c.RemoveBandit(ctx, id))
	_, err = c.SelectArm(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestBanditErrors(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateBandit(ctx, BanditConfig{Strategy: "epsilon_greedy", Param: 2, NumArms: 2})
	assert.ErrorIs(t, err, ErrInvalid)

	id, err := c.CreateBandit(ctx, BanditConfig{Strategy: "ucb1", Param: 1, NumArms: 2})
	require.NoError(t, err)
	assert.ErrorIs(t, c.UpdateReward(ctx, id, 3, 1), ErrInvalid)
}

func TestOptimizerRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateOptimizer(ctx, OptimizerConfig{X0: 1.5, Seed: 4})
	require.NoError(t, err)

	assert.ErrorIs(t, c.Observe(ctx, id, 1), ErrConflict)

	x, err := c.Suggest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1.5, x)
	require.NoError(t, c.Observe(ctx, id, 2))

	st, err := c.OptimizerState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1.5, st.BestX)
	require.NotNil(t, st.BestReward)
	assert.Equal(t, 2.0, *st.BestReward)

	hist, err := c.OptimizerHistory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []Observation{{X: 1.5, Reward: 2}}, hist)

	events, err := c.OptimizerEvents(ctx, id, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "observe", events[0].Op)

	ids, err := c.ListOptimizers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	require.NoError(t, c.RemoveOptimizer(ctx, id))
	assert.ErrorIs(t, c.RemoveOptimizer(ctx, id), ErrNotFound)
}

func TestHealthAndStrategies(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Version)

	names, err := c.Strategies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"epsilon_greedy", "ucb1"}, names)
}

func TestAPIErrorFallsBackToRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.ListBandits(context.Background())
	assert.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "upstream exploded")
}
