package client

import (
	"context"
	"net/http"
)

func (c *Client) CreateOptimizer(ctx context.Context, cfg OptimizerConfig) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/optimizers", cfg, &out)
	return out.ID, err
}

func (c *Client) ListOptimizers(ctx context.Context) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/optimizers", nil, &out)
	return out.IDs, err
}

func (c *Client) Suggest(ctx context.Context, id string) (float64, error) {
	var out struct {
		X float64 `json:"x"`
	}
	err := c.do(ctx, http.MethodGet, instancePath("optimizers", id, "suggest"), nil, &out)
	return out.X, err
}

func (c *Client) Observe(ctx context.Context, id string, reward float64) error {
	in := struct {
		Reward float64 `json:"reward"`
	}{reward}
	return c.do(ctx, http.MethodPost, instancePath("optimizers", id, "observe"), in, nil)
}

func (c *Client) OptimizerState(ctx context.Context, id string) (OptimizerState, error) {
	var out OptimizerState
	err := c.do(ctx, http.MethodGet, instancePath("optimizers", id, "state"), nil, &out)
	return out, err
}

func (c *Client) OptimizerHistory(ctx context.Context, id string) ([]Observation, error) {
	var out struct {
		Observations []Observation `json:"observations"`
	}
	err := c.do(ctx, http.MethodGet, instancePath("optimizers", id, "history"), nil, &out)
	return out.Observations, err
}

func (c *Client) OptimizerEvents(ctx context.Context, id string, limit int) ([]Event, error) {
	var out struct {
		Events []Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, eventsPath("optimizers", id, limit), nil, &out)
	return out.Events, err
}

func (c *Client) RemoveOptimizer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, instancePath("optimizers", id, ""), nil, nil)
}
