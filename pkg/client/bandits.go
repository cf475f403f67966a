package client

import (
	"context"
	"net/http"
)

func (c *Client) CreateBandit(ctx context.Context, cfg BanditConfig) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/bandits", cfg, &out)
	return out.ID, err
}

func (c *Client) ListBandits(ctx context.Context) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/bandits", nil, &out)
	return out.IDs, err
}

func (c *Client) SelectArm(ctx context.Context, id string) (int, error) {
	var out struct {
		Arm int `json:"arm"`
	}
	err := c.do(ctx, http.MethodGet, instancePath("bandits", id, "select"), nil, &out)
	return out.Arm, err
}

func (c *Client) UpdateReward(ctx context.Context, id string, arm int, reward float64) error {
	in := struct {
		Arm    int     `json:"arm"`
		Reward float64 `json:"reward"`
	}{arm, reward}
	return c.do(ctx, http.MethodPost, instancePath("bandits", id, "update"), in, nil)
}

func (c *Client) BanditStats(ctx context.Context, id string) (BanditStats, error) {
	var out BanditStats
	err := c.do(ctx, http.MethodGet, instancePath("bandits", id, "stats"), nil, &out)
	return out, err
}

func (c *Client) BanditEvents(ctx context.Context, id string, limit int) ([]Event, error) {
	var out struct {
		Events []Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, eventsPath("bandits", id, limit), nil, &out)
	return out.Events, err
}

func (c *Client) RemoveBandit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, instancePath("bandits", id, ""), nil, nil)
}
