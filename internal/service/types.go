package service

import "banditd/internal/model"

type CreateBanditRequest struct {
	Strategy        string  `json:"strategy" binding:"required"`
	Param           float64 `json:"param"`
	NumArms         int     `json:"num_arms" binding:"required"`
	Seed            int64   `json:"seed,omitempty"`
	NormalizeWindow int     `json:"normalize_window,omitempty"`
}

type UpdateRewardRequest struct {
	Arm    *int     `json:"arm" binding:"required"`
	Reward *float64 `json:"reward" binding:"required"`
}

// CreateOptimizerRequest leaves step tuning at the configured defaults when
// the optional fields are zero.
type CreateOptimizerRequest struct {
	X0          *float64 `json:"x0" binding:"required"`
	Seed        int64    `json:"seed,omitempty"`
	InitialStep float64  `json:"initial_step,omitempty"`
	MinStep     float64  `json:"min_step,omitempty"`
	Grow        float64  `json:"grow,omitempty"`
	Shrink      float64  `json:"shrink,omitempty"`
}

type ObserveRequest struct {
	Reward *float64 `json:"reward" binding:"required"`
}

type CreateResponse struct {
	ID string `json:"id"`
}

type ListResponse struct {
	IDs []string `json:"ids"`
}

type SelectResponse struct {
	Arm int `json:"arm"`
}

type SuggestResponse struct {
	X float64 `json:"x"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type EventsResponse struct {
	Events []model.Event `json:"events"`
}

type HistoryResponse struct {
	Observations []model.Observation `json:"observations"`
}

type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

type SweepResult struct {
	Bandits    []string `json:"bandits"`
	Optimizers []string `json:"optimizers"`
}
