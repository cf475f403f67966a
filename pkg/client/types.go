package client

import "time"

type BanditConfig struct {
	Strategy        string  `json:"strategy"`
	Param           float64 `json:"param"`
	NumArms         int     `json:"num_arms"`
	Seed            int64   `json:"seed,omitempty"`
	NormalizeWindow int     `json:"normalize_window,omitempty"`
}

type ArmStats struct {
	Count    uint64  `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type WindowStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type BanditStats struct {
	Strategy string      `json:"strategy"`
	Arms     []ArmStats  `json:"arms"`
	Recent   WindowStats `json:"recent"`
}

type OptimizerConfig struct {
	X0          float64 `json:"x0"`
	Seed        int64   `json:"seed,omitempty"`
	InitialStep float64 `json:"initial_step,omitempty"`
	MinStep     float64 `json:"min_step,omitempty"`
	Grow        float64 `json:"grow,omitempty"`
	Shrink      float64 `json:"shrink,omitempty"`
}

type OptimizerState struct {
	CurrentX      float64  `json:"current_x"`
	BestX         float64  `json:"best_x"`
	BestReward    *float64 `json:"best_reward"`
	HistoryLength int      `json:"history_length"`
	StepSize      float64  `json:"step_size"`
	Pending       bool     `json:"pending"`
}

type Observation struct {
	X      float64 `json:"x"`
	Reward float64 `json:"reward"`
}

type Event struct {
	Seq        int64     `json:"seq"`
	InstanceID string    `json:"instance_id"`
	Kind       string    `json:"kind"`
	Op         string    `json:"op"`
	Arm        *int      `json:"arm,omitempty"`
	X          *float64  `json:"x,omitempty"`
	Value      float64   `json:"value"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

type TaskStatus struct {
	Name         string `json:"name"`
	Running      bool   `json:"running"`
	RestartCount int    `json:"restart_count"`
	LastError    string `json:"last_error,omitempty"`
	Failed       bool   `json:"failed"`
}

type Health struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Tasks   []TaskStatus `json:"tasks,omitempty"`
}
