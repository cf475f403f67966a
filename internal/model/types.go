package model

import "time"

// VersionedRecord captures schema and codec evolution for journaled data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type InstanceKind string

const (
	KindBandit    InstanceKind = "bandit"
	KindOptimizer InstanceKind = "optimizer"
)

// ArmStats is a point-in-time view of one scalar stream.
type ArmStats struct {
	Count    uint64  `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// WindowStats summarizes the most recent rewards seen by an instance.
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

type Observation struct {
	X      float64 `json:"x"`
	Reward float64 `json:"reward"`
}

type OptimizerState struct {
	CurrentX      float64  `json:"current_x"`
	BestX         float64  `json:"best_x"`
	BestReward    *float64 `json:"best_reward"`
	HistoryLength int      `json:"history_length"`
	StepSize      float64  `json:"step_size"`
	Pending       bool     `json:"pending"`
}

type EventOp string

const (
	OpCreate  EventOp = "create"
	OpUpdate  EventOp = "update"
	OpObserve EventOp = "observe"
	OpRemove  EventOp = "remove"
	OpExpire  EventOp = "expire"
)

// Event is one accepted write against an instance. Events are journaled for
// offline analysis only and never replayed.
type Event struct {
	VersionedRecord
	Seq        int64        `json:"seq"`
	InstanceID string       `json:"instance_id"`
	Kind       InstanceKind `json:"kind"`
	Op         EventOp      `json:"op"`
	Arm        *int         `json:"arm,omitempty"`
	X          *float64     `json:"x,omitempty"`
	Value      float64      `json:"value"`
	Detail     string       `json:"detail,omitempty"`
	At         time.Time    `json:"at"`
}
