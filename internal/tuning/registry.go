package tuning

import (
	"time"

	"banditd/internal/model"
	"banditd/internal/registry"
)

const IDPrefix = "optimizer"

// Registry owns many independent Optimizer instances.
type Registry struct {
	entries *registry.Registry[*Optimizer]
}

func NewRegistry(opts ...registry.Option[*Optimizer]) *Registry {
	return &Registry{entries: registry.New[*Optimizer](IDPrefix, opts...)}
}

func (r *Registry) Create(cfg Config) (string, error) {
	return r.entries.Create(func() (*Optimizer, error) { return New(cfg) })
}

func (r *Registry) With(id string, fn func(*Optimizer) error) error {
	return r.entries.With(id, fn)
}

func (r *Registry) Suggest(id string) (float64, error) {
	var x float64
	err := r.entries.With(id, func(o *Optimizer) error {
		x = o.Suggest()
		return nil
	})
	return x, err
}

// Observe returns the x the reward was recorded against.
func (r *Registry) Observe(id string, reward float64) (float64, error) {
	var x float64
	err := r.entries.With(id, func(o *Optimizer) error {
		x = o.currentX
		return o.Observe(reward)
	})
	return x, err
}

func (r *Registry) State(id string) (model.OptimizerState, error) {
	var st model.OptimizerState
	err := r.entries.With(id, func(o *Optimizer) error {
		st = o.State()
		return nil
	})
	return st, err
}

func (r *Registry) History(id string) ([]model.Observation, error) {
	var out []model.Observation
	err := r.entries.With(id, func(o *Optimizer) error {
		out = o.History()
		return nil
	})
	return out, err
}

func (r *Registry) Remove(id string) error { return r.entries.Remove(id) }

func (r *Registry) Len() int { return r.entries.Len() }

func (r *Registry) IDs() []string { return r.entries.IDs() }

func (r *Registry) Sweep(maxIdle time.Duration) []string { return r.entries.Sweep(maxIdle) }
