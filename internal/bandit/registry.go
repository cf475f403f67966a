package bandit

import (
	"time"

	"banditd/internal/model"
	"banditd/internal/registry"
)

const IDPrefix = "bandit"

// Registry owns many independent Bandit instances. Operations on different
// identifiers never block each other.
type Registry struct {
	entries *registry.Registry[*Bandit]
}

func NewRegistry(opts ...registry.Option[*Bandit]) *Registry {
	return &Registry{entries: registry.New[*Bandit](IDPrefix, opts...)}
}

func (r *Registry) Create(cfg Config) (string, error) {
	return r.entries.Create(func() (*Bandit, error) { return New(cfg) })
}

// With runs fn while holding the instance lock for id.
func (r *Registry) With(id string, fn func(*Bandit) error) error {
	return r.entries.With(id, fn)
}

func (r *Registry) Select(id string) (int, error) {
	var arm int
	err := r.entries.With(id, func(b *Bandit) error {
		arm = b.Select()
		return nil
	})
	return arm, err
}

func (r *Registry) Update(id string, arm int, reward float64) error {
	return r.entries.With(id, func(b *Bandit) error {
		return b.Update(arm, reward)
	})
}

func (r *Registry) Stats(id string) (model.BanditStats, error) {
	var out model.BanditStats
	err := r.entries.With(id, func(b *Bandit) error {
		out = b.Stats()
		return nil
	})
	return out, err
}

func (r *Registry) Remove(id string) error { return r.entries.Remove(id) }

func (r *Registry) Len() int { return r.entries.Len() }

func (r *Registry) IDs() []string { return r.entries.IDs() }

func (r *Registry) Sweep(maxIdle time.Duration) []string { return r.entries.Sweep(maxIdle) }
