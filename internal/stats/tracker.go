package stats

import "banditd/internal/model"

// RewardTracker keeps the most recent rewards in a fixed-size ring.
type RewardTracker struct {
	values []float64
	next   int
	full   bool
}

func NewRewardTracker(window int) *RewardTracker {
	if window <= 0 {
		window = 1
	}
	return &RewardTracker{values: make([]float64, window)}
}

func (t *RewardTracker) Update(reward float64) {
	t.values[t.next] = reward
	t.next++
	if t.next == len(t.values) {
		t.next = 0
		t.full = true
	}
}

func (t *RewardTracker) Count() int {
	if t.full {
		return len(t.values)
	}
	return t.next
}

// Values returns the stored rewards, oldest first.
func (t *RewardTracker) Values() []float64 {
	if !t.full {
		return append([]float64(nil), t.values[:t.next]...)
	}
	out := make([]float64, 0, len(t.values))
	out = append(out, t.values[t.next:]...)
	return append(out, t.values[:t.next]...)
}

// Summary reports zeros for an empty window.
func (t *RewardTracker) Summary() model.WindowStats {
	n := t.Count()
	if n == 0 {
		return model.WindowStats{}
	}
	window := t.values[:n]
	out := model.WindowStats{Count: n, Min: window[0], Max: window[0]}
	sum := 0.0
	for _, v := range window {
		sum += v
		if v < out.Min {
			out.Min = v
		}
		if v > out.Max {
			out.Max = v
		}
	}
	out.Mean = sum / float64(n)
	return out
}
