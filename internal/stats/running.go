package stats

import (
	"fmt"
	"math"

	"banditd/internal/model"
)

// RunningStat accumulates count, mean and variance of a scalar stream with
// Welford's update. The zero value is ready to use. It is not safe for
// concurrent use; owners serialize access.
type RunningStat struct {
	count uint64
	mean  float64
	m2    float64
	min   float64
	max   float64
}

func (s *RunningStat) Update(value float64) error {
	if !IsFinite(value) {
		return fmt.Errorf("%w: %v", model.ErrInvalidValue, value)
	}
	s.count++
	if s.count == 1 {
		s.min, s.max = value, value
	} else {
		s.min = math.Min(s.min, value)
		s.max = math.Max(s.max, value)
	}
	delta := value - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (value - s.mean)
	return nil
}

func (s *RunningStat) Count() uint64 { return s.count }

func (s *RunningStat) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.mean
}

// Variance is the population variance; it is 0 until two values are seen.
func (s *RunningStat) Variance() float64 {
	if s.count < 2 {
		return 0
	}
	return s.m2 / float64(s.count)
}

func (s *RunningStat) Snapshot() model.ArmStats {
	return model.ArmStats{
		Count:    s.count,
		Mean:     s.Mean(),
		Variance: s.Variance(),
		Min:      s.min,
		Max:      s.max,
	}
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
