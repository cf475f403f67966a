package service

import (
	"context"

	"go.uber.org/zap"

	"banditd/internal/model"
	"banditd/internal/tuning"
)

func (s *Service) CreateOptimizer(ctx context.Context, req CreateOptimizerRequest) (CreateResponse, error) {
	var out CreateResponse
	err := s.instrument(ctx, model.KindOptimizer, "create", "", func(ctx context.Context) error {
		if req.X0 == nil {
			return model.ErrInvalidConfig
		}
		cfg := s.optimizerDefaults
		cfg.X0 = *req.X0
		cfg.Seed = req.Seed
		if req.InitialStep != 0 {
			cfg.InitialStep = req.InitialStep
		}
		if req.MinStep != 0 {
			cfg.MinStep = req.MinStep
		}
		if req.Grow != 0 {
			cfg.Grow = req.Grow
		}
		if req.Shrink != 0 {
			cfg.Shrink = req.Shrink
		}
		id, err := s.optimizers.Create(cfg)
		if err != nil {
			return err
		}
		out.ID = id
		ev := s.event(model.KindOptimizer, id, model.OpCreate)
		x0 := cfg.X0
		ev.X = &x0
		s.record(ctx, ev)
		return nil
	})
	if err == nil {
		s.log.Info("optimizer created", zap.String("id", out.ID), zap.Float64("x0", *req.X0))
		s.SampleGauges()
	}
	return out, err
}

func (s *Service) ListOptimizers(_ context.Context) ListResponse {
	return ListResponse{IDs: s.optimizers.IDs()}
}

func (s *Service) Suggest(ctx context.Context, id string) (SuggestResponse, error) {
	var out SuggestResponse
	err := s.instrument(ctx, model.KindOptimizer, "suggest", id, func(context.Context) error {
		x, err := s.optimizers.Suggest(id)
		out.X = x
		return err
	})
	if err == nil {
		s.log.Debug("point suggested", zap.String("id", id), zap.Float64("x", out.X))
	}
	return out, err
}

func (s *Service) Observe(ctx context.Context, id string, req ObserveRequest) (StatusResponse, error) {
	err := s.instrument(ctx, model.KindOptimizer, "observe", id, func(ctx context.Context) error {
		if req.Reward == nil {
			return model.ErrInvalidValue
		}
		x, err := s.optimizers.Observe(id, *req.Reward)
		if err != nil {
			return err
		}
		ev := s.event(model.KindOptimizer, id, model.OpObserve)
		ev.X = &x
		ev.Value = *req.Reward
		s.record(ctx, ev)
		return nil
	})
	if err != nil {
		return StatusResponse{}, err
	}
	s.log.Debug("reward observed", zap.String("id", id), zap.Float64("reward", *req.Reward))
	return StatusResponse{Status: "ok"}, nil
}

func (s *Service) OptimizerState(ctx context.Context, id string) (model.OptimizerState, error) {
	var out model.OptimizerState
	err := s.instrument(ctx, model.KindOptimizer, "state", id, func(context.Context) error {
		var err error
		out, err = s.optimizers.State(id)
		return err
	})
	return out, err
}

func (s *Service) OptimizerHistory(ctx context.Context, id string) (HistoryResponse, error) {
	var out HistoryResponse
	err := s.instrument(ctx, model.KindOptimizer, "history", id, func(context.Context) error {
		obs, err := s.optimizers.History(id)
		out.Observations = obs
		return err
	})
	return out, err
}

func (s *Service) RemoveOptimizer(ctx context.Context, id string) error {
	err := s.instrument(ctx, model.KindOptimizer, "remove", id, func(ctx context.Context) error {
		if err := s.optimizers.Remove(id); err != nil {
			return err
		}
		s.record(ctx, s.event(model.KindOptimizer, id, model.OpRemove))
		return nil
	})
	if err == nil {
		s.log.Info("optimizer removed", zap.String("id", id))
		s.SampleGauges()
	}
	return err
}

// DefaultOptimizerConfig maps step settings onto a tuning.Config template.
func DefaultOptimizerConfig(initialStep, minStep, grow, shrink float64) tuning.Config {
	return tuning.Config{
		InitialStep: initialStep,
		MinStep:     minStep,
		Grow:        grow,
		Shrink:      shrink,
	}
}
