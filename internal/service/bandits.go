package service

import (
	"context"

	"go.uber.org/zap"

	"banditd/internal/bandit"
	"banditd/internal/model"
)

func (s *Service) Strategies() StrategiesResponse {
	return StrategiesResponse{Strategies: bandit.Strategies()}
}

func (s *Service) CreateBandit(ctx context.Context, req CreateBanditRequest) (CreateResponse, error) {
	var out CreateResponse
	err := s.instrument(ctx, model.KindBandit, "create", "", func(ctx context.Context) error {
		id, err := s.bandits.Create(bandit.Config{
			Strategy:           req.Strategy,
			Param:              req.Param,
			NumArms:            req.NumArms,
			Seed:               req.Seed,
			NormalizeWindow:    req.NormalizeWindow,
			TrackerWindow:      s.trackerWindow,
			MaxArms:            s.maxArms,
			MaxNormalizeWindow: s.maxNormalizeWindow,
		})
		if err != nil {
			return err
		}
		out.ID = id
		ev := s.event(model.KindBandit, id, model.OpCreate)
		ev.Value = req.Param
		ev.Detail = req.Strategy
		s.record(ctx, ev)
		return nil
	})
	if err == nil {
		s.log.Info("bandit created",
			zap.String("id", out.ID), zap.String("strategy", req.Strategy), zap.Int("arms", req.NumArms))
		s.SampleGauges()
	}
	return out, err
}

func (s *Service) ListBandits(_ context.Context) ListResponse {
	return ListResponse{IDs: s.bandits.IDs()}
}

func (s *Service) SelectArm(ctx context.Context, id string) (SelectResponse, error) {
	var out SelectResponse
	err := s.instrument(ctx, model.KindBandit, "select", id, func(context.Context) error {
		arm, err := s.bandits.Select(id)
		out.Arm = arm
		return err
	})
	if err == nil {
		s.log.Debug("arm selected", zap.String("id", id), zap.Int("arm", out.Arm))
	}
	return out, err
}

func (s *Service) UpdateReward(ctx context.Context, id string, req UpdateRewardRequest) (StatusResponse, error) {
	err := s.instrument(ctx, model.KindBandit, "update", id, func(ctx context.Context) error {
		if req.Arm == nil {
			return model.ErrInvalidArm
		}
		if req.Reward == nil {
			return model.ErrInvalidValue
		}
		if err := s.bandits.Update(id, *req.Arm, *req.Reward); err != nil {
			return err
		}
		ev := s.event(model.KindBandit, id, model.OpUpdate)
		arm := *req.Arm
		ev.Arm = &arm
		ev.Value = *req.Reward
		s.record(ctx, ev)
		return nil
	})
	if err != nil {
		return StatusResponse{}, err
	}
	s.log.Debug("reward recorded", zap.String("id", id), zap.Int("arm", *req.Arm), zap.Float64("reward", *req.Reward))
	return StatusResponse{Status: "ok"}, nil
}

func (s *Service) BanditStats(ctx context.Context, id string) (model.BanditStats, error) {
	var out model.BanditStats
	err := s.instrument(ctx, model.KindBandit, "stats", id, func(context.Context) error {
		var err error
		out, err = s.bandits.Stats(id)
		return err
	})
	return out, err
}

func (s *Service) RemoveBandit(ctx context.Context, id string) error {
	err := s.instrument(ctx, model.KindBandit, "remove", id, func(ctx context.Context) error {
		if err := s.bandits.Remove(id); err != nil {
			return err
		}
		s.record(ctx, s.event(model.KindBandit, id, model.OpRemove))
		return nil
	})
	if err == nil {
		s.log.Info("bandit removed", zap.String("id", id))
		s.SampleGauges()
	}
	return err
}
