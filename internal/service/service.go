// Package service is the request/response façade over the bandit and
// optimizer registries. It is transport-agnostic; every accepted write is
// journaled after the instance lock has been released.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"banditd/internal/bandit"
	"banditd/internal/logging"
	"banditd/internal/model"
	"banditd/internal/observability"
	"banditd/internal/storage"
	"banditd/internal/tuning"
)

const tracerName = "banditd/internal/service"

type Options struct {
	Bandits    *bandit.Registry
	Optimizers *tuning.Registry
	Store      storage.Store
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// TrackerWindow sizes each bandit's recent-reward summary.
	TrackerWindow int
	// MaxArms and MaxNormalizeWindow bound bandit sizes accepted on create.
	MaxArms            int
	MaxNormalizeWindow int
	// OptimizerDefaults supplies step tuning for optimizers created without
	// explicit values.
	OptimizerDefaults tuning.Config
	Now               func() time.Time
}

type Service struct {
	bandits    *bandit.Registry
	optimizers *tuning.Registry
	store      storage.Store
	metrics    *observability.Metrics
	log        *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time

	trackerWindow      int
	maxArms            int
	maxNormalizeWindow int
	optimizerDefaults  tuning.Config
}

func New(opts Options) (*Service, error) {
	if opts.Bandits == nil || opts.Optimizers == nil {
		return nil, errors.New("service requires bandit and optimizer registries")
	}
	if opts.Store == nil {
		return nil, errors.New("service requires a journal store")
	}
	s := &Service{
		bandits:            opts.Bandits,
		optimizers:         opts.Optimizers,
		store:              opts.Store,
		metrics:            opts.Metrics,
		log:                opts.Logger,
		tracer:             otel.Tracer(tracerName),
		now:                opts.Now,
		trackerWindow:      opts.TrackerWindow,
		maxArms:            opts.MaxArms,
		maxNormalizeWindow: opts.MaxNormalizeWindow,
		optimizerDefaults:  opts.OptimizerDefaults,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// instrument wraps one façade call in a span, a latency observation and an
// outcome counter.
func (s *Service) instrument(ctx context.Context, kind model.InstanceKind, op, id string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("%s.%s", kind, op),
		trace.WithAttributes(
			attribute.String("instance.kind", string(kind)),
			attribute.String("instance.id", id),
		))
	defer span.End()

	start := s.now()
	err := fn(ctx)
	s.metrics.ObserveOperation(string(kind), op, s.now().Sub(start).Seconds(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Debug("operation rejected",
			zap.String("kind", string(kind)), zap.String("op", op), zap.String("id", id), zap.Error(err))
	}
	return err
}

// record journals an accepted write. The operation has already been applied,
// so a journal failure is logged and counted but not returned.
func (s *Service) record(ctx context.Context, ev model.Event) {
	if _, err := s.store.AppendEvent(ctx, ev); err != nil {
		s.metrics.JournalError()
		s.log.Warn("journal append failed",
			zap.String("id", ev.InstanceID), zap.String("op", string(ev.Op)), zap.Error(err))
	}
}

func (s *Service) event(kind model.InstanceKind, id string, op model.EventOp) model.Event {
	return storage.NewEvent(kind, id, op, s.now())
}

// Events returns up to limit journaled events for id, oldest first. Events
// outlive their instance, so a removed id can still be inspected.
func (s *Service) Events(ctx context.Context, kind model.InstanceKind, id string, limit int) (EventsResponse, error) {
	var out EventsResponse
	err := s.instrument(ctx, kind, "events", id, func(ctx context.Context) error {
		events, err := s.store.Events(ctx, id, limit)
		if err != nil {
			return err
		}
		if len(events) == 0 || events[0].Kind != kind {
			return fmt.Errorf("%w: no events for %q", model.ErrNotFound, id)
		}
		out.Events = events
		return nil
	})
	return out, err
}

// Sweep removes instances idle for longer than maxIdle. A non-positive
// maxIdle disables eviction.
func (s *Service) Sweep(ctx context.Context, maxIdle time.Duration) SweepResult {
	res := SweepResult{
		Bandits:    s.bandits.Sweep(maxIdle),
		Optimizers: s.optimizers.Sweep(maxIdle),
	}
	for _, id := range res.Bandits {
		s.record(ctx, s.event(model.KindBandit, id, model.OpExpire))
	}
	for _, id := range res.Optimizers {
		s.record(ctx, s.event(model.KindOptimizer, id, model.OpExpire))
	}
	s.metrics.AddExpired(string(model.KindBandit), len(res.Bandits))
	s.metrics.AddExpired(string(model.KindOptimizer), len(res.Optimizers))
	if n := len(res.Bandits) + len(res.Optimizers); n > 0 {
		s.log.Info("expired idle instances",
			zap.Strings("bandits", res.Bandits), zap.Strings("optimizers", res.Optimizers))
	} else {
		if ce := s.log.Check(zapcore.Level(-logging.TRACE), "idle sweep found nothing"); ce != nil {
			ce.Write()
		}
	}
	s.SampleGauges()
	return res
}

// SampleGauges publishes the live instance counts.
func (s *Service) SampleGauges() {
	s.metrics.SetInstances(string(model.KindBandit), s.bandits.Len())
	s.metrics.SetInstances(string(model.KindOptimizer), s.optimizers.Len())
}
