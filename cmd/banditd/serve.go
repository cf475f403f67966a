package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"banditd/internal/bandit"
	"banditd/internal/config"
	"banditd/internal/httpapi"
	"banditd/internal/logging"
	"banditd/internal/observability"
	"banditd/internal/platform"
	"banditd/internal/service"
	"banditd/internal/storage"
	"banditd/internal/tuning"
)

const gaugeInterval = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, os.Stderr)
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides server.addr")
	cmd.Flags().String("log-level", "", "log level: default|verbose|debug|trace|info|warn|error")
	cmd.Flags().String("store", "", "journal backend: memory|sqlite")
	return cmd
}

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    storage.Store
	svc      *service.Service
	router   *gin.Engine
	shutdown []func(context.Context) error
}

// newApp wires every component of a server process. Registries are created
// here and injected; nothing is held in package state.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, traceOut io.Writer, tasks func() []platform.TaskStatus) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.Tracing.Enabled {
		stopTracer, err := observability.InitTracer(traceOut, version)
		if err != nil {
			return nil, err
		}
		a.shutdown = append(a.shutdown, stopTracer)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	store, err := storage.NewStore(cfg.Store.Kind, cfg.Store.SQLitePath,
		storage.WithMaxEvents(cfg.Store.MemoryMaxEvents),
		storage.WithMaxInstances(cfg.Store.MemoryMaxInstances))
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, fmt.Errorf("init %s store: %w", cfg.Store.Kind, err)
	}
	a.store = store
	a.shutdown = append(a.shutdown, func(context.Context) error { return storage.CloseIfSupported(store) })

	svc, err := service.New(service.Options{
		Bandits:            bandit.NewRegistry(),
		Optimizers:         tuning.NewRegistry(),
		Store:              store,
		Metrics:            metrics,
		Logger:             logger.Named("service"),
		TrackerWindow:      cfg.Bandit.TrackerWindow,
		MaxArms:            cfg.Bandit.MaxArms,
		MaxNormalizeWindow: cfg.Bandit.MaxNormalizeWindow,
		OptimizerDefaults: service.DefaultOptimizerConfig(
			cfg.Optimizer.InitialStep, cfg.Optimizer.MinStep, cfg.Optimizer.Grow, cfg.Optimizer.Shrink),
	})
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	a.svc = svc

	gin.SetMode(cfg.Server.Mode)
	a.router = httpapi.NewRouter(httpapi.Options{
		Service:  svc,
		Logger:   logger.Named("http"),
		Metrics:  metrics,
		Gatherer: reg,
		Tasks:    tasks,
		Tracing:  cfg.Tracing.Enabled,
		Version:  version,
	})
	return a, nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, a.shutdown[i](ctx))
	}
	a.shutdown = nil
	return errors.Join(errs...)
}

func runServe(ctx context.Context, cfg config.Config, traceOut io.Writer) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	supervisor := platform.NewSupervisor(platform.Policy{MaxRestarts: 5}, platform.Hooks{
		OnRestart: func(name string, err error, restarts int) {
			logger.Warn("restarting task", zap.String("task", name), zap.Int("restarts", restarts), zap.Error(err))
		},
		OnFailure: func(name string, err error, restarts int) {
			logger.Error("task failed permanently", zap.String("task", name), zap.Int("restarts", restarts), zap.Error(err))
		},
	})

	a, err := newApp(ctx, cfg, logger, traceOut, supervisor.Status)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.close(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range a.tasks() {
		if err := supervisor.Start(gctx, spec); err != nil {
			supervisor.StopAll()
			return err
		}
	}
	logger.Info("banditd started",
		zap.String("addr", cfg.Server.Addr), zap.String("store", cfg.Store.Kind), zap.Strings("tasks", supervisor.Tasks()))

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-supervisor.Failures():
			return err
		}
	})
	err = g.Wait()
	supervisor.StopAll()
	logger.Info("banditd stopped")
	return err
}

func (a *app) tasks() []platform.TaskSpec {
	specs := []platform.TaskSpec{
		{
			Name:    "http",
			Restart: platform.RestartTransient,
			Run:     serveHTTP(a.cfg.Server.Addr, a.router, a.cfg.Server.ShutdownTimeout, a.logger),
		},
		{
			Name: "gauges",
			Run: platform.Every(gaugeInterval, func(context.Context) error {
				a.svc.SampleGauges()
				return nil
			}),
		},
	}
	if ttl := a.cfg.Registry.IdleTTL; ttl > 0 {
		specs = append(specs, platform.TaskSpec{
			Name: "sweeper",
			Run: platform.Every(a.cfg.Registry.SweepInterval, func(ctx context.Context) error {
				a.svc.Sweep(ctx, ttl)
				return nil
			}),
		})
	}
	return specs
}

func serveHTTP(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		logger.Info("http server listening", zap.String("addr", addr))

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	}
}
