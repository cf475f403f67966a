// Package httpapi exposes the service façade over HTTP/JSON.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"banditd/internal/model"
	"banditd/internal/observability"
	"banditd/internal/platform"
	"banditd/internal/service"
)

type Options struct {
	Service *service.Service
	Logger  *zap.Logger
	Metrics *observability.Metrics
	// Gatherer backs /metrics; nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
	// Tasks reports background task health on /health when set.
	Tasks   func() []platform.TaskStatus
	Tracing bool
	Version string
}

type healthResponse struct {
	Status  string                `json:"status"`
	Version string                `json:"version,omitempty"`
	Tasks   []platform.TaskStatus `json:"tasks,omitempty"`
}

func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(logger), requestMetrics(opts.Metrics))
	if opts.Tracing {
		router.Use(otelgin.Middleware(observability.ServiceName))
	}

	router.GET("/health", health(opts))
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	svc := opts.Service
	v1 := router.Group("/v1")
	{
		v1.GET("/strategies", listStrategies(svc))

		bandits := v1.Group("/bandits")
		{
			bandits.POST("", createBandit(svc))
			bandits.GET("", listBandits(svc))
			bandits.GET("/:id/select", selectArm(svc))
			bandits.POST("/:id/update", updateReward(svc))
			bandits.GET("/:id/stats", banditStats(svc))
			bandits.GET("/:id/events", events(svc, model.KindBandit))
			bandits.DELETE("/:id", removeBandit(svc))
		}

		optimizers := v1.Group("/optimizers")
		{
			optimizers.POST("", createOptimizer(svc))
			optimizers.GET("", listOptimizers(svc))
			optimizers.GET("/:id/suggest", suggest(svc))
			optimizers.POST("/:id/observe", observe(svc))
			optimizers.GET("/:id/state", optimizerState(svc))
			optimizers.GET("/:id/history", optimizerHistory(svc))
			optimizers.GET("/:id/events", events(svc, model.KindOptimizer))
			optimizers.DELETE("/:id", removeOptimizer(svc))
		}
	}
	return router
}

func health(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := healthResponse{Status: "ok", Version: opts.Version}
		status := http.StatusOK
		if opts.Tasks != nil {
			resp.Tasks = opts.Tasks()
			for _, task := range resp.Tasks {
				if task.Failed {
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
				}
			}
		}
		c.JSON(status, resp)
	}
}
