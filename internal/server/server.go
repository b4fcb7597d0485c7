package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/brpag/gateway/internal/config"
	"github.com/brpag/gateway/internal/observability/logger"
	"github.com/brpag/gateway/internal/observability/metrics"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	PaymentSvc paymentdomain.Service
	Metrics    *metrics.HTTPMetrics `optional:"true"`
}

// Server owns the HTTP surface of the gateway.
type Server struct {
	cfg        config.Config
	log        *zap.Logger
	db         *gorm.DB
	paymentSvc paymentdomain.Service
	metrics    *metrics.HTTPMetrics
	limiter    *rateLimiter
}

func NewServer(p Params) *Server {
	limit := p.Config.RateLimit.Requests
	window := p.Config.RateLimit.Window
	var limiter *rateLimiter
	if limit > 0 && window > 0 {
		limiter = newRateLimiter(limit, window)
	}
	return &Server{
		cfg:        p.Config,
		log:        p.Log.Named("server"),
		db:         p.DB,
		paymentSvc: p.PaymentSvc,
		metrics:    p.Metrics,
		limiter:    limiter,
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func (s *Server) NewEngine() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	if s.metrics != nil {
		engine.Use(s.metrics.GinMiddleware())
	}

	s.registerRoutes(engine)
	return engine
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/payments/webhook", s.PaymentWebhook)

	api := engine.Group("/api/v1")
	api.POST("/payments", s.RateLimited(), s.CreatePayment)
	api.GET("/payments/:id", s.GetPayment)
	api.GET("/payments/:id/status", s.GetPaymentStatus)
	api.GET("/payments/:id/bankslip", s.GetBankSlip)
	api.GET("/payments/:id/pix", s.GetPixQRCode)
}

// @Summary      Health Check
// @Description  Reports process and database health
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the application lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	engine := s.NewEngine()
	srv := &http.Server{
		Addr:    s.cfg.HTTP.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
