package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vanigatech/vaniga/internal/business"
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/internal/clock"
	"github.com/vanigatech/vaniga/internal/config"
	"github.com/vanigatech/vaniga/internal/customer"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	"github.com/vanigatech/vaniga/internal/ledger"
	ledgerdomain "github.com/vanigatech/vaniga/internal/ledger/domain"
	"github.com/vanigatech/vaniga/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	business.Module,
	customer.Module,
	ledger.Module,
	metrics.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	clock           clock.Clock
	businessSvc     businessdomain.Service
	customerSvc     customerdomain.Service
	transactionSvc  ledgerdomain.Service
	mutationLimiter *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Clock          clock.Clock
	BusinessSvc    businessdomain.Service
	CustomerSvc    customerdomain.Service
	TransactionSvc ledgerdomain.Service
}

func NewServer(p ServerParams) *Server {
	limit := p.Cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 60
	}
	burst := p.Cfg.RateLimitBurst
	if burst <= 0 {
		burst = 10
	}

	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		clock:           p.Clock,
		businessSvc:     p.BusinessSvc,
		customerSvc:     p.CustomerSvc,
		transactionSvc:  p.TransactionSvc,
		mutationLimiter: newRateLimiter(limit, time.Minute, burst),
	}
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	api.POST("/businesses", s.CreateBusiness)

	authed := api.Group("")
	authed.Use(s.BusinessRequired())
	{
		authed.GET("/score", s.GetScore)
		authed.GET("/businesses/me", s.GetBusiness)

		mutate := authed.Group("")
		mutate.Use(s.MutationRateLimit())
		{
			mutate.POST("/transactions", s.CreateTransaction)
			mutate.PUT("/transactions/:id", s.UpdateTransaction)
			mutate.DELETE("/transactions/:id", s.DeleteTransaction)
		}

		authed.GET("/transactions", s.ListTransactions)
		authed.GET("/transactions/stats/dashboard", s.Dashboard)
		authed.GET("/transactions/:id", s.GetTransaction)

		authed.GET("/customers", s.ListCustomers)
		authed.GET("/customers/:name", s.GetCustomer)
		authed.POST("/customers/:name/refresh", s.RefreshCustomer)

		authed.POST("/admin/resync", s.Resync)
	}
}

func RunHTTP(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
