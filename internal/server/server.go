package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/cicilan/internal/audit"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	"github.com/smallbiznis/cicilan/internal/auth"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/auth/session"
	"github.com/smallbiznis/cicilan/internal/authorization"
	"github.com/smallbiznis/cicilan/internal/cache"
	"github.com/smallbiznis/cicilan/internal/catalog"
	catalogdomain "github.com/smallbiznis/cicilan/internal/catalog/domain"
	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/smallbiznis/cicilan/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/cicilan/internal/dashboard/domain"
	"github.com/smallbiznis/cicilan/internal/observability"
	obslogger "github.com/smallbiznis/cicilan/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cicilan/internal/observability/metrics"
	obstracing "github.com/smallbiznis/cicilan/internal/observability/tracing"
	"github.com/smallbiznis/cicilan/internal/payment"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
	"github.com/smallbiznis/cicilan/internal/paymentmethod"
	paymentmethoddomain "github.com/smallbiznis/cicilan/internal/paymentmethod/domain"
	"github.com/smallbiznis/cicilan/internal/providers"
	"github.com/smallbiznis/cicilan/internal/providers/email"
	"github.com/smallbiznis/cicilan/internal/providers/storage"
	"github.com/smallbiznis/cicilan/internal/ratelimit"
	"github.com/smallbiznis/cicilan/internal/transaction"
	transactiondomain "github.com/smallbiznis/cicilan/internal/transaction/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	providers.Module,
	ratelimit.Module,
	cache.Module,
	catalog.Module,
	paymentmethod.Module,
	transaction.Module,
	payment.Module,
	dashboard.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if obsCfg.Debug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type imageUploader interface {
	UploadImage(ctx context.Context, scope string, r io.Reader) (string, error)
}

type Server struct {
	engine           *gin.Engine
	cfg              config.Config
	log              *zap.Logger
	authsvc          authdomain.Service
	sessions         *session.Manager
	authzSvc         authorization.Service
	auditSvc         auditdomain.Service
	catalogSvc       catalogdomain.Service
	paymentMethodSvc paymentmethoddomain.Service
	transactionSvc   transactiondomain.Service
	paymentSvc       paymentdomain.Service
	dashboardSvc     dashboarddomain.Service
	uploader         imageUploader
	mailer           email.Sender
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	Log              *zap.Logger
	Authsvc          authdomain.Service
	Sessions         *session.Manager
	AuthzSvc         authorization.Service
	AuditSvc         auditdomain.Service
	CatalogSvc       catalogdomain.Service
	PaymentMethodSvc paymentmethoddomain.Service
	TransactionSvc   transactiondomain.Service
	PaymentSvc       paymentdomain.Service
	DashboardSvc     dashboarddomain.Service
	Uploader         *storage.Uploader `optional:"true"`
	Mailer           email.Sender      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		log:              p.Log.Named("http.server"),
		authsvc:          p.Authsvc,
		sessions:         p.Sessions,
		authzSvc:         p.AuthzSvc,
		auditSvc:         p.AuditSvc,
		catalogSvc:       p.CatalogSvc,
		paymentMethodSvc: p.PaymentMethodSvc,
		transactionSvc:   p.TransactionSvc,
		paymentSvc:       p.PaymentSvc,
		dashboardSvc:     p.DashboardSvc,
		mailer:           p.Mailer,
	}
	if p.Uploader != nil {
		svc.uploader = p.Uploader
	}
	if svc.mailer == nil {
		svc.mailer = email.NoOpSender{}
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	admin := s.RequireRole(usercontext.RoleAdmin)

	// -------- Transactions --------
	api.POST("/transactions", s.authorize(authorization.ObjectTransaction, authorization.ActionCreate), s.CreateTransaction)
	api.GET("/transactions", s.authorize(authorization.ObjectTransaction, authorization.ActionView), s.ListTransactions)
	api.GET("/transactions/:id", s.authorize(authorization.ObjectTransaction, authorization.ActionView), s.GetTransaction)
	api.DELETE("/transactions/:id", admin, s.DeleteTransaction)

	// -------- Payments --------
	api.POST("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionCreate), s.SubmitPayment)
	api.GET("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
	api.GET("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPayment)
	api.GET("/payments/:id/receipt", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPaymentReceipt)
	api.POST("/payments/:id/confirm", admin, s.ConfirmPayment)
	api.POST("/payments/:id/reject", admin, s.RejectPayment)

	// -------- Catalog --------
	api.GET("/packages", s.authorize(authorization.ObjectPackage, authorization.ActionView), s.ListPackages)
	api.GET("/packages/:id", s.authorize(authorization.ObjectPackage, authorization.ActionView), s.GetPackage)
	api.POST("/packages", admin, s.CreatePackage)
	api.PUT("/packages/:id", admin, s.UpdatePackage)
	api.DELETE("/packages/:id", admin, s.DeletePackage)

	api.GET("/package-types", s.authorize(authorization.ObjectPackageType, authorization.ActionView), s.ListPackageTypes)
	api.GET("/package-types/:id", s.authorize(authorization.ObjectPackageType, authorization.ActionView), s.GetPackageType)
	api.POST("/package-types", admin, s.CreatePackageType)
	api.PUT("/package-types/:id", admin, s.UpdatePackageType)
	api.DELETE("/package-types/:id", admin, s.DeletePackageType)

	api.GET("/payment-methods", s.authorize(authorization.ObjectPaymentMethod, authorization.ActionView), s.ListPaymentMethods)
	api.GET("/payment-methods/:id", s.authorize(authorization.ObjectPaymentMethod, authorization.ActionView), s.GetPaymentMethod)
	api.POST("/payment-methods", admin, s.CreatePaymentMethod)
	api.PUT("/payment-methods/:id", admin, s.UpdatePaymentMethod)
	api.DELETE("/payment-methods/:id", admin, s.DeletePaymentMethod)

	// -------- Members --------
	api.GET("/users", admin, s.ListUsers)
	api.POST("/users", admin, s.CreateUser)
	api.GET("/users/:id", admin, s.GetUser)
	api.PUT("/users/:id", admin, s.UpdateUser)
	api.DELETE("/users/:id", admin, s.DeleteUser)
	api.POST("/users/:id/reset-password", admin, s.ResetUserPassword)
	api.POST("/users/:id/change-password", s.ChangeUserPassword)

	// -------- Dashboard --------
	api.GET("/stats", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.GetStats)
	api.GET("/search", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.Search)
	api.GET("/reports/summary", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.GetReportSummary)

	api.POST("/upload", s.authorize(authorization.ObjectUpload, authorization.ActionCreate), s.Upload)
	api.GET("/audit-logs", admin, s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
