package api

import (
	"regexp"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	_ "github.com/d60-Lab/tailorshop/docs"
	"github.com/d60-Lab/tailorshop/internal/api/handler"
	"github.com/d60-Lab/tailorshop/internal/api/middleware"
	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/internal/service"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// NewRouter assembles the gin engine: tracing, compression, error reporting,
// then the versioned API with per-group role guards. The webhook and auth
// endpoints sit outside the JWT gate behind a rate limit.
func NewRouter(mode string, h *handler.Handler, users *service.UserService, sentryEnabled bool) *gin.Engine {
	gin.SetMode(mode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("tailorshop"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if sentryEnabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")

	public := v1.Group("")
	public.Use(middleware.RateLimit(rate.Limit(5), 10))
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
		public.POST("/payments/webhook", h.GatewayWebhook)
	}

	authed := v1.Group("")
	authed.Use(middleware.Auth(users))

	staff := authed.Group("")
	staff.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		staff.POST("/customers", h.CreateCustomer)
		staff.GET("/customers", h.ListCustomers)
		staff.GET("/customers/:id", h.GetCustomer)
		staff.POST("/customers/:id/measurements", h.RecordMeasurements)

		staff.POST("/orders", h.CreateOrder)
		staff.POST("/orders/:id/assignments", h.AssignStaff)
		staff.POST("/orders/:id/trial", h.ScheduleTrial)
		staff.POST("/trials/:trial_id/alterations", h.AddAlteration)
		staff.POST("/trials/:trial_id/complete", h.CompleteTrial)
		staff.POST("/alterations/:id/complete", h.CompleteAlteration)

		staff.POST("/fabrics", h.CreateFabric)
		staff.POST("/fabrics/:id/stock-in", h.StockIn)
		staff.POST("/fabrics/:id/stock-out", h.StockOut)
		staff.POST("/fabrics/:id/damage", h.RecordDamage)
		staff.POST("/fabrics/:id/adjust", h.AdjustStock)
		staff.POST("/alerts/:id/resolve", h.ResolveAlert)

		staff.POST("/invoices/:id/gateway-order", h.CreateGatewayOrder)
		staff.POST("/invoices/:id/payments/cash", h.RecordCashPayment)
		staff.POST("/payments/:id/refunds", h.InitiateRefund)

		staff.GET("/reports/dashboard", h.Dashboard)
		staff.GET("/reports/orders.csv", h.ExportOrders)
		staff.GET("/reports/stock-ledger.csv", h.ExportStockLedger)
	}

	// Allocation and transitions are taken by workshop roles too; the
	// transition policy decides per edge.
	workshop := authed.Group("")
	workshop.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff,
		model.RoleTailor, model.RoleDesigner, model.RoleDelivery))
	{
		workshop.GET("/orders", h.ListOrders)
		workshop.GET("/orders/:id", h.GetOrder)
		workshop.GET("/orders/:id/history", h.OrderHistory)
		workshop.GET("/orders/:id/trial", h.GetTrial)
		workshop.GET("/orders/:id/bill", h.GetBill)
		workshop.POST("/orders/:id/transition", h.TransitionOrder)
		workshop.POST("/orders/:id/allocations", h.AllocateMaterial)

		workshop.GET("/fabrics", h.ListFabrics)
		workshop.GET("/fabrics/:id", h.GetFabric)
		workshop.GET("/fabrics/:id/ledger", h.FabricLedger)
		workshop.GET("/alerts", h.ListAlerts)

		workshop.GET("/invoices/:id", h.GetInvoice)
		workshop.GET("/invoices/:id/payments", h.ListInvoicePayments)
		workshop.POST("/payments/capture", h.CapturePayment)
	}

	return r
}
