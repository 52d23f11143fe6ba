package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tiendamx/shop-api/internal/adapter/http/middleware"
	"github.com/tiendamx/shop-api/internal/logging"
)

func NewRouter(oh *OrderHandler, ph *PaymentHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	api := r.Group("/api")
	{
		// Storefront surface: guest checkout, no auth.
		api.POST("/orders", oh.CreateOrder)
		api.GET("/orders/:id/status", oh.OrderStatus)
		api.GET("/payments/providers", ph.ListProviders)
		api.POST("/payments/checkout", ph.CreateCheckout)

		// Providers authenticate with signatures, not bearer tokens.
		api.POST("/payments/webhook/:provider", ph.Webhook)

		admin := api.Group("/admin", authz.Require("orders.admin"))
		{
			admin.GET("/orders", oh.ListOrders)
			admin.GET("/orders/archived", oh.ListArchived)
			admin.GET("/orders/:id", oh.GetOrderByID)
			admin.PUT("/orders/:id/status", oh.UpdateStatus)
			admin.PUT("/orders/:id/archive", oh.Archive)
			admin.PUT("/orders/:id/restore", oh.Restore)
			admin.DELETE("/orders/:id", oh.Delete)
			admin.DELETE("/orders/:id/permanent", oh.DeletePermanently)
		}
	}

	return r
}
