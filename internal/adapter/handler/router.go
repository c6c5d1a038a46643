package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuelops/fuel-station/internal/adapter/handler/openapi"
	"github.com/fuelops/fuel-station/internal/obs"
)

// NewRouter registers all routes and middleware.
func NewRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	r.Use(WithRequestID(), WithLogging(), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		obs.Logger.Error("panic recovered",
			"path", c.Request.URL.Path,
			"request_id", RequestIDFromContext(c),
			"panic", recovered,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			errorResponse{errorBody{"INTERNAL_ERROR", "An unexpected error occurred."}})
	}))

	r.GET("/healthz", h.HealthCheck)
	r.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", openapi.YAML)
	})

	r.POST("/fuel-types", h.CreateFuelType)
	r.GET("/fuel-types", h.ListFuelTypes)
	r.PATCH("/fuel-types/:id/price", h.UpdatePrice)

	r.GET("/inventory", h.ListInventory)
	r.POST("/inventory/refill", h.RefillStock)

	r.POST("/sales", h.RecordSale)
	r.GET("/sales", h.ListSales)

	reports := r.Group("/reports")
	{
		reports.GET("/sales/overview", h.SalesOverview)
		reports.GET("/sales/timeseries", h.SalesTimeseries)
		reports.GET("/sales/by-fuel-type", h.SalesByFuelType)
		reports.GET("/price/history", h.PriceHistory)
	}

	return r
}
