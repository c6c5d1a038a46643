package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fuelops/fuel-station/internal/core/domain"
	"github.com/fuelops/fuel-station/internal/core/service"
	"github.com/fuelops/fuel-station/internal/obs"
)

// HTTPHandler translates HTTP requests into engine calls and engine outcomes
// into status codes. Decimals cross this boundary as fixed-scale base-10
// strings, never as floats.
type HTTPHandler struct {
	station *service.StationService
	reports *service.ReportService
}

func NewHTTPHandler(station *service.StationService, reports *service.ReportService) *HTTPHandler {
	return &HTTPHandler{station: station, reports: reports}
}

type createFuelTypeRequest struct {
	Name               string `json:"name" binding:"required"`
	PricePerLitre      string `json:"price_per_litre" binding:"required"`
	InitialStockLitres string `json:"initial_stock_litres"`
}

type updatePriceRequest struct {
	PricePerLitre string `json:"price_per_litre" binding:"required"`
}

type refillStockRequest struct {
	FuelTypeID int64  `json:"fuel_type_id" binding:"required"`
	Litres     string `json:"litres" binding:"required"`
}

type recordSaleRequest struct {
	FuelTypeID int64  `json:"fuel_type_id" binding:"required"`
	Litres     string `json:"litres" binding:"required"`
}

type fuelTypeResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	PricePerLitre string    `json:"price_per_litre"`
	StockLitres   string    `json:"stock_litres"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type stockLevelResponse struct {
	FuelTypeID  int64  `json:"fuel_type_id"`
	Name        string `json:"name"`
	StockLitres string `json:"stock_litres"`
}

type refillResponse struct {
	FuelTypeID     int64  `json:"fuel_type_id"`
	NewStockLitres string `json:"new_stock_litres"`
}

type saleResponse struct {
	ID          int64     `json:"id"`
	FuelTypeID  int64     `json:"fuel_type_id"`
	Litres      string    `json:"litres"`
	PriceAtSale string    `json:"price_at_sale"`
	Amount      string    `json:"amount"`
	SoldAt      time.Time `json:"sold_at"`
}

func toFuelTypeResponse(ft *domain.FuelType) fuelTypeResponse {
	return fuelTypeResponse{
		ID:            ft.ID,
		Name:          ft.Name,
		PricePerLitre: domain.QuantityString(ft.PricePerLitre),
		StockLitres:   domain.QuantityString(ft.StockLitres),
		CreatedAt:     ft.CreatedAt,
		UpdatedAt:     ft.UpdatedAt,
	}
}

func toSaleResponse(s *domain.Sale) saleResponse {
	return saleResponse{
		ID:          s.ID,
		FuelTypeID:  s.FuelTypeID,
		Litres:      domain.QuantityString(s.Litres),
		PriceAtSale: domain.QuantityString(s.PriceAtSale),
		Amount:      domain.MoneyString(s.Amount),
		SoldAt:      s.SoldAt,
	}
}

// CreateFuelType handles POST /fuel-types.
func (h *HTTPHandler) CreateFuelType(c *gin.Context) {
	var req createFuelTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	price, err := domain.ParseQuantity(req.PricePerLitre)
	if err != nil {
		respondError(c, err)
		return
	}
	stock := decimal.Zero
	if req.InitialStockLitres != "" {
		if stock, err = domain.ParseQuantity(req.InitialStockLitres); err != nil {
			respondError(c, err)
			return
		}
	}

	ft, err := h.station.CreateFuelType(c.Request.Context(), req.Name, price, stock)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFuelTypeResponse(ft))
}

// UpdatePrice handles PATCH /fuel-types/:id/price.
func (h *HTTPHandler) UpdatePrice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	price, err := domain.ParseQuantity(req.PricePerLitre)
	if err != nil {
		respondError(c, err)
		return
	}

	ft, err := h.station.UpdatePrice(c.Request.Context(), id, price)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFuelTypeResponse(ft))
}

// ListFuelTypes handles GET /fuel-types.
func (h *HTTPHandler) ListFuelTypes(c *gin.Context) {
	fts, err := h.station.ListFuelTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]fuelTypeResponse, 0, len(fts))
	for i := range fts {
		out = append(out, toFuelTypeResponse(&fts[i]))
	}
	c.JSON(http.StatusOK, out)
}

// RefillStock handles POST /inventory/refill.
func (h *HTTPHandler) RefillStock(c *gin.Context) {
	var req refillStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	litres, err := domain.ParseQuantity(req.Litres)
	if err != nil {
		respondError(c, err)
		return
	}

	lvl, err := h.station.RefillStock(c.Request.Context(), req.FuelTypeID, litres)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refillResponse{
		FuelTypeID:     lvl.FuelTypeID,
		NewStockLitres: domain.QuantityString(lvl.StockLitres),
	})
}

// ListInventory handles GET /inventory.
func (h *HTTPHandler) ListInventory(c *gin.Context) {
	levels, err := h.station.ListInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]stockLevelResponse, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, stockLevelResponse{
			FuelTypeID:  lvl.FuelTypeID,
			Name:        lvl.Name,
			StockLitres: domain.QuantityString(lvl.StockLitres),
		})
	}
	c.JSON(http.StatusOK, out)
}

// RecordSale handles POST /sales.
func (h *HTTPHandler) RecordSale(c *gin.Context) {
	var req recordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	litres, err := domain.ParseQuantity(req.Litres)
	if err != nil {
		respondError(c, err)
		return
	}

	sale, err := h.station.RecordSale(c.Request.Context(), req.FuelTypeID, litres)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSaleResponse(sale))
}

// ListSales handles GET /sales.
func (h *HTTPHandler) ListSales(c *gin.Context) {
	filter, err := parseSalesFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sales, err := h.station.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]saleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, toSaleResponse(&sales[i]))
	}
	c.JSON(http.StatusOK, out)
}

// HealthCheck handles GET /healthz.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid fuel type id %q", c.Param("id"))
	}
	return id, nil
}

// parseSalesFilter reads the shared from/to/fuel_type_id query params. Bare
// dates expand to the start (from) or end (to) of the day in UTC.
func parseSalesFilter(c *gin.Context) (domain.SalesFilter, error) {
	var filter domain.SalesFilter

	if v := c.Query("from"); v != "" {
		t, err := parseTimeParam(v, false)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseTimeParam(v, true)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	if v := c.Query("fuel_type_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, domain.Validationf("invalid fuel_type_id %q", v)
		}
		filter.FuelTypeID = &id
	}
	return filter, nil
}

func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, domain.Validationf("invalid timestamp %q", v)
	}
	if endOfDay {
		return d.Add(24*time.Hour - time.Second), nil
	}
	return d, nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// respondError maps engine outcomes to transport status codes. Unexpected
// failures are logged with full detail and reported generically.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{errorBody{"BAD_REQUEST", err.Error()}})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{errorBody{"NOT_FOUND", err.Error()}})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{errorBody{"CONFLICT", err.Error()}})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, errorResponse{errorBody{"INSUFFICIENT_STOCK", err.Error()}})
	default:
		obs.Logger.Error("unhandled error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", RequestIDFromContext(c),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, errorResponse{errorBody{"INTERNAL_ERROR", "An unexpected error occurred."}})
	}
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{errorBody{"BAD_REQUEST", err.Error()}})
}
