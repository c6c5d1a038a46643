package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fuelops/fuel-station/internal/core/domain"
)

type dayRevenueResponse struct {
	Date    time.Time `json:"date"`
	Revenue string    `json:"revenue"`
}

type salesOverviewResponse struct {
	TotalRevenue     string              `json:"total_revenue"`
	TotalLitres      string              `json:"total_litres"`
	TxCount          int64               `json:"tx_count"`
	AvgTicket        string              `json:"avg_ticket"`
	WeightedAvgPrice string              `json:"weighted_avg_price"`
	FirstSaleAt      *time.Time          `json:"first_sale_at"`
	LastSaleAt       *time.Time          `json:"last_sale_at"`
	PeakDay          *dayRevenueResponse `json:"peak_day"`
	LowDay           *dayRevenueResponse `json:"low_day"`
}

type salesBucketResponse struct {
	PeriodStart time.Time `json:"period_start"`
	Revenue     string    `json:"revenue"`
	Litres      string    `json:"litres"`
	TxCount     int64     `json:"tx_count"`
	AvgPrice    string    `json:"avg_price"`
}

type fuelTypeSalesResponse struct {
	FuelTypeID int64  `json:"fuel_type_id"`
	Name       string `json:"name"`
	Revenue    string `json:"revenue"`
	Litres     string `json:"litres"`
	TxCount    int64  `json:"tx_count"`
	AvgPrice   string `json:"avg_price"`
}

type priceSegmentResponse struct {
	PricePerLitre string     `json:"price_per_litre"`
	ValidFrom     time.Time  `json:"valid_from"`
	ValidTo       *time.Time `json:"valid_to"`
}

// SalesOverview handles GET /reports/sales/overview.
func (h *HTTPHandler) SalesOverview(c *gin.Context) {
	filter, err := parseSalesFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	o, err := h.reports.SalesOverview(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := salesOverviewResponse{
		TotalRevenue:     domain.MoneyString(o.TotalRevenue),
		TotalLitres:      domain.QuantityString(o.TotalLitres),
		TxCount:          o.TxCount,
		AvgTicket:        domain.MoneyString(o.AvgTicket),
		WeightedAvgPrice: domain.QuantityString(o.WeightedAvgPrice),
		FirstSaleAt:      o.FirstSaleAt,
		LastSaleAt:       o.LastSaleAt,
	}
	if o.PeakDay != nil {
		resp.PeakDay = &dayRevenueResponse{Date: o.PeakDay.Date, Revenue: domain.MoneyString(o.PeakDay.Revenue)}
	}
	if o.LowDay != nil {
		resp.LowDay = &dayRevenueResponse{Date: o.LowDay.Date, Revenue: domain.MoneyString(o.LowDay.Revenue)}
	}
	c.JSON(http.StatusOK, resp)
}

// SalesTimeseries handles GET /reports/sales/timeseries.
func (h *HTTPHandler) SalesTimeseries(c *gin.Context) {
	filter, err := parseSalesFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	granularity := domain.ParseGranularity(c.Query("granularity"))

	buckets, err := h.reports.SalesTimeseries(c.Request.Context(), filter, granularity)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]salesBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, salesBucketResponse{
			PeriodStart: b.PeriodStart,
			Revenue:     domain.MoneyString(b.Revenue),
			Litres:      domain.QuantityString(b.Litres),
			TxCount:     b.TxCount,
			AvgPrice:    domain.QuantityString(b.AvgPrice),
		})
	}
	c.JSON(http.StatusOK, out)
}

// SalesByFuelType handles GET /reports/sales/by-fuel-type.
func (h *HTTPHandler) SalesByFuelType(c *gin.Context) {
	filter, err := parseSalesFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.reports.SalesByFuelType(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]fuelTypeSalesResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, fuelTypeSalesResponse{
			FuelTypeID: r.FuelTypeID,
			Name:       r.Name,
			Revenue:    domain.MoneyString(r.Revenue),
			Litres:     domain.QuantityString(r.Litres),
			TxCount:    r.TxCount,
			AvgPrice:   domain.QuantityString(r.AvgPrice),
		})
	}
	c.JSON(http.StatusOK, out)
}

// PriceHistory handles GET /reports/price/history.
func (h *HTTPHandler) PriceHistory(c *gin.Context) {
	raw := c.Query("fuel_type_id")
	if raw == "" {
		respondError(c, domain.Validationf("fuel_type_id is required"))
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, domain.Validationf("invalid fuel_type_id %q", raw))
		return
	}
	filter, err := parseSalesFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	segments, err := h.reports.PriceHistory(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]priceSegmentResponse, 0, len(segments))
	for _, seg := range segments {
		out = append(out, priceSegmentResponse{
			PricePerLitre: domain.QuantityString(seg.PricePerLitre),
			ValidFrom:     seg.ValidFrom,
			ValidTo:       seg.ValidTo,
		})
	}
	c.JSON(http.StatusOK, out)
}
