package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"investra/internal/service"
)

// RateHandler serves fiat exchange rates for the converter widget
type RateHandler struct {
	rates *service.RateService
}

// NewRateHandler creates a new RateHandler
func NewRateHandler(rates *service.RateService) *RateHandler {
	return &RateHandler{
		rates: rates,
	}
}

// GetRates returns the current exchange rate table
// GET /api/rates
func (h *RateHandler) GetRates(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rates, err := h.rates.Rates(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to fetch exchange rates", err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"rates": rates,
	})
}
