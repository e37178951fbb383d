package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/ports"
)

// PaymentHandler handles order creation.
type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Create handles POST /payments and returns the provider's order as-is.
//
// @Summary      Create a payment order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body  body      createPaymentRequest  true  "Payment request"
// @Success      201   {object}  object
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /payments [post]
func (h *PaymentHandler) Create(c echo.Context) error {
	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	order, err := h.service.CreateOrder(c.Request().Context(), toPaymentOrderInput(req))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusCreated, order)
}
