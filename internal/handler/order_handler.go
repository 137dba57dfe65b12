package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
	"commerce-service/internal/service"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"
)

// CheckoutRequest submits a cart as a real order.
type CheckoutRequest struct {
	SessionID       string             `json:"session_id" validate:"required"`
	MarketID        uint               `json:"market_id"`
	Customer        model.CustomerInfo `json:"customer"`
	ShippingAddress model.Address      `json:"shipping_address"`
	BillingAddress  model.Address      `json:"billing_address"`
}

// StatusRequest names the target lifecycle status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TrackingRequest updates an order's tracking number.
type TrackingRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

type OrderHandler struct {
	Orders *service.OrderService
}

// ListOrders returns the tenant's orders, optionally filtered by status.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	orders, err := h.Orders.List(tenant, c.QueryParam("status"))
	if err != nil {
		return fail(c, log, err, "Failed to retrieve orders")
	}

	log.Info("Orders retrieved successfully",
		zap.Int("count", len(orders)),
		zap.Uint("tenant_id", tenant))
	return c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	order, err := h.Orders.Get(tenant, c.Param("id"))
	if err != nil {
		return fail(c, log, err, "Failed to retrieve order")
	}
	return c.JSON(http.StatusOK, order)
}

// Checkout creates a pending order from the session's cart. The cart's
// draft order mirror is deleted and the cart emptied.
func (h *OrderHandler) Checkout(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}

	order, err := h.Orders.CreateFromCart(tenant, req.MarketID, req.SessionID, req.Customer, req.ShippingAddress, req.BillingAddress)
	if err != nil {
		return fail(c, log, err, "Failed to create order")
	}

	prometheus.OrderTransitionsCounter.WithLabelValues(order.Status).Inc()
	log.Info("Order created successfully",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total))
	return c.JSON(http.StatusCreated, order)
}

// TransitionStatus moves an order through the lifecycle state machine.
// Entering "paid" runs the stock-sufficiency gate; a shortfall rejects
// the whole transition with an itemized message.
func (h *OrderHandler) TransitionStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	order, err := h.Orders.TransitionStatus(tenant, id, req.Status)
	if err != nil {
		if req.Status == model.OrderStatusPaid && apperr.StatusOf(err) == http.StatusBadRequest {
			prometheus.StockRejectionsCounter.Inc()
		}
		return fail(c, log, err, "Failed to transition order status")
	}

	prometheus.OrderTransitionsCounter.WithLabelValues(order.Status).Inc()
	log.Info("Order status transitioned",
		zap.String("order_id", id),
		zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// SetTracking updates the tracking number on an order.
func (h *OrderHandler) SetTracking(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	var req TrackingRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	order, err := h.Orders.SetTrackingNumber(tenant, id, req.TrackingNumber)
	if err != nil {
		return fail(c, log, err, "Failed to update tracking number")
	}
	return c.JSON(http.StatusOK, order)
}
