package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"commerce-service/internal/service"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"
)

// CartItemRequest adds or updates one cart line.
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	MarketID  uint   `json:"market_id"`
}

type CartHandler struct {
	Carts *service.CartService
}

func (h *CartHandler) sessionID(c echo.Context) string {
	return c.Param("sessionId")
}

func marketID(c echo.Context) uint {
	if v := c.QueryParam("market_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(id)
		}
	}
	return 0
}

// GetCart returns the session's cart with recomputed totals.
func (h *CartHandler) GetCart(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	cart := h.Carts.Get(tenant, marketID(c), h.sessionID(c))
	return c.JSON(http.StatusOK, cart)
}

// AddItem adds a product to the cart and resyncs the draft order.
func (h *CartHandler) AddItem(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	cart, err := h.Carts.AddItem(tenant, req.MarketID, h.sessionID(c), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		return fail(c, log, err, "Failed to add item to cart")
	}

	prometheus.CartSyncCounter.WithLabelValues("upsert").Inc()
	log.Info("Cart item added",
		zap.String("session_id", cart.SessionID),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity))
	return c.JSON(http.StatusOK, cart)
}

// UpdateItem changes a line's quantity; zero removes it.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	cart, err := h.Carts.UpdateItemQuantity(tenant, req.MarketID, h.sessionID(c), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		return fail(c, log, err, "Failed to update cart item")
	}

	outcome := "upsert"
	if cart.IsEmpty() {
		outcome = "delete"
	}
	prometheus.CartSyncCounter.WithLabelValues(outcome).Inc()
	return c.JSON(http.StatusOK, cart)
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	productID := c.Param("productId")
	variantID := c.QueryParam("variant_id")

	cart, err := h.Carts.RemoveItem(tenant, marketID(c), h.sessionID(c), productID, variantID)
	if err != nil {
		return fail(c, log, err, "Failed to remove cart item")
	}

	outcome := "upsert"
	if cart.IsEmpty() {
		outcome = "delete"
	}
	prometheus.CartSyncCounter.WithLabelValues(outcome).Inc()
	log.Info("Cart item removed",
		zap.String("session_id", cart.SessionID),
		zap.String("product_id", productID))
	return c.JSON(http.StatusOK, cart)
}

// SyncCart forces a reconcile of the draft order with the cart.
func (h *CartHandler) SyncCart(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	h.Carts.Sync(tenant, marketID(c), h.sessionID(c))
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart synced"})
}
