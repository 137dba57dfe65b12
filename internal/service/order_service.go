package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
	"commerce-service/pkg/config"
	"commerce-service/pkg/database"
	"commerce-service/pkg/logger"
)

// OrderService owns the order lifecycle state machine. Entry into
// "paid" is guarded by the all-or-nothing stock-sufficiency gate; the
// paid -> cancelled edge restores stock; every other transition is a
// plain status write.
type OrderService struct {
	store    *database.Store
	versions *VersionService
	stock    *StockService
	carts    *CartService
	checkout config.CheckoutConfig
}

func NewOrderService(store *database.Store, versions *VersionService, stock *StockService, carts *CartService, checkout config.CheckoutConfig) *OrderService {
	return &OrderService{
		store:    store,
		versions: versions,
		stock:    stock,
		carts:    carts,
		checkout: checkout,
	}
}

// Get returns one order.
func (s *OrderService) Get(tenantID uint, orderID string) (*model.Order, error) {
	var order model.Order
	result := s.store.Scope().
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		First(&order)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %s not found", orderID)
		}
		return nil, result.Error
	}
	return &order, nil
}

// List returns the tenant's orders, newest first, optionally filtered
// by status.
func (s *OrderService) List(tenantID uint, status string) ([]model.Order, error) {
	query := s.store.Scope().Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var orders []model.Order
	if result := query.Order("created_at DESC").Find(&orders); result.Error != nil {
		return nil, result.Error
	}
	return orders, nil
}

// CreateFromCart submits the session's cart as a real order: line items
// are frozen snapshots carrying the SKU and price current at submission
// time, the draft order mirror is deleted and the cart emptied.
func (s *OrderService) CreateFromCart(tenantID, marketID uint, sessionID string, customer model.CustomerInfo, shipping, billing model.Address) (*model.Order, error) {
	cart := s.carts.Get(tenantID, marketID, sessionID)
	if cart.IsEmpty() {
		return nil, apperr.BadRequest("cart is empty")
	}

	items := make([]model.OrderItem, 0, len(cart.Items))
	subtotal := 0.0
	for _, ci := range cart.Items {
		current, err := s.versions.GetCurrent(tenantID, ci.ProductID)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.BadRequest("product %q is no longer available", ci.Name)
			}
			return nil, err
		}
		item := model.OrderItem{
			ProductID: ci.ProductID,
			VariantID: ci.VariantID,
			Name:      current.Name,
			SKU:       current.SKU,
			UnitPrice: current.Price,
			Quantity:  ci.Quantity,
			Currency:  current.Currency,
		}
		if ci.VariantID != "" {
			variant := current.Variant(ci.VariantID)
			if variant == nil {
				return nil, apperr.BadRequest("variant of product %q is no longer available", current.Name)
			}
			item.Name = current.Name + " - " + variant.Name
			item.SKU = variant.SKU
			item.UnitPrice = variant.Price
		}
		items = append(items, item)
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	tax := subtotal * s.checkout.TaxRate
	shippingCost := s.checkout.ShippingFlatRate
	if subtotal >= s.checkout.FreeShippingThreshold {
		shippingCost = 0
	}

	now := time.Now()
	order := &model.Order{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		MarketID:        marketID,
		Status:          model.OrderStatusPending,
		Customer:        customer,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCost:    shippingCost,
		Total:           subtotal + tax + shippingCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.OrderNumber = fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), shortID(order.ID))

	if result := s.store.Scope().Create(order); result.Error != nil {
		return nil, result.Error
	}

	// The cart has been submitted; its draft mirror is stale now.
	s.carts.Clear(sessionID)

	logger.GetLogger().Info("Order created from cart",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Uint("tenant_id", tenantID),
		zap.Int("items", len(items)),
		zap.Float64("total", order.Total))
	return order, nil
}

// TransitionStatus moves an order to a new lifecycle status, applying
// the stock gate on entry into "paid" and restocking on
// paid -> cancelled. A rejected transition leaves every piece of state
// untouched.
func (s *OrderService) TransitionStatus(tenantID uint, orderID, newStatus string) (*model.Order, error) {
	if !model.KnownOrderStatus(newStatus) {
		return nil, apperr.BadRequest("unknown order status %q", newStatus)
	}

	order, err := s.Get(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.Status

	if newStatus == model.OrderStatusPaid && previous != model.OrderStatusPaid {
		available, err := s.validateStock(tenantID, order)
		if err != nil {
			return nil, err
		}

		order.Status = model.OrderStatusPaid
		if order.TrackingNumber == "" {
			order.TrackingNumber = "TRACK-" + strings.ToUpper(shortID(order.ID))
		}
		order.UpdatedAt = time.Now()
		if result := s.store.Scope().Save(order); result.Error != nil {
			return nil, result.Error
		}

		for i, item := range order.Items {
			if item.VariantID != "" {
				if err := s.stock.AdjustVariantStock(tenantID, item.ProductID, item.VariantID, item.Quantity, StockDecrease); err != nil {
					return nil, err
				}
				continue
			}
			remaining := available[i] - item.Quantity
			if remaining < 0 {
				remaining = 0
			}
			if err := s.stock.SetProductStock(tenantID, item.ProductID, remaining); err != nil {
				return nil, err
			}
		}
	} else if previous == model.OrderStatusPaid && newStatus == model.OrderStatusCancelled {
		order.Status = model.OrderStatusCancelled
		order.UpdatedAt = time.Now()
		if result := s.store.Scope().Save(order); result.Error != nil {
			return nil, result.Error
		}

		// Stock returns only on this edge; refunded or returned goods
		// are not assumed resalable.
		for _, item := range order.Items {
			s.restoreItemStock(tenantID, item)
		}
	} else {
		order.Status = newStatus
		order.UpdatedAt = time.Now()
		if result := s.store.Scope().Save(order); result.Error != nil {
			return nil, result.Error
		}
	}

	logger.GetLogger().Info("Order status changed",
		zap.String("order_id", orderID),
		zap.String("from", previous),
		zap.String("to", order.Status))
	return order, nil
}

// validateStock runs the all-or-nothing stock-sufficiency gate. It
// returns the available quantity per line item so the caller can apply
// the decrement it just validated.
func (s *OrderService) validateStock(tenantID uint, order *model.Order) ([]int, error) {
	available := make([]int, len(order.Items))
	for i, item := range order.Items {
		current, err := s.versions.GetCurrent(tenantID, item.ProductID)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.BadRequest("product %q (SKU %s) no longer exists", item.Name, item.SKU)
			}
			return nil, err
		}

		if item.VariantID != "" {
			variant := current.Variant(item.VariantID)
			if variant == nil {
				return nil, apperr.BadRequest("variant of product %q (SKU %s) no longer exists", item.Name, item.SKU)
			}
			available[i] = variant.Stock
		} else {
			if current.Stock == nil {
				return nil, apperr.BadRequest("product %q (SKU %s) has no stock tracking", item.Name, item.SKU)
			}
			available[i] = *current.Stock
		}

		if item.Quantity > available[i] {
			return nil, apperr.BadRequest("insufficient stock for %q (SKU %s): requested %d, available %d",
				item.Name, item.SKU, item.Quantity, available[i])
		}
	}
	return available, nil
}

// restoreItemStock puts one cancelled line item's quantity back.
// Best effort: a product that vanished since payment is skipped.
func (s *OrderService) restoreItemStock(tenantID uint, item model.OrderItem) {
	if item.VariantID != "" {
		if err := s.stock.AdjustVariantStock(tenantID, item.ProductID, item.VariantID, item.Quantity, StockIncrease); err != nil {
			logger.GetLogger().Error("Variant restock failed",
				zap.String("product_id", item.ProductID),
				zap.String("variant_id", item.VariantID),
				zap.Error(err))
		}
		return
	}

	current, err := s.versions.GetCurrent(tenantID, item.ProductID)
	if err != nil || current.Stock == nil {
		return
	}
	if err := s.stock.SetProductStock(tenantID, item.ProductID, *current.Stock+item.Quantity); err != nil {
		logger.GetLogger().Error("Product restock failed",
			zap.String("product_id", item.ProductID),
			zap.Error(err))
	}
}

// SetTrackingNumber updates the one mutable shipping field on an order.
func (s *OrderService) SetTrackingNumber(tenantID uint, orderID, trackingNumber string) (*model.Order, error) {
	order, err := s.Get(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	order.TrackingNumber = trackingNumber
	order.UpdatedAt = time.Now()
	if result := s.store.Scope().Save(order); result.Error != nil {
		return nil, result.Error
	}
	return order, nil
}

func shortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}
