package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
	"commerce-service/pkg/database"
	"commerce-service/pkg/logger"
)

// Tax rate applied to carts in the admin-facing draft flow. The
// storefront checkout applies its own rate (see OrderService).
const draftTaxRate = 0.08

// CartService holds carts in an in-process map keyed by session id and
// mirrors every non-empty cart into a persisted draft order so that
// abandoned carts stay visible to administrators.
type CartService struct {
	mu       sync.RWMutex
	carts    map[string]*model.Cart
	store    *database.Store
	versions *VersionService
}

func NewCartService(store *database.Store, versions *VersionService) *CartService {
	return &CartService{
		carts:    make(map[string]*model.Cart),
		store:    store,
		versions: versions,
	}
}

// DraftOrderID derives the deterministic draft order id for a session.
func DraftOrderID(sessionID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("cart:"+sessionID)).String()
}

// Get returns the cart for the session, creating an empty one if needed.
func (s *CartService) Get(tenantID, marketID uint, sessionID string) *model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(tenantID, marketID, sessionID)
}

func (s *CartService) cartLocked(tenantID, marketID uint, sessionID string) *model.Cart {
	cart, ok := s.carts[sessionID]
	if !ok {
		cart = &model.Cart{
			SessionID: sessionID,
			TenantID:  tenantID,
			MarketID:  marketID,
			UpdatedAt: time.Now(),
		}
		s.carts[sessionID] = cart
	}
	return cart
}

// AddItem adds a product (or variant) to the cart, merging quantities
// for an item already present, then resyncs the draft order.
func (s *CartService) AddItem(tenantID, marketID uint, sessionID, productID, variantID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}
	item, err := s.resolveItem(tenantID, productID, variantID, quantity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cart := s.cartLocked(tenantID, marketID, sessionID)
	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].VariantID == variantID {
			cart.Items[i].Quantity += quantity
			cart.Items[i].Name = item.Name
			cart.Items[i].SKU = item.SKU
			cart.Items[i].UnitPrice = item.UnitPrice
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, *item)
	}
	s.recomputeLocked(cart)
	snapshot := *cart
	s.mu.Unlock()

	s.syncDraftOrder(&snapshot)
	return &snapshot, nil
}

// UpdateItemQuantity sets an item's quantity; zero or less removes it.
func (s *CartService) UpdateItemQuantity(tenantID, marketID uint, sessionID, productID, variantID string, quantity int) (*model.Cart, error) {
	s.mu.Lock()
	cart := s.cartLocked(tenantID, marketID, sessionID)
	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].VariantID == variantID {
			if quantity <= 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			} else {
				cart.Items[i].Quantity = quantity
			}
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return nil, apperr.NotFound("item %s not in cart", productID)
	}
	s.recomputeLocked(cart)
	snapshot := *cart
	s.mu.Unlock()

	s.syncDraftOrder(&snapshot)
	return &snapshot, nil
}

// RemoveItem drops an item from the cart.
func (s *CartService) RemoveItem(tenantID, marketID uint, sessionID, productID, variantID string) (*model.Cart, error) {
	return s.UpdateItemQuantity(tenantID, marketID, sessionID, productID, variantID, 0)
}

// Clear empties the cart and removes its draft order.
func (s *CartService) Clear(sessionID string) {
	s.mu.Lock()
	cart, ok := s.carts[sessionID]
	if ok {
		cart.Items = nil
		s.recomputeLocked(cart)
	}
	s.mu.Unlock()

	s.deleteDraftOrder(sessionID)
}

// Sync forces a reconcile of the session's draft order with the cart.
func (s *CartService) Sync(tenantID, marketID uint, sessionID string) {
	s.mu.Lock()
	cart := s.cartLocked(tenantID, marketID, sessionID)
	s.recomputeLocked(cart)
	snapshot := *cart
	s.mu.Unlock()

	s.syncDraftOrder(&snapshot)
}

// resolveItem builds a cart item from live product data.
func (s *CartService) resolveItem(tenantID uint, productID, variantID string, quantity int) (*model.CartItem, error) {
	current, err := s.versions.GetCurrent(tenantID, productID)
	if err != nil {
		return nil, err
	}
	item := &model.CartItem{
		ProductID: productID,
		VariantID: variantID,
		Name:      current.Name,
		SKU:       current.SKU,
		UnitPrice: current.Price,
		Quantity:  quantity,
		Currency:  current.Currency,
	}
	if variantID != "" {
		variant := current.Variant(variantID)
		if variant == nil {
			return nil, apperr.NotFound("variant %s of product %s not found", variantID, productID)
		}
		item.Name = current.Name + " - " + variant.Name
		item.SKU = variant.SKU
		item.UnitPrice = variant.Price
	}
	return item, nil
}

func (s *CartService) recomputeLocked(cart *model.Cart) {
	subtotal := 0.0
	for _, item := range cart.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	cart.Subtotal = subtotal
	cart.Tax = subtotal * draftTaxRate
	cart.Total = cart.Subtotal + cart.Tax
	cart.UpdatedAt = time.Now()
}

// syncDraftOrder reconciles the persisted draft order with the cart.
// Best effort: failures are logged, never surfaced to the shopper.
func (s *CartService) syncDraftOrder(cart *model.Cart) {
	if cart.IsEmpty() {
		s.deleteDraftOrder(cart.SessionID)
		return
	}

	draftID := DraftOrderID(cart.SessionID)
	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		oi := model.OrderItem{
			ProductID: ci.ProductID,
			VariantID: ci.VariantID,
			Name:      ci.Name,
			SKU:       ci.SKU,
			UnitPrice: ci.UnitPrice,
			Quantity:  ci.Quantity,
			Currency:  ci.Currency,
		}
		// Re-resolve the SKU from the live record; the cart copy may
		// already be stale.
		if current, err := s.versions.GetCurrent(cart.TenantID, ci.ProductID); err == nil {
			oi.SKU = current.SKU
			if ci.VariantID != "" {
				if variant := current.Variant(ci.VariantID); variant != nil {
					oi.SKU = variant.SKU
				}
			}
		}
		items = append(items, oi)
	}

	var draft model.Order
	result := s.store.Scope().Where("id = ?", draftID).First(&draft)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		logger.GetLogger().Error("Draft order lookup failed",
			zap.String("session_id", cart.SessionID),
			zap.Error(result.Error))
		return
	}
	creating := errors.Is(result.Error, gorm.ErrRecordNotFound)
	if creating {
		draft = model.Order{
			ID:          draftID,
			OrderNumber: fmt.Sprintf("DRAFT-%s", shortID(draftID)),
			CreatedAt:   time.Now(),
		}
	}

	draft.TenantID = cart.TenantID
	draft.MarketID = cart.MarketID
	draft.Status = model.OrderStatusNew
	draft.Items = items
	draft.Subtotal = cart.Subtotal
	draft.Tax = cart.Tax
	draft.ShippingCost = 0
	draft.Total = cart.Total
	draft.UpdatedAt = time.Now()
	if draft.Customer.Name == "" {
		draft.Customer = model.CustomerInfo{Name: "Guest", Email: ""}
	}

	var err error
	if creating {
		err = s.store.Scope().Create(&draft).Error
	} else {
		err = s.store.Scope().Save(&draft).Error
	}
	if err != nil {
		logger.GetLogger().Error("Draft order sync failed",
			zap.String("session_id", cart.SessionID),
			zap.String("draft_order_id", draftID),
			zap.Error(err))
		return
	}

	logger.GetLogger().Debug("Draft order synced",
		zap.String("session_id", cart.SessionID),
		zap.String("draft_order_id", draftID),
		zap.Int("items", len(items)))
}

func (s *CartService) deleteDraftOrder(sessionID string) {
	draftID := DraftOrderID(sessionID)
	result := s.store.Scope().
		Where("id = ? AND status = ?", draftID, model.OrderStatusNew).
		Delete(&model.Order{})
	if result.Error != nil {
		logger.GetLogger().Error("Draft order delete failed",
			zap.String("session_id", sessionID),
			zap.Error(result.Error))
		return
	}
	if result.RowsAffected > 0 {
		logger.GetLogger().Debug("Draft order deleted",
			zap.String("session_id", sessionID),
			zap.String("draft_order_id", draftID))
	}
}
