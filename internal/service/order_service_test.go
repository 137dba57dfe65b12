package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
)

func TestPaidTransitionDecrementsStockAndAssignsTracking(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 199, intPtr(50), nil)
	order := e.seedOrder(t, model.OrderStatusPending, []model.OrderItem{
		{ProductID: p.ProductID, Name: "Console", SKU: "CNS-01", UnitPrice: 199, Quantity: 2, Currency: "USD"},
	})

	updated, err := e.orders.TransitionStatus(1, order.ID, model.OrderStatusPaid)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaid, updated.Status)
	assert.Equal(t, 48, e.productStock(t, p.ProductID))
	require.NotEmpty(t, updated.TrackingNumber)
	assert.True(t, strings.HasPrefix(updated.TrackingNumber, "TRACK-"))
	assert.Equal(t, "TRACK-"+strings.ToUpper(order.ID[:8]), updated.TrackingNumber)

	// cancel after paid restores the stock
	cancelled, err := e.orders.TransitionStatus(1, order.ID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 50, e.productStock(t, p.ProductID))
}

func TestPaidGateIsAllOrNothing(t *testing.T) {
	e := newEngine(t)
	stocked := e.seedProduct(t, "Stocked", "STK-01", 10, intPtr(100), nil)
	scarce := e.seedProduct(t, "Scarce", "SCR-01", 20, intPtr(1), nil)
	order := e.seedOrder(t, model.OrderStatusPending, []model.OrderItem{
		{ProductID: stocked.ProductID, Name: "Stocked", SKU: "STK-01", UnitPrice: 10, Quantity: 2, Currency: "USD"},
		{ProductID: scarce.ProductID, Name: "Scarce", SKU: "SCR-01", UnitPrice: 20, Quantity: 5, Currency: "USD"},
	})

	_, err := e.orders.TransitionStatus(1, order.ID, model.OrderStatusPaid)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, appErr.Message, "Scarce")
	assert.Contains(t, appErr.Message, "SCR-01")
	assert.Contains(t, appErr.Message, "requested 5")
	assert.Contains(t, appErr.Message, "available 1")

	// neither stock nor status moved
	assert.Equal(t, 100, e.productStock(t, stocked.ProductID))
	assert.Equal(t, 1, e.productStock(t, scarce.ProductID))
	unchanged, err := e.orders.Get(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, unchanged.Status)
	assert.Empty(t, unchanged.TrackingNumber)
}

func TestPaidGateVariantPath(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Shirt", "SHT", 25, nil, []model.ProductVariant{
		{ID: "v-s", Name: "Small", SKU: "SHT-S", Price: 25, Stock: 8},
	})
	order := e.seedOrder(t, model.OrderStatusPending, []model.OrderItem{
		{ProductID: p.ProductID, VariantID: "v-s", Name: "Shirt - Small", SKU: "SHT-S", UnitPrice: 25, Quantity: 3, Currency: "USD"},
	})

	_, err := e.orders.TransitionStatus(1, order.ID, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, 5, e.variantStock(t, p.ProductID, "v-s"))

	_, err = e.orders.TransitionStatus(1, order.ID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 8, e.variantStock(t, p.ProductID, "v-s"))
}

func TestPaidGateRejectsVanishedProductAndVariant(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Shirt", "SHT", 25, nil, []model.ProductVariant{
		{ID: "v-s", Name: "Small", SKU: "SHT-S", Price: 25, Stock: 8},
	})
	order := e.seedOrder(t, model.OrderStatusPending, []model.OrderItem{
		{ProductID: p.ProductID, VariantID: "v-zzz", Name: "Shirt - Small", SKU: "SHT-S", UnitPrice: 25, Quantity: 1, Currency: "USD"},
	})

	_, err := e.orders.TransitionStatus(1, order.ID, model.OrderStatusPaid)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)

	require.NoError(t, e.versions.DeleteAll(1, p.ProductID))
	_, err = e.orders.TransitionStatus(1, order.ID, model.OrderStatusPaid)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestPaidGateRejectsUntrackedProduct(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Service Fee", "FEE-01", 99, nil, nil)
	order := e.seedOrder(t, model.OrderStatusPending, []model.OrderItem{
		{ProductID: p.ProductID, Name: "Service Fee", SKU: "FEE-01", UnitPrice: 99, Quantity: 1, Currency: "USD"},
	})

	_, err := e.orders.TransitionStatus(1, order.ID, model.OrderStatusPaid)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, appErr.Message, "no stock tracking")
}

func TestRefundDoesNotRestoreStock(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 199, intPtr(50), nil)
	order := e.seedOrder(t, model.OrderStatusPending, []model.OrderItem{
		{ProductID: p.ProductID, Name: "Console", SKU: "CNS-01", UnitPrice: 199, Quantity: 5, Currency: "USD"},
	})

	_, err := e.orders.TransitionStatus(1, order.ID, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, 45, e.productStock(t, p.ProductID))

	_, err = e.orders.TransitionStatus(1, order.ID, model.OrderStatusCompleted)
	require.NoError(t, err)
	_, err = e.orders.TransitionStatus(1, order.ID, model.OrderStatusRefunded)
	require.NoError(t, err)

	// refunded goods are not assumed resalable
	assert.Equal(t, 45, e.productStock(t, p.ProductID))
}

func TestTransitionUnknownStatusRejected(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 199, intPtr(5), nil)
	order := e.seedOrder(t, model.OrderStatusPending, []model.OrderItem{
		{ProductID: p.ProductID, Name: "Console", SKU: "CNS-01", UnitPrice: 199, Quantity: 1, Currency: "USD"},
	})

	_, err := e.orders.TransitionStatus(1, order.ID, "shipped")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestTransitionMissingOrderNotFound(t *testing.T) {
	e := newEngine(t)
	_, err := e.orders.TransitionStatus(1, "no-such-order", model.OrderStatusPaid)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCreateFromCartEmptyRejected(t *testing.T) {
	e := newEngine(t)
	_, err := e.orders.CreateFromCart(1, 1, "session-empty", model.CustomerInfo{}, model.Address{}, model.Address{})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestCreateFromCartFreezesItemsAndDeletesDraft(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 40, intPtr(50), nil)
	sid := "session-checkout"

	_, err := e.carts.AddItem(1, 1, sid, p.ProductID, "", 2)
	require.NoError(t, err)

	// the draft mirror exists before checkout
	var draft model.Order
	require.NoError(t, e.store.Scope().Where("id = ?", DraftOrderID(sid)).First(&draft).Error)

	order, err := e.orders.CreateFromCart(1, 1, sid, model.CustomerInfo{Name: "Ada", Email: "ada@test"},
		model.Address{Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}, model.Address{})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "CNS-01", order.Items[0].SKU)
	assert.InDelta(t, 80.0, order.Subtotal, 0.001)
	assert.InDelta(t, 7.2, order.Tax, 0.001)
	// subtotal under the free-shipping threshold pays the flat rate
	assert.InDelta(t, 10.0, order.ShippingCost, 0.001)
	assert.InDelta(t, 97.2, order.Total, 0.001)

	// draft order gone, cart emptied
	err = e.store.Scope().Where("id = ?", DraftOrderID(sid)).First(&model.Order{}).Error
	assert.Error(t, err)
	assert.True(t, e.carts.Get(1, 1, sid).IsEmpty())

	// the order item is a frozen snapshot: a later product edit does not touch it
	_, err = e.versions.Update(1, p.ProductID, &model.Product{
		Name: "Console X", SKU: "CNS-02", Price: 45, Stock: intPtr(50), MarketID: 1,
	}, "editor", "")
	require.NoError(t, err)
	reloaded, err := e.orders.Get(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "CNS-01", reloaded.Items[0].SKU)
	assert.InDelta(t, 40.0, reloaded.Items[0].UnitPrice, 0.001)
}

func TestCreateFromCartFreeShippingOverThreshold(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 60, intPtr(50), nil)
	sid := "session-free-shipping"

	_, err := e.carts.AddItem(1, 1, sid, p.ProductID, "", 2)
	require.NoError(t, err)

	order, err := e.orders.CreateFromCart(1, 1, sid, model.CustomerInfo{Name: "Ada"}, model.Address{}, model.Address{})
	require.NoError(t, err)
	assert.InDelta(t, 120.0, order.Subtotal, 0.001)
	assert.InDelta(t, 0.0, order.ShippingCost, 0.001)
}
