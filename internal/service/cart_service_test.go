package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
)

func (e *engine) draftOrder(t *testing.T, sessionID string) (*model.Order, bool) {
	t.Helper()
	var draft model.Order
	err := e.store.Scope().Where("id = ?", DraftOrderID(sessionID)).First(&draft).Error
	if err != nil {
		return nil, false
	}
	return &draft, true
}

func TestDraftOrderIDIsDeterministic(t *testing.T) {
	assert.Equal(t, DraftOrderID("sess-1"), DraftOrderID("sess-1"))
	assert.NotEqual(t, DraftOrderID("sess-1"), DraftOrderID("sess-2"))
}

func TestAddItemCreatesSingleDraftOrder(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 100, intPtr(10), nil)
	sid := "sess-add"

	cart, err := e.carts.AddItem(1, 1, sid, p.ProductID, "", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	draft, ok := e.draftOrder(t, sid)
	require.True(t, ok)
	assert.Equal(t, model.OrderStatusNew, draft.Status)
	assert.Equal(t, "Guest", draft.Customer.Name)
	assert.Empty(t, draft.Customer.Email)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "CNS-01", draft.Items[0].SKU)

	// a second add updates the same draft rather than creating another
	_, err = e.carts.AddItem(1, 1, sid, p.ProductID, "", 2)
	require.NoError(t, err)
	var count int64
	e.store.Scope().Model(&model.Order{}).Where("status = ?", model.OrderStatusNew).Count(&count)
	assert.Equal(t, int64(1), count)

	draft, ok = e.draftOrder(t, sid)
	require.True(t, ok)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, 3, draft.Items[0].Quantity)
}

func TestCartTotalsUseAdminTaxRate(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 100, intPtr(10), nil)

	cart, err := e.carts.AddItem(1, 1, "sess-totals", p.ProductID, "", 2)
	require.NoError(t, err)

	assert.InDelta(t, 200.0, cart.Subtotal, 0.001)
	assert.InDelta(t, 16.0, cart.Tax, 0.001)
	assert.InDelta(t, 216.0, cart.Total, 0.001)

	draft, ok := e.draftOrder(t, "sess-totals")
	require.True(t, ok)
	assert.InDelta(t, 216.0, draft.Total, 0.001)
}

func TestRemoveLastItemDeletesDraftOrder(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 100, intPtr(10), nil)
	sid := "sess-remove"

	_, err := e.carts.AddItem(1, 1, sid, p.ProductID, "", 1)
	require.NoError(t, err)
	_, ok := e.draftOrder(t, sid)
	require.True(t, ok)

	cart, err := e.carts.RemoveItem(1, 1, sid, p.ProductID, "")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	_, ok = e.draftOrder(t, sid)
	assert.False(t, ok)
}

func TestUpdateQuantityZeroRemovesItem(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 100, intPtr(10), nil)
	other := e.seedProduct(t, "Radio", "RAD-01", 50, intPtr(10), nil)
	sid := "sess-update"

	_, err := e.carts.AddItem(1, 1, sid, p.ProductID, "", 2)
	require.NoError(t, err)
	_, err = e.carts.AddItem(1, 1, sid, other.ProductID, "", 1)
	require.NoError(t, err)

	cart, err := e.carts.UpdateItemQuantity(1, 1, sid, p.ProductID, "", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, other.ProductID, cart.Items[0].ProductID)

	// the draft still mirrors the remaining line
	draft, ok := e.draftOrder(t, sid)
	require.True(t, ok)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "RAD-01", draft.Items[0].SKU)
}

func TestUpdateMissingItemNotFound(t *testing.T) {
	e := newEngine(t)
	_, err := e.carts.UpdateItemQuantity(1, 1, "sess-miss", "no-such-product", "", 2)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddUnknownProductNotFound(t *testing.T) {
	e := newEngine(t)
	_, err := e.carts.AddItem(1, 1, "sess-unknown", "no-such-product", "", 1)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddVariantResolvesVariantSKUAndPrice(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Shirt", "SHT", 25, nil, []model.ProductVariant{
		{ID: "v-s", Name: "Small", SKU: "SHT-S", Price: 22, Stock: 8},
	})

	cart, err := e.carts.AddItem(1, 1, "sess-variant", p.ProductID, "v-s", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "SHT-S", cart.Items[0].SKU)
	assert.Equal(t, "Shirt - Small", cart.Items[0].Name)
	assert.InDelta(t, 22.0, cart.Items[0].UnitPrice, 0.001)

	_, err = e.carts.AddItem(1, 1, "sess-variant", p.ProductID, "v-zzz", 1)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSyncRefreshesStaleSKUFromLiveProduct(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 100, intPtr(10), nil)
	sid := "sess-stale"

	_, err := e.carts.AddItem(1, 1, sid, p.ProductID, "", 1)
	require.NoError(t, err)

	// catalog edit changes the SKU under the cart
	_, err = e.versions.Update(1, p.ProductID, &model.Product{
		Name: "Console", SKU: "CNS-02", Price: 100, Stock: intPtr(10), MarketID: 1,
	}, "editor", "")
	require.NoError(t, err)

	e.carts.Sync(1, 1, sid)

	draft, ok := e.draftOrder(t, sid)
	require.True(t, ok)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "CNS-02", draft.Items[0].SKU)
}

func TestClearEmptiesCartAndDeletesDraft(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Console", "CNS-01", 100, intPtr(10), nil)
	sid := "sess-clear"

	_, err := e.carts.AddItem(1, 1, sid, p.ProductID, "", 2)
	require.NoError(t, err)

	e.carts.Clear(sid)

	assert.True(t, e.carts.Get(1, 1, sid).IsEmpty())
	_, ok := e.draftOrder(t, sid)
	assert.False(t, ok)
}
