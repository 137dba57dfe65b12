package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"commerce-service/internal/model"
	"commerce-service/pkg/config"
	"commerce-service/pkg/database"
)

// engine bundles the wired services over an in-memory store.
type engine struct {
	store      *database.Store
	versions   *VersionService
	stock      *StockService
	carts      *CartService
	orders     *OrderService
	categories *CategoryService
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A fresh pool connection would see an empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	store, err := database.NewStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	versions := NewVersionService(store)
	stock := NewStockService(store, versions)
	carts := NewCartService(store, versions)
	checkout := config.CheckoutConfig{
		TaxRate:               0.09,
		ShippingFlatRate:      10.0,
		FreeShippingThreshold: 100.0,
	}
	orders := NewOrderService(store, versions, stock, carts, checkout)

	return &engine{
		store:      store,
		versions:   versions,
		stock:      stock,
		carts:      carts,
		orders:     orders,
		categories: NewCategoryService(store),
	}
}

func intPtr(n int) *int { return &n }

func (e *engine) seedProduct(t *testing.T, name, sku string, price float64, stock *int, variants []model.ProductVariant) *model.Product {
	t.Helper()
	p, err := e.versions.Create(&model.Product{
		Name:     name,
		SKU:      sku,
		Price:    price,
		Currency: "USD",
		Stock:    stock,
		Variants: variants,
		TenantID: 1,
		MarketID: 1,
		IsActive: true,
	}, "seeder@test")
	require.NoError(t, err)
	return p
}

func (e *engine) seedOrder(t *testing.T, status string, items []model.OrderItem) *model.Order {
	t.Helper()
	order := &model.Order{
		ID:          "11112222-3333-4444-5555-666677778888",
		TenantID:    1,
		MarketID:    1,
		OrderNumber: "ORD-TEST",
		Status:      status,
		Customer:    model.CustomerInfo{Name: "Test Customer", Email: "customer@test"},
		Items:       items,
	}
	for _, item := range items {
		order.Subtotal += item.UnitPrice * float64(item.Quantity)
	}
	order.Total = order.Subtotal
	require.NoError(t, e.store.Scope().Create(order).Error)
	return order
}

func (e *engine) productStock(t *testing.T, productID string) int {
	t.Helper()
	current, err := e.versions.GetCurrent(1, productID)
	require.NoError(t, err)
	require.NotNil(t, current.Stock)
	return *current.Stock
}

func (e *engine) variantStock(t *testing.T, productID, variantID string) int {
	t.Helper()
	current, err := e.versions.GetCurrent(1, productID)
	require.NoError(t, err)
	variant := current.Variant(variantID)
	require.NotNil(t, variant)
	return variant.Stock
}
