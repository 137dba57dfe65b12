package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"commerce-service/internal/model"
	"commerce-service/internal/service"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"
)

// ProductRequest defines the structure for product creation/update requests.
// Updates are full replacements; every mutable field must be supplied.
type ProductRequest struct {
	Name        string                 `json:"name" validate:"required"`
	Description string                 `json:"description"`
	SKU         string                 `json:"sku"`
	Price       float64                `json:"price" validate:"gte=0"`
	Currency    string                 `json:"currency"`
	Stock       *int                   `json:"stock"`
	Variants    []model.ProductVariant `json:"variants"`
	Images      []string               `json:"images"`
	CategoryIDs []uint                 `json:"category_ids"`
	MarketID    uint                   `json:"market_id"`
	IsActive    bool                   `json:"is_active"`
	ChangeNotes string                 `json:"change_notes"`
}

func (r *ProductRequest) toModel(tenantID uint) *model.Product {
	return &model.Product{
		Name:        r.Name,
		Description: r.Description,
		SKU:         r.SKU,
		Price:       r.Price,
		Currency:    r.Currency,
		Stock:       r.Stock,
		Variants:    r.Variants,
		Images:      r.Images,
		CategoryIDs: r.CategoryIDs,
		TenantID:    tenantID,
		MarketID:    r.MarketID,
		IsActive:    r.IsActive,
	}
}

// StockRequest sets the product-level stock quantity.
type StockRequest struct {
	Quantity int `json:"quantity"`
}

// VariantStockRequest moves a variant's stock by a delta.
type VariantStockRequest struct {
	Delta     int    `json:"delta"`
	Direction string `json:"direction"`
}

// RestoreRequest names the version to restore.
type RestoreRequest struct {
	Version int `json:"version" validate:"required"`
}

type ProductHandler struct {
	Versions   *service.VersionService
	Stock      *service.StockService
	Categories *service.CategoryService
}

// ListProducts returns the current version of every product, with
// optional active/market/category filtering. A category filter matches
// the category and all of its descendants.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	filter := service.ProductFilter{}
	if isActive := c.QueryParam("is_active"); isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			filter.ActiveOnly = active
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}
	if marketID := c.QueryParam("market_id"); marketID != "" {
		if id, err := strconv.ParseUint(marketID, 10, 32); err == nil {
			filter.MarketID = uint(id)
		}
	}
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		id, err := strconv.ParseUint(categoryID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}
		ids, err := h.Categories.Descendants(tenant, uint(id))
		if err != nil {
			return fail(c, log, err, "Failed to resolve category")
		}
		filter.CategoryIDs = ids
	}

	products, err := h.Versions.ListCurrent(tenant, filter)
	if err != nil {
		return fail(c, log, err, "Failed to retrieve products")
	}

	log.Info("Products retrieved successfully",
		zap.Int("count", len(products)),
		zap.Uint("tenant_id", tenant))
	return c.JSON(http.StatusOK, products)
}

// GetProduct returns the current version of a single product.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	product, err := h.Versions.GetCurrent(tenant, id)
	if err != nil {
		return fail(c, log, err, "Failed to retrieve product")
	}

	log.Info("Product retrieved successfully",
		zap.String("product_id", id),
		zap.String("product_name", product.Name),
		zap.Int("version", product.Version))
	return c.JSON(http.StatusOK, product)
}

// CreateProduct creates version 1 of a new product chain.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	product, err := h.Versions.Create(req.toModel(tenant), userEmail(c))
	if err != nil {
		return fail(c, log, err, "Failed to create product")
	}

	prometheus.ProductOperationsCounter.WithLabelValues("create").Inc()
	log.Info("Product created successfully",
		zap.String("product_id", product.ProductID),
		zap.String("name", product.Name),
		zap.String("sku", product.SKU))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct creates the next version from a full replacement payload.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	product, err := h.Versions.Update(tenant, id, req.toModel(tenant), userEmail(c), req.ChangeNotes)
	if err != nil {
		return fail(c, log, err, "Failed to update product")
	}

	prometheus.ProductOperationsCounter.WithLabelValues("update").Inc()
	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.Int("version", product.Version),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes the whole version chain. Idempotent.
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	if err := h.Versions.DeleteAll(tenant, id); err != nil {
		return fail(c, log, err, "Failed to delete product")
	}

	prometheus.ProductOperationsCounter.WithLabelValues("delete").Inc()
	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// ListVersions returns the product's version chain, newest first.
func (h *ProductHandler) ListVersions(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	versions, err := h.Versions.ListVersions(tenant, id)
	if err != nil {
		return fail(c, log, err, "Failed to retrieve versions")
	}

	log.Info("Versions retrieved successfully",
		zap.String("product_id", id),
		zap.Int("count", len(versions)))
	return c.JSON(http.StatusOK, versions)
}

// GetVersion returns one historical version record.
func (h *ProductHandler) GetVersion(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid version number"})
	}

	product, err := h.Versions.GetVersion(tenant, id, version)
	if err != nil {
		return fail(c, log, err, "Failed to retrieve version")
	}
	return c.JSON(http.StatusOK, product)
}

// RestoreVersion makes a historical version current again.
func (h *ProductHandler) RestoreVersion(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	var req RestoreRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	product, err := h.Versions.Restore(tenant, id, req.Version, userEmail(c))
	if err != nil {
		return fail(c, log, err, "Failed to restore version")
	}

	prometheus.ProductOperationsCounter.WithLabelValues("restore").Inc()
	log.Info("Product version restored",
		zap.String("product_id", id),
		zap.Int("version", req.Version))
	return c.JSON(http.StatusOK, product)
}

// SetStock overwrites the product-level stock quantity on the current
// version. Missing products are ignored silently.
func (h *ProductHandler) SetStock(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.Stock.SetProductStock(tenant, id, req.Quantity); err != nil {
		return fail(c, log, err, "Failed to set stock")
	}

	prometheus.ProductInventoryGauge.WithLabelValues(id).Set(float64(req.Quantity))
	return c.JSON(http.StatusOK, echo.Map{"message": "Stock updated"})
}

// AdjustVariantStock moves a variant's stock by a delta in either
// direction. Missing products and variants are ignored silently.
func (h *ProductHandler) AdjustVariantStock(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id := c.Param("id")
	variantID := c.Param("variantId")

	var req VariantStockRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Direction != service.StockDecrease && req.Direction != service.StockIncrease {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "direction must be increase or decrease"})
	}

	if err := h.Stock.AdjustVariantStock(tenant, id, variantID, req.Delta, req.Direction); err != nil {
		return fail(c, log, err, "Failed to adjust variant stock")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Variant stock adjusted"})
}
