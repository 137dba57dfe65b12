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

// CategoryRequest defines the structure for category creation/update requests
type CategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	ParentID *uint  `json:"parent_id"`
}

type CategoryHandler struct {
	Categories *service.CategoryService
}

// ListCategories retrieves all product categories for a specific tenant
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	categories, err := h.Categories.List(tenant)
	if err != nil {
		return fail(c, log, err, "Failed to retrieve categories")
	}

	log.Info("Categories retrieved successfully",
		zap.Int("count", len(categories)),
		zap.Uint("tenant_id", tenant))
	return c.JSON(http.StatusOK, categories)
}

// GetCategory retrieves a specific category by ID
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	category, err := h.Categories.Get(tenant, uint(id))
	if err != nil {
		return fail(c, log, err, "Failed to retrieve category")
	}

	log.Info("Category retrieved successfully",
		zap.Uint("category_id", category.ID),
		zap.String("category_name", category.Name))
	return c.JSON(http.StatusOK, category)
}

// CreateCategory adds a new product category
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	category, err := h.Categories.Create(&model.ProductCategory{
		Name:     req.Name,
		ParentID: req.ParentID,
		TenantID: tenant,
	})
	if err != nil {
		return fail(c, log, err, "Failed to create category")
	}

	prometheus.CategoryOperationsCounter.WithLabelValues("create").Inc()
	log.Info("Category created successfully",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name),
		zap.Uint("tenant_id", tenant))
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory renames or re-parents an existing category
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	category, err := h.Categories.Update(tenant, uint(id), req.Name, req.ParentID)
	if err != nil {
		return fail(c, log, err, "Failed to update category")
	}

	prometheus.CategoryOperationsCounter.WithLabelValues("update").Inc()
	log.Info("Category updated successfully",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name))
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, ok := tenantID(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	if err := h.Categories.Delete(tenant, uint(id)); err != nil {
		return fail(c, log, err, "Failed to delete category")
	}

	prometheus.CategoryOperationsCounter.WithLabelValues("delete").Inc()
	log.Info("Category deleted successfully", zap.Uint64("category_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Category deleted successfully"})
}
