package service

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
	"commerce-service/pkg/database"
	"commerce-service/pkg/logger"
)

// CategoryService is adjacent CRUD around the engine: tenant-scoped
// category management plus the descendant resolution used by product
// filtering.
type CategoryService struct {
	store *database.Store
}

func NewCategoryService(store *database.Store) *CategoryService {
	return &CategoryService{store: store}
}

// List returns every category for a tenant.
func (s *CategoryService) List(tenantID uint) ([]model.ProductCategory, error) {
	var categories []model.ProductCategory
	result := s.store.Scope().Where("tenant_id = ?", tenantID).Find(&categories)
	if result.Error != nil {
		return nil, result.Error
	}
	return categories, nil
}

// Get returns one category.
func (s *CategoryService) Get(tenantID, categoryID uint) (*model.ProductCategory, error) {
	var category model.ProductCategory
	result := s.store.Scope().
		Where("id = ? AND tenant_id = ?", categoryID, tenantID).
		First(&category)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category %d not found", categoryID)
		}
		return nil, result.Error
	}
	return &category, nil
}

// Create adds a category; duplicate names within a tenant conflict.
func (s *CategoryService) Create(category *model.ProductCategory) (*model.ProductCategory, error) {
	if category.TenantID == 0 {
		return nil, apperr.BadRequest("tenant_id is required")
	}
	if category.Name == "" {
		return nil, apperr.BadRequest("category name is required")
	}

	var count int64
	s.store.Scope().Model(&model.ProductCategory{}).
		Where("name = ? AND tenant_id = ?", category.Name, category.TenantID).
		Count(&count)
	if count > 0 {
		return nil, apperr.Conflict("category with this name already exists")
	}

	if result := s.store.Scope().Create(category); result.Error != nil {
		return nil, result.Error
	}
	logger.GetLogger().Info("Category created",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name),
		zap.Uint("tenant_id", category.TenantID))
	return category, nil
}

// Update renames or re-parents a category.
func (s *CategoryService) Update(tenantID, categoryID uint, name string, parentID *uint) (*model.ProductCategory, error) {
	category, err := s.Get(tenantID, categoryID)
	if err != nil {
		return nil, err
	}

	if name != "" && name != category.Name {
		var count int64
		s.store.Scope().Model(&model.ProductCategory{}).
			Where("name = ? AND tenant_id = ? AND id != ?", name, tenantID, categoryID).
			Count(&count)
		if count > 0 {
			return nil, apperr.Conflict("category with this name already exists")
		}
		category.Name = name
	}
	category.ParentID = parentID

	if result := s.store.Scope().Save(category); result.Error != nil {
		return nil, result.Error
	}
	return category, nil
}

// Delete removes a category (soft delete). Idempotent.
func (s *CategoryService) Delete(tenantID, categoryID uint) error {
	result := s.store.Scope().
		Where("id = ? AND tenant_id = ?", categoryID, tenantID).
		Delete(&model.ProductCategory{})
	return result.Error
}

// Descendants resolves a category id plus its whole subtree as a flat
// id list. Iterative traversal with a visited set; categories are not
// expected to cycle but a malformed parent link must not hang the
// request.
func (s *CategoryService) Descendants(tenantID, categoryID uint) ([]uint, error) {
	categories, err := s.List(tenantID)
	if err != nil {
		return nil, err
	}

	children := make(map[uint][]uint, len(categories))
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	ids := []uint{categoryID}
	visited := map[uint]bool{categoryID: true}
	queue := []uint{categoryID}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range children[next] {
			if visited[child] {
				continue
			}
			visited[child] = true
			ids = append(ids, child)
			queue = append(queue, child)
		}
	}
	return ids, nil
}
