package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
	"commerce-service/pkg/database"
	"commerce-service/pkg/logger"
)

// VersionService owns the product version chain: exactly one current
// record per product id, strictly increasing version numbers, full
// replacement of the attribute set on every edit.
type VersionService struct {
	store *database.Store
}

func NewVersionService(store *database.Store) *VersionService {
	return &VersionService{store: store}
}

// GetCurrent returns the record with is_current = true for the product.
func (s *VersionService) GetCurrent(tenantID uint, productID string) (*model.Product, error) {
	var p model.Product
	result := s.store.Scope().
		Where("tenant_id = ? AND product_id = ? AND is_current = ?", tenantID, productID, true).
		First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", productID)
		}
		return nil, result.Error
	}
	return &p, nil
}

// Create inserts version 1 of a new product chain.
func (s *VersionService) Create(p *model.Product, createdBy string) (*model.Product, error) {
	if p.TenantID == 0 {
		return nil, apperr.BadRequest("tenant_id is required")
	}
	if p.MarketID == 0 {
		return nil, apperr.BadRequest("market_id is required")
	}
	if p.Name == "" {
		return nil, apperr.BadRequest("product name is required")
	}

	now := time.Now()
	p.ID = 0
	if p.ProductID == "" {
		p.ProductID = uuid.NewString()
	}
	p.Version = 1
	p.IsCurrent = true
	p.CreatedAt = now
	p.VersionCreatedAt = now
	p.VersionCreatedBy = createdBy

	if result := s.store.Scope().Create(p); result.Error != nil {
		return nil, result.Error
	}

	logger.GetLogger().Info("Product created",
		zap.String("product_id", p.ProductID),
		zap.Uint("tenant_id", p.TenantID),
		zap.String("sku", p.SKU))
	return p, nil
}

// Update creates the next version from a full replacement payload and
// flips the current flag. createdAt is carried over from the original
// record, untouched by any number of edits.
func (s *VersionService) Update(tenantID uint, productID string, payload *model.Product, editedBy, notes string) (*model.Product, error) {
	current, err := s.GetCurrent(tenantID, productID)
	if err != nil {
		return nil, err
	}

	var maxVersion int
	result := s.store.Scope().Model(&model.Product{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion)
	if result.Error != nil {
		return nil, result.Error
	}

	next := *payload
	next.ID = 0
	next.ProductID = productID
	next.TenantID = tenantID
	next.Version = maxVersion + 1
	next.IsCurrent = true
	next.CreatedAt = current.CreatedAt
	next.VersionCreatedAt = time.Now()
	next.VersionCreatedBy = editedBy
	next.ChangeNotes = notes

	result = s.store.Scope().Model(&model.Product{}).
		Where("id = ?", current.ID).
		Update("is_current", false)
	if result.Error != nil {
		return nil, result.Error
	}

	if result := s.store.Scope().Create(&next); result.Error != nil {
		return nil, result.Error
	}

	logger.GetLogger().Info("Product version created",
		zap.String("product_id", productID),
		zap.Int("version", next.Version),
		zap.String("edited_by", editedBy))
	return &next, nil
}

// ListVersions returns every version record, newest first.
func (s *VersionService) ListVersions(tenantID uint, productID string) ([]model.Product, error) {
	var versions []model.Product
	result := s.store.Scope().
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("version DESC").
		Find(&versions)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(versions) == 0 {
		return nil, apperr.NotFound("product %s not found", productID)
	}
	return versions, nil
}

// GetVersion returns one specific version record.
func (s *VersionService) GetVersion(tenantID uint, productID string, version int) (*model.Product, error) {
	var p model.Product
	result := s.store.Scope().
		Where("tenant_id = ? AND product_id = ? AND version = ?", tenantID, productID, version).
		First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("version %d of product %s not found", version, productID)
		}
		return nil, result.Error
	}
	return &p, nil
}

// Restore flips the current flag to a historical version. No new version
// record is created; the target record itself becomes current again and
// gains an audit note.
func (s *VersionService) Restore(tenantID uint, productID string, version int, restoredBy string) (*model.Product, error) {
	target, err := s.GetVersion(tenantID, productID, version)
	if err != nil {
		return nil, err
	}
	current, err := s.GetCurrent(tenantID, productID)
	if err != nil {
		return nil, err
	}

	result := s.store.Scope().Model(&model.Product{}).
		Where("id = ?", current.ID).
		Update("is_current", false)
	if result.Error != nil {
		return nil, result.Error
	}

	note := fmt.Sprintf("Restored version %d by %s", version, restoredBy)
	if target.ChangeNotes != "" {
		note = target.ChangeNotes + " | " + note
	}
	target.IsCurrent = true
	target.ChangeNotes = note
	result = s.store.Scope().Model(&model.Product{}).
		Where("id = ?", target.ID).
		Updates(map[string]interface{}{"is_current": true, "change_notes": note})
	if result.Error != nil {
		return nil, result.Error
	}

	logger.GetLogger().Info("Product version restored",
		zap.String("product_id", productID),
		zap.Int("version", version),
		zap.String("restored_by", restoredBy))
	return target, nil
}

// DeleteAll removes every version record for the product. Idempotent.
func (s *VersionService) DeleteAll(tenantID uint, productID string) error {
	result := s.store.Scope().
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Delete(&model.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		logger.GetLogger().Info("Product deleted",
			zap.String("product_id", productID),
			zap.Int64("versions_removed", result.RowsAffected))
	}
	return nil
}

// ListCurrent returns the current version of every product for a tenant,
// optionally filtered by active flag, market and category subtree.
func (s *VersionService) ListCurrent(tenantID uint, filter ProductFilter) ([]model.Product, error) {
	query := s.store.Scope().
		Where("tenant_id = ? AND is_current = ?", tenantID, true)
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.MarketID != 0 {
		query = query.Where("market_id = ?", filter.MarketID)
	}

	var products []model.Product
	if result := query.Order("created_at DESC").Find(&products); result.Error != nil {
		return nil, result.Error
	}

	if len(filter.CategoryIDs) == 0 {
		return products, nil
	}
	wanted := make(map[uint]bool, len(filter.CategoryIDs))
	for _, id := range filter.CategoryIDs {
		wanted[id] = true
	}
	filtered := products[:0]
	for _, p := range products {
		for _, cid := range p.CategoryIDs {
			if wanted[cid] {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// ProductFilter narrows ListCurrent results. CategoryIDs is normally a
// category id plus its resolved descendants.
type ProductFilter struct {
	ActiveOnly  bool
	MarketID    uint
	CategoryIDs []uint
}
