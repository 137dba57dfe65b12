package service

import (
	"go.uber.org/zap"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
	"commerce-service/pkg/database"
	"commerce-service/pkg/logger"
)

// Stock adjustment directions.
const (
	StockDecrease = "decrease"
	StockIncrease = "increase"
)

// StockService is the stock ledger: it mutates quantity on the current
// version record only and never creates a new version. Misses are
// absorbed silently; ledger calls run as side effects of transitions
// that were already validated, so a miss here signals an external race,
// not a caller error.
type StockService struct {
	store    *database.Store
	versions *VersionService
}

func NewStockService(store *database.Store, versions *VersionService) *StockService {
	return &StockService{store: store, versions: versions}
}

// SetProductStock unconditionally overwrites the current version's
// product-level stock quantity.
func (s *StockService) SetProductStock(tenantID uint, productID string, quantity int) error {
	current, err := s.versions.GetCurrent(tenantID, productID)
	if err != nil {
		if apperr.IsNotFound(err) {
			logger.GetLogger().Warn("Stock set skipped, product missing",
				zap.String("product_id", productID))
			return nil
		}
		return err
	}

	result := s.store.Scope().Model(&model.Product{}).
		Where("id = ?", current.ID).
		Update("stock", quantity)
	if result.Error != nil {
		return result.Error
	}

	logger.GetLogger().Info("Product stock set",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return nil
}

// AdjustVariantStock moves a variant's stock by delta. Decreases floor
// at zero; increases are unbounded. Missing product, variant list or
// variant is a silent no-op.
func (s *StockService) AdjustVariantStock(tenantID uint, productID, variantID string, delta int, direction string) error {
	current, err := s.versions.GetCurrent(tenantID, productID)
	if err != nil {
		if apperr.IsNotFound(err) {
			logger.GetLogger().Warn("Variant stock adjustment skipped, product missing",
				zap.String("product_id", productID),
				zap.String("variant_id", variantID))
			return nil
		}
		return err
	}
	if len(current.Variants) == 0 {
		return nil
	}
	variant := current.Variant(variantID)
	if variant == nil {
		logger.GetLogger().Warn("Variant stock adjustment skipped, variant missing",
			zap.String("product_id", productID),
			zap.String("variant_id", variantID))
		return nil
	}

	switch direction {
	case StockDecrease:
		variant.Stock -= delta
		if variant.Stock < 0 {
			variant.Stock = 0
		}
	case StockIncrease:
		variant.Stock += delta
	default:
		return nil
	}

	// The whole variant collection is persisted on write; the record's
	// version number stays untouched.
	if result := s.store.Scope().Save(current); result.Error != nil {
		return result.Error
	}

	logger.GetLogger().Info("Variant stock adjusted",
		zap.String("product_id", productID),
		zap.String("variant_id", variantID),
		zap.String("direction", direction),
		zap.Int("delta", delta),
		zap.Int("stock", variant.Stock))
	return nil
}
