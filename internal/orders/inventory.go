package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/pkg/db/models"
)

// ErrInsufficientStock is returned when a decrement would take stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockAdjustment changes stock on the variant when VariantID is set, else on
// the product. Negative deltas reserve stock, positive deltas restore it.
type StockAdjustment struct {
	ProductID int64
	VariantID *int64
	Delta     int
}

// Inventory applies stock adjustments as single conditional UPDATE statements
// so concurrent checkouts cannot oversell.
type Inventory struct{}

func NewInventory() Inventory {
	return Inventory{}
}

func (Inventory) Adjust(ctx context.Context, tx *gorm.DB, adj StockAdjustment) error {
	if tx == nil {
		return fmt.Errorf("stock adjustment requires a transaction")
	}
	if adj.Delta == 0 {
		return nil
	}

	query := tx.WithContext(ctx)
	if adj.VariantID != nil {
		query = query.Model(&models.ProductVariant{}).Where("id = ?", *adj.VariantID)
	} else {
		query = query.Model(&models.Product{}).Where("id = ?", adj.ProductID)
	}
	if adj.Delta < 0 {
		query = query.Where("stock >= ?", -adj.Delta)
	}

	res := query.UpdateColumn("stock", gorm.Expr("stock + ?", adj.Delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if adj.Delta < 0 {
			return ErrInsufficientStock
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}
