package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/pkg/db/models"
)

// Line is a cart item joined with its product and optional variant. Product
// is nil when the catalog no longer has the row.
type Line struct {
	Item    models.CartItem
	Product *models.Product
	Variant *models.ProductVariant
}

// Repository reads cart lines for checkout.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListLines loads the user's cart items in insertion order along with the
// referenced catalog rows.
func (r *Repository) ListLines(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	productIDs := make([]int64, 0, len(items))
	variantIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		if item.VariantID != nil {
			variantIDs = append(variantIDs, *item.VariantID)
		}
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, err
	}
	productByID := make(map[int64]*models.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	variantByID := map[int64]*models.ProductVariant{}
	if len(variantIDs) > 0 {
		var variants []models.ProductVariant
		if err := r.db.WithContext(ctx).Where("id IN ?", variantIDs).Find(&variants).Error; err != nil {
			return nil, err
		}
		for i := range variants {
			variantByID[variants[i].ID] = &variants[i]
		}
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		line := Line{Item: item, Product: productByID[item.ProductID]}
		if item.VariantID != nil {
			line.Variant = variantByID[*item.VariantID]
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Clear deletes the given cart items owned by userID and returns how many
// rows were removed.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
