package fulfillment

import (
	"context"

	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/pkg/db/models"
)

// Repository reads fulfillment points. The catalog side owns writes.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*models.FulfillmentPoint, error)
	ListActive(ctx context.Context) ([]models.FulfillmentPoint, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fulfillment point repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.FulfillmentPoint, error) {
	var point models.FulfillmentPoint
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&point).Error; err != nil {
		return nil, err
	}
	return &point, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.FulfillmentPoint, error) {
	var points []models.FulfillmentPoint
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}
