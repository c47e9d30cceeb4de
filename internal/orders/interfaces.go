package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/internal/delivery"
	"github.com/shoplane/storefront-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	MarkCancelled(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkRefunded(ctx context.Context, id int64, at time.Time) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockAdjuster is the single entry point for product and variant stock changes.
type StockAdjuster interface {
	Adjust(ctx context.Context, tx *gorm.DB, adj StockAdjustment) error
}

// Notifier sends customer notifications for order events.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderCancelled(ctx context.Context, order *models.Order) error
	OrderRefunded(ctx context.Context, order *models.Order) error
}

type deliveryQuoter interface {
	Quote(ctx context.Context, input delivery.QuoteInput) (*delivery.Quote, error)
}

type pointFinder interface {
	FindByID(ctx context.Context, id int64) (*models.FulfillmentPoint, error)
}
