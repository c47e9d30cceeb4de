package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository is the narrow checkout view of the customer's cart. Cart
// item CRUD lives with the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListLines(ctx context.Context, userID uuid.UUID) ([]Line, error)
	Clear(ctx context.Context, userID uuid.UUID, itemIDs []int64) (int64, error)
}
