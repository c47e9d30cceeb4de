package payments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
)

// Completion is what a winning reconciliation writes onto the payment row.
type Completion struct {
	TransactionID string
	RawPayload    string
	Channel       enums.ReconcileChannel
	At            time.Time
}

// Repository persists payment attempts and the order payment fields they drive.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindByTransactionID(ctx context.Context, gw enums.PaymentGateway, transactionID string) (*models.Payment, error)
	FindLatestByOrder(ctx context.Context, orderID int64) (*models.Payment, error)
	Complete(ctx context.Context, id int64, c Completion) (bool, error)

	FindOrder(ctx context.Context, id int64) (*models.Order, error)
	FindOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	SetOrderPaymentReference(ctx context.Context, orderID int64, reference string) error
	MarkOrderPaid(ctx context.Context, orderID int64, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByTransactionID(ctx context.Context, gw enums.PaymentGateway, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("gateway = ? AND gateway_transaction_id = ?", gw, transactionID).
		Order("id DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindLatestByOrder(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id DESC").First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// Complete moves a pending payment to completed. It reports false when another
// caller completed it first.
func (r *repository) Complete(ctx context.Context, id int64, c Completion) (bool, error) {
	updates := map[string]any{
		"status":       enums.PaymentStatusCompleted,
		"completed_at": c.At,
		"channel":      c.Channel,
		"updated_at":   c.At,
	}
	if c.RawPayload != "" {
		updates["raw_payload"] = c.RawPayload
	}
	if c.TransactionID != "" {
		updates["gateway_transaction_id"] = c.TransactionID
	}
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderByReference matches the order-side payment reference or the order number.
func (r *repository) FindOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("payment_reference = ? OR order_number = ?", reference, reference).
		Order("id DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) SetOrderPaymentReference(ctx context.Context, orderID int64, reference string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_reference", reference).Error
}

// MarkOrderPaid flips payment_status to paid and moves the order into
// processing. Terminal or already paid orders are left untouched.
func (r *repository) MarkOrderPaid(ctx context.Context, orderID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ? AND status IN ?", orderID, enums.OrderPaymentStatusPending,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing}).
		Updates(map[string]any{
			"payment_status": enums.OrderPaymentStatusPaid,
			"status":         enums.OrderStatusProcessing,
			"paid_at":        at,
			"updated_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
