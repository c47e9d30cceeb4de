// Package notifications records customer-facing order notifications. Email
// and SMS delivery happen downstream of the stored rows.
package notifications

import (
	"context"
	"fmt"

	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
)

// Dispatcher writes one in-app notification per order event.
type Dispatcher struct {
	repo Repository
	logg *logger.Logger
}

// NewDispatcher wires notification dependencies.
func NewDispatcher(repo Repository, logg *logger.Logger) (*Dispatcher, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{repo: repo, logg: logg}, nil
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, order *models.Order) error {
	return d.send(ctx, order, enums.NotificationTypeOrderPlaced, "Order received",
		fmt.Sprintf("Your order %s has been placed. Total: %s %s.", order.OrderNumber, order.Currency, order.GrandTotal.StringFixed(2)))
}

func (d *Dispatcher) PaymentConfirmed(ctx context.Context, order *models.Order) error {
	return d.send(ctx, order, enums.NotificationTypePaymentConfirmed, "Payment confirmed",
		fmt.Sprintf("We received your payment for order %s. It is now being processed.", order.OrderNumber))
}

func (d *Dispatcher) OrderCancelled(ctx context.Context, order *models.Order) error {
	return d.send(ctx, order, enums.NotificationTypeOrderCancelled, "Order cancelled",
		fmt.Sprintf("Your order %s has been cancelled.", order.OrderNumber))
}

func (d *Dispatcher) OrderRefunded(ctx context.Context, order *models.Order) error {
	return d.send(ctx, order, enums.NotificationTypeOrderRefunded, "Order refunded",
		fmt.Sprintf("Your order %s has been refunded.", order.OrderNumber))
}

func (d *Dispatcher) send(ctx context.Context, order *models.Order, kind enums.NotificationType, title, message string) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	orderID := order.ID
	row := &models.Notification{
		UserID:  order.UserID,
		OrderID: &orderID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := d.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notification")
	}

	ctx = d.logg.WithOrderID(ctx, order.ID)
	ctx = d.logg.WithField(ctx, "notification_type", string(kind))
	d.logg.Info(ctx, "notification.dispatched")
	return nil
}

// BestEffort runs send and only logs a failure. Callers use it after the
// owning transaction has committed.
func BestEffort(ctx context.Context, logg *logger.Logger, event string, send func(context.Context) error) {
	if send == nil {
		return
	}
	if logg == nil {
		logg = logger.Nop()
	}
	defer func() {
		if r := recover(); r != nil {
			logg.Error(logg.WithField(ctx, "event", event), "notification panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	if err := send(ctx); err != nil {
		logg.Error(logg.WithField(ctx, "event", event), "notification failed", err)
	}
}
