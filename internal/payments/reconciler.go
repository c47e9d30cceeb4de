package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/internal/notifications"
	"github.com/shoplane/storefront-backend/pkg/clock"
	"github.com/shoplane/storefront-backend/pkg/db"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/metrics"
)

// errOrderPaidElsewhere rolls back a completion when a different attempt
// already settled the order.
var errOrderPaidElsewhere = errors.New("order already paid by another payment attempt")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentNotifier tells the customer their payment landed.
type PaymentNotifier interface {
	PaymentConfirmed(ctx context.Context, order *models.Order) error
}

// ReconcileInput identifies a remote payment and what the gateway claims about it.
type ReconcileInput struct {
	Gateway         enums.PaymentGateway
	Reference       string
	TransactionID   string
	ClaimedAmount   *decimal.Decimal
	ClaimedCurrency string
	RawPayload      string
	Channel         enums.ReconcileChannel
}

// ReconcileResult is the order after reconciliation. AlreadyProcessed is the
// idempotent success case, not an error.
type ReconcileResult struct {
	Order            *models.Order
	Payment          *models.Payment
	AlreadyProcessed bool
}

type ReconcilerParams struct {
	Tx       txRunner
	Repo     Repository
	Notifier PaymentNotifier
	Clock    clock.Clock
	Metrics  *metrics.Checkout
	Logger   *logger.Logger
}

// Reconciler is the single place a payment moves from pending to completed.
// Callback, verify and webhook all go through Reconcile.
type Reconciler struct {
	tx       txRunner
	repo     Repository
	notifier PaymentNotifier
	clock    clock.Clock
	metrics  *metrics.Checkout
	logg     *logger.Logger
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("payment notifier required")
	}
	if params.Clock == nil {
		params.Clock = clock.System
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Reconciler{
		tx:       params.Tx,
		repo:     params.Repo,
		notifier: params.Notifier,
		clock:    params.Clock,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (r *Reconciler) Reconcile(ctx context.Context, in ReconcileInput) (*ReconcileResult, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.Reference == "" && in.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required").
			WithDetails(map[string]any{"reference": "required"})
	}
	if !in.Channel.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown reconciliation channel %q", in.Channel)
	}
	ctx = r.logg.WithFields(ctx, map[string]any{
		"payment_reference": in.Reference,
		"reconcile_channel": string(in.Channel),
	})

	result, err := r.reconcile(ctx, in)
	if errors.Is(err, errOrderPaidElsewhere) {
		result, err = r.paidElsewhere(ctx, in)
	}
	r.metrics.ObserveReconciliation(string(in.Channel), outcomeFor(result, err))
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
			r.logg.Error(ctx, "payment received for an order that can no longer be paid", err)
		}
		return nil, err
	}

	ctx = r.logg.WithOrderID(ctx, result.Order.ID)
	if result.AlreadyProcessed {
		r.logg.Info(ctx, "payment.already_processed")
		return result, nil
	}

	r.logg.Info(ctx, "payment.reconciled")
	order := result.Order
	notifications.BestEffort(ctx, r.logg, "payment_confirmed", func(ctx context.Context) error {
		return r.notifier.PaymentConfirmed(ctx, order)
	})
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, in ReconcileInput) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)

		payment, err := r.locate(ctx, repo, in)
		if err != nil {
			return err
		}
		order, err := repo.FindOrder(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if payment.Status == enums.PaymentStatusCompleted {
			result = &ReconcileResult{Order: order, Payment: payment, AlreadyProcessed: true}
			return nil
		}
		if err := checkClaim(payment, in); err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return terminalOrder(order)
		}
		if order.PaymentStatus == enums.OrderPaymentStatusPaid {
			return errOrderPaidElsewhere
		}
		if !payment.Status.CanTransitionTo(enums.PaymentStatusCompleted) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "payment cannot be completed from %s", payment.Status)
		}

		now := r.clock.Now()
		won, err := repo.Complete(ctx, payment.ID, Completion{
			TransactionID: in.TransactionID,
			RawPayload:    in.RawPayload,
			Channel:       in.Channel,
			At:            now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}
		if !won {
			current, err := repo.FindByReference(ctx, payment.Reference)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
			}
			result = &ReconcileResult{Order: order, Payment: current, AlreadyProcessed: true}
			return nil
		}

		paid, err := repo.MarkOrderPaid(ctx, order.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !paid {
			current, err := repo.FindOrder(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			if current.Status.IsTerminal() {
				return terminalOrder(current)
			}
			return errOrderPaidElsewhere
		}

		order, err = repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		payment, err = repo.FindByReference(ctx, payment.Reference)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		result = &ReconcileResult{Order: order, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// paidElsewhere reports the idempotent outcome once the losing attempt has
// been rolled back.
func (r *Reconciler) paidElsewhere(ctx context.Context, in ReconcileInput) (*ReconcileResult, error) {
	payment, err := r.locate(ctx, r.repo, in)
	if err != nil {
		return nil, err
	}
	order, err := r.repo.FindOrder(ctx, payment.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	r.logg.Warn(r.logg.WithField(ctx, "payment_id", payment.ID), "order already settled by another payment attempt")
	return &ReconcileResult{Order: order, Payment: payment, AlreadyProcessed: true}, nil
}

// locate tries the payment reference, then the gateway transaction id, then
// the order-side reference. It never creates a payment.
func (r *Reconciler) locate(ctx context.Context, repo Repository, in ReconcileInput) (*models.Payment, error) {
	payment, err := r.lookup(ctx, repo, in)
	if err != nil {
		return nil, err
	}
	if payment == nil || (in.Gateway != "" && payment.Gateway != in.Gateway) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found").
			WithDetails(map[string]any{"reference": in.Reference})
	}
	return payment, nil
}

func (r *Reconciler) lookup(ctx context.Context, repo Repository, in ReconcileInput) (*models.Payment, error) {
	if in.Reference != "" {
		payment, err := repo.FindByReference(ctx, in.Reference)
		if err == nil {
			return payment, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
	}

	if in.TransactionID != "" && in.Gateway.IsValid() {
		payment, err := repo.FindByTransactionID(ctx, in.Gateway, in.TransactionID)
		if err == nil {
			return payment, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
	}

	if in.Reference == "" {
		return nil, nil
	}
	order, err := repo.FindOrderByReference(ctx, in.Reference)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	payment, err := repo.FindLatestByOrder(ctx, order.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

// checkClaim rejects underpayment and currency mismatch without transitioning.
func checkClaim(payment *models.Payment, in ReconcileInput) error {
	if in.ClaimedCurrency != "" && !strings.EqualFold(in.ClaimedCurrency, string(payment.Currency)) {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "payment currency does not match the order").
			WithDetails(map[string]any{"expected": payment.Currency, "received": in.ClaimedCurrency})
	}
	if in.ClaimedAmount != nil && in.ClaimedAmount.LessThan(payment.Amount) {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "paid amount is less than the amount due").
			WithDetails(map[string]any{
				"expected": payment.Amount.StringFixed(2),
				"received": in.ClaimedAmount.StringFixed(2),
			})
	}
	return nil
}

func terminalOrder(order *models.Order) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s and cannot be marked paid", order.Status).
		WithDetails(map[string]any{"order_id": order.ID, "status": order.Status})
}

func outcomeFor(result *ReconcileResult, err error) string {
	switch {
	case err == nil && result.AlreadyProcessed:
		return metrics.OutcomeAlreadyProcessed
	case err == nil:
		return metrics.OutcomeTransitioned
	case pkgerrors.Is(err, pkgerrors.CodeNotFound):
		return metrics.OutcomeNotFound
	case pkgerrors.Is(err, pkgerrors.CodeBusinessRule), pkgerrors.Is(err, pkgerrors.CodeStateConflict), pkgerrors.Is(err, pkgerrors.CodeValidation):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
