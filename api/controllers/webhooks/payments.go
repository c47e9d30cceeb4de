package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/storefront-backend/api/responses"
	internalpayments "github.com/shoplane/storefront-backend/internal/payments"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
)

const maxWebhookBytes = 1 << 20

// WebhookService is the slice of the payments service a webhook needs.
type WebhookService interface {
	HandleWebhook(ctx context.Context, input internalpayments.WebhookInput) (*internalpayments.WebhookOutcome, error)
}

type ackResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// PaymentWebhook receives gateway notifications on /payments/webhook and
// /payments/webhook/{gateway}. Only a failed signature check is answered
// with an error; everything after it is acknowledged so the gateway stops
// retrying, and failures are left to the logs and the verify path.
func PaymentWebhook(svc WebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		var gw enums.PaymentGateway
		if raw := strings.TrimSpace(chi.URLParam(r, "gateway")); raw != "" {
			parsed, err := enums.ParsePaymentGateway(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown payment gateway"))
				return
			}
			gw = parsed
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		outcome, err := svc.HandleWebhook(ctx, internalpayments.WebhookInput{
			Gateway: gw,
			Headers: r.Header,
			Body:    payload,
		})
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(logg.WithField(ctx, "gateway", gw), "webhook processing failed", err)
			}
			outcome = nil
		}

		ack := ackResponse{Received: true}
		if outcome != nil {
			ack.EventID = outcome.EventID
			ack.Duplicate = outcome.Duplicate
			if logg != nil && !outcome.Ignored && !outcome.Duplicate {
				logg.Info(logg.WithFields(ctx, map[string]any{
					"gateway":           gw,
					"webhook_event_id":  outcome.EventID,
					"order_id":          outcome.OrderID,
					"already_processed": outcome.AlreadyProcessed,
				}), "webhook.processed")
			}
		}
		responses.WriteSuccess(w, ack)
	}
}
