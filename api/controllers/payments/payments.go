package payments

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/api/middleware"
	"github.com/shoplane/storefront-backend/api/responses"
	"github.com/shoplane/storefront-backend/api/validators"
	"github.com/shoplane/storefront-backend/internal/orders"
	internalpayments "github.com/shoplane/storefront-backend/internal/payments"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/gateway"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/money"
)

type initializeRequest struct {
	OrderID     int64            `json:"order_id" validate:"required,gt=0"`
	Gateway     string           `json:"gateway,omitempty" validate:"omitempty,oneof=paystack flutterwave"`
	Email       string           `json:"email" validate:"required,email"`
	Name        string           `json:"name,omitempty" validate:"max=200"`
	Phone       string           `json:"phone,omitempty" validate:"max=32"`
	CallbackURL string           `json:"callback_url,omitempty" validate:"omitempty,url"`
	Amount      *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0"`
	AmountUnit  string           `json:"amount_unit,omitempty"`
}

// Initialize opens a hosted checkout for one of the caller's orders.
func Initialize(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload initializeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := money.ParseUnit(payload.AmountUnit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount unit").
				WithDetails(map[string]any{"amount_unit": "must be major or minor"}))
			return
		}

		result, err := svc.Initialize(r.Context(), internalpayments.InitializeInput{
			Actor:   actorFromRequest(r),
			OrderID: payload.OrderID,
			Gateway: payload.Gateway,
			Customer: gateway.Customer{
				Email: strings.TrimSpace(payload.Email),
				Name:  validators.SanitizeString(payload.Name, 200),
				Phone: validators.SanitizeString(payload.Phone, 32),
			},
			CallbackURL: strings.TrimSpace(payload.CallbackURL),
			Amount:      payload.Amount,
			AmountUnit:  unit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type verifyRequest struct {
	Gateway       string `json:"gateway,omitempty" validate:"omitempty,oneof=paystack flutterwave"`
	Reference     string `json:"reference,omitempty" validate:"required_without=TransactionID,max=128"`
	TransactionID string `json:"transaction_id,omitempty" validate:"max=64"`
}

type verifyResponse struct {
	Success          bool               `json:"success"`
	GatewayStatus    string             `json:"gateway_status,omitempty"`
	AlreadyProcessed bool               `json:"already_processed"`
	Order            *orders.OrderDTO   `json:"order,omitempty"`
	Payment          *paymentSummaryDTO `json:"payment,omitempty"`
}

type paymentSummaryDTO struct {
	Reference     string               `json:"reference"`
	Gateway       enums.PaymentGateway `json:"gateway"`
	Status        enums.PaymentStatus  `json:"status"`
	Amount        decimal.Decimal      `json:"amount"`
	TransactionID *string              `json:"transaction_id,omitempty"`
}

// Verify asks the gateway about a reference and reconciles a successful charge.
func Verify(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload verifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.Verify(r.Context(), internalpayments.VerifyInput{
			Gateway:       payload.Gateway,
			Reference:     payload.Reference,
			TransactionID: payload.TransactionID,
			Channel:       enums.ReconcileChannelVerify,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := verifyResponse{
			Success:          outcome.Success,
			GatewayStatus:    outcome.GatewayStatus,
			AlreadyProcessed: outcome.AlreadyProcessed,
		}
		if outcome.Order != nil {
			dto := orders.NewOrderDTO(outcome.Order)
			resp.Order = &dto
		}
		if p := outcome.Payment; p != nil {
			resp.Payment = &paymentSummaryDTO{
				Reference:     p.Reference,
				Gateway:       p.Gateway,
				Status:        p.Status,
				Amount:        p.Amount,
				TransactionID: p.GatewayTransactionID,
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

// Callback is where the gateway sends the browser after checkout. It always
// answers with a redirect to the storefront.
func Callback(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		q := r.URL.Query()
		reference := firstNonEmpty(q.Get("reference"), q.Get("trxref"), q.Get("tx_ref"))
		target := svc.Callback(r.Context(), internalpayments.CallbackInput{
			Gateway:       q.Get("gateway"),
			Reference:     reference,
			TransactionID: q.Get("transaction_id"),
			Status:        q.Get("status"),
		})
		responses.Redirect(w, r, target)
	}
}

// Status reports an order's payment state for polling clients.
func Status(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := validators.PathInt64(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Status(r.Context(), actorFromRequest(r), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func actorFromRequest(r *http.Request) orders.Actor {
	return orders.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
