// Package orders turns a customer's cart into a priced order and handles the
// cancel and refund transitions that give stock back.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/internal/cart"
	"github.com/shoplane/storefront-backend/internal/coupons"
	"github.com/shoplane/storefront-backend/internal/delivery"
	"github.com/shoplane/storefront-backend/internal/notifications"
	"github.com/shoplane/storefront-backend/internal/pricing"
	"github.com/shoplane/storefront-backend/pkg/clock"
	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/db"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/metrics"
	"github.com/shoplane/storefront-backend/pkg/types"
)

// Service defines the order checkout operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error)
	RefundOrder(ctx context.Context, input RefundInput) (*models.Order, error)
	GetOrder(ctx context.Context, actor Actor, idOrNumber string) (*models.Order, error)
}

// Settings are the checkout pricing constants.
type Settings struct {
	TaxRate             decimal.Decimal
	FallbackShippingFee decimal.Decimal
	OrderNumberPrefix   string
	Currency            enums.Currency
}

// SettingsFromConfig validates and converts the checkout config section.
func SettingsFromConfig(cfg config.CheckoutConfig) (Settings, error) {
	currency, err := enums.ParseCurrency(cfg.Currency)
	if err != nil {
		return Settings{}, err
	}
	prefix := strings.TrimSpace(cfg.OrderNumberPrefix)
	if prefix == "" {
		prefix = "ORD"
	}
	return Settings{
		TaxRate:             cfg.TaxRate,
		FallbackShippingFee: cfg.FallbackShippingFee,
		OrderNumberPrefix:   prefix,
		Currency:            currency,
	}, nil
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Tx        txRunner
	Orders    Repository
	Cart      cart.CartRepository
	Coupons   coupons.Repository
	Points    pointFinder
	Delivery  deliveryQuoter
	Inventory StockAdjuster
	Notifier  Notifier
	Clock     clock.Clock
	Metrics   *metrics.Checkout
	Logger    *logger.Logger
	Settings  Settings
}

type service struct {
	tx        txRunner
	orders    Repository
	cart      cart.CartRepository
	coupons   coupons.Repository
	points    pointFinder
	delivery  deliveryQuoter
	inventory StockAdjuster
	notifier  Notifier
	clock     clock.Clock
	metrics   *metrics.Checkout
	logg      *logger.Logger
	settings  Settings
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if params.Points == nil {
		return nil, fmt.Errorf("fulfillment point finder required")
	}
	if params.Delivery == nil {
		return nil, fmt.Errorf("delivery calculator required")
	}
	if params.Inventory == nil {
		params.Inventory = NewInventory()
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Clock == nil {
		params.Clock = clock.System
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if !params.Settings.Currency.IsValid() {
		return nil, fmt.Errorf("checkout currency required")
	}
	return &service{
		tx:        params.Tx,
		orders:    params.Orders,
		cart:      params.Cart,
		coupons:   params.Coupons,
		points:    params.Points,
		delivery:  params.Delivery,
		inventory: params.Inventory,
		notifier:  params.Notifier,
		clock:     params.Clock,
		metrics:   params.Metrics,
		logg:      params.Logger,
		settings:  params.Settings,
	}, nil
}

// orderLine is one distinct (product, variant) pair after merging cart items.
type orderLine struct {
	product  models.Product
	variant  *models.ProductVariant
	quantity int
}

func (l orderLine) pricingLine() pricing.Line {
	line := pricing.Line{ProductPrice: l.product.Price, Quantity: l.quantity}
	if l.variant != nil {
		line.PriceAdjustment = l.variant.PriceAdjustment
	}
	return line
}

func (l orderLine) stockAdjustment(delta int) StockAdjustment {
	adj := StockAdjustment{ProductID: l.product.ID, Delta: delta}
	if l.variant != nil {
		id := l.variant.ID
		adj.VariantID = &id
	}
	return adj
}

// shippingResolution is the delivery outcome folded into the order.
type shippingResolution struct {
	fee        decimal.Decimal
	pointID    *int64
	distanceKm *float64
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validatePlaceOrder(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	cartLines, err := s.cart.ListLines(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cartLines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is empty")
	}
	lines, err := mergeCartLines(cartLines)
	if err != nil {
		return nil, err
	}

	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		priced = append(priced, line.pricingLine())
	}
	subtotal := pricing.Subtotal(priced)

	coupon, err := s.resolveCoupon(ctx, input, subtotal)
	if err != nil {
		return nil, err
	}
	shipping, err := s.resolveShipping(ctx, input, subtotal)
	if err != nil {
		return nil, err
	}

	breakdown := pricing.Compute(pricing.Input{
		Lines:       priced,
		TaxRate:     s.settings.TaxRate,
		ShippingFee: shipping.fee,
		Coupon:      coupon,
	})
	if !breakdown.GrandTotal.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "order total must be greater than zero")
	}
	if err := breakdown.Verify(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "price order")
	}

	now := s.clock.Now()
	order := s.buildOrder(input, lines, breakdown, shipping, coupon)
	order.OrderNumber = s.orderNumber(now)

	itemIDs := make([]int64, 0, len(cartLines))
	for _, line := range cartLines {
		itemIDs = append(itemIDs, line.Item.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if coupon != nil {
			ok, err := s.coupons.WithTx(tx).IncrementUsage(ctx, coupon.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon usage limit reached")
			}
		}

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, line := range lines {
			if err := s.inventory.Adjust(ctx, tx, line.stockAdjustment(-line.quantity)); err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					return insufficientStock(line)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
		}

		removed, err := s.cart.WithTx(tx).Clear(ctx, input.UserID, itemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if removed != int64(len(itemIDs)) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed during checkout; please review and retry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderPlaced(string(order.PaymentMethod))
	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(s.logg.WithField(ctx, "order_number", order.OrderNumber), "order.placed")

	// Online payments are confirmed by reconciliation instead.
	if order.PaymentMethod == enums.PaymentMethodCashOnDelivery {
		notifications.BestEffort(ctx, s.logg, "order_placed", func(ctx context.Context) error {
			return s.notifier.OrderPlaced(ctx, order)
		})
	}
	return order, nil
}

func validatePlaceOrder(input PlaceOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	details := map[string]any{}
	if !input.DeliveryMethod.IsValid() {
		details["delivery_method"] = "must be shipping or pickup"
	}
	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "must be cash_on_delivery, paystack or flutterwave"
	}
	if input.DeliveryMethod == enums.DeliveryMethodShipping {
		if input.Shipping == nil {
			details["shipping"] = "shipping details are required for delivery"
		} else {
			if strings.TrimSpace(input.Shipping.Name) == "" {
				details["shipping.name"] = "required"
			}
			if strings.TrimSpace(input.Shipping.Phone) == "" {
				details["shipping.phone"] = "required"
			}
			if strings.TrimSpace(input.Shipping.Address) == "" {
				details["shipping.address"] = "required"
			}
			if (input.Shipping.Latitude == nil) != (input.Shipping.Longitude == nil) {
				details["shipping.latitude"] = "latitude and longitude must be provided together"
			}
			if input.Shipping.ShippingFee != nil && input.Shipping.ShippingFee.IsNegative() {
				details["shipping.shipping_fee"] = "must not be negative"
			}
		}
	}
	if input.DeliveryMethod == enums.DeliveryMethodPickup && input.PickupPointID == nil && input.FulfillmentPointID == nil {
		details["pickup_location_id"] = "required for pickup"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order request").WithDetails(details)
	}
	return nil
}

// mergeCartLines collapses duplicate (product, variant) cart items and checks
// availability before any write happens.
func mergeCartLines(cartLines []cart.Line) ([]orderLine, error) {
	type key struct {
		productID int64
		variantID int64
	}
	index := map[key]int{}
	lines := make([]orderLine, 0, len(cartLines))

	for _, cl := range cartLines {
		if cl.Item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item quantity must be positive").
				WithDetails(map[string]any{"cart_item_id": cl.Item.ID})
		}
		if cl.Product == nil || !cl.Product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "a product in your cart is no longer available").
				WithDetails(map[string]any{"product_id": cl.Item.ProductID})
		}
		k := key{productID: cl.Product.ID}
		if cl.Item.VariantID != nil {
			if cl.Variant == nil || !cl.Variant.IsActive || cl.Variant.ProductID != cl.Product.ID {
				return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "a product option in your cart is no longer available").
					WithDetails(map[string]any{"product_id": cl.Product.ID, "variant_id": *cl.Item.VariantID})
			}
			k.variantID = cl.Variant.ID
		}

		if i, ok := index[k]; ok {
			lines[i].quantity += cl.Item.Quantity
			continue
		}
		index[k] = len(lines)
		lines = append(lines, orderLine{product: *cl.Product, variant: cl.Variant, quantity: cl.Item.Quantity})
	}

	for _, line := range lines {
		available := line.product.Stock
		if line.variant != nil {
			available = line.variant.Stock
		}
		if available < line.quantity {
			return nil, insufficientStock(line)
		}
	}
	return lines, nil
}

func insufficientStock(line orderLine) error {
	details := map[string]any{
		"product_id": line.product.ID,
		"product":    line.product.Name,
		"requested":  line.quantity,
	}
	if line.variant != nil {
		details["variant_id"] = line.variant.ID
	}
	return pkgerrors.Newf(pkgerrors.CodeBusinessRule, "insufficient stock for %s", line.product.Name).WithDetails(details)
}

func (s *service) resolveCoupon(ctx context.Context, input PlaceOrderInput, subtotal decimal.Decimal) (*models.Coupon, error) {
	if input.CouponCode == nil || coupons.NormalizeCode(*input.CouponCode) == "" {
		return nil, nil
	}
	coupon, err := s.coupons.FindByCode(ctx, *input.CouponCode)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon not found").
				WithDetails(map[string]any{"coupon_code": "coupon not found"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	prior, err := s.coupons.CountUserRedemptions(ctx, coupon.ID, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon redemptions")
	}
	if err := coupons.Validate(coupon, s.clock.Now(), subtotal, prior); err != nil {
		return nil, err
	}
	return coupon, nil
}

// resolveShipping never blocks checkout on delivery ambiguity: an unavailable
// quote falls back to the configured flat fee.
func (s *service) resolveShipping(ctx context.Context, input PlaceOrderInput, subtotal decimal.Decimal) (shippingResolution, error) {
	if input.DeliveryMethod == enums.DeliveryMethodPickup {
		return s.resolvePickup(ctx, input)
	}

	fallback := shippingResolution{fee: s.settings.FallbackShippingFee}
	details := input.Shipping
	if details.Latitude == nil || details.Longitude == nil {
		if details.ShippingFee != nil {
			return shippingResolution{fee: *details.ShippingFee, pointID: input.FulfillmentPointID}, nil
		}
		return fallback, nil
	}

	quote, err := s.delivery.Quote(ctx, delivery.QuoteInput{
		Subtotal:           subtotal,
		Customer:           types.Coordinate{Lat: *details.Latitude, Lng: *details.Longitude},
		FulfillmentPointID: input.FulfillmentPointID,
	})
	if err != nil {
		return shippingResolution{}, err
	}

	distance := quote.DistanceKm
	resolution := shippingResolution{fee: quote.Fee, pointID: quote.FulfillmentPointID}
	if distance > 0 {
		resolution.distanceKm = &distance
	}
	if !quote.IsAvailable {
		s.logg.Warn(s.logg.WithField(ctx, "delivery_message", quote.Message), "delivery quote unavailable; applying fallback fee")
		resolution.fee = s.settings.FallbackShippingFee
	}
	return resolution, nil
}

func (s *service) resolvePickup(ctx context.Context, input PlaceOrderInput) (shippingResolution, error) {
	id := input.PickupPointID
	if id == nil {
		id = input.FulfillmentPointID
	}
	point, err := s.points.FindByID(ctx, *id)
	if err != nil {
		if db.IsNotFound(err) {
			return shippingResolution{}, pkgerrors.New(pkgerrors.CodeNotFound, "pickup location not found")
		}
		return shippingResolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup location")
	}
	if !point.IsActive || !point.SupportsPickup {
		return shippingResolution{}, pkgerrors.New(pkgerrors.CodeBusinessRule, "pickup is not available at this location")
	}
	pointID := point.ID
	return shippingResolution{fee: decimal.Zero, pointID: &pointID}, nil
}

func (s *service) buildOrder(input PlaceOrderInput, lines []orderLine, b pricing.Breakdown, shipping shippingResolution, coupon *models.Coupon) *models.Order {
	order := &models.Order{
		UserID:             input.UserID,
		Status:             enums.OrderStatusPending,
		PaymentStatus:      enums.OrderPaymentStatusPending,
		PaymentMethod:      input.PaymentMethod,
		Currency:           s.settings.Currency,
		Subtotal:           b.Subtotal,
		Discount:           b.Discount,
		Tax:                b.Tax,
		ShippingFee:        b.ShippingFee,
		GrandTotal:         b.GrandTotal,
		DeliveryMethod:     input.DeliveryMethod,
		FulfillmentPointID: shipping.pointID,
		DeliveryDistanceKm: shipping.distanceKm,
		Notes:              trimmedOrNil(input.Notes),
	}
	if coupon != nil {
		couponID := coupon.ID
		code := coupon.Code
		order.CouponID = &couponID
		order.CouponCode = &code
	}
	if input.Shipping != nil {
		order.Shipping = models.ShippingContact{
			Name:      stringOrNil(input.Shipping.Name),
			Phone:     stringOrNil(input.Shipping.Phone),
			Email:     stringOrNil(input.Shipping.Email),
			Address:   stringOrNil(input.Shipping.Address),
			City:      stringOrNil(input.Shipping.City),
			State:     stringOrNil(input.Shipping.State),
			Latitude:  input.Shipping.Latitude,
			Longitude: input.Shipping.Longitude,
		}
	}

	order.Items = make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		unit := line.pricingLine().EffectiveUnitPrice()
		item := models.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			UnitPrice:   unit,
			BasePrice:   line.product.BasePrice,
			Quantity:    line.quantity,
			Subtotal:    unit.Mul(decimal.NewFromInt(int64(line.quantity))),
		}
		if line.variant != nil {
			variantID := line.variant.ID
			variantName := line.variant.Name
			item.VariantID = &variantID
			item.VariantName = &variantName
		}
		order.Items = append(order.Items, item)
	}
	return order
}

func (s *service) orderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", s.settings.OrderNumberPrefix, now.Format("20060102"), suffix)
}

func (s *service) CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := s.loadForActor(ctx, repo, input.OrderID, input.Actor)
		if err != nil {
			return err
		}
		if !order.Status.Cancellable() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order cannot be cancelled while %s", order.Status)
		}

		ok, err := repo.MarkCancelled(ctx, order.ID, s.clock.Now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed; it can no longer be cancelled")
		}
		if err := s.releaseOrder(ctx, tx, order); err != nil {
			return err
		}

		cancelled, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCancelled()
	s.logg.Info(ctx, "order.cancelled")
	notifications.BestEffort(ctx, s.logg, "order_cancelled", func(ctx context.Context) error {
		return s.notifier.OrderCancelled(ctx, cancelled)
	})
	return cancelled, nil
}

func (s *service) RefundOrder(ctx context.Context, input RefundInput) (*models.Order, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can refund orders")
	}
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	var refunded *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := s.loadForActor(ctx, repo, input.OrderID, input.Actor)
		if err != nil {
			return err
		}
		if order.PaymentStatus != enums.OrderPaymentStatusPaid || order.Status != enums.OrderStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only paid orders in processing can be refunded")
		}

		ok, err := repo.MarkRefunded(ctx, order.ID, s.clock.Now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed; it can no longer be refunded")
		}
		if err := s.releaseOrder(ctx, tx, order); err != nil {
			return err
		}

		refunded, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "order.refunded")
	notifications.BestEffort(ctx, s.logg, "order_refunded", func(ctx context.Context) error {
		return s.notifier.OrderRefunded(ctx, refunded)
	})
	return refunded, nil
}

// releaseOrder restores stock for every line and gives the coupon redemption back.
func (s *service) releaseOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		adj := StockAdjustment{ProductID: item.ProductID, VariantID: item.VariantID, Delta: item.Quantity}
		if err := s.inventory.Adjust(ctx, tx, adj); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	if order.CouponID != nil {
		if err := s.coupons.WithTx(tx).DecrementUsage(ctx, *order.CouponID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release coupon")
		}
	}
	return nil
}

func (s *service) loadForActor(ctx context.Context, repo Repository, id int64, actor Actor) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.canAccess(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return order, nil
}

// GetOrder accepts a numeric id or an order number.
func (s *service) GetOrder(ctx context.Context, actor Actor, idOrNumber string) (*models.Order, error) {
	ref := strings.TrimSpace(idOrNumber)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id or number required")
	}

	var (
		order *models.Order
		err   error
	)
	if id, parseErr := strconv.ParseInt(ref, 10, 64); parseErr == nil {
		order, err = s.orders.FindByID(ctx, id)
	} else {
		order, err = s.orders.FindByNumber(ctx, ref)
	}
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.canAccess(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return order, nil
}

func stringOrNil(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	return stringOrNil(*v)
}
