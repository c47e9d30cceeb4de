package delivery

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/types"
)

type stubPoints struct {
	points []models.FulfillmentPoint
	err    error
}

func (s *stubPoints) FindByID(_ context.Context, id int64) (*models.FulfillmentPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.points {
		if s.points[i].ID == id {
			p := s.points[i]
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPoints) ListActive(context.Context) ([]models.FulfillmentPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	var active []models.FulfillmentPoint
	for _, p := range s.points {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(v))
}

func testDefaults() Policy {
	return PolicyFromConfig(config.DeliveryConfig{
		BaseFee:               d("0"),
		PerKmFee:              d("100"),
		FreeDeliveryThreshold: d("10000"),
		MinimumOrder:          d("0"),
		FreeDistanceKm:        d("2"),
		PreparationMinutes:    d("5"),
		MinutesPerKm:          d("3"),
	})
}

func scenarioPolicy() Policy {
	return PointOverrides{BaseFee: nd("200"), PerKmFee: nd("100")}.OrDefault(testDefaults())
}

// kmNorth returns a coordinate roughly km kilometres north of origin.
func kmNorth(origin types.Coordinate, km float64) types.Coordinate {
	return types.Coordinate{Lat: origin.Lat + km/(6371*math.Pi/180), Lng: origin.Lng}
}

var store = types.Coordinate{Lat: 6.5, Lng: 3.4}

func TestPolicyScenarios(t *testing.T) {
	p := scenarioPolicy()

	// A: subtotal at the threshold is free at any distance.
	assert.True(t, p.Fee(d("10000"), 37.2).IsZero())
	// B: inside the free 2 km band only the base fee applies.
	assert.True(t, p.Fee(d("5000"), 1.5).Equal(d("200")))
	// C: 5 km charges three chargeable kilometres.
	assert.True(t, p.Fee(d("5000"), 5).Equal(d("500")))
	// Partial kilometres round up.
	assert.True(t, p.Fee(d("5000"), 2.01).Equal(d("300")))
}

func TestPolicyFreeThresholdEdge(t *testing.T) {
	p := scenarioPolicy()
	assert.True(t, p.Fee(d("10000"), 3).IsZero())
	assert.True(t, p.Fee(d("9999"), 3).GreaterThan(decimal.Zero))

	disabled := PointOverrides{BaseFee: nd("200"), FreeDeliveryThreshold: nd("0")}.OrDefault(testDefaults())
	assert.True(t, disabled.Fee(d("1000000"), 1).Equal(d("200")))
}

func TestPolicyEstimatedMinutes(t *testing.T) {
	p := testDefaults()
	assert.Equal(t, 5, p.EstimatedMinutes(0))
	assert.Equal(t, 20, p.EstimatedMinutes(5))
	assert.Equal(t, 10, p.EstimatedMinutes(1.5))
}

func TestPointPolicyFallsBackToDefaults(t *testing.T) {
	point := &models.FulfillmentPoint{PerKmFee: nd("150"), MinimumOrder: nd("2500")}
	resolved := PointPolicy(point).OrDefault(testDefaults())

	assert.True(t, resolved.BaseFee.Equal(d("0")))
	assert.True(t, resolved.PerKmFee.Equal(d("150")))
	assert.True(t, resolved.FreeDeliveryThreshold.Equal(d("10000")))
	assert.True(t, resolved.MinimumOrder.Equal(d("2500")))

	assert.Equal(t, testDefaults(), PointPolicy(nil).OrDefault(testDefaults()))
}

func newCalculator(t *testing.T, points ...models.FulfillmentPoint) *Calculator {
	t.Helper()
	calc, err := NewCalculator(&stubPoints{points: points}, testDefaults())
	require.NoError(t, err)
	return calc
}

func deliveryPoint(id int64) models.FulfillmentPoint {
	return models.FulfillmentPoint{
		ID:               id,
		Name:             "Main",
		Latitude:         store.Lat,
		Longitude:        store.Lng,
		IsActive:         true,
		SupportsDelivery: true,
		BaseFee:          nd("200"),
		PerKmFee:         nd("100"),
	}
}

func TestQuoteUsesFirstActiveDeliveryPoint(t *testing.T) {
	pickupOnly := models.FulfillmentPoint{ID: 1, Latitude: store.Lat, Longitude: store.Lng, IsActive: true, SupportsPickup: true}
	calc := newCalculator(t, pickupOnly, deliveryPoint(2))

	q, err := calc.Quote(context.Background(), QuoteInput{Subtotal: d("5000"), Customer: kmNorth(store, 5)})
	require.NoError(t, err)
	require.True(t, q.IsAvailable)
	assert.Equal(t, int64(2), *q.FulfillmentPointID)
	assert.InDelta(t, 5, q.DistanceKm, 0.01)
	assert.True(t, q.Fee.Equal(d("500")), "fee %s", q.Fee)
	assert.Equal(t, 20, q.EstimatedMinutes)
}

func TestQuoteChargesFromMeasuredDistance(t *testing.T) {
	calc := newCalculator(t, deliveryPoint(1))

	q, err := calc.Quote(context.Background(), QuoteInput{Subtotal: d("5000"), Customer: kmNorth(store, 2.004)})
	require.NoError(t, err)
	require.True(t, q.IsAvailable)
	assert.Equal(t, 2.0, q.DistanceKm)
	assert.True(t, q.Fee.Equal(d("300")), "fee %s", q.Fee)
	assert.Equal(t, 12, q.EstimatedMinutes)
}

func TestQuoteFreeDelivery(t *testing.T) {
	calc := newCalculator(t, deliveryPoint(1))

	q, err := calc.Quote(context.Background(), QuoteInput{Subtotal: d("10000"), Customer: kmNorth(store, 8)})
	require.NoError(t, err)
	assert.True(t, q.IsAvailable)
	assert.True(t, q.Fee.IsZero())
	assert.Equal(t, msgFreeDelivery, q.Message)
}

func TestQuoteNoDeliveryPoint(t *testing.T) {
	calc := newCalculator(t, models.FulfillmentPoint{ID: 1, IsActive: true, SupportsPickup: true})

	q, err := calc.Quote(context.Background(), QuoteInput{Subtotal: d("5000"), Customer: store})
	require.NoError(t, err)
	assert.False(t, q.IsAvailable)
	assert.True(t, q.Fee.IsZero())
	assert.Nil(t, q.FulfillmentPointID)
}

func TestQuoteInvalidCoordinatesNeverErrors(t *testing.T) {
	calc := newCalculator(t, deliveryPoint(1))

	q, err := calc.Quote(context.Background(), QuoteInput{Subtotal: d("5000"), Customer: types.Coordinate{Lat: math.NaN(), Lng: 3}})
	require.NoError(t, err)
	assert.False(t, q.IsAvailable)
	assert.Equal(t, msgInvalidCustomer, q.Message)

	broken := deliveryPoint(2)
	broken.Latitude = 200
	calc = newCalculator(t, broken)
	q, err = calc.Quote(context.Background(), QuoteInput{Subtotal: d("5000"), Customer: store})
	require.NoError(t, err)
	assert.False(t, q.IsAvailable)
	assert.Equal(t, msgInvalidPoint, q.Message)
}

func TestQuoteGeofence(t *testing.T) {
	point := deliveryPoint(1)
	point.Geofence = types.Geofence{
		{Lat: 6.40, Lng: 3.30},
		{Lat: 6.40, Lng: 3.50},
		{Lat: 6.60, Lng: 3.50},
		{Lat: 6.60, Lng: 3.30},
	}
	calc := newCalculator(t, point)
	ctx := context.Background()

	inside, err := calc.Quote(ctx, QuoteInput{Subtotal: d("5000"), Customer: types.Coordinate{Lat: 6.45, Lng: 3.42}})
	require.NoError(t, err)
	assert.True(t, inside.IsAvailable)

	onEdge, err := calc.Quote(ctx, QuoteInput{Subtotal: d("5000"), Customer: types.Coordinate{Lat: 6.60, Lng: 3.40}})
	require.NoError(t, err)
	assert.True(t, onEdge.IsAvailable, "points on the geofence edge are inside")

	outside, err := calc.Quote(ctx, QuoteInput{Subtotal: d("5000"), Customer: types.Coordinate{Lat: 6.70, Lng: 3.40}})
	require.NoError(t, err)
	assert.False(t, outside.IsAvailable)
	assert.True(t, outside.Fee.IsZero())
	assert.Greater(t, outside.DistanceKm, 0.0)
	assert.Equal(t, msgOutsideGeofence, outside.Message)
}

func TestQuoteDegenerateGeofenceIsUnrestricted(t *testing.T) {
	point := deliveryPoint(1)
	point.Geofence = types.Geofence{{Lat: 6.4, Lng: 3.3}, {Lat: 6.6, Lng: 3.5}}
	calc := newCalculator(t, point)

	q, err := calc.Quote(context.Background(), QuoteInput{Subtotal: d("5000"), Customer: kmNorth(store, 40)})
	require.NoError(t, err)
	assert.True(t, q.IsAvailable)
}

func TestQuoteMinimumOrder(t *testing.T) {
	point := deliveryPoint(1)
	point.MinimumOrder = nd("3000")
	calc := newCalculator(t, point)

	q, err := calc.Quote(context.Background(), QuoteInput{Subtotal: d("2500"), Customer: store})
	require.NoError(t, err)
	assert.False(t, q.IsAvailable)
	assert.Contains(t, q.Message, "add 500.00 more")

	q, err = calc.Quote(context.Background(), QuoteInput{Subtotal: d("3000"), Customer: store})
	require.NoError(t, err)
	assert.True(t, q.IsAvailable)
}

func TestQuoteExplicitPoint(t *testing.T) {
	inactive := deliveryPoint(2)
	inactive.IsActive = false
	calc := newCalculator(t, deliveryPoint(1), inactive)
	ctx := context.Background()

	id := int64(2)
	q, err := calc.Quote(ctx, QuoteInput{Subtotal: d("5000"), Customer: store, FulfillmentPointID: &id})
	require.NoError(t, err)
	assert.False(t, q.IsAvailable)
	assert.Equal(t, msgPointNoDelivery, q.Message)

	missing := int64(99)
	_, err = calc.Quote(ctx, QuoteInput{Subtotal: d("5000"), Customer: store, FulfillmentPointID: &missing})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestQuoteRepositoryFailure(t *testing.T) {
	calc, err := NewCalculator(&stubPoints{err: errors.New("db down")}, testDefaults())
	require.NoError(t, err)

	_, err = calc.Quote(context.Background(), QuoteInput{Subtotal: d("5000"), Customer: store})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}
