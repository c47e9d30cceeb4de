package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/storefront-backend/pkg/db/dbtest"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/redis"
	"github.com/shoplane/storefront-backend/pkg/types"
)

type countingRepo struct {
	Repository
	listCalls int
}

func (c *countingRepo) ListActive(ctx context.Context) ([]models.FulfillmentPoint, error) {
	c.listCalls++
	return c.Repository.ListActive(ctx)
}

type failingRepo struct{}

func (failingRepo) FindByID(context.Context, int64) (*models.FulfillmentPoint, error) {
	return nil, errors.New("db down")
}

func (failingRepo) ListActive(context.Context) ([]models.FulfillmentPoint, error) {
	return nil, errors.New("db down")
}

func seedPoints(t *testing.T) Repository {
	t.Helper()
	client := dbtest.Open(t)
	points := []models.FulfillmentPoint{
		{Name: "Ikeja", Address: "Allen Ave", Latitude: 6.6018, Longitude: 3.3515, IsActive: true, SupportsDelivery: true},
		{Name: "Lekki", Address: "Admiralty Way", Latitude: 6.4474, Longitude: 3.4720, IsActive: true, SupportsPickup: true},
		{Name: "Closed", Address: "Marina", Latitude: 6.4541, Longitude: 3.3947, IsActive: false},
		{Name: "Abuja", Address: "Wuse II", Latitude: 9.0765, Longitude: 7.3986, IsActive: true, SupportsDelivery: true},
	}
	require.NoError(t, client.DB().Create(&points).Error)
	return NewRepository(client.DB())
}

func TestRepositoryListActive(t *testing.T) {
	repo := seedPoints(t)

	points, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "Ikeja", points[0].Name)
	for _, p := range points {
		assert.True(t, p.IsActive)
	}
}

func TestCachedRepositoryServesFromCache(t *testing.T) {
	inner := &countingRepo{Repository: seedPoints(t)}
	cached := NewCachedRepository(inner, redis.NewMemory(), 0, nil)
	ctx := context.Background()

	first, err := cached.ListActive(ctx)
	require.NoError(t, err)
	second, err := cached.ListActive(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.listCalls)
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first[1].Name, second[1].Name)

	point, err := cached.FindByID(ctx, first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first[0].Name, point.Name)
	assert.Equal(t, 1, inner.listCalls)

	require.NoError(t, cached.Invalidate(ctx))
	_, err = cached.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.listCalls)
}

func TestCachedRepositoryFindInactiveFallsThrough(t *testing.T) {
	repo := seedPoints(t)
	cached := NewCachedRepository(repo, redis.NewMemory(), 0, nil)

	point, err := cached.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Closed", point.Name)
	assert.False(t, point.IsActive)
}

func TestNearbySortsAndFiltersByRadius(t *testing.T) {
	svc, err := NewService(seedPoints(t))
	require.NoError(t, err)

	origin := types.Coordinate{Lat: 6.5244, Lng: 3.3792}
	nearby, err := svc.Nearby(context.Background(), origin, 30, 0)
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.LessOrEqual(t, nearby[0].DistanceKm, nearby[1].DistanceKm)

	limited, err := svc.Nearby(context.Background(), origin, 30, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, nearby[0].Point.Name, limited[0].Point.Name)
}

func TestNearbyRejectsInvalidOrigin(t *testing.T) {
	svc, err := NewService(seedPoints(t))
	require.NoError(t, err)

	_, err = svc.Nearby(context.Background(), types.Coordinate{Lat: 120, Lng: 3}, 10, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestNearbyWrapsRepositoryFailure(t *testing.T) {
	svc, err := NewService(failingRepo{})
	require.NoError(t, err)

	_, err = svc.Nearby(context.Background(), types.Coordinate{Lat: 6.5, Lng: 3.4}, 10, 5)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}
