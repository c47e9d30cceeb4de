package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/storefront-backend/pkg/db"
	"github.com/shoplane/storefront-backend/pkg/db/dbtest"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
)

func seedOrder(t *testing.T, repo Repository, number string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:    number,
		UserID:         uuid.New(),
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.OrderPaymentStatusPending,
		PaymentMethod:  enums.PaymentMethodPaystack,
		Currency:       enums.CurrencyNGN,
		Subtotal:       dec("1000"),
		Tax:            dec("80"),
		ShippingFee:    dec("500"),
		GrandTotal:     dec("1580"),
		DeliveryMethod: enums.DeliveryMethodShipping,
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Second", UnitPrice: dec("250"), BasePrice: dec("200"), Quantity: 2, Subtotal: dec("500")},
			{ProductID: 2, ProductName: "Third", UnitPrice: dec("500"), BasePrice: dec("400"), Quantity: 1, Subtotal: dec("500")},
		},
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestRepositoryFindPreloadsItems(t *testing.T) {
	conn := dbtest.Open(t).DB()
	repo := NewRepository(conn)
	ctx := context.Background()
	created := seedOrder(t, repo, "ORD-20250301-ABC123")

	found, err := repo.FindByNumber(ctx, "ORD-20250301-ABC123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Second", found.Items[0].ProductName)
	assert.Equal(t, created.ID, found.Items[1].OrderID)

	_, err = repo.FindByID(ctx, created.ID+100)
	assert.True(t, db.IsNotFound(err))
}

func TestRepositoryTransitionsAreConditional(t *testing.T) {
	conn := dbtest.Open(t).DB()
	repo := NewRepository(conn)
	ctx := context.Background()
	order := seedOrder(t, repo, "ORD-20250301-000001")
	at := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	ok, err := repo.MarkRefunded(ctx, order.ID, at)
	require.NoError(t, err)
	assert.False(t, ok, "unpaid orders cannot be refunded")

	ok, err = repo.MarkCancelled(ctx, order.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCancelled(ctx, order.ID, at)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, found.Status)
	require.NotNil(t, found.CancelledAt)
	assert.True(t, found.CancelledAt.Equal(at))
}
