package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/storefront-backend/pkg/db/dbtest"
	"github.com/shoplane/storefront-backend/pkg/db/models"
)

func TestListLinesJoinsCatalogRows(t *testing.T) {
	client := dbtest.Open(t)
	db := client.DB()
	repo := NewRepository(db)
	ctx := context.Background()
	user := uuid.New()

	product := models.Product{Name: "Shea butter", Price: decimal.NewFromInt(1500), BasePrice: decimal.NewFromInt(1200), Stock: 4, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	variant := models.ProductVariant{ProductID: product.ID, Name: "500ml", PriceAdjustment: decimal.NewFromInt(300), Stock: 2, IsActive: true}
	require.NoError(t, db.Create(&variant).Error)

	items := []models.CartItem{
		{UserID: user, ProductID: product.ID, Quantity: 1},
		{UserID: user, ProductID: product.ID, VariantID: &variant.ID, Quantity: 2},
		{UserID: user, ProductID: 999, Quantity: 1},
		{UserID: uuid.New(), ProductID: product.ID, Quantity: 5},
	}
	require.NoError(t, db.Create(&items).Error)

	lines, err := repo.ListLines(ctx, user)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "Shea butter", lines[0].Product.Name)
	assert.Nil(t, lines[0].Variant)
	require.NotNil(t, lines[1].Variant)
	assert.Equal(t, "500ml", lines[1].Variant.Name)
	assert.Nil(t, lines[2].Product)
}

func TestClearOnlyRemovesOwnedItems(t *testing.T) {
	client := dbtest.Open(t)
	db := client.DB()
	repo := NewRepository(db)
	ctx := context.Background()
	user := uuid.New()
	other := uuid.New()

	mine := models.CartItem{UserID: user, ProductID: 1, Quantity: 1}
	theirs := models.CartItem{UserID: other, ProductID: 1, Quantity: 1}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&theirs).Error)

	removed, err := repo.Clear(ctx, user, []int64{mine.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	lines, err := repo.ListLines(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
