package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

func TestProductRepository_PostgresCreateFindAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	created, err := store.Products().Create(ctx, domain.Product{
		Name: "Zen Speaker", SKU: "ZEN-1", PriceMinor: 29999, StockQuantity: 5, Category: "Audio",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = store.Products().Create(ctx, domain.Product{
		Name: "Air Purifier", SKU: "AIR-1", PriceMinor: 19999, StockQuantity: 3, Category: "Home",
	})
	require.NoError(t, err)

	_, err = store.Products().Create(ctx, domain.Product{
		Name: "Sold Out Lamp", SKU: "LAMP-1", PriceMinor: 4999, StockQuantity: 0, Category: "Home",
	})
	require.NoError(t, err)

	got, err := store.Products().FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ZEN-1", got.SKU)

	_, err = store.Products().FindByID(ctx, 999999)
	require.True(t, domain.IsNotFound(err))

	products, err := store.Products().ListInStock(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "Air Purifier", products[0].Name)
	require.Equal(t, "Zen Speaker", products[1].Name)
}

func TestProductRepository_PostgresUniqueSKUAndName(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	_, err := store.Products().Create(ctx, domain.Product{
		Name: "Zen Speaker", SKU: "ZEN-1", PriceMinor: 29999, StockQuantity: 5, Category: "Audio",
	})
	require.NoError(t, err)

	_, err = store.Products().Create(ctx, domain.Product{
		Name: "Other Name", SKU: "ZEN-1", PriceMinor: 100, StockQuantity: 1, Category: "Audio",
	})
	require.True(t, domain.IsConflict(err))

	_, err = store.Products().Create(ctx, domain.Product{
		Name: "Zen Speaker", SKU: "OTHER-1", PriceMinor: 100, StockQuantity: 1, Category: "Audio",
	})
	require.True(t, domain.IsConflict(err))
}

func TestProductRepository_PostgresSaveStock(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	created, err := store.Products().Create(ctx, domain.Product{
		Name: "Zen Speaker", SKU: "ZEN-1", PriceMinor: 29999, StockQuantity: 5, Category: "Audio",
	})
	require.NoError(t, err)

	created.StockQuantity = 2
	require.NoError(t, store.Products().Save(ctx, created))

	got, err := store.Products().FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), got.StockQuantity)

	// CHECK-ограничение не пропускает отрицательный остаток.
	created.StockQuantity = -1
	err = store.Products().Save(ctx, created)
	require.Error(t, err)

	got, err = store.Products().FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), got.StockQuantity)
}
