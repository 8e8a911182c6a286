package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

func seedIntegrationProduct(t *testing.T, store *Store, stock int32) domain.Product {
	t.Helper()

	product, err := store.Products().Create(context.Background(), domain.Product{
		Name:          "Kindle Paperwhite",
		SKU:           "AMA-KPW-11",
		Description:   "Waterproof e-reader",
		PriceMinor:    14999,
		StockQuantity: stock,
		Category:      "Electronics",
	})
	require.NoError(t, err)
	return product
}

func integrationOrder(productID int64, number, email string, day time.Time) domain.Order {
	return domain.Order{
		ProductID:     productID,
		OrderNumber:   number,
		CustomerName:  "John Smith",
		CustomerEmail: email,
		Quantity:      2,
		OrderDate:     day,
		CreatedAt:     day,
		UpdatedAt:     day,
	}
}

func TestOrderRepository_PostgresCreateGetAndLookups(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	product := seedIntegrationProduct(t, store, 100)
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	created, err := store.Orders().Create(ctx, integrationOrder(product.ID, "ORD-20260820-0001", "john@example.com", day))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := store.Orders().Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ORD-20260820-0001", got.OrderNumber)
	require.Equal(t, product.ID, got.ProductID)
	require.True(t, domain.SameDay(got.OrderDate, day))

	byNumber, err := store.Orders().GetByNumber(ctx, "ORD-20260820-0001")
	require.NoError(t, err)
	require.Equal(t, created.ID, byNumber.ID)

	taken, err := store.Orders().ExistsNumber(ctx, "ORD-20260820-0001")
	require.NoError(t, err)
	require.True(t, taken)

	used, err := store.Orders().ExistsEmail(ctx, "john@example.com", 0)
	require.NoError(t, err)
	require.True(t, used)

	used, err = store.Orders().ExistsEmail(ctx, "john@example.com", created.ID)
	require.NoError(t, err)
	require.False(t, used)

	count, err := store.Orders().CountByOrderDate(ctx, day)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = store.Orders().Get(ctx, 999999)
	require.True(t, domain.IsNotFound(err))
}

func TestOrderRepository_PostgresUniqueConstraints(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	product := seedIntegrationProduct(t, store, 100)
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	_, err := store.Orders().Create(ctx, integrationOrder(product.ID, "ORD-20260820-0001", "john@example.com", day))
	require.NoError(t, err)

	// Уникальный индекс превращает дубликат номера в конфликт.
	_, err = store.Orders().Create(ctx, integrationOrder(product.ID, "ORD-20260820-0001", "other@example.com", day))
	require.True(t, domain.IsConflict(err))
	require.Equal(t, "Order number already exists. Please use a different order number.", err.Error())

	_, err = store.Orders().Create(ctx, integrationOrder(product.ID, "ORD-20260820-0002", "john@example.com", day))
	require.True(t, domain.IsConflict(err))
}

func TestOrderRepository_PostgresListFiltersAndPagination(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	product := seedIntegrationProduct(t, store, 100)
	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	delivered := integrationOrder(product.ID, "ORD-20260810-0001", "john@example.com", base)
	deliveryDay := base.AddDate(0, 0, 2)
	delivered.DeliveryDate = &deliveryDay
	_, err := store.Orders().Create(ctx, delivered)
	require.NoError(t, err)

	for i := 1; i < 5; i++ {
		day := base.AddDate(0, 0, i)
		order := integrationOrder(product.ID,
			fmt.Sprintf("ORD-%s-0001", day.Format("20060102")),
			fmt.Sprintf("c%d@example.com", i),
			day)
		_, err := store.Orders().Create(ctx, order)
		require.NoError(t, err)
	}

	page, err := store.Orders().List(ctx, domain.ListFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 5, page.TotalCount)
	require.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Orders, 2)
	require.True(t, page.Orders[0].OrderDate.After(page.Orders[1].OrderDate))

	// Фильтр по статусу через NULL-ность delivery_date.
	page, err = store.Orders().List(ctx, domain.ListFilter{Status: domain.OrderStatusDelivered})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	require.Equal(t, "ORD-20260810-0001", page.Orders[0].OrderNumber)

	// Поиск по названию товара через JOIN.
	page, err = store.Orders().List(ctx, domain.ListFilter{Search: "kindle"})
	require.NoError(t, err)
	require.Equal(t, 5, page.TotalCount)

	from := base.AddDate(0, 0, 3)
	page, err = store.Orders().List(ctx, domain.ListFilter{DateFrom: &from})
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalCount)
}

func TestOrderRepository_PostgresUpdateAndDelete(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	product := seedIntegrationProduct(t, store, 100)
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	created, err := store.Orders().Create(ctx, integrationOrder(product.ID, "ORD-20260820-0001", "john@example.com", day))
	require.NoError(t, err)

	created.CustomerName = "John Q. Smith"
	created.Quantity = 7
	deliveryDay := day.AddDate(0, 0, 3)
	created.DeliveryDate = &deliveryDay
	require.NoError(t, store.Orders().Update(ctx, created))

	got, err := store.Orders().Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "John Q. Smith", got.CustomerName)
	require.Equal(t, int32(7), got.Quantity)
	require.NotNil(t, got.DeliveryDate)
	require.Equal(t, domain.OrderStatusDelivered, got.Status())

	// Очистка даты доставки записывает NULL.
	got.DeliveryDate = nil
	require.NoError(t, store.Orders().Update(ctx, got))
	got, err = store.Orders().Get(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, got.DeliveryDate)

	missing := got
	missing.ID = 999999
	err = store.Orders().Update(ctx, missing)
	require.True(t, domain.IsNotFound(err))

	require.NoError(t, store.Orders().Delete(ctx, created.ID))
	_, err = store.Orders().Get(ctx, created.ID)
	require.True(t, domain.IsNotFound(err))
	err = store.Orders().Delete(ctx, created.ID)
	require.True(t, domain.IsNotFound(err))
}
