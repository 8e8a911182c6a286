package memory_test

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	"github.com/vladislavdragonenkov/orderledger/internal/storage/memory"
)

func newProduct(name, sku string, stock int32) domain.Product {
	return domain.Product{
		Name:          name,
		SKU:           sku,
		PriceMinor:    9999,
		StockQuantity: stock,
		Category:      "Electronics",
	}
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	created, err := store.Products().Create(ctx, newProduct("Kindle Paperwhite", "AMA-KPW-11", 120))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	got, err := store.Products().FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.SKU != "AMA-KPW-11" {
		t.Fatalf("unexpected sku: %s", got.SKU)
	}

	if _, err := store.Products().FindByID(ctx, 999); !domain.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestProductRepository_UniqueSKUAndName(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	if _, err := store.Products().Create(ctx, newProduct("Kindle Paperwhite", "AMA-KPW-11", 120)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Products().Create(ctx, newProduct("Other Name", "AMA-KPW-11", 10)); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate sku, got %v", err)
	}
	if _, err := store.Products().Create(ctx, newProduct("Kindle Paperwhite", "OTHER-SKU", 10)); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate name, got %v", err)
	}
}

func TestProductRepository_ListInStock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	if _, err := store.Products().Create(ctx, newProduct("Zen Speaker", "ZEN-1", 5)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Products().Create(ctx, newProduct("Air Purifier", "AIR-1", 3)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Products().Create(ctx, newProduct("Sold Out Lamp", "LAMP-1", 0)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	products, err := store.Products().ListInStock(ctx)
	if err != nil {
		t.Fatalf("ListInStock failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products in stock, got %d", len(products))
	}
	// Сортировка по названию.
	if products[0].Name != "Air Purifier" || products[1].Name != "Zen Speaker" {
		t.Fatalf("unexpected order: %s, %s", products[0].Name, products[1].Name)
	}
}

func TestProductRepository_Save(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	created, err := store.Products().Create(ctx, newProduct("Kindle Paperwhite", "AMA-KPW-11", 120))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	created.StockQuantity = 115
	if err := store.Products().Save(ctx, created); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Products().FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.StockQuantity != 115 {
		t.Fatalf("expected stock 115, got %d", got.StockQuantity)
	}

	// Отрицательный остаток отклоняется, как CHECK-ограничение в PostgreSQL.
	created.StockQuantity = -1
	if err := store.Products().Save(ctx, created); err == nil {
		t.Fatal("expected error for negative stock")
	}

	missing := created
	missing.ID = 999
	missing.StockQuantity = 1
	if err := store.Products().Save(ctx, missing); !domain.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
