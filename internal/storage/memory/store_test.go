package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	"github.com/vladislavdragonenkov/orderledger/internal/storage/memory"
)

func TestStoreAtomically_Commit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	product, err := store.Products().Create(ctx, newProduct("Kindle Paperwhite", "AMA-KPW-11", 120))
	if err != nil {
		t.Fatalf("Create product failed: %v", err)
	}

	err = store.Atomically(ctx, func(tx domain.Tx) error {
		order := newOrder("ORD-20260820-0001", "john@example.com", day)
		order.ProductID = product.ID
		if _, err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		product.StockQuantity -= 2
		return tx.Products().Save(ctx, product)
	})
	if err != nil {
		t.Fatalf("Atomically failed: %v", err)
	}

	got, err := store.Products().FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.StockQuantity != 118 {
		t.Fatalf("expected stock 118, got %d", got.StockQuantity)
	}
	if _, err := store.Orders().GetByNumber(ctx, "ORD-20260820-0001"); err != nil {
		t.Fatalf("expected committed order, got %v", err)
	}
}

func TestStoreAtomically_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	product, err := store.Products().Create(ctx, newProduct("Kindle Paperwhite", "AMA-KPW-11", 120))
	if err != nil {
		t.Fatalf("Create product failed: %v", err)
	}

	boom := errors.New("boom")
	err = store.Atomically(ctx, func(tx domain.Tx) error {
		order := newOrder("ORD-20260820-0001", "john@example.com", day)
		order.ProductID = product.ID
		if _, err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		product.StockQuantity -= 2
		if err := tx.Products().Save(ctx, product); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// Обе записи откатились: ни заказа, ни списания остатка.
	if _, err := store.Orders().GetByNumber(ctx, "ORD-20260820-0001"); !domain.IsNotFound(err) {
		t.Fatalf("expected rolled back order, got %v", err)
	}
	got, err := store.Products().FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.StockQuantity != 120 {
		t.Fatalf("expected stock 120 after rollback, got %d", got.StockQuantity)
	}
}

func TestStoreAtomically_CanceledContext(t *testing.T) {
	store := memory.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Atomically(ctx, func(tx domain.Tx) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
