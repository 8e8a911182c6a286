package seed_test

import (
	"context"
	"math/rand"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	"github.com/vladislavdragonenkov/orderledger/internal/ledger"
	"github.com/vladislavdragonenkov/orderledger/internal/seed"
	"github.com/vladislavdragonenkov/orderledger/internal/storage/memory"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	return logger.WithField("component", "seed-test")
}

func TestRun_SeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger.NewWithoutMetrics(store, testLogger())
	rng := rand.New(rand.NewSource(1))

	if err := seed.Run(ctx, store, svc, rng, testLogger()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	products, err := store.Products().ListInStock(ctx)
	if err != nil {
		t.Fatalf("ListInStock failed: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected seeded products")
	}

	page, err := store.Orders().List(ctx, domain.ListFilter{PageSize: 100})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.TotalCount == 0 {
		t.Fatal("expected seeded orders")
	}

	// Заказы прошли через леджер: остаток каждого товара списан.
	for _, order := range page.Orders {
		if order.OrderNumber == "" {
			t.Fatal("expected generated order numbers")
		}
		if order.Quantity < 1 {
			t.Fatalf("unexpected quantity %d", order.Quantity)
		}
	}
}

func TestRun_SkipsNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger.NewWithoutMetrics(store, testLogger())

	if _, err := store.Products().Create(ctx, domain.Product{
		Name: "Existing", SKU: "EXIST-1", PriceMinor: 100, StockQuantity: 5, Category: "Misc",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := seed.Run(ctx, store, svc, rand.New(rand.NewSource(1)), testLogger()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	products, err := store.Products().ListInStock(ctx)
	if err != nil {
		t.Fatalf("ListInStock failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected store untouched, got %d products", len(products))
	}

	page, err := store.Orders().List(ctx, domain.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.TotalCount != 0 {
		t.Fatalf("expected no orders, got %d", page.TotalCount)
	}
}

func TestRun_IsDeterministicPerSeed(t *testing.T) {
	ctx := context.Background()

	run := func() int {
		store := memory.NewStore()
		svc := ledger.NewWithoutMetrics(store, testLogger())
		if err := seed.Run(ctx, store, svc, rand.New(rand.NewSource(42)), testLogger()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		page, err := store.Orders().List(ctx, domain.ListFilter{PageSize: 100})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		return page.TotalCount
	}

	if run() != run() {
		t.Fatal("expected identical results for the same seed")
	}
}
