package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	"github.com/vladislavdragonenkov/orderledger/internal/ledger"
)

const sampleOrderCount = 30

// sampleProducts — демонстрационный каталог. Цены в минимальных единицах.
var sampleProducts = []domain.Product{
	{Name: "iPhone 15 Pro", SKU: "APP-IP15P-256", Description: "Latest Apple smartphone", PriceMinor: 129999, StockQuantity: 50, Category: "Electronics"},
	{Name: "Samsung Galaxy S24", SKU: "SAM-GS24-512", Description: "Android flagship phone", PriceMinor: 119999, StockQuantity: 75, Category: "Electronics"},
	{Name: "MacBook Air M2", SKU: "APP-MBA-M2-13", Description: "Lightweight laptop", PriceMinor: 149999, StockQuantity: 30, Category: "Computers"},
	{Name: "Sony WH-1000XM5", SKU: "SON-WHXM5", Description: "Noise cancelling headphones", PriceMinor: 39999, StockQuantity: 100, Category: "Audio"},
	{Name: "Nike Air Max 270", SKU: "NIK-AM270-BLK", Description: "Comfortable running shoes", PriceMinor: 15999, StockQuantity: 200, Category: "Footwear"},
	{Name: "Levi's 501 Jeans", SKU: "LEV-501-34", Description: "Classic denim jeans", PriceMinor: 8999, StockQuantity: 150, Category: "Clothing"},
	{Name: "Instant Pot Duo", SKU: "INS-POT-DUO7", Description: "7-in-1 pressure cooker", PriceMinor: 12999, StockQuantity: 80, Category: "Kitchen"},
	{Name: "Kindle Paperwhite", SKU: "AMA-KPW-11", Description: "Waterproof e-reader", PriceMinor: 14999, StockQuantity: 120, Category: "Electronics"},
	{Name: "PlayStation 5", SKU: "SON-PS5-DISC", Description: "Gaming console", PriceMinor: 49999, StockQuantity: 40, Category: "Gaming"},
	{Name: "Dyson V15 Detect", SKU: "DYS-V15-DET", Description: "Cordless vacuum cleaner", PriceMinor: 74999, StockQuantity: 60, Category: "Home"},
	{Name: "Breville Barista", SKU: "BRE-BAR-EX", Description: "Espresso machine", PriceMinor: 89999, StockQuantity: 25, Category: "Kitchen"},
	{Name: "GoPro Hero 12", SKU: "GOP-H12-BLK", Description: "Action camera", PriceMinor: 39999, StockQuantity: 90, Category: "Cameras"},
	{Name: "Fitbit Charge 6", SKU: "FIT-CHRG6-BLK", Description: "Fitness tracker", PriceMinor: 15999, StockQuantity: 180, Category: "Wearables"},
	{Name: "Logitech MX Keys", SKU: "LOG-MXKEYS", Description: "Wireless keyboard", PriceMinor: 9999, StockQuantity: 250, Category: "Computers"},
	{Name: "Bose SoundLink", SKU: "BOS-SL2-BLK", Description: "Bluetooth speaker", PriceMinor: 29999, StockQuantity: 110, Category: "Audio"},
}

var sampleCustomerNames = []string{
	"John Smith", "Emma Johnson", "Michael Brown", "Sarah Davis", "Robert Wilson",
	"Jennifer Taylor", "David Anderson", "Jessica Thomas", "James Martinez", "Lisa Garcia",
}

// Run наполняет пустое хранилище демонстрационным каталогом и заказами.
// Заказы проводятся через леджер, чтобы бухгалтерия остатков сходилась
// с самого первого дня. Непустое хранилище не трогаем.
func Run(ctx context.Context, store domain.Store, svc ledger.Ledger, rng *rand.Rand, logger *log.Entry) error {
	if logger == nil {
		logger = log.New().WithField("component", "seed")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	existing, err := store.Products().ListInStock(ctx)
	if err != nil {
		return fmt.Errorf("check existing products: %w", err)
	}
	if len(existing) > 0 {
		logger.WithField("products", len(existing)).Info("store is not empty, skipping seed")
		return nil
	}

	now := time.Now()
	products := make([]domain.Product, 0, len(sampleProducts))
	for _, p := range sampleProducts {
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := p.Validate(); err != nil {
			return fmt.Errorf("sample product %q: %w", p.Name, err)
		}
		created, err := store.Products().Create(ctx, p)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		products = append(products, created)
	}

	seeded := 0
	for i := 0; i < sampleOrderCount; i++ {
		product := products[rng.Intn(len(products))]
		name := sampleCustomerNames[rng.Intn(len(sampleCustomerNames))]

		orderDate := dateDaysAgo(now, 1+rng.Intn(60))
		var deliveryDate *time.Time
		if rng.Intn(3) != 0 {
			d := orderDate.AddDate(0, 0, 1+rng.Intn(14))
			deliveryDate = &d
		}

		maxQty := 10
		if int(product.StockQuantity) < maxQty {
			maxQty = int(product.StockQuantity)
		}

		order := domain.Order{
			ProductID:     product.ID,
			OrderNumber:   fmt.Sprintf("ORD-%s-%04d", orderDate.Format("20060102"), i+1),
			CustomerName:  name,
			CustomerEmail: fmt.Sprintf("%s%d@test.com", strings.ToLower(strings.ReplaceAll(name, " ", "")), i),
			Quantity:      int32(1 + rng.Intn(maxQty)),
			OrderDate:     orderDate,
			DeliveryDate:  deliveryDate,
		}

		if _, err := svc.Create(ctx, order); err != nil {
			// Недостаток остатка при случайной генерации не фатален.
			if domain.IsInsufficientStock(err) {
				logger.WithField("order_number", order.OrderNumber).Warn("skipping sample order, insufficient stock")
				continue
			}
			return fmt.Errorf("seed order %s: %w", order.OrderNumber, err)
		}
		seeded++
	}

	logger.WithFields(log.Fields{
		"products": len(products),
		"orders":   seeded,
	}).Info("sample data seeded")
	return nil
}

func dateDaysAgo(now time.Time, days int) time.Time {
	y, m, d := now.AddDate(0, 0, -days).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
