package domain

import "time"

const (
	maxProductNameLen = 200
	maxSKULen         = 50
	maxDescriptionLen = 1000
	maxCategoryLen    = 100

	// Цены храним в минимальных денежных единицах (центах), две десятичные цифры.
	minPriceMinor = 1
	maxPriceMinor = 100_000_000

	maxStockQuantity = 10_000
)

// Product — товар каталога. Леджер заказов читает товар и корректирует
// только StockQuantity; жизненным циклом товара владеет каталог.
type Product struct {
	ID   int64
	Name string
	// SKU — внешний уникальный идентификатор товара.
	SKU         string
	Description string
	// PriceMinor — цена за единицу в минимальных денежных единицах (центы).
	PriceMinor int64
	// StockQuantity — остаток, доступный для новых заказов. Никогда не отрицателен.
	StockQuantity int32
	Category      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate проверяет поля товара перед сохранением в каталог.
// Первая нарушенная проверка прерывает остальные.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return Validationf("Product name is required.")
	case len(p.Name) > maxProductNameLen:
		return Validationf("Product name cannot exceed %d characters.", maxProductNameLen)
	case p.SKU == "":
		return Validationf("SKU is required.")
	case len(p.SKU) > maxSKULen:
		return Validationf("SKU cannot exceed %d characters.", maxSKULen)
	case len(p.Description) > maxDescriptionLen:
		return Validationf("Description cannot exceed %d characters.", maxDescriptionLen)
	case p.PriceMinor < minPriceMinor || p.PriceMinor > maxPriceMinor:
		return Validationf("Price must be between 0.01 and 1,000,000.")
	case p.StockQuantity < 0 || p.StockQuantity > maxStockQuantity:
		return Validationf("Stock quantity must be between 0 and 10,000.")
	case p.Category == "":
		return Validationf("Category is required.")
	case len(p.Category) > maxCategoryLen:
		return Validationf("Category cannot exceed %d characters.", maxCategoryLen)
	}
	return nil
}
