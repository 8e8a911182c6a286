package ledger

import (
	"context"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

// Запросы не имеют побочных эффектов: ни остаток, ни заказы не меняются.

// Get возвращает заказ по внутреннему идентификатору.
func (l *ledgerService) Get(ctx context.Context, orderID int64) (domain.Order, error) {
	order, err := l.store.Orders().Get(ctx, orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, domain.NotFoundf("Order not found.")
		}
		return domain.Order{}, l.storageFault(err, "getting")
	}
	return order, nil
}

// GetByNumber возвращает заказ по человекочитаемому номеру.
func (l *ledgerService) GetByNumber(ctx context.Context, number string) (domain.Order, error) {
	order, err := l.store.Orders().GetByNumber(ctx, number)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, domain.NotFoundf("Order not found.")
		}
		return domain.Order{}, l.storageFault(err, "getting")
	}
	return order, nil
}

// List возвращает страницу заказов по убыванию даты оформления.
// Порядок стабилен: повторный вызов на неизменённых данных даёт ту же страницу.
func (l *ledgerService) List(ctx context.Context, filter domain.ListFilter) (domain.OrderPage, error) {
	page, err := l.store.Orders().List(ctx, filter)
	if err != nil {
		return domain.OrderPage{}, l.storageFault(err, "listing")
	}
	return page, nil
}

// Products возвращает товары с положительным остатком, по названию.
func (l *ledgerService) Products(ctx context.Context) ([]domain.Product, error) {
	products, err := l.store.Products().ListInStock(ctx)
	if err != nil {
		return nil, l.storageFault(err, "listing")
	}
	return products, nil
}

// Product возвращает товар по идентификатору.
func (l *ledgerService) Product(ctx context.Context, productID int64) (domain.Product, error) {
	product, err := l.store.Products().FindByID(ctx, productID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Product{}, domain.NotFoundf("Selected product does not exist.")
		}
		return domain.Product{}, l.storageFault(err, "getting")
	}
	return product, nil
}
