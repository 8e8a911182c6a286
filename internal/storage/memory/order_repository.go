package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

const defaultPageSize = 10

// Уникальность номера заказа и email проверяется и здесь: предварительные
// проверки леджера — не единственная линия защиты.

func (d *dataset) createOrder(order domain.Order) (domain.Order, error) {
	if d.orderNumberTaken(order.OrderNumber, 0) {
		return domain.Order{}, domain.Conflictf("Order number already exists. Please use a different order number.")
	}
	if d.customerEmailTaken(order.CustomerEmail, 0) {
		return domain.Order{}, domain.Conflictf("Customer email already exists. Please use a different email.")
	}

	order.ID = d.nextOrderID
	d.nextOrderID++
	d.orders[order.ID] = order
	return order, nil
}

func (d *dataset) getOrder(id int64) (domain.Order, error) {
	order, ok := d.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFoundf("Order not found.")
	}
	return order, nil
}

func (d *dataset) getOrderByNumber(number string) (domain.Order, error) {
	for _, order := range d.orders {
		if order.OrderNumber == number {
			return order, nil
		}
	}
	return domain.Order{}, domain.NotFoundf("Order not found.")
}

func (d *dataset) orderNumberTaken(number string, excludeID int64) bool {
	for _, order := range d.orders {
		if order.OrderNumber == number && order.ID != excludeID {
			return true
		}
	}
	return false
}

func (d *dataset) customerEmailTaken(email string, excludeID int64) bool {
	for _, order := range d.orders {
		if order.CustomerEmail == email && order.ID != excludeID {
			return true
		}
	}
	return false
}

func (d *dataset) countOrdersByDate(day time.Time) int {
	count := 0
	for _, order := range d.orders {
		if domain.SameDay(order.OrderDate, day) {
			count++
		}
	}
	return count
}

func (d *dataset) listOrders(filter domain.ListFilter) domain.OrderPage {
	matched := make([]domain.Order, 0, len(d.orders))
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	for _, order := range d.orders {
		if !d.matchesFilter(order, search, filter) {
			continue
		}
		matched = append(matched, order)
	}

	// Стабильный порядок: дата оформления по убыванию, затем ID по убыванию.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OrderDate.Equal(matched[j].OrderDate) {
			return matched[i].OrderDate.After(matched[j].OrderDate)
		}
		return matched[i].ID > matched[j].ID
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize

	offset := (page - 1) * pageSize
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	return domain.OrderPage{
		Orders:     matched[offset:end],
		TotalCount: total,
		TotalPages: totalPages,
	}
}

func (d *dataset) matchesFilter(order domain.Order, search string, filter domain.ListFilter) bool {
	if filter.Status != "" && order.Status() != filter.Status {
		return false
	}
	if filter.DateFrom != nil && order.OrderDate.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && order.OrderDate.After(*filter.DateTo) {
		return false
	}
	if search == "" {
		return true
	}

	productName := ""
	if product, ok := d.products[order.ProductID]; ok {
		productName = product.Name
	}
	return strings.Contains(strings.ToLower(order.OrderNumber), search) ||
		strings.Contains(strings.ToLower(order.CustomerName), search) ||
		strings.Contains(strings.ToLower(order.CustomerEmail), search) ||
		strings.Contains(strings.ToLower(productName), search)
}

func (d *dataset) updateOrder(order domain.Order) error {
	if _, ok := d.orders[order.ID]; !ok {
		return domain.NotFoundf("Order not found.")
	}
	if d.orderNumberTaken(order.OrderNumber, order.ID) {
		return domain.Conflictf("Order number already exists. Please use a different order number.")
	}
	if d.customerEmailTaken(order.CustomerEmail, order.ID) {
		return domain.Conflictf("Customer email already exists for another order.")
	}
	d.orders[order.ID] = order
	return nil
}

func (d *dataset) deleteOrder(id int64) error {
	if _, ok := d.orders[id]; !ok {
		return domain.NotFoundf("Order not found.")
	}
	delete(d.orders, id)
	return nil
}

// orderRepository берёт блокировку хранилища на каждый вызов.
type orderRepository struct {
	store *Store
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.data.createOrder(order)
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.getOrder(id)
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.getOrderByNumber(number)
}

func (r *orderRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.orderNumberTaken(number, 0), nil
}

func (r *orderRepository) ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.customerEmailTaken(email, excludeID), nil
}

func (r *orderRepository) CountByOrderDate(ctx context.Context, day time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.countOrdersByDate(day), nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.ListFilter) (domain.OrderPage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.listOrders(filter), nil
}

func (r *orderRepository) Update(ctx context.Context, order domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.data.updateOrder(order)
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.data.deleteOrder(id)
}

// txOrderRepository работает без блокировки: её держит Atomically.
type txOrderRepository struct {
	data *dataset
}

func (r *txOrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	return r.data.createOrder(order)
}

func (r *txOrderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	return r.data.getOrder(id)
}

func (r *txOrderRepository) GetByNumber(ctx context.Context, number string) (domain.Order, error) {
	return r.data.getOrderByNumber(number)
}

func (r *txOrderRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	return r.data.orderNumberTaken(number, 0), nil
}

func (r *txOrderRepository) ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.data.customerEmailTaken(email, excludeID), nil
}

func (r *txOrderRepository) CountByOrderDate(ctx context.Context, day time.Time) (int, error) {
	return r.data.countOrdersByDate(day), nil
}

func (r *txOrderRepository) List(ctx context.Context, filter domain.ListFilter) (domain.OrderPage, error) {
	return r.data.listOrders(filter), nil
}

func (r *txOrderRepository) Update(ctx context.Context, order domain.Order) error {
	return r.data.updateOrder(order)
}

func (r *txOrderRepository) Delete(ctx context.Context, id int64) error {
	return r.data.deleteOrder(id)
}

var (
	_ domain.OrderRepository = (*orderRepository)(nil)
	_ domain.OrderRepository = (*txOrderRepository)(nil)
)
