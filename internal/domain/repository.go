package domain

import (
	"context"
	"time"
)

// ListFilter задаёт параметры постраничной выборки заказов.
type ListFilter struct {
	// Page нумеруется с единицы; значения меньше 1 приводятся к 1.
	Page int
	// PageSize меньше 1 заменяется значением по умолчанию (10).
	PageSize int
	// Search — подстрока без учёта регистра по номеру заказа, имени клиента,
	// email и названию товара.
	Search string
	// Status фильтрует по вычисляемому статусу; пустое значение — все заказы.
	Status OrderStatus
	// DateFrom и DateTo ограничивают дату оформления (включительно).
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderPage — страница выборки с итоговыми счётчиками.
type OrderPage struct {
	Orders     []Order
	TotalCount int
	TotalPages int
}

// OrderRepository описывает хранилище заказов.
// Уникальность номера заказа и email клиента хранилище обязано
// обеспечивать само (уникальные индексы): предварительные проверки
// леджера — не единственная линия защиты.
type OrderRepository interface {
	// Create сохраняет новый заказ и возвращает его с назначенным ID.
	// Дубликат номера или email возвращается как ошибка конфликта.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ по ID или ошибку not_found.
	Get(ctx context.Context, id int64) (Order, error)
	// GetByNumber возвращает заказ по номеру или ошибку not_found.
	GetByNumber(ctx context.Context, number string) (Order, error)
	// ExistsNumber сообщает, занят ли номер заказа.
	ExistsNumber(ctx context.Context, number string) (bool, error)
	// ExistsEmail сообщает, использует ли email другой заказ.
	// excludeID > 0 исключает собственную запись при обновлении.
	ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	// CountByOrderDate возвращает число заказов, оформленных в указанный день.
	CountByOrderDate(ctx context.Context, day time.Time) (int, error)
	// List возвращает страницу заказов, отсортированных по дате оформления
	// по убыванию (затем по ID по убыванию — порядок стабилен между вызовами).
	List(ctx context.Context, filter ListFilter) (OrderPage, error)
	// Update перезаписывает изменяемые поля существующего заказа.
	Update(ctx context.Context, order Order) error
	// Delete удаляет заказ по ID или возвращает ошибку not_found.
	Delete(ctx context.Context, id int64) error
}

// ProductCatalog — доступ леджера к товарам. Леджер только читает товары
// и корректирует их остаток; создание и удаление товаров — дело каталога.
type ProductCatalog interface {
	// FindByID возвращает товар по ID или ошибку not_found.
	FindByID(ctx context.Context, id int64) (Product, error)
	// ListInStock возвращает товары с положительным остатком,
	// отсортированные по названию.
	ListInStock(ctx context.Context) ([]Product, error)
	// Save сохраняет изменённый товар (в первую очередь остаток).
	Save(ctx context.Context, product Product) error
	// Create добавляет товар в каталог и возвращает его с назначенным ID.
	Create(ctx context.Context, product Product) (Product, error)
}

// Tx объединяет репозитории в пределах одной атомарной единицы записи.
type Tx interface {
	Orders() OrderRepository
	Products() ProductCatalog
}

// Store — хранилище заказов и товаров с поддержкой атомарных единиц записи.
type Store interface {
	Orders() OrderRepository
	Products() ProductCatalog
	// Atomically выполняет fn так, что все записи внутри либо фиксируются
	// вместе, либо не видны вовсе. Ошибка fn откатывает всю единицу.
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}
