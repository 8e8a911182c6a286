package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

// Store — in-memory реализация domain.Store для локальной разработки и тестов.
// Атомарность обеспечивается снимком данных: при ошибке fn весь снимок
// откатывается, частичные записи не видны.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

// dataset хранит все записи и счётчики идентификаторов.
type dataset struct {
	orders        map[int64]domain.Order
	products      map[int64]domain.Product
	nextOrderID   int64
	nextProductID int64
}

func newDataset() *dataset {
	return &dataset{
		orders:        make(map[int64]domain.Order),
		products:      make(map[int64]domain.Product),
		nextOrderID:   1,
		nextProductID: 1,
	}
}

// clone делает глубокую копию для отката.
func (d *dataset) clone() *dataset {
	cp := &dataset{
		orders:        make(map[int64]domain.Order, len(d.orders)),
		products:      make(map[int64]domain.Product, len(d.products)),
		nextOrderID:   d.nextOrderID,
		nextProductID: d.nextProductID,
	}
	for id, order := range d.orders {
		cp.orders[id] = order
	}
	for id, product := range d.products {
		cp.products[id] = product
	}
	return cp
}

// NewStore возвращает пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Orders возвращает репозиторий заказов с блокировкой на каждый вызов.
func (s *Store) Orders() domain.OrderRepository {
	return &orderRepository{store: s}
}

// Products возвращает каталог товаров с блокировкой на каждый вызов.
func (s *Store) Products() domain.ProductCatalog {
	return &productRepository{store: s}
}

// Atomically выполняет fn под эксклюзивной блокировкой хранилища.
// Ошибка fn восстанавливает данные из снимка: либо фиксируются все записи,
// либо ни одна.
func (s *Store) Atomically(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&storeTx{data: s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// storeTx даёт репозиториям прямой доступ к данным: блокировку уже держит Atomically.
type storeTx struct {
	data *dataset
}

func (t *storeTx) Orders() domain.OrderRepository {
	return &txOrderRepository{data: t.data}
}

func (t *storeTx) Products() domain.ProductCatalog {
	return &txProductRepository{data: t.data}
}

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*storeTx)(nil)
)
