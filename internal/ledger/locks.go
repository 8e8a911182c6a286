package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

// errLockWaitExpired — внутренняя причина таймаута ожидания блокировки.
var errLockWaitExpired = errors.New("product lock wait expired")

// productLocks сериализует изменения остатка по каждому товару.
// Все мутации леджера читают и затем пишут StockQuantity одного товара;
// без эксклюзивной блокировки на товар конкурентные операции теряют
// обновления. Блокировка покрывает чтение остатка и последующую запись
// и освобождается на каждом пути выхода, включая отказ валидации.
type productLocks struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
}

func newProductLocks() *productLocks {
	return &productLocks{slots: make(map[int64]chan struct{})}
}

// acquire захватывает эксклюзивную блокировку товара, ожидая не дольше wait.
// Возвращает функцию освобождения. Истечение ожидания или отмена контекста
// превращаются во временную ошибку: вызывающий может повторить операцию.
func (p *productLocks) acquire(ctx context.Context, productID int64, wait time.Duration) (func(), error) {
	p.mu.Lock()
	slot, ok := p.slots[productID]
	if !ok {
		slot = make(chan struct{}, 1)
		p.slots[productID] = slot
	}
	p.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, domain.RetryableStorageError(ctx.Err(), "Operation canceled while waiting for product. Please retry.")
	case <-timer.C:
		return nil, domain.RetryableStorageError(errLockWaitExpired, "Product is busy. Please retry.")
	}
}
