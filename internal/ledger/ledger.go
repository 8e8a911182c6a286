package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	"github.com/vladislavdragonenkov/orderledger/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderledger/internal/metrics"
)

// defaultLockWait ограничивает ожидание блокировки товара, чтобы ни одна
// операция не блокировалась бесконечно.
const defaultLockWait = 5 * time.Second

// Ledger описывает контракт леджера заказов: мутации с проверками и
// согласованной бухгалтерией остатков плюс чистые запросы.
type Ledger interface {
	// Create проверяет кандидат-заказ и атомарно сохраняет его вместе
	// со списанием остатка товара. При любом отказе состояние не меняется.
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	// Update пересматривает имя, email, количество и дату доставки
	// существующего заказа, выравнивая остаток товара по дельте количества.
	Update(ctx context.Context, order domain.Order) (domain.Order, error)
	// Delete удаляет заказ и возвращает его количество в остаток товара.
	Delete(ctx context.Context, orderID int64) (domain.Order, error)

	// Get возвращает заказ по внутреннему идентификатору.
	Get(ctx context.Context, orderID int64) (domain.Order, error)
	// GetByNumber возвращает заказ по человекочитаемому номеру.
	GetByNumber(ctx context.Context, number string) (domain.Order, error)
	// List возвращает страницу заказов; повторный вызов на неизменённых
	// данных даёт тот же порядок.
	List(ctx context.Context, filter domain.ListFilter) (domain.OrderPage, error)
	// Products возвращает товары с положительным остатком.
	Products(ctx context.Context) ([]domain.Product, error)
	// Product возвращает товар по идентификатору.
	Product(ctx context.Context, productID int64) (domain.Product, error)
}

// ledgerService реализует Ledger поверх domain.Store.
type ledgerService struct {
	store         domain.Store
	locks         *productLocks
	logger        *log.Entry
	metrics       *metrics.LedgerMetrics
	kafkaProducer *kafka.Producer // опциональный producer для событий заказов
	lockWait      time.Duration
	now           func() time.Time
}

// New создаёт рабочий экземпляр леджера.
func New(store domain.Store, logger *log.Entry) Ledger {
	return newService(store, nil, logger, metrics.NewLedgerMetrics())
}

// NewWithKafka создаёт леджер, публикующий события зафиксированных операций в Kafka.
func NewWithKafka(store domain.Store, producer *kafka.Producer, logger *log.Entry) Ledger {
	return newService(store, producer, logger, metrics.NewLedgerMetrics())
}

// NewWithoutMetrics создаёт леджер без метрик (для тестов).
func NewWithoutMetrics(store domain.Store, logger *log.Entry) Ledger {
	return newService(store, nil, logger, nil)
}

func newService(store domain.Store, producer *kafka.Producer, logger *log.Entry, m *metrics.LedgerMetrics) *ledgerService {
	if logger == nil {
		logger = log.New().WithField("component", "ledger")
	}
	return &ledgerService{
		store:         store,
		locks:         newProductLocks(),
		logger:        logger,
		metrics:       m,
		kafkaProducer: producer,
		lockWait:      defaultLockWait,
		now:           time.Now,
	}
}

// Create выполняет проверки в фиксированном порядке: формат номера, имя,
// email, количество, существование товара, даты, уникальность номера и
// email, достаточность остатка. Первая неудачная проверка прерывает
// операцию без каких-либо записей. Вставка заказа и списание остатка
// фиксируются одной атомарной единицей.
func (l *ledgerService) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	start := l.now()
	defer l.observeDuration("create", start)

	now := l.now()
	if err := order.ValidateNew(); err != nil {
		return domain.Order{}, l.fail("create", err)
	}

	release, err := l.locks.acquire(ctx, order.ProductID, l.lockWait)
	if err != nil {
		return domain.Order{}, l.fail("create", err)
	}
	defer release()

	var (
		created    domain.Order
		stockAfter int32
	)
	err = l.store.Atomically(ctx, func(tx domain.Tx) error {
		product, err := tx.Products().FindByID(ctx, order.ProductID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.NotFoundf("Selected product does not exist.")
			}
			return err
		}

		if err := order.ValidateDates(now); err != nil {
			return err
		}

		if order.OrderNumber == "" {
			number, err := generateOrderNumber(ctx, tx.Orders(), now)
			if err != nil {
				return err
			}
			order.OrderNumber = number
		}

		taken, err := tx.Orders().ExistsNumber(ctx, order.OrderNumber)
		if err != nil {
			return err
		}
		if taken {
			return domain.Conflictf("Order number already exists. Please use a different order number.")
		}

		used, err := tx.Orders().ExistsEmail(ctx, order.CustomerEmail, 0)
		if err != nil {
			return err
		}
		if used {
			return domain.Conflictf("Customer email already exists. Please use a different email.")
		}

		if order.Quantity > product.StockQuantity {
			return domain.InsufficientStockf("Insufficient stock. Available: %d, Requested: %d", product.StockQuantity, order.Quantity)
		}

		order.CreatedAt = now
		order.UpdatedAt = now

		created, err = tx.Orders().Create(ctx, order)
		if err != nil {
			return err
		}

		product.StockQuantity -= order.Quantity
		product.UpdatedAt = now
		if err := tx.Products().Save(ctx, product); err != nil {
			return err
		}
		stockAfter = product.StockQuantity
		return nil
	})
	if err != nil {
		return domain.Order{}, l.fail("create", l.storageFault(err, "creating"))
	}

	if l.metrics != nil {
		l.metrics.RecordOrderCreated(created.Quantity)
	}
	l.logger.WithFields(log.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"product_id":   created.ProductID,
		"quantity":     created.Quantity,
		"stock_after":  stockAfter,
	}).Info("order created")
	l.publishEvent(kafka.EventTypeOrderCreated, created, stockAfter)

	return created, nil
}

// Update выравнивает остаток по дельте количества: рост количества требует
// delta <= остатка, снижение возвращает разницу товару. Формат номера заказа
// и границы даты оформления повторно не проверяются — эти поля неизменяемы.
func (l *ledgerService) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	start := l.now()
	defer l.observeDuration("update", start)

	now := l.now()
	if err := order.ValidateRevision(); err != nil {
		return domain.Order{}, l.fail("update", err)
	}

	// Товар узнаём из текущей записи: ссылка на товар при обновлении не меняется.
	probe, err := l.store.Orders().Get(ctx, order.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, l.fail("update", domain.NotFoundf("Order not found."))
		}
		return domain.Order{}, l.fail("update", l.storageFault(err, "updating"))
	}

	release, err := l.locks.acquire(ctx, probe.ProductID, l.lockWait)
	if err != nil {
		return domain.Order{}, l.fail("update", err)
	}
	defer release()

	var (
		updated    domain.Order
		stockAfter int32
		delta      int32
	)
	err = l.store.Atomically(ctx, func(tx domain.Tx) error {
		existing, err := tx.Orders().Get(ctx, order.ID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.NotFoundf("Order not found.")
			}
			return err
		}

		if err := order.ValidateDeliveryDate(existing.OrderDate); err != nil {
			return err
		}

		used, err := tx.Orders().ExistsEmail(ctx, order.CustomerEmail, existing.ID)
		if err != nil {
			return err
		}
		if used {
			return domain.Conflictf("Customer email already exists for another order.")
		}

		product, err := tx.Products().FindByID(ctx, existing.ProductID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.NotFoundf("Selected product does not exist.")
			}
			return err
		}

		delta = order.Quantity - existing.Quantity
		if delta > 0 && delta > product.StockQuantity {
			return domain.InsufficientStockf("Insufficient stock. Available: %d, Additional requested: %d", product.StockQuantity, delta)
		}

		existing.CustomerName = order.CustomerName
		existing.CustomerEmail = order.CustomerEmail
		existing.Quantity = order.Quantity
		existing.DeliveryDate = order.DeliveryDate
		existing.UpdatedAt = now

		if err := tx.Orders().Update(ctx, existing); err != nil {
			return err
		}

		if delta != 0 {
			// Отрицательная дельта естественно увеличивает остаток.
			product.StockQuantity -= delta
			product.UpdatedAt = now
			if err := tx.Products().Save(ctx, product); err != nil {
				return err
			}
		}
		updated = existing
		stockAfter = product.StockQuantity
		return nil
	})
	if err != nil {
		return domain.Order{}, l.fail("update", l.storageFault(err, "updating"))
	}

	if l.metrics != nil {
		l.metrics.RecordOrderUpdated(delta)
	}
	l.logger.WithFields(log.Fields{
		"order_id":    updated.ID,
		"delta":       delta,
		"stock_after": stockAfter,
	}).Info("order updated")
	l.publishEvent(kafka.EventTypeOrderUpdated, updated, stockAfter)

	return updated, nil
}

// Delete возвращает количество заказа в остаток товара и удаляет запись;
// обе записи фиксируются одной атомарной единицей.
func (l *ledgerService) Delete(ctx context.Context, orderID int64) (domain.Order, error) {
	start := l.now()
	defer l.observeDuration("delete", start)

	now := l.now()
	probe, err := l.store.Orders().Get(ctx, orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, l.fail("delete", domain.NotFoundf("Order not found."))
		}
		return domain.Order{}, l.fail("delete", l.storageFault(err, "deleting"))
	}

	release, err := l.locks.acquire(ctx, probe.ProductID, l.lockWait)
	if err != nil {
		return domain.Order{}, l.fail("delete", err)
	}
	defer release()

	var (
		removed    domain.Order
		stockAfter int32
	)
	err = l.store.Atomically(ctx, func(tx domain.Tx) error {
		existing, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.NotFoundf("Order not found.")
			}
			return err
		}

		product, err := tx.Products().FindByID(ctx, existing.ProductID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.NotFoundf("Selected product does not exist.")
			}
			return err
		}

		product.StockQuantity += existing.Quantity
		product.UpdatedAt = now
		if err := tx.Products().Save(ctx, product); err != nil {
			return err
		}
		if err := tx.Orders().Delete(ctx, existing.ID); err != nil {
			return err
		}
		removed = existing
		stockAfter = product.StockQuantity
		return nil
	})
	if err != nil {
		return domain.Order{}, l.fail("delete", l.storageFault(err, "deleting"))
	}

	if l.metrics != nil {
		l.metrics.RecordOrderDeleted(removed.Quantity)
	}
	l.logger.WithFields(log.Fields{
		"order_id":    removed.ID,
		"stock_after": stockAfter,
	}).Info("order deleted")
	l.publishEvent(kafka.EventTypeOrderDeleted, removed, stockAfter)

	return removed, nil
}

// storageFault приводит нетипизированные ошибки хранилища к тегу storage,
// не скрывая при этом типизированные ошибки бизнес-проверок.
func (l *ledgerService) storageFault(err error, verb string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.StorageError(err, fmt.Sprintf("Error %s order: %v", verb, err))
}

// fail логирует отказ и учитывает его в метриках; ошибка возвращается как есть.
func (l *ledgerService) fail(op string, err error) error {
	if l.metrics != nil {
		l.metrics.RecordFailure(op, string(domain.KindOf(err)))
	}
	l.logger.WithError(err).WithFields(log.Fields{
		"op":   op,
		"kind": string(domain.KindOf(err)),
	}).Warn("ledger operation rejected")
	return err
}

func (l *ledgerService) observeDuration(op string, start time.Time) {
	if l.metrics != nil {
		l.metrics.RecordDuration(op, l.now().Sub(start))
	}
}

// publishEvent отправляет событие в Kafka после фиксации записи.
// Сбой публикации не отменяет уже зафиксированную операцию — только лог.
func (l *ledgerService) publishEvent(eventType kafka.EventType, order domain.Order, stockAfter int32) {
	if l.kafkaProducer == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.ID, order.OrderNumber, order.ProductID, order.Quantity, stockAfter, string(order.Status()))
	if err := l.kafkaProducer.PublishOrderEvent(event); err != nil {
		l.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order event")
	}
}

var _ Ledger = (*ledgerService)(nil)
