package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события леджера заказов.
type EventType string

const (
	// EventTypeOrderCreated — заказ создан, остаток товара уменьшен.
	EventTypeOrderCreated EventType = "order.created"
	// EventTypeOrderUpdated — заказ изменён, остаток выровнен по дельте.
	EventTypeOrderUpdated EventType = "order.updated"
	// EventTypeOrderDeleted — заказ удалён, остаток возвращён товару.
	EventTypeOrderDeleted EventType = "order.deleted"
)

// Topics для Kafka
const (
	TopicOrderEvents = "orderledger.order.events"
)

// OrderEvent представляет зафиксированную операцию леджера.
// Событие публикуется только после фиксации записи в хранилище.
type OrderEvent struct {
	EventID     string    `json:"event_id"`
	EventType   EventType `json:"event_type"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ProductID   int64     `json:"product_id"`
	Quantity    int32     `json:"quantity"`
	// StockAfter — остаток товара после операции.
	StockAfter int32     `json:"stock_after"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewOrderEvent создаёт событие заказа с уникальным идентификатором.
func NewOrderEvent(eventType EventType, orderID int64, orderNumber string, productID int64, quantity, stockAfter int32, status string) OrderEvent {
	return OrderEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		ProductID:   productID,
		Quantity:    quantity,
		StockAfter:  stockAfter,
		Status:      status,
		Timestamp:   time.Now().UTC(),
	}
}
