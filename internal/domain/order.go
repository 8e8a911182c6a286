package domain

import (
	"net/mail"
	"regexp"
	"time"
	"unicode/utf8"
)

// OrderStatus — вычисляемый статус заказа. Статус нигде не хранится:
// он выводится из наличия даты доставки.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, доставка ещё не назначена.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusDelivered — дата доставки назначена.
	OrderStatusDelivered OrderStatus = "Delivered"
)

const (
	minCustomerNameLen = 2
	maxCustomerNameLen = 100

	// MinOrderQuantity и MaxOrderQuantity ограничивают количество в одном заказе.
	MinOrderQuantity int32 = 1
	MaxOrderQuantity int32 = 1000
)

// orderNumberPattern задаёт формат номера заказа: ORD-YYYYMMDD-NNNN.
var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

// Order — заказ клиента на один товар. Товар хранится слабой ссылкой
// по идентификатору; обратной ссылки на товаре нет.
type Order struct {
	ID        int64
	ProductID int64
	// OrderNumber — человекочитаемый уникальный номер в формате ORD-YYYYMMDD-NNNN.
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Quantity      int32
	// OrderDate — дата оформления, не позже сегодняшнего дня.
	OrderDate time.Time
	// DeliveryDate — опциональная дата доставки; nil означает "не доставлен".
	DeliveryDate *time.Time
	// CreatedAt и UpdatedAt назначаются системой; вызывающий их не задаёт.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status возвращает вычисляемый статус: Delivered при назначенной дате
// доставки, иначе Pending.
func (o *Order) Status() OrderStatus {
	if o.DeliveryDate != nil {
		return OrderStatusDelivered
	}
	return OrderStatusPending
}

// ValidateNew проверяет поля нового заказа в фиксированном порядке;
// первая ошибка прерывает проверку, состояние не меняется.
// Даты проверяет ValidateDates после разрешения товара, а существование
// товара и уникальность номера/email — леджер, так как для этого нужен
// доступ к хранилищу.
func (o *Order) ValidateNew() error {
	if o.OrderNumber != "" && !orderNumberPattern.MatchString(o.OrderNumber) {
		return Validationf("Order number must be in format: ORD-YYYYMMDD-XXXX")
	}
	if err := o.validateCustomer(); err != nil {
		return err
	}
	if err := o.validateQuantity(); err != nil {
		return err
	}
	if o.ProductID <= 0 {
		return Validationf("Product is required.")
	}
	return nil
}

// ValidateDates проверяет дату оформления и дату доставки нового заказа.
func (o *Order) ValidateDates(now time.Time) error {
	if dateOnly(o.OrderDate).After(dateOnly(now)) {
		return Validationf("Order date cannot be in the future.")
	}
	return o.validateDeliveryAgainst(o.OrderDate)
}

// ValidateRevision проверяет только изменяемые при обновлении поля.
// Формат номера заказа и границы даты оформления повторно не проверяются:
// эти поля после создания неизменяемы.
func (o *Order) ValidateRevision() error {
	if err := o.validateCustomer(); err != nil {
		return err
	}
	return o.validateQuantity()
}

// ValidateDeliveryDate проверяет, что дата доставки не раньше даты оформления.
func (o *Order) ValidateDeliveryDate(orderDate time.Time) error {
	return o.validateDeliveryAgainst(orderDate)
}

func (o *Order) validateCustomer() error {
	if o.CustomerName == "" {
		return Validationf("Customer name is required.")
	}
	// Границы считаются в символах, не в байтах: кириллическое имя
	// занимает вдвое больше байт, чем символов.
	if n := utf8.RuneCountInString(o.CustomerName); n < minCustomerNameLen || n > maxCustomerNameLen {
		return Validationf("Customer name must be between %d and %d characters.", minCustomerNameLen, maxCustomerNameLen)
	}
	if o.CustomerEmail == "" {
		return Validationf("Customer email is required.")
	}
	if !validEmail(o.CustomerEmail) {
		return Validationf("Invalid email format.")
	}
	return nil
}

func (o *Order) validateQuantity() error {
	if o.Quantity < MinOrderQuantity {
		return Validationf("Quantity must be greater than 0.")
	}
	if o.Quantity > MaxOrderQuantity {
		return Validationf("Quantity cannot exceed %d.", MaxOrderQuantity)
	}
	return nil
}

func (o *Order) validateDeliveryAgainst(orderDate time.Time) error {
	if o.DeliveryDate != nil && dateOnly(*o.DeliveryDate).Before(dateOnly(orderDate)) {
		return Validationf("Delivery date cannot be earlier than order date.")
	}
	return nil
}

// validEmail принимает только голый адрес без display name,
// как строгая проверка адреса в исходной системе.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// dateOnly отбрасывает время, приводя метку к календарной дате в UTC.
// Без нормализации сравнение дат из разных таймзон сравнивает разные
// полуночи: UTC-дата из запроса против локального time.Now().
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay сообщает, что две метки времени приходятся на один календарный день.
func SameDay(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}
