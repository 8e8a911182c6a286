package domain

import (
	"errors"
	"fmt"
)

// ErrorKind классифицирует ошибки леджера. Вызывающий код разбирает
// именно тег, а не текст сообщения.
type ErrorKind string

const (
	// KindValidation — некорректное или выходящее за допустимые границы поле.
	KindValidation ErrorKind = "validation"
	// KindNotFound — заказ или товар с указанным идентификатором не существует.
	KindNotFound ErrorKind = "not_found"
	// KindConflict — дубликат номера заказа или email клиента.
	KindConflict ErrorKind = "conflict"
	// KindInsufficientStock — запрошенное количество превышает доступный остаток.
	KindInsufficientStock ErrorKind = "insufficient_stock"
	// KindStorage — сбой нижележащего хранилища; частичные записи не видны.
	KindStorage ErrorKind = "storage"
)

// Error — типизированная ошибка леджера: тег вида плюс человекочитаемое сообщение.
type Error struct {
	Kind ErrorKind
	// Message предназначен для показа пользователю презентационным слоем.
	Message string
	// Retryable помечает временные сбои (таймаут блокировки, недоступность БД).
	Retryable bool

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap открывает исходную ошибку для errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Validationf создаёт ошибку валидации поля.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf создаёт ошибку отсутствующей записи.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf создаёт ошибку дубликата уникального поля.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockf создаёт ошибку нехватки остатка.
func InsufficientStockf(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

// StorageError оборачивает сбой хранилища, сохраняя исходную причину.
func StorageError(cause error, message string) *Error {
	return &Error{Kind: KindStorage, Message: message, cause: cause}
}

// RetryableStorageError помечает сбой хранилища как временный: вызывающий может повторить операцию.
func RetryableStorageError(cause error, message string) *Error {
	return &Error{Kind: KindStorage, Message: message, Retryable: true, cause: cause}
}

// KindOf возвращает тег ошибки или KindStorage для нетипизированных ошибок.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorage
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound проверяет, является ли ошибка ошибкой отсутствующей записи.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict проверяет, является ли ошибка конфликтом уникальности.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return KindOf(err) == KindInsufficientStock
}

// IsRetryable сообщает, имеет ли смысл повторить операцию.
func IsRetryable(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Retryable
}
