package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

// generateOrderNumber формирует номер ORD-{yyyyMMdd}-{NNNN}, где NNNN —
// число заказов с сегодняшней датой оформления плюс один.
//
// Известная гонка: два конкурентных вызова могут насчитать одинаковую
// последовательность. Семантика исходной системы сохранена намеренно;
// уникальный индекс хранилища превращает совпадение в ошибку конфликта,
// а не в тихую порчу данных.
func generateOrderNumber(ctx context.Context, orders domain.OrderRepository, today time.Time) (string, error) {
	count, err := orders.CountByOrderDate(ctx, today)
	if err != nil {
		return "", err
	}
	// Дата в номере — в UTC, тем же днём, которым хранилище считает заказы.
	return fmt.Sprintf("ORD-%s-%04d", today.UTC().Format("20060102"), count+1), nil
}
