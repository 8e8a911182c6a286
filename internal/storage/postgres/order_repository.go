package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

const defaultPageSize = 10

// orderColumns перечисляет поля заказа в порядке сканирования.
const orderColumns = `o.id, o.product_id, o.order_number, o.customer_name, o.customer_email,
	o.quantity, o.order_date, o.delivery_date, o.created_at, o.updated_at`

// listWhereClause фильтрует выборку: подстрока без учёта регистра по номеру,
// имени, email и названию товара; статус выводится из даты доставки;
// диапазон дат оформления включителен.
const listWhereClause = `
	WHERE ($1 = ''
	       OR lower(o.order_number) LIKE '%' || $1 || '%'
	       OR lower(o.customer_name) LIKE '%' || $1 || '%'
	       OR lower(o.customer_email) LIKE '%' || $1 || '%'
	       OR lower(p.name) LIKE '%' || $1 || '%')
	  AND ($2 = ''
	       OR ($2 = 'Delivered' AND o.delivery_date IS NOT NULL)
	       OR ($2 = 'Pending' AND o.delivery_date IS NULL))
	  AND ($3::date IS NULL OR o.order_date >= $3::date)
	  AND ($4::date IS NULL OR o.order_date <= $4::date)`

type orderRepository struct {
	q queryer
}

// Create вставляет заказ; уникальные индексы на order_number и
// customer_email превращают гонку предварительных проверок в конфликт.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO orders (
			product_id, order_number, customer_name, customer_email,
			quantity, order_date, delivery_date, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`,
		order.ProductID, order.OrderNumber, order.CustomerName, order.CustomerEmail,
		order.Quantity, order.OrderDate, nullableDate(order.DeliveryDate),
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		if conflict := conflictFromUniqueViolation(err); conflict != nil {
			return domain.Order{}, conflict
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	return r.getOne(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.id = $1
	`, id)
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (domain.Order, error) {
	return r.getOne(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.order_number = $1
	`, number)
}

func (r *orderRepository) getOne(ctx context.Context, query string, arg any) (domain.Order, error) {
	order, err := scanOrder(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.NotFoundf("Order not found.")
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)
	`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order number: %w", err)
	}
	return exists, nil
}

func (r *orderRepository) ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE customer_email = $1 AND id <> $2)
	`, email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer email: %w", err)
	}
	return exists, nil
}

func (r *orderRepository) CountByOrderDate(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE order_date = $1::date
	`, day.UTC().Format("2006-01-02")).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders by date: %w", err)
	}
	return count, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.ListFilter) (domain.OrderPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var dateFrom, dateTo any
	if filter.DateFrom != nil {
		dateFrom = filter.DateFrom.Format("2006-01-02")
	}
	if filter.DateTo != nil {
		dateTo = filter.DateTo.Format("2006-01-02")
	}

	var total int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders o
		JOIN products p ON p.id = o.product_id
	`+listWhereClause, search, string(filter.Status), dateFrom, dateTo).Scan(&total)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN products p ON p.id = o.product_id
	`+listWhereClause+`
		ORDER BY o.order_date DESC, o.id DESC
		LIMIT $5 OFFSET $6
	`, search, string(filter.Status), dateFrom, dateTo, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, pageSize)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return domain.OrderPage{}, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return domain.OrderPage{}, fmt.Errorf("iterate order rows: %w", err)
	}

	return domain.OrderPage{
		Orders:     orders,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Update перезаписывает изменяемые поля; номер, товар и дата оформления
// после создания не пересматриваются.
func (r *orderRepository) Update(ctx context.Context, order domain.Order) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET customer_name = $1,
		    customer_email = $2,
		    quantity = $3,
		    delivery_date = $4,
		    updated_at = $5
		WHERE id = $6
	`,
		order.CustomerName, order.CustomerEmail, order.Quantity,
		nullableDate(order.DeliveryDate), order.UpdatedAt, order.ID,
	)
	if err != nil {
		if conflict := conflictFromUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("Order not found.")
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("Order not found.")
	}
	return nil
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order    domain.Order
		delivery sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.ProductID, &order.OrderNumber, &order.CustomerName,
		&order.CustomerEmail, &order.Quantity, &order.OrderDate, &delivery,
		&order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	if delivery.Valid {
		d := delivery.Time
		order.DeliveryDate = &d
	}
	return order, nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// conflictFromUniqueViolation переводит нарушение уникального индекса
// в типизированный конфликт с сообщением по конкретному полю.
func conflictFromUniqueViolation(err error) *domain.Error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "order_number"):
		return domain.Conflictf("Order number already exists. Please use a different order number.")
	case strings.Contains(pgErr.ConstraintName, "customer_email"):
		return domain.Conflictf("Customer email already exists. Please use a different email.")
	default:
		return domain.Conflictf("Duplicate value violates a unique constraint.")
	}
}

var _ domain.OrderRepository = (*orderRepository)(nil)
