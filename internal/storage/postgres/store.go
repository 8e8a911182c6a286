package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Store — PostgreSQL-реализация domain.Store. Атомарные единицы записи
// отображаются на транзакции БД: вставка заказа и списание остатка
// фиксируются одним COMMIT.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Orders возвращает репозиторий заказов поверх пула подключений.
func (s *Store) Orders() domain.OrderRepository {
	return &orderRepository{q: s.db}
}

// Products возвращает каталог товаров поверх пула подключений.
func (s *Store) Products() domain.ProductCatalog {
	return &productRepository{q: s.db}
}

// Atomically выполняет fn внутри одной транзакции БД.
// Ошибка fn откатывает транзакцию целиком — частичные записи не видны.
func (s *Store) Atomically(ctx context.Context, fn func(tx domain.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin atomic unit: %w", err)
	}

	if err := fn(&storeTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit atomic unit: %w", err)
	}
	return nil
}

// queryer покрывает *sql.DB и *sql.Tx: репозитории работают одинаково
// вне и внутри атомарной единицы.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// storeTx отдаёт репозитории, привязанные к открытой транзакции.
type storeTx struct {
	tx *sql.Tx
}

func (t *storeTx) Orders() domain.OrderRepository {
	return &orderRepository{q: t.tx}
}

func (t *storeTx) Products() domain.ProductCatalog {
	return &productRepository{q: t.tx}
}

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*storeTx)(nil)
)
