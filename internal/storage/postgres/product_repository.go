package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

type productRepository struct {
	q queryer
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	var product domain.Product
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, sku, description, price_minor, stock_quantity, category, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.SKU, &product.Description,
		&product.PriceMinor, &product.StockQuantity, &product.Category,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.NotFoundf("Selected product does not exist.")
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (r *productRepository) ListInStock(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, sku, description, price_minor, stock_quantity, category, created_at, updated_at
		FROM products
		WHERE stock_quantity > 0
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.SKU, &product.Description,
			&product.PriceMinor, &product.StockQuantity, &product.Category,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// Save перезаписывает товар. CHECK-ограничение stock_quantity >= 0 —
// последняя линия защиты инварианта остатка.
func (r *productRepository) Save(ctx context.Context, product domain.Product) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    sku = $2,
		    description = $3,
		    price_minor = $4,
		    stock_quantity = $5,
		    category = $6,
		    updated_at = $7
		WHERE id = $8
	`,
		product.Name, product.SKU, product.Description, product.PriceMinor,
		product.StockQuantity, product.Category, product.UpdatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("Selected product does not exist.")
	}
	return nil
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO products (name, sku, description, price_minor, stock_quantity, category, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`,
		product.Name, product.SKU, product.Description, product.PriceMinor,
		product.StockQuantity, product.Category, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "sku") {
				return domain.Product{}, domain.Conflictf("Product SKU already exists.")
			}
			return domain.Product{}, domain.Conflictf("Product name already exists.")
		}
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

var _ domain.ProductCatalog = (*productRepository)(nil)
