package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
)

// errNegativeStock защищает инвариант остатка на уровне хранилища,
// как CHECK-ограничение в PostgreSQL-реализации.
var errNegativeStock = errors.New("stock quantity must not be negative")

func (d *dataset) findProduct(id int64) (domain.Product, error) {
	product, ok := d.products[id]
	if !ok {
		return domain.Product{}, domain.NotFoundf("Selected product does not exist.")
	}
	return product, nil
}

func (d *dataset) listProductsInStock() []domain.Product {
	result := make([]domain.Product, 0, len(d.products))
	for _, product := range d.products {
		if product.StockQuantity > 0 {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (d *dataset) saveProduct(product domain.Product) error {
	if _, ok := d.products[product.ID]; !ok {
		return domain.NotFoundf("Selected product does not exist.")
	}
	if product.StockQuantity < 0 {
		return domain.StorageError(errNegativeStock, "Error saving product: stock quantity must not be negative.")
	}
	d.products[product.ID] = product
	return nil
}

func (d *dataset) createProduct(product domain.Product) (domain.Product, error) {
	for _, existing := range d.products {
		if existing.SKU == product.SKU {
			return domain.Product{}, domain.Conflictf("Product SKU already exists.")
		}
		if existing.Name == product.Name {
			return domain.Product{}, domain.Conflictf("Product name already exists.")
		}
	}
	product.ID = d.nextProductID
	d.nextProductID++
	d.products[product.ID] = product
	return product, nil
}

// productRepository берёт блокировку хранилища на каждый вызов.
type productRepository struct {
	store *Store
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.findProduct(id)
}

func (r *productRepository) ListInStock(ctx context.Context) ([]domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.data.listProductsInStock(), nil
}

func (r *productRepository) Save(ctx context.Context, product domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.data.saveProduct(product)
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.data.createProduct(product)
}

// txProductRepository работает без блокировки: её держит Atomically.
type txProductRepository struct {
	data *dataset
}

func (r *txProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	return r.data.findProduct(id)
}

func (r *txProductRepository) ListInStock(ctx context.Context) ([]domain.Product, error) {
	return r.data.listProductsInStock(), nil
}

func (r *txProductRepository) Save(ctx context.Context, product domain.Product) error {
	return r.data.saveProduct(product)
}

func (r *txProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	return r.data.createProduct(product)
}

var (
	_ domain.ProductCatalog = (*productRepository)(nil)
	_ domain.ProductCatalog = (*txProductRepository)(nil)
)
