package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/irfndi/pricecast-go/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an insert hits a unique constraint.
	ErrAlreadyExists = errors.New("already exists")
)

// DBPool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DBPool interface {
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PriceRepository handles products, categories and their price history.
type PriceRepository struct {
	pool DBPool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool DBPool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

const schema = `
	CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id INTEGER REFERENCES categories(id)
	);
	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		article TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		brand TEXT,
		image_url TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS price_history (
		id SERIAL PRIMARY KEY,
		product_id INTEGER NOT NULL REFERENCES products(id),
		price NUMERIC(12, 2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_price_history_product_created
		ON price_history (product_id, created_at);
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
`

// EnsureSchema creates the tables when they do not exist yet.
func (r *PriceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

const productColumns = `id, article, name, description, category_id, brand, image_url`

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Article, &p.Name, &p.Description, &p.CategoryID, &p.Brand, &p.ImageURL)
	return p, err
}

func (r *PriceRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

// ListProducts returns every product ordered by id.
func (r *PriceRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// ListProductsByCategory returns the products of one category.
func (r *PriceRepository) ListProductsByCategory(ctx context.Context, categoryID int) ([]models.Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY id`, categoryID)
}

// GetProductByArticle looks a product up by its marketplace article.
func (r *PriceRepository) GetProductByArticle(ctx context.Context, article string) (*models.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE article = $1`, article))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", article, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListCategories returns every category ordered by id.
func (r *PriceRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, parent_id FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategory looks a category up by id.
func (r *PriceRepository) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	var c models.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, parent_id FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.ParentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *PriceRepository) queryHistory(ctx context.Context, query string, args ...interface{}) ([]models.PriceHistory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	history := make([]models.PriceHistory, 0)
	for rows.Next() {
		var h models.PriceHistory
		if err := rows.Scan(&h.ID, &h.ProductID, &h.Price, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return history, nil
}

// GetPriceHistory returns all observations of a product, oldest first.
func (r *PriceRepository) GetPriceHistory(ctx context.Context, productID int) ([]models.PriceHistory, error) {
	return r.queryHistory(ctx, `
		SELECT id, product_id, price, created_at
		FROM price_history
		WHERE product_id = $1
		ORDER BY created_at`, productID)
}

// GetPriceHistorySince returns observations of a product at or after since, oldest first.
func (r *PriceRepository) GetPriceHistorySince(ctx context.Context, productID int, since time.Time) ([]models.PriceHistory, error) {
	return r.queryHistory(ctx, `
		SELECT id, product_id, price, created_at
		FROM price_history
		WHERE product_id = $1 AND created_at >= $2
		ORDER BY created_at`, productID, since)
}

// LatestPrices returns the newest observation of every product.
func (r *PriceRepository) LatestPrices(ctx context.Context) ([]models.PriceHistory, error) {
	return r.queryHistory(ctx, `
		SELECT DISTINCT ON (product_id) id, product_id, price, created_at
		FROM price_history
		ORDER BY product_id, created_at DESC`)
}

// LatestPriceByArticle returns the newest stored price of a product.
func (r *PriceRepository) LatestPriceByArticle(ctx context.Context, article string) (*models.PriceHistory, error) {
	var h models.PriceHistory
	err := r.pool.QueryRow(ctx, `
		SELECT ph.id, ph.product_id, ph.price, ph.created_at
		FROM price_history ph
		JOIN products p ON p.id = ph.product_id
		WHERE p.article = $1
		ORDER BY ph.created_at DESC
		LIMIT 1`, article).Scan(&h.ID, &h.ProductID, &h.Price, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("price for %s: %w", article, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}
	return &h, nil
}

// InsertPrice appends an observation for a product.
func (r *PriceRepository) InsertPrice(ctx context.Context, productID int, price decimal.Decimal, at time.Time) (*models.PriceHistory, error) {
	h := models.PriceHistory{ProductID: productID, Price: price, CreatedAt: at}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO price_history (product_id, price, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`, productID, price, at).Scan(&h.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert price: %w", err)
	}
	return &h, nil
}
