package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = "id, name, quantity, price, category"

const (
	findAllSQL          = `SELECT ` + productColumns + ` FROM products ORDER BY id`
	findByIDSQL         = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	findByNameSQL       = `SELECT ` + productColumns + ` FROM products WHERE name ILIKE $1 ORDER BY id LIMIT 1`
	findByCategorySQL   = `SELECT ` + productColumns + ` FROM products WHERE LOWER(category) = LOWER($1) ORDER BY id`
	findByPriceRangeSQL = `SELECT ` + productColumns + ` FROM products WHERE price > $1 AND price < $2 AND category = $3 ORDER BY id`
	createSQL           = `INSERT INTO products (name, quantity, price, category) VALUES ($1, $2, $3, $4) RETURNING ` + productColumns
	updateSQL           = `UPDATE products SET name = $2, quantity = $3, price = $4, category = $5 WHERE id = $1 RETURNING ` + productColumns
	deleteSQL           = `DELETE FROM products WHERE id = $1`
	lockByNameSQL       = `SELECT id, quantity FROM products WHERE name ILIKE $1 ORDER BY id LIMIT 1 FOR UPDATE`
	reduceSQL           = `UPDATE products SET quantity = quantity - $2 WHERE id = $1 AND quantity >= $2 RETURNING ` + productColumns
	increaseSQL         = `UPDATE products SET quantity = quantity + $2 WHERE id = $1 RETURNING ` + productColumns
	setQuantitySQL      = `UPDATE products SET quantity = $2 WHERE id = $1 RETURNING ` + productColumns
)

// pgNumericOutOfRange is the SQLSTATE raised when quantity + amount overflows INTEGER.
const pgNumericOutOfRange = "22003"

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	products, err := p.queryProducts(ctx, findAllSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	product, err := p.queryProduct(ctx, p.db, findByIDSQL, id)
	if err != nil {
		return nil, wrapNotFound(err, "failed to find product by ID")
	}
	return product, nil
}

func (p *PgStore) FindByName(ctx context.Context, name string) (*Product, error) {
	product, err := p.queryProduct(ctx, p.db, findByNameSQL, containsPattern(name))
	if err != nil {
		return nil, wrapNotFound(err, "failed to find product by name")
	}
	return product, nil
}

func (p *PgStore) FindByCategory(ctx context.Context, category string) ([]Product, error) {
	products, err := p.queryProducts(ctx, findByCategorySQL, category)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by category: %w", err)
	}
	return products, nil
}

func (p *PgStore) FindByPriceRange(ctx context.Context, minPrice, maxPrice float64, category string) ([]Product, error) {
	products, err := p.queryProducts(ctx, findByPriceRangeSQL, minPrice, maxPrice, category)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by price range: %w", err)
	}
	return products, nil
}

func (p *PgStore) Create(ctx context.Context, params ProductParams) (*Product, error) {
	product, err := p.queryProduct(ctx, p.db, createSQL, params.Name, params.Quantity, params.Price, params.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (p *PgStore) Update(ctx context.Context, id int64, params ProductParams) (*Product, error) {
	product, err := p.queryProduct(ctx, p.db, updateSQL, id, params.Name, params.Quantity, params.Price, params.Category)
	if err != nil {
		return nil, wrapNotFound(err, "failed to update product")
	}
	return product, nil
}

func (p *PgStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return inverrors.ErrProductNotFound
	}
	return nil
}

// ReduceQuantity locks the first matching row, checks the quantity and decrements it in one transaction.
// The UPDATE repeats the quantity check so the write can never drive it negative.
func (p *PgStore) ReduceQuantity(ctx context.Context, name string, amount int32) (*Product, error) {
	var updated *Product
	err := p.withLockedByName(ctx, name, func(tx pgx.Tx, id int64, quantity int32) error {
		if quantity < amount {
			return inverrors.ErrInsufficientStock
		}
		product, err := p.queryProduct(ctx, tx, reduceSQL, id, amount)
		if err != nil {
			return wrapNotFound(err, "failed to reduce quantity")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (p *PgStore) IncreaseQuantity(ctx context.Context, name string, amount int32) (*Product, error) {
	var updated *Product
	err := p.withLockedByName(ctx, name, func(tx pgx.Tx, id int64, _ int32) error {
		product, err := p.queryProduct(ctx, tx, increaseSQL, id, amount)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgNumericOutOfRange {
				return fmt.Errorf("%w: quantity overflow", inverrors.ErrInvalidArgument)
			}
			return fmt.Errorf("failed to increase quantity: %w", err)
		}
		updated = product
		return nil
	})
	return updated, err
}

func (p *PgStore) SetQuantity(ctx context.Context, name string, quantity int32) (*Product, error) {
	var updated *Product
	err := p.withLockedByName(ctx, name, func(tx pgx.Tx, id int64, _ int32) error {
		product, err := p.queryProduct(ctx, tx, setQuantitySQL, id, quantity)
		if err != nil {
			return fmt.Errorf("failed to set quantity: %w", err)
		}
		updated = product
		return nil
	})
	return updated, err
}

func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// withLockedByName runs fn inside a transaction holding a row lock on the first product matching name.
func (p *PgStore) withLockedByName(ctx context.Context, name string, fn func(tx pgx.Tx, id int64, quantity int32) error) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		var id int64
		var quantity int32
		if err := tx.QueryRow(ctx, lockByNameSQL, containsPattern(name)).Scan(&id, &quantity); err != nil {
			return wrapNotFound(err, "failed to lock product by name")
		}
		return fn(tx, id, quantity)
	})
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (p *PgStore) queryProduct(ctx context.Context, q querier, sql string, args ...any) (*Product, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Product])
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p *PgStore) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Product])
}

// wrapNotFound maps pgx.ErrNoRows to ErrProductNotFound and wraps anything else.
func wrapNotFound(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return inverrors.ErrProductNotFound
	}
	if errors.Is(err, inverrors.ErrProductNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching name as a literal substring.
func containsPattern(name string) string {
	return "%" + likeEscaper.Replace(name) + "%"
}
