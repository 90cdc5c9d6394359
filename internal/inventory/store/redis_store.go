package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 100

// ErrTooMuchContention is returned when a stock update keeps losing optimistic transactions.
var ErrTooMuchContention = errors.New("too much contention on products")

// RedisStore implements ProductStore on a Redis hash of id to JSON product.
// Stock operations run in WATCH/MULTI transactions and retry when the hash changes underneath them.
type RedisStore struct {
	rdb    *redis.Client
	key    string
	seqKey string
}

// NewRedisStore creates a store keeping its data under keys prefixed with prefix.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		key:    prefix + "products",
		seqKey: prefix + "products:seq",
	}
}

func (s *RedisStore) FindAll(ctx context.Context) ([]Product, error) {
	products, err := s.load(ctx, s.rdb)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

func (s *RedisStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	data, err := s.rdb.HGet(ctx, s.key, strconv.FormatInt(id, 10)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, inverrors.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode product %d: %w", id, err)
	}
	return &p, nil
}

func (s *RedisStore) FindByName(ctx context.Context, name string) (*Product, error) {
	products, err := s.load(ctx, s.rdb)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	p, ok := firstMatch(products, name)
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *RedisStore) FindByCategory(ctx context.Context, category string) ([]Product, error) {
	products, err := s.load(ctx, s.rdb)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by category: %w", err)
	}
	return slices.DeleteFunc(products, func(p Product) bool {
		return !strings.EqualFold(p.Category, category)
	}), nil
}

func (s *RedisStore) FindByPriceRange(ctx context.Context, minPrice, maxPrice float64, category string) ([]Product, error) {
	products, err := s.load(ctx, s.rdb)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by price range: %w", err)
	}
	return slices.DeleteFunc(products, func(p Product) bool {
		return !(p.Price > minPrice && p.Price < maxPrice && p.Category == category)
	}), nil
}

func (s *RedisStore) Create(ctx context.Context, params ProductParams) (*Product, error) {
	id, err := s.rdb.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate product ID: %w", err)
	}
	p := productFrom(id, params)
	if err := s.save(ctx, s.rdb, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Update(ctx context.Context, id int64, params ProductParams) (*Product, error) {
	p := productFrom(id, params)
	err := s.transact(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, s.key, strconv.FormatInt(id, 10)).Result()
		if err != nil {
			return err
		}
		if !exists {
			return inverrors.ErrProductNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.save(ctx, pipe, p)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisStore) DeleteByID(ctx context.Context, id int64) error {
	removed, err := s.rdb.HDel(ctx, s.key, strconv.FormatInt(id, 10)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if removed == 0 {
		return inverrors.ErrProductNotFound
	}
	return nil
}

func (s *RedisStore) ReduceQuantity(ctx context.Context, name string, amount int32) (*Product, error) {
	return s.mutate(ctx, name, reduceBy(amount))
}

func (s *RedisStore) IncreaseQuantity(ctx context.Context, name string, amount int32) (*Product, error) {
	return s.mutate(ctx, name, increaseBy(amount))
}

func (s *RedisStore) SetQuantity(ctx context.Context, name string, quantity int32) (*Product, error) {
	return s.mutate(ctx, name, setTo(quantity))
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// mutate applies fn to the first product matching name and writes it back
// only if the hash did not change since it was read.
func (s *RedisStore) mutate(ctx context.Context, name string, fn func(p *Product) error) (*Product, error) {
	var updated Product
	err := s.transact(ctx, func(tx *redis.Tx) error {
		products, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		p, ok := firstMatch(products, name)
		if !ok {
			return inverrors.ErrProductNotFound
		}
		if err := fn(&p); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.save(ctx, pipe, p)
		})
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *RedisStore) transact(ctx context.Context, fn func(tx *redis.Tx) error) error {
	for range maxTxRetries {
		err := s.rdb.Watch(ctx, fn, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTooMuchContention
}

func (s *RedisStore) load(ctx context.Context, c redis.Cmdable) ([]Product, error) {
	raw, err := c.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(raw))
	for field, data := range raw {
		var p Product
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to decode product %s: %w", field, err)
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b Product) int { return cmp.Compare(a.ID, b.ID) })
	return products, nil
}

func (s *RedisStore) save(ctx context.Context, c redis.Cmdable, p Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode product %d: %w", p.ID, err)
	}
	return c.HSet(ctx, s.key, strconv.FormatInt(p.ID, 10), data).Err()
}
