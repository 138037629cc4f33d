package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nimeshabuddhika/product-api/pkg"
	"github.com/nimeshabuddhika/product-api/pkg/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const productCachePrefix = "product:"

// CachedProductRepository puts a read-through Redis cache in front of another
// repository. Cache failures are logged and bypassed, never returned.
type CachedProductRepository struct {
	next   ProductRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProductRepository(next ProductRepository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	return r.next.FindAll(ctx)
}

func (r *CachedProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	key := productCachePrefix + id
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.Product
		if err = json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
		r.log(ctx).Warn("cache: dropping undecodable product", zap.String(pkg.ProductId, id), zap.Error(err))
		r.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		r.log(ctx).Warn("cache: read failed", zap.String(pkg.ProductId, id), zap.Error(err))
	}

	p, err := r.next.FindByID(ctx, id)
	if err != nil {
		return p, err
	}
	if raw, err = json.Marshal(p); err == nil {
		err = r.client.Set(ctx, key, raw, r.ttl).Err()
	}
	if err != nil {
		r.log(ctx).Warn("cache: write failed", zap.String(pkg.ProductId, id), zap.Error(err))
	}
	return p, nil
}

func (r *CachedProductRepository) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	return r.next.Create(ctx, in)
}

func (r *CachedProductRepository) UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (models.Product, error) {
	p, err := r.next.UpdateByID(ctx, id, patch)
	r.evict(ctx, id)
	return p, err
}

func (r *CachedProductRepository) DeleteByID(ctx context.Context, id string) (models.Product, error) {
	p, err := r.next.DeleteByID(ctx, id)
	r.evict(ctx, id)
	return p, err
}

func (r *CachedProductRepository) evict(ctx context.Context, id string) {
	if err := r.client.Del(ctx, productCachePrefix+id).Err(); err != nil {
		r.log(ctx).Warn("cache: evict failed", zap.String(pkg.ProductId, id), zap.Error(err))
	}
}

func (r *CachedProductRepository) log(ctx context.Context) *zap.Logger {
	return pkg.LoggerFromContext(ctx, r.logger)
}
