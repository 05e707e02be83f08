package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheService is a read-through cache over Redis. A cache miss is (nil, nil);
// callers treat every error as a miss and go to the database, so Redis being
// down degrades reads but never fails them.
type CacheService interface {
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product) error
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error

	// Wallets are keyed by the owning user, which is how checkout looks
	// them up.
	GetWallet(ctx context.Context, tenantID, userID uuid.UUID) (*models.Wallet, error)
	SetWallet(ctx context.Context, tenantID uuid.UUID, wallet *models.Wallet) error
	DeleteWallet(ctx context.Context, tenantID, userID uuid.UUID) error

	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error
}

const (
	productTTL = 10 * time.Minute
	walletTTL  = 2 * time.Minute
)

type redisCacheService struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisCacheService(addr, password string, db int, logger *zap.Logger) CacheService {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "rediss://"), "redis://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis ping failed, caching degraded", zap.String("addr", parsedAddr), zap.Error(err))
	}

	return &redisCacheService{client: client, logger: logger}
}

func productKey(tenantID, productID uuid.UUID) string {
	return fmt.Sprintf("cannaclub:product:%s:%s", tenantID, productID)
}

func walletKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("cannaclub:wallet:%s:%s", tenantID, userID)
}

func (r *redisCacheService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.getJSON(ctx, productKey(tenantID, productID), &product); err != nil {
		return nil, err
	} else if product.ID == uuid.Nil {
		return nil, nil
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product) error {
	return r.setJSON(ctx, productKey(tenantID, product.ID), product, productTTL)
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	return r.client.Del(ctx, productKey(tenantID, productID)).Err()
}

func (r *redisCacheService) GetWallet(ctx context.Context, tenantID, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.getJSON(ctx, walletKey(tenantID, userID), &wallet); err != nil {
		return nil, err
	} else if wallet.ID == uuid.Nil {
		return nil, nil
	}
	return &wallet, nil
}

func (r *redisCacheService) SetWallet(ctx context.Context, tenantID uuid.UUID, wallet *models.Wallet) error {
	return r.setJSON(ctx, walletKey(tenantID, wallet.UserID), wallet, walletTTL)
}

func (r *redisCacheService) DeleteWallet(ctx context.Context, tenantID, userID uuid.UUID) error {
	return r.client.Del(ctx, walletKey(tenantID, userID)).Err()
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("cannaclub:*:%s:*", tenantID)
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, out)
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// NoopCacheService satisfies CacheService without a Redis backend. Every get
// is a miss, every write succeeds. Used in tests and when REDIS_ADDR is
// unset.
type NoopCacheService struct{}

func NewNoopCacheService() CacheService { return &NoopCacheService{} }

func (NoopCacheService) GetProduct(context.Context, uuid.UUID, uuid.UUID) (*models.Product, error) {
	return nil, nil
}
func (NoopCacheService) SetProduct(context.Context, uuid.UUID, *models.Product) error { return nil }
func (NoopCacheService) DeleteProduct(context.Context, uuid.UUID, uuid.UUID) error    { return nil }
func (NoopCacheService) GetWallet(context.Context, uuid.UUID, uuid.UUID) (*models.Wallet, error) {
	return nil, nil
}
func (NoopCacheService) SetWallet(context.Context, uuid.UUID, *models.Wallet) error  { return nil }
func (NoopCacheService) DeleteWallet(context.Context, uuid.UUID, uuid.UUID) error    { return nil }
func (NoopCacheService) InvalidateTenantCache(context.Context, uuid.UUID) error      { return nil }
