package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"receiptdesk/internal/models"
)

type CacheService interface {
	// Receipt list caching
	GetReceiptPage(ctx context.Context, status string, page, pageSize int) ([]*models.Receipt, error)
	SetReceiptPage(ctx context.Context, status string, page, pageSize int, receipts []*models.Receipt, ttl time.Duration) error
	InvalidateReceipts(ctx context.Context) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error

	// Rate limiting
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis:// style addresses as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func receiptPageKey(status string, page, pageSize int) string {
	if status == "" {
		status = "all"
	}
	return fmt.Sprintf("receipts:%s:%d:%d", status, page, pageSize)
}

func (r *redisCacheService) GetReceiptPage(ctx context.Context, status string, page, pageSize int) ([]*models.Receipt, error) {
	data, err := r.client.Get(ctx, receiptPageKey(status, page, pageSize)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var receipts []*models.Receipt
	if err := json.Unmarshal([]byte(data), &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *redisCacheService) SetReceiptPage(ctx context.Context, status string, page, pageSize int, receipts []*models.Receipt, ttl time.Duration) error {
	data, err := json.Marshal(receipts)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, receiptPageKey(status, page, pageSize), data, ttl).Err()
}

func (r *redisCacheService) InvalidateReceipts(ctx context.Context) error {
	return r.DeleteByPattern(ctx, "receipts:*")
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			log.Printf("Failed to set rate limit expiry for %s: %v", key, err)
		}
	}
	return count, nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
