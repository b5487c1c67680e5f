package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artgallery/internal/service"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "gallery:"
	versionKey = keyPrefix + "version"
)

var errStaleVersion = errors.New("gallery cache version changed")

// RedisGalleryCache 用 Redis 缓存作品集列表，读取失败按未命中处理。
type RedisGalleryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// Options 描述 Redis 连接参数
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Connect 建立连接并 PING 一次确认可用
func Connect(ctx context.Context, opts Options) (*RedisGalleryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedisGalleryCache(client, opts.TTL), nil
}

// NewRedisGalleryCache 包装已有的 Redis 客户端，ttl 为 0 时不过期
func NewRedisGalleryCache(client redis.UniversalClient, ttl time.Duration) *RedisGalleryCache {
	return &RedisGalleryCache{client: client, ttl: ttl}
}

// Version 读取当前代数，键不存在视为第 0 代
func (c *RedisGalleryCache) Version(ctx context.Context) (int64, bool) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		slog.Warn("gallery cache version read failed", "error", err)
		return 0, false
	}
	return version, true
}

func (c *RedisGalleryCache) Get(ctx context.Context, version int64, gallery service.Gallery) ([]service.DrawingView, bool) {
	data, err := c.client.Get(ctx, cacheKey(version, gallery)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("gallery cache read failed", "gallery", gallery, "error", err)
		}
		return nil, false
	}

	var items []service.DrawingView
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("gallery cache entry is corrupt", "gallery", gallery, "error", err)
		return nil, false
	}
	if items == nil {
		items = []service.DrawingView{}
	}
	return items, true
}

// Set 仅在代数未变化时写入；WATCH 保证检查与写入之间没有 Invalidate 插入。
func (c *RedisGalleryCache) Set(ctx context.Context, version int64, gallery service.Gallery, items []service.DrawingView) {
	data, err := json.Marshal(items)
	if err != nil {
		slog.Warn("gallery cache encode failed", "gallery", gallery, "error", err)
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(version, gallery), data, c.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		slog.Debug("gallery cache write skipped, listing is stale", "gallery", gallery, "version", version)
	default:
		slog.Warn("gallery cache write failed", "gallery", gallery, "error", err)
	}
}

// Invalidate 推进代数，旧代数的条目随 TTL 过期
func (c *RedisGalleryCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		slog.Warn("gallery cache invalidate failed", "error", err)
	}
}

// Close 关闭底层连接
func (c *RedisGalleryCache) Close() error {
	return c.client.Close()
}

func cacheKey(version int64, gallery service.Gallery) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, version, gallery)
}
