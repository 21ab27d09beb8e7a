package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "labelsheet:doc:"
	DefaultRedisTTL = 30 * time.Minute
)

// MustRedis 解析 redis:// URL 并创建客户端，失败时直接退出。
func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("[ERROR] redis: %v", err)
	}
	return redis.NewClient(opt)
}

// RedisStore 把文档保存在 Redis 中，多实例共享；TTL 兜底清理调用方遗漏的释放。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func metaKey(id string) string { return redisKeyPrefix + id + ":meta" }
func dataKey(id string) string { return redisKeyPrefix + id + ":pdf" }

func (s *RedisStore) Put(ctx context.Context, h Handle, data []byte) error {
	meta, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, dataKey(h.ID), data, s.ttl)
		p.Set(ctx, metaKey(h.ID), meta, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("写入 redis 失败: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Handle, []byte, error) {
	vals, err := s.rdb.MGet(ctx, metaKey(id), dataKey(id)).Result()
	if err != nil {
		return Handle{}, nil, fmt.Errorf("读取 redis 失败: %w", err)
	}
	meta, ok1 := vals[0].(string)
	data, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return Handle{}, nil, ErrNotFound
	}
	var h Handle
	if err := json.Unmarshal([]byte(meta), &h); err != nil {
		return Handle{}, nil, fmt.Errorf("文档元数据损坏: %w", err)
	}
	return h, []byte(data), nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, metaKey(id), dataKey(id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("删除 redis 文档失败: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
