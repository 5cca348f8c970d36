package keygen

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string `cfg:"addr" def:"localhost:6379"`
	Password string `cfg:"password"`
	DB       int    `cfg:"db"`
	// 序列号键的前缀，实际的键为 KeyName:毫秒时间戳
	KeyName string        `cfg:"keyName" def:"sqlorm:sequence"`
	Timeout time.Duration `cfg:"timeout" def:"3s"`
}

// RedisGenerator 多个进程共享的主键生成器
// 高 52 位为毫秒时间戳，低 12 位为 Redis 中按毫秒递增的序列号
type RedisGenerator struct {
	client   *redis.Client
	keyName  string
	timeout  time.Duration
	fallback atomic.Int64
}

func NewRedisGeneratorWithOptions(options *RedisOptions) (*RedisGenerator, error) {
	if options == nil {
		options = &RedisOptions{}
	}
	addr := options.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	keyName := options.KeyName
	if keyName == "" {
		keyName = "sqlorm:sequence"
	}
	timeout := options.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: options.Password,
		DB:       options.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis ping failed. addr: [%s]", addr)
	}

	return &RedisGenerator{
		client:  client,
		keyName: keyName,
		timeout: timeout,
	}, nil
}

func (g *RedisGenerator) NextKey() any {
	return g.Generate()
}

func (g *RedisGenerator) Generate() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	for {
		timestamp := time.Now().UnixMilli()
		key := g.keyName + ":" + strconv.FormatInt(timestamp, 10)

		sequence, err := g.client.Incr(ctx, key).Result()
		if err != nil {
			// Redis 不可用时退化为本地序列号，只保证进程内唯一
			return timestamp<<sequenceBits | (g.fallback.Add(1) & maxSequence)
		}
		if sequence == 1 {
			g.client.Expire(ctx, key, 2*time.Second)
		}

		// 当前毫秒的序列号用完，等待下一毫秒
		if sequence > maxSequence+1 {
			time.Sleep(time.Millisecond)
			continue
		}
		return timestamp<<sequenceBits | (sequence - 1)
	}
}

func (g *RedisGenerator) Close() error {
	return g.client.Close()
}
