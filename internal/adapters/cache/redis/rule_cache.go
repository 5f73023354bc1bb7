package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"medication-adherence/internal/domain/interactions"
	"medication-adherence/internal/platform/logger"
)

const (
	DefaultTTL    = 30 * 24 * time.Hour
	DefaultPrefix = "medtrack:interaction:"

	// missMarker guarda "el upstream no conoce el par" para no repreguntar.
	missMarker = "-"
)

// Connect abre un cliente desde una URL redis:// y verifica con PING.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type Options struct {
	TTL    time.Duration
	Prefix string
	Log    logger.Logger
}

// RuleCache envuelve una RuleSource lenta (openFDA) y cachea aciertos y
// fallos por par. Si redis falla se consulta directo al upstream.
type RuleCache struct {
	rdb    *goredis.Client
	next   interactions.RuleSource
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

func NewRuleCache(rdb *goredis.Client, next interactions.RuleSource, opts Options) *RuleCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	return &RuleCache{
		rdb:    rdb,
		next:   next,
		ttl:    opts.TTL,
		prefix: opts.Prefix,
		log:    opts.Log,
	}
}

func (c *RuleCache) Find(ctx context.Context, a, b string) (interactions.Rule, bool, error) {
	key := c.prefix + interactions.PairKey(a, b)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == missMarker {
			return interactions.Rule{}, false, nil
		}
		var rule interactions.Rule
		if err := json.Unmarshal([]byte(raw), &rule); err == nil {
			return rule, true, nil
		}
		c.log.Warn("interaction cache: corrupt entry", map[string]any{"key": key})
	case errors.Is(err, goredis.Nil):
	default:
		c.log.Warn("interaction cache: get failed", map[string]any{"key": key, "error": err})
	}

	rule, ok, err := c.next.Find(ctx, a, b)
	if err != nil {
		// Errores del upstream no se cachean.
		return interactions.Rule{}, false, err
	}

	value := missMarker
	if ok {
		b, err := json.Marshal(rule)
		if err != nil {
			return rule, ok, nil
		}
		value = string(b)
	}
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.log.Warn("interaction cache: set failed", map[string]any{"key": key, "error": err})
	}
	return rule, ok, nil
}
