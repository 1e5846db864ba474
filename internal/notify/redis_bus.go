package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix is the redis channel prefix when none is configured.
const DefaultChannelPrefix = "gameplan"

// RedisBus is a Bus on redis publish/subscribe, one channel per table. It
// lets several service instances share change notifications.
type RedisBus struct {
	rdb    *goredis.Client
	prefix string
	logger *slog.Logger
}

// RedisConfig configures a RedisBus.
type RedisConfig struct {
	Addr          string
	ChannelPrefix string
}

// NewRedisBus connects to redis and verifies the connection.
func NewRedisBus(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisBus, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if logger == nil {
		logger = slog.Default()
	}
	prefix := strings.TrimSpace(cfg.ChannelPrefix)
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisBusFromClient(rdb, prefix, logger), nil
}

// NewRedisBusFromClient wraps an existing client.
func NewRedisBusFromClient(rdb *goredis.Client, prefix string, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisBus{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.With("component", "redis_bus"),
	}
}

// Channel returns the redis channel of a table.
func (b *RedisBus) Channel(table string) string {
	return b.prefix + ":" + table
}

// Publish sends c on its table's channel.
func (b *RedisBus) Publish(ctx context.Context, c Change) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if c.Table == "" {
		return fmt.Errorf("change without table")
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.Channel(c.Table), raw).Err()
}

// Subscribe listens on the filter's tables, or on every table of the prefix
// when the filter names none.
func (b *RedisBus) Subscribe(ctx context.Context, f Filter) (<-chan Change, func(), error) {
	if b == nil || b.rdb == nil {
		return nil, nil, fmt.Errorf("redis bus not initialized")
	}

	var sub *goredis.PubSub
	if len(f.Tables) == 0 {
		sub = b.rdb.PSubscribe(ctx, b.prefix+":*")
	} else {
		channels := make([]string, len(f.Tables))
		for i, t := range f.Tables {
			channels[i] = b.Channel(t)
		}
		sub = b.rdb.Subscribe(ctx, channels...)
	}

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan Change, DefaultBuffer)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					b.logger.Warn("bad change payload", "channel", m.Channel, "error", err)
					continue
				}
				if !f.Match(c) {
					continue
				}
				select {
				case out <- c:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			<-done
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}

// Close closes the redis client.
func (b *RedisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
