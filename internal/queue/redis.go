package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/veriperu/dniverify/internal/config"
)

// Redis is the distributed Queue backend: LPUSH/BRPOP lists for work and
// native pub/sub for control signals.
type Redis struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[string][]*redis.PubSub
}

func NewRedis(ctx context.Context, cfg config.Redis) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{
		client: client,
		subs:   make(map[string][]*redis.PubSub),
	}, nil
}

func (r *Redis) Enqueue(ctx context.Context, queueName, value string) error {
	if err := r.client.LPush(ctx, queueName, value).Err(); err != nil {
		return fmt.Errorf("failed to enqueue to %q: %w", queueName, err)
	}
	return nil
}

func (r *Redis) EnqueueBulk(ctx context.Context, queueName string, values []string) error {
	if len(values) == 0 {
		return nil
	}

	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, v := range values {
			pipe.LPush(ctx, queueName, v)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to bulk enqueue to %q: %w", queueName, err)
	}

	return nil
}

func (r *Redis) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (string, bool, error) {
	res, err := r.client.BRPop(ctx, timeout, queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to dequeue from %q: %w", queueName, err)
	}

	// BRPOP returns [key, value].
	if len(res) != 2 {
		return "", false, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}

	return res[1], true, nil
}

func (r *Redis) Len(ctx context.Context, queueName string) (int64, error) {
	n, err := r.client.LLen(ctx, queueName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get length of %q: %w", queueName, err)
	}
	return n, nil
}

func (r *Redis) PublishSignal(ctx context.Context, channel, message string) error {
	if err := r.client.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish to %q: %w", channel, err)
	}
	return nil
}

// SubscribeSignal registers one more subscription on the channel. Every
// subscription receives every future message; delivery runs on a goroutine
// that exits when the subscription is closed.
func (r *Redis) SubscribeSignal(ctx context.Context, channel string, handler Handler) error {
	ps := r.client.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed so callers do not race
	// their own subsequent publishes.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return fmt.Errorf("failed to subscribe to %q: %w", channel, err)
	}

	r.mu.Lock()
	r.subs[channel] = append(r.subs[channel], ps)
	r.mu.Unlock()

	go func() {
		for msg := range ps.Channel() {
			handler(msg.Payload)
		}
	}()

	return nil
}

func (r *Redis) Unsubscribe(_ context.Context, channel string) error {
	r.mu.Lock()
	subs := r.subs[channel]
	delete(r.subs, channel)
	r.mu.Unlock()

	var errs []error
	for _, ps := range subs {
		if err := ps.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *Redis) Close() error {
	r.mu.Lock()
	var errs []error
	for _, subs := range r.subs {
		for _, ps := range subs {
			if err := ps.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	r.subs = make(map[string][]*redis.PubSub)
	r.mu.Unlock()

	errs = append(errs, r.client.Close())

	return errors.Join(errs...)
}
