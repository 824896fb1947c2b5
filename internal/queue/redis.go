package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient dials a Redis instance for use as the queue transport. A
// failed initial connection is fatal at process bring-up.
func NewClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queue: connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// RedisQueue implements Queue on top of a Redis list: Push is LPUSH
// (push-to-head) and Pop is a blocking BRPOP (pop-from-tail), giving
// FIFO order for both order-queue and event-queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Pop(ctx context.Context) ([]byte, error) {
	result, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: BRPOP %s: %w", q.key, err)
	}
	// BRPop returns [key, value]; we only ever watch one key.
	return []byte(result[1]), nil
}

func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("queue: LPUSH %s: %w", q.key, err)
	}
	return nil
}
