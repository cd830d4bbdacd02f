package durlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLog is the production Log backend: a Redis Stream per logical
// stream, consumer groups via XGROUP, delivery via XREADGROUP with an
// XAUTOCLAIM reclaim pass, and retirement via XACK. The underlying
// client multiplexes connections and is safe for concurrent use.
type RedisLog struct {
	client  *redis.Client
	minIdle time.Duration
}

// OpenRedis connects to the Redis instance at the given URL
// (redis://host:port/db form). minIdle is how long a delivered-but-
// unacked entry must sit idle before another consumer may reclaim it;
// zero means 30s.
func OpenRedis(url string, minIdle time.Duration) (*RedisLog, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("durlog: parse redis url: %w", err)
	}
	if minIdle <= 0 {
		minIdle = 30 * time.Second
	}
	return &RedisLog{client: redis.NewClient(opt), minIdle: minIdle}, nil
}

// Close releases the client's connection pool.
func (r *RedisLog) Close() error { return r.client.Close() }

// Append implements Log via XADD; the server assigns the entry id.
func (r *RedisLog) Append(ctx context.Context, stream string, fields map[string][]byte) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	id, err := r.client.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Result()
	if err != nil {
		return "", fmt.Errorf("durlog: xadd: %w", err)
	}
	return id, nil
}

// EnsureGroup implements Log via XGROUP CREATE MKSTREAM starting at the
// beginning of the stream. BUSYGROUP means the group already exists and
// is treated as success.
func (r *RedisLog) EnsureGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("durlog: xgroup create: %w", err)
	}
	return nil
}

// ReadGroup implements Log. Pending entries that sat idle past the
// reclaim window are redelivered first via XAUTOCLAIM, then new entries
// come from XREADGROUP on the ">" cursor.
func (r *RedisLog) ReadGroup(ctx context.Context, args ReadArgs) ([]Entry, error) {
	if args.Count <= 0 {
		args.Count = 1
	}

	claimed, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   args.Stream,
		Group:    args.Group,
		Consumer: args.Consumer,
		MinIdle:  r.minIdle,
		Start:    "0-0",
		Count:    int64(args.Count),
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("durlog: xautoclaim: %w", err)
	}
	if len(claimed) > 0 {
		out := make([]Entry, 0, len(claimed))
		for _, msg := range claimed {
			out = append(out, Entry{ID: msg.ID, Fields: messageFields(msg.Values)})
		}
		return out, nil
	}

	block := args.Block
	if block <= 0 {
		block = -1 // no BLOCK option: return immediately
	}
	res, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    args.Group,
		Consumer: args.Consumer,
		Streams:  []string{args.Stream, ">"},
		Count:    int64(args.Count),
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("durlog: xreadgroup: %w", err)
	}

	var out []Entry
	for _, stream := range res {
		for _, msg := range stream.Messages {
			out = append(out, Entry{ID: msg.ID, Fields: messageFields(msg.Values)})
		}
	}
	return out, nil
}

func messageFields(values map[string]interface{}) map[string][]byte {
	fields := make(map[string][]byte, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			fields[k] = []byte(val)
		case []byte:
			fields[k] = val
		default:
			fields[k] = []byte(fmt.Sprint(val))
		}
	}
	return fields
}

// Ack implements Log via XACK.
func (r *RedisLog) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return fmt.Errorf("durlog: xack: %w", err)
	}
	return nil
}
