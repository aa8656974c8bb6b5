package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "upright:ratelimit"

// Decision is the outcome of one Allow call. Remaining is in cost units.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// spendScript refills the bucket for the elapsed time, then spends the
// requested cost if enough tokens are present. It returns
// {allowed, floor(tokens), retry_after_ms}.
var spendScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local per_ms = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

local state = redis.call("HMGET", KEYS[1], "tokens", "at")
local tokens = tonumber(state[1]) or capacity
local at = tonumber(state[2]) or now
tokens = math.min(capacity, tokens + math.max(0, now - at) * per_ms)

local wait = 0
if tokens >= cost then
  tokens = tokens - cost
else
  wait = math.ceil((cost - tokens) / per_ms)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "at", now)
redis.call("PEXPIRE", KEYS[1], ARGV[5])

if wait == 0 then
  return {1, math.floor(tokens), 0}
end
return {0, math.floor(tokens), wait}
`)

// RedisTokenBucket is a token bucket shared by every API replica through
// redis. Requests spend a variable number of tokens so large uploads drain
// the bucket faster than thumbnails.
type RedisTokenBucket struct {
	client    redis.UniversalClient
	capacity  int64
	perMS     float64
	ttl       time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewRedisTokenBucket refills capacity tokens over window. An empty
// keyPrefix selects "upright:ratelimit".
func NewRedisTokenBucket(client redis.UniversalClient, capacity int, window time.Duration, keyPrefix string) (*RedisTokenBucket, error) {
	switch {
	case client == nil:
		return nil, errors.New("redis client is required")
	case capacity <= 0:
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	case window <= 0:
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}

	keyPrefix = strings.TrimSpace(keyPrefix)
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &RedisTokenBucket{
		client:    client,
		capacity:  int64(capacity),
		perMS:     float64(capacity) / float64(max(window.Milliseconds(), 1)),
		ttl:       2 * window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}, nil
}

// Allow spends cost tokens for subject. Costs above capacity are clamped so
// a single oversized request can still pass on a full bucket.
func (l *RedisTokenBucket) Allow(ctx context.Context, subject string, cost int64) (Decision, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "anonymous"
	}

	raw, err := spendScript.Run(ctx, l.client,
		[]string{l.keyPrefix + ":" + subject},
		l.capacity,
		l.perMS,
		l.now().UnixMilli(),
		clampCost(cost, l.capacity),
		max(l.ttl.Milliseconds(), 1),
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("token bucket %s: %w", subject, err)
	}
	return parseDecision(raw)
}

func parseDecision(raw any) (Decision, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("unexpected token bucket reply %v", raw)
	}

	var fields [3]int64
	for i, v := range values {
		n, err := toInt64(v)
		if err != nil {
			return Decision{}, fmt.Errorf("token bucket reply field %d: %w", i, err)
		}
		fields[i] = n
	}
	return Decision{
		Allowed:    fields[0] == 1,
		Remaining:  fields[1],
		RetryAfter: time.Duration(fields[2]) * time.Millisecond,
	}, nil
}

func clampCost(cost, capacity int64) int64 {
	return min(max(cost, 1), capacity)
}

func toInt64(in any) (int64, error) {
	switch v := in.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", in)
	}
}
