package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/famboard/dispatch-engine/internal/ratelimit"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// slidingWindowScript keeps one sorted set per (class, identity) key, scored
// by request time in milliseconds. It prunes entries older than the window,
// then either admits the request (recording it) or reports how long until
// the oldest entry ages out. Running as a single script keeps the
// check-and-record step atomic across instances.
var slidingWindowScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)
if count >= limit then
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  local retry = window
  if oldest[2] then
    retry = (tonumber(oldest[2]) + window) - now
  end
  return {0, limit - count, retry}
end

redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return {1, limit - count - 1, 0}
`)

var _ ratelimit.Limiter = (*SlidingWindowLimiter)(nil)

// SlidingWindowLimiter is a distributed sliding-window limiter backed by
// Redis. When Redis is unreachable it fails open: requests are allowed
// rather than blocking all traffic on a counter-store outage.
type SlidingWindowLimiter struct {
	client   *goredis.Client
	policies map[ratelimit.RouteClass]ratelimit.Policy
	logger   *zap.Logger
	now      func() time.Time
	entryID  func() string
}

func NewSlidingWindowLimiter(client *goredis.Client, policies map[ratelimit.RouteClass]ratelimit.Policy, logger *zap.Logger) (*SlidingWindowLimiter, error) {
	return newSlidingWindowLimiter(client, policies, logger, time.Now, uuid.NewString)
}

func newSlidingWindowLimiter(
	client *goredis.Client,
	policies map[ratelimit.RouteClass]ratelimit.Policy,
	logger *zap.Logger,
	nowFn func() time.Time,
	entryIDFn func() string,
) (*SlidingWindowLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if len(policies) == 0 {
		policies = ratelimit.DefaultPolicies()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if entryIDFn == nil {
		entryIDFn = uuid.NewString
	}

	return &SlidingWindowLimiter{
		client:   client,
		policies: policies,
		logger:   logger,
		now:      nowFn,
		entryID:  entryIDFn,
	}, nil
}

func (l *SlidingWindowLimiter) Check(ctx context.Context, class ratelimit.RouteClass, identity string) (ratelimit.Decision, error) {
	if l == nil || l.client == nil {
		return ratelimit.Decision{}, fmt.Errorf("rate limiter is not initialized")
	}

	policy, ok := l.policies[class]
	if !ok {
		return ratelimit.Decision{}, fmt.Errorf("unknown route class %q", class)
	}

	normalizedIdentity := strings.TrimSpace(identity)
	if normalizedIdentity == "" {
		return ratelimit.Decision{}, fmt.Errorf("client identity is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	now := l.now().UTC()
	key := fmt.Sprintf("ratelimit:%s:%s", class, normalizedIdentity)

	values, err := slidingWindowScript.Run(ctx, l.client,
		[]string{key},
		now.UnixMilli(),
		policy.Window.Milliseconds(),
		policy.Limit,
		fmt.Sprintf("%d-%s", now.UnixMilli(), l.entryID()),
	).Int64Slice()
	if err != nil {
		// Availability over strictness: a counter-store outage must not
		// take down the whole API surface.
		l.logger.Warn("rate limit check failed, failing open",
			zap.String("class", class.String()),
			zap.Error(err),
		)
		return ratelimit.Decision{
			Allowed:   true,
			Limit:     policy.Limit,
			Remaining: policy.Limit,
			ResetAt:   now.Add(policy.Window),
		}, nil
	}

	if len(values) != 3 {
		return ratelimit.Decision{}, fmt.Errorf("unexpected rate limit script result: %v", values)
	}

	allowed := values[0] == 1
	remaining := int(values[1])
	if remaining < 0 {
		remaining = 0
	}
	retryAfter := time.Duration(values[2]) * time.Millisecond

	decision := ratelimit.Decision{
		Allowed:   allowed,
		Limit:     policy.Limit,
		Remaining: remaining,
		ResetAt:   now.Add(policy.Window),
	}
	if !allowed {
		decision.RetryAfter = retryAfter
		decision.ResetAt = now.Add(retryAfter)
	}

	return decision, nil
}
