package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// INCR + TTL на первом запросе окна; возвращает {count, ttl_ms}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type RateLimitRule struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter: fixed window в Redis, ключ = правило + IP клиента.
type RateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRateLimiter(client redis.UniversalClient, prefix string) *RateLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RateLimiter{client: client, prefix: prefix}
}

func (l *RateLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (Decision, error) {
	if l == nil || l.client == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}
	windowMS := rule.Window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}
	redisKey := fmt.Sprintf("%s:%s:%s", l.prefix, rule.Name, key)

	res, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMS).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected script reply: %v", res)
	}
	count, ttl := res[0], res[1]
	d := Decision{Allowed: count <= int64(rule.MaxRequests)}
	if rem := int64(rule.MaxRequests) - count; rem > 0 {
		d.Remaining = int(rem)
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return d, nil
}

// Limit возвращает middleware. При недоступном Redis запрос пропускается.
func (l *RateLimiter) Limit(rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.client == nil {
			c.Next()
			return
		}
		d, err := l.Allow(c.Request.Context(), c.ClientIP(), rule)
		if err != nil {
			log.Warn().Err(err).Str("rule", rule.Name).Msg("[ratelimit] redis unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			secs := int(d.RetryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			log.Warn().Str("rule", rule.Name).Str("ip", c.ClientIP()).Msg("[ratelimit] blocked")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
