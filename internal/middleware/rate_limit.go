package middleware

import (
	"hash/fnv"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/domain/dto"
	"github.com/guttosm/patchwork-service/internal/i18n"
)

const defaultNumShards = 16

// clientWindow is one client's budget in the current fixed window.
type clientWindow struct {
	remaining int
	start     time.Time
}

type limiterShard struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
}

// RateLimiter is a fixed-window per-client limiter. Clients are spread over
// shards by FNV hash so that concurrent clients rarely contend on one lock.
type RateLimiter struct {
	shards   []*limiterShard
	rate     int
	window   time.Duration
	exempt   []string
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing rate requests per window per client IP.
// Paths starting with one of exempt are never limited.
func NewRateLimiter(rate int, window time.Duration, exempt ...string) *RateLimiter {
	return NewShardedRateLimiter(rate, window, defaultNumShards, exempt...)
}

// NewShardedRateLimiter creates a limiter with a custom shard count.
func NewShardedRateLimiter(rate int, window time.Duration, numShards int, exempt ...string) *RateLimiter {
	if numShards <= 0 {
		numShards = defaultNumShards
	}

	shards := make([]*limiterShard, numShards)
	for i := range shards {
		shards[i] = &limiterShard{clients: make(map[string]*clientWindow)}
	}

	rl := &RateLimiter{
		shards: shards,
		rate:   rate,
		window: window,
		exempt: exempt,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) shardFor(client string) *limiterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(client))
	return rl.shards[h.Sum32()%uint32(len(rl.shards))]
}

// take consumes one request from client's budget.
func (rl *RateLimiter) take(client string) (allowed bool, remaining int) {
	shard := rl.shardFor(client)
	now := rl.now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	w, ok := shard.clients[client]
	if !ok || now.Sub(w.start) >= rl.window {
		shard.clients[client] = &clientWindow{remaining: rl.rate - 1, start: now}
		return true, rl.rate - 1
	}
	if w.remaining <= 0 {
		return false, 0
	}
	w.remaining--
	return true, w.remaining
}

// RateLimit returns a middleware that limits requests per client IP.
// Rejected requests get 429 with Retry-After in whole seconds.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(rl.window.Seconds())))
	limit := strconv.Itoa(rl.rate)

	return func(c *gin.Context) {
		if hasPathPrefix(c.Request.URL.Path, rl.exempt) {
			c.Next()
			return
		}

		allowed, remaining := rl.take(c.ClientIP())
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewError(dto.ErrCodeRateLimit, i18n.T(c, i18n.ErrKeyRateLimitExceeded)).WithRequestID(GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCh:
			return
		}
	}
}

// sweep forgets clients idle for two windows.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-2 * rl.window)
	for _, shard := range rl.shards {
		shard.mu.Lock()
		for client, w := range shard.clients {
			if w.start.Before(cutoff) {
				delete(shard.clients, client)
			}
		}
		shard.mu.Unlock()
	}
}

// Stop shuts down the background sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Stats returns the number of tracked clients, total and per shard.
func (rl *RateLimiter) Stats() (total int, perShard []int) {
	perShard = make([]int, len(rl.shards))
	for i, shard := range rl.shards {
		shard.mu.Lock()
		perShard[i] = len(shard.clients)
		shard.mu.Unlock()
		total += perShard[i]
	}
	return total, perShard
}
