package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"cmci-cr/backend/pkg/response"
)

// WindowLimiter 滑动窗口限流存储；*redis.Client 满足该接口
type WindowLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// localLimiter 进程内令牌桶，Redis 不可用时兜底
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimit 速率限制中间件
// 优先使用 Redis 滑动窗口（多实例共享）；store 为 nil 或出错时降级为进程内令牌桶。
// name: 规则名，作为计数键的命名空间，同一路由叠加多条规则时各自独立计数
// limit: 窗口内允许的最大请求数
// window: 窗口时长
func RateLimit(store WindowLimiter, name string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	local := newLocalLimiter(limit, window)

	return func(c *gin.Context) {
		key := rateLimitKey(name, c.ClientIP(), c.FullPath())

		var allowed bool
		if store != nil {
			ok, err := store.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err != nil {
				logger.Warn("Redis 限流失败，降级为本地限流", zap.String("rule", name), zap.Error(err))
				allowed = local.allow(key)
			} else {
				allowed = ok
			}
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			response.TooManyRequests(c, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(name, ip, path string) string {
	return fmt.Sprintf("rate_limit:%s:%s:%s", name, ip, path)
}
