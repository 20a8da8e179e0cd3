package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bornfit/backend/pkg/redis"
	"bornfit/backend/pkg/response"
)

// RateLimit 基于 Redis 固定窗口计数的速率限制中间件
// limit: 窗口内允许的最大请求数
// window: 窗口时长
// rdb 为 nil 或出错时降级放行（与 JWTAuth 策略一致）
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
