package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders 通用安全响应头。
// 本服务只输出 JSON，不渲染页面，故不设 CSP；
// 排期与预约数据涉及会员信息，统一禁止中间缓存。
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
