package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lms-classroom/backend/pkg/metrics"
)

// Metrics 记录请求数与耗时
// path 使用路由模板（如 /api/v1/classrooms/:id/modules），避免标签基数随 ID 增长
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
