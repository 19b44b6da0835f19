package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lms-classroom/backend/pkg/response"
)

// TrustedNetwork 内部接口来源限制
// cidrs 为空时不做限制，由网络拓扑（仅内网可达）保证调用方可信；
// 非空时仅放行来源 IP 落在任一网段内的请求
func TrustedNetwork(cidrs []string, logger *zap.Logger) gin.HandlerFunc {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			// 配置加载时已校验，这里只记录
			logger.Warn("忽略无效的受信网段", zap.String("cidr", cidr))
			continue
		}
		nets = append(nets, n)
	}

	return func(c *gin.Context) {
		if len(nets) == 0 {
			c.Next()
			return
		}

		ip := net.ParseIP(c.ClientIP())
		if ip != nil {
			for _, n := range nets {
				if n.Contains(ip) {
					c.Next()
					return
				}
			}
		}

		logger.Warn("拒绝非受信来源调用内部接口",
			zap.String("ip", c.ClientIP()),
			zap.String("path", c.Request.URL.Path),
		)
		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
