package middleware

import (
	"net/http"

	"expensetracker/config"

	"github.com/gin-gonic/gin"
)

// PartnerOnly 合并视图访问中间件
// 需在 JWTAuth 之后使用。只有 access.partner_users 配置内的用户名可访问
// 全员合并消费视图。
func PartnerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := GetCurrentUsername(c)
		if username == "" || config.GlobalConfig == nil || !config.GlobalConfig.IsPartnerUser(username) {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "message": "没有合并视图访问权限"})
			c.Abort()
			return
		}
		c.Next()
	}
}
