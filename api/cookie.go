package api

import (
	"net/http"
	"strings"

	"expensetracker/adminauth"
	"expensetracker/config"

	"github.com/gin-gonic/gin"
)

// getCookieOptions 根据运行模式返回 Cookie 安全选项
func getCookieOptions() (secure bool, sameSite http.SameSite) {
	if config.GlobalConfig != nil && config.GlobalConfig.Server.Mode == "release" {
		return true, http.SameSiteLaxMode
	}
	return false, http.SameSiteLaxMode
}

// setAdminCookie 设置后台 Cookie
func setAdminCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	secure, sameSite := getCookieOptions()
	c.SetCookieData(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: httpOnly,
		SameSite: sameSite,
	})
}

// setSignedAdminCookie 设置签名后的敏感 Cookie，防止客户端篡改
func setSignedAdminCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	setAdminCookie(c, name, adminauth.SignCookieValue(value), maxAge, httpOnly)
}

// GetVerifiedAdminUserID 取出已验证签名的后台登录用户ID
func GetVerifiedAdminUserID(c *gin.Context) (uint, error) {
	return adminauth.GetVerifiedAdminUserID(c)
}

// escapeLikeValue 转义 LIKE 查询中的通配符
func escapeLikeValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
