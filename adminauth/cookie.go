package adminauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"expensetracker/config"

	"github.com/gin-gonic/gin"
)

const defaultCookieSecret = "expense-tracker-cookie-secret"

// cookieSecret 取 JWT secret 作为 Cookie 签名密钥
func cookieSecret() []byte {
	if config.GlobalConfig != nil && config.GlobalConfig.JWT.Secret != "" {
		return []byte(config.GlobalConfig.JWT.Secret)
	}
	return []byte(defaultCookieSecret)
}

// SignCookieValue 对 Cookie 值进行 HMAC-SHA256 签名，格式: value.signature
func SignCookieValue(value string) string {
	mac := hmac.New(sha256.New, cookieSecret())
	mac.Write([]byte(value))
	return value + "." + hex.EncodeToString(mac.Sum(nil))
}

// VerifyCookieValue 校验签名并返回原始值
func VerifyCookieValue(signed string) (string, error) {
	if signed == "" {
		return "", errors.New("empty cookie value")
	}
	idx := strings.LastIndex(signed, ".")
	if idx <= 0 {
		return "", errors.New("invalid cookie format")
	}
	value, sig := signed[:idx], signed[idx+1:]

	mac := hmac.New(sha256.New, cookieSecret())
	mac.Write([]byte(value))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", errors.New("invalid cookie signature")
	}
	return value, nil
}

// GetVerifiedAdminUserID 从签名 Cookie 中取出已登录的后台用户ID（校验签名防篡改）
func GetVerifiedAdminUserID(c *gin.Context) (uint, error) {
	signed, err := c.Cookie("admin_user_id")
	if err != nil {
		return 0, errors.New("cookie not found")
	}
	value, err := VerifyCookieValue(signed)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, errors.New("invalid cookie value")
	}
	return uint(id), nil
}
