package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"expensetracker/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPartnerOnly(t *testing.T) {
	config.GlobalConfig = &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		Access: config.AccessConfig{PartnerUsers: []string{"harsi", "pandu"}},
	}
	defer func() { config.GlobalConfig = nil }()

	gin.SetMode(gin.TestMode)

	newRouter := func(username string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set("userID", uint(1))
			c.Set("username", username)
		})
		r.Use(PartnerOnly())
		r.GET("/combined", func(c *gin.Context) {
			c.String(200, "ok")
		})
		return r
	}

	// 白名单用户可访问
	req := httptest.NewRequest("GET", "/combined", nil)
	w := httptest.NewRecorder()
	newRouter("harsi").ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)

	// 非白名单用户 403
	req2 := httptest.NewRequest("GET", "/combined", nil)
	w2 := httptest.NewRecorder()
	newRouter("sana").ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusForbidden, w2.Code)
	assert.Contains(t, w2.Body.String(), "合并视图")
}
