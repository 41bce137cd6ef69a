package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"expensetracker/adminauth"
	"expensetracker/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLikeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"", ""},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`a\b`, `a\\b`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLikeValue(tt.in), tt.in)
	}
}

func TestGetCookieOptions(t *testing.T) {
	old := config.GlobalConfig
	defer func() { config.GlobalConfig = old }()

	config.GlobalConfig = &config.Config{}
	config.GlobalConfig.Server.Mode = "debug"
	secure, sameSite := getCookieOptions()
	assert.False(t, secure)
	assert.Equal(t, http.SameSiteLaxMode, sameSite)

	config.GlobalConfig.Server.Mode = "release"
	secure, sameSite = getCookieOptions()
	assert.True(t, secure)
	assert.Equal(t, http.SameSiteLaxMode, sameSite)
}

func TestGetVerifiedAdminUserID(t *testing.T) {
	initTestConfig(t)
	router := gin.New()

	router.GET("/set", func(c *gin.Context) {
		setSignedAdminCookie(c, "admin_user_id", "42", 3600, true)
		c.Status(http.StatusOK)
	})
	router.GET("/verify", func(c *gin.Context) {
		id, err := GetVerifiedAdminUserID(c)
		if err != nil {
			c.String(http.StatusUnauthorized, err.Error())
			return
		}
		c.String(http.StatusOK, "id:%d", id)
	})

	// 下发签名 Cookie
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/set", nil)
	router.ServeHTTP(w, req)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// 原样带回可以通过验证
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/verify", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "id:42", w.Body.String())

	// 没有 Cookie
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/verify", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 篡改后的 Cookie 被拒绝
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/verify", nil)
	req.AddCookie(&http.Cookie{Name: "admin_user_id", Value: adminauth.SignCookieValue("42") + "00"})
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
