package api

import (
	"encoding/json"
	"testing"

	"expensetracker/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	cfg := initTestConfig(t)
	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	return router
}

func TestAuthHandler_Register(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAuthRouter(t)

	body := `{"username":"newuser","password":"Password@123","full_name":"New User"}`
	w := doJSON(router, "POST", "/register", body, "")

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, "注册成功", resp["message"])

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "newuser", data["username"])
	// 密码不回显
	_, hasPassword := data["password"]
	assert.False(t, hasPassword)
}

func TestAuthHandler_Register_UsernameExists(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAuthRouter(t)

	createTestUser(t, "existinguser", "Existing", "Password@123", false)

	body := `{"username":"existinguser","password":"Password@123","full_name":"Someone"}`
	w := doJSON(router, "POST", "/register", body, "")

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "用户名已存在", resp["message"])
}

func TestAuthHandler_Register_CaseSensitiveUsername(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAuthRouter(t)

	createTestUser(t, "Sana", "Sudhakar", "Password@123", false)

	// 用户名区分大小写，"sana" 与 "Sana" 是两个账号
	body := `{"username":"sana","password":"Password@123","full_name":"Other"}`
	w := doJSON(router, "POST", "/register", body, "")
	assert.Equal(t, 200, w.Code)
}

func TestAuthHandler_Register_InvalidInput(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAuthRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"用户名过短", `{"username":"ab","password":"Password@123","full_name":"X"}`},
		{"用户名非法字符", `{"username":"bad user!","password":"Password@123","full_name":"X"}`},
		{"密码过短", `{"username":"gooduser","password":"Pa1!","full_name":"X"}`},
		{"密码缺少大写", `{"username":"gooduser","password":"password@123","full_name":"X"}`},
		{"密码缺少数字", `{"username":"gooduser","password":"Password@abc","full_name":"X"}`},
		{"密码缺少符号", `{"username":"gooduser","password":"Password123","full_name":"X"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/register", tc.body, "")
			assert.Equal(t, 400, w.Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAuthRouter(t)

	createTestUser(t, "loginuser", "Login User", "Password@123", false)

	w := doJSON(router, "POST", "/login", `{"username":"loginuser","password":"Password@123"}`, "")

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(200), resp["code"])
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
}

func TestAuthHandler_Login_FailuresAreIndistinguishable(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAuthRouter(t)

	createTestUser(t, "realuser", "Real", "Password@123", false)

	// 用户不存在
	w1 := doJSON(router, "POST", "/login", `{"username":"nouser","password":"Password@123"}`, "")
	// 密码错误
	w2 := doJSON(router, "POST", "/login", `{"username":"realuser","password":"Wrong@1234"}`, "")
	// 大小写不匹配的用户名同样视为不存在
	w3 := doJSON(router, "POST", "/login", `{"username":"RealUser","password":"Password@123"}`, "")

	assert.Equal(t, 401, w1.Code)
	assert.Equal(t, 401, w2.Code)
	assert.Equal(t, 401, w3.Code)

	// 两种失败返回完全相同的提示，不暴露用户是否存在
	var r1, r2 map[string]interface{}
	require.NoError(t, json.Unmarshal(w1.Body.Bytes(), &r1))
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &r2))
	assert.Equal(t, r1["message"], r2["message"])
	assert.Equal(t, "用户名或密码错误", r1["message"])
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cfg := initTestConfig(t)

	user := createTestUser(t, "pwduser", "Pwd User", "OldPass@123", false)
	token := tokenFor(t, user)

	router := gin.New()
	h := NewAuthHandler(cfg)
	authorized := router.Group("")
	authorized.Use(middleware.JWTAuth())
	authorized.PUT("/auth/password", h.ChangePassword)

	// 原密码错误
	w := doJSON(router, "PUT", "/auth/password",
		`{"old_password":"Wrong@1234","new_password":"NewPass@123"}`, token)
	assert.Equal(t, 401, w.Code)

	// 新密码不符合强度要求
	w2 := doJSON(router, "PUT", "/auth/password",
		`{"old_password":"OldPass@123","new_password":"weak"}`, token)
	assert.Equal(t, 400, w2.Code)

	// 正常修改后旧密码失效、新密码可登录
	w3 := doJSON(router, "PUT", "/auth/password",
		`{"old_password":"OldPass@123","new_password":"NewPass@123"}`, token)
	assert.Equal(t, 200, w3.Code)

	loginRouter := gin.New()
	loginRouter.POST("/login", h.Login)
	w4 := doJSON(loginRouter, "POST", "/login", `{"username":"pwduser","password":"OldPass@123"}`, "")
	assert.Equal(t, 401, w4.Code)
	w5 := doJSON(loginRouter, "POST", "/login", `{"username":"pwduser","password":"NewPass@123"}`, "")
	assert.Equal(t, 200, w5.Code)
}
