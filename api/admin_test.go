package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminRouter(t *testing.T) *gin.Engine {
	initTestConfig(t)
	router := gin.New()
	h := NewAdminHandler()

	admin := router.Group("/admin")
	{
		admin.POST("/login", h.AdminLogin)
		admin.POST("/logout", h.AdminLogout)
		admin.GET("/current-user", h.GetCurrentUserInfo)

		admin.GET("/users", h.GetAllUsers)
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:id/username", h.UpdateUsername)
		admin.PUT("/users/:id/full-name", h.UpdateFullName)
		admin.PUT("/users/:id/password", h.UpdateUserPassword)
		admin.PUT("/users/:id/admin", h.SetAdmin)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.GET("/expenses", h.GetAllExpenses)
		admin.POST("/expenses", h.CreateExpense)
		admin.PUT("/expenses/:id", h.UpdateExpense)
		admin.DELETE("/expenses/:id", h.DeleteExpense)
		admin.GET("/statistics", h.GetStatistics)
	}
	return router
}

// doAdminJSON 携带后台登录 Cookie 发起请求
func doAdminJSON(router *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// adminLogin 登录后台并返回响应里的 Cookie
func adminLogin(t *testing.T, router *gin.Engine, username, password string) []*http.Cookie {
	t.Helper()
	body := fmt.Sprintf(`{"username": %q, "password": %q}`, username, password)
	w := doAdminJSON(router, "POST", "/admin/login", body, nil)
	require.Equal(t, 200, w.Code, "登录失败: %s", w.Body.String())
	return w.Result().Cookies()
}

func TestAdminLogin(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	createTestUser(t, "harsi", "Harshitha", "Password@123", true)

	cookies := adminLogin(t, router, "harsi", "Password@123")

	// admin_user_id 带签名，格式为 value.signature
	var userIDCookie *http.Cookie
	for _, ck := range cookies {
		if ck.Name == "admin_user_id" {
			userIDCookie = ck
		}
	}
	require.NotNil(t, userIDCookie)
	assert.True(t, strings.Contains(userIDCookie.Value, "."))
	assert.True(t, userIDCookie.HttpOnly)

	w := doAdminJSON(router, "GET", "/admin/current-user", "", cookies)
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"harsi"`)
	assert.Contains(t, w.Body.String(), `"is_admin":true`)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	createTestUser(t, "harsi", "Harshitha", "Password@123", true)

	body := `{"username": "harsi", "password": "Wrong@123"}`
	w := doAdminJSON(router, "POST", "/admin/login", body, nil)
	assert.Equal(t, 401, w.Code)
	assert.Contains(t, w.Body.String(), "用户名或密码错误")

	// 不存在的用户得到同样的错误信息
	body = `{"username": "nobody", "password": "Password@123"}`
	w = doAdminJSON(router, "POST", "/admin/login", body, nil)
	assert.Equal(t, 401, w.Code)
	assert.Contains(t, w.Body.String(), "用户名或密码错误")
}

func TestAdmin_Unauthenticated(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	w := doAdminJSON(router, "GET", "/admin/users", "", nil)
	assert.Equal(t, 401, w.Code)
}

func TestAdmin_TamperedCookie(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	createTestUser(t, "harsi", "Harshitha", "Password@123", true)

	forged := []*http.Cookie{{Name: "admin_user_id", Value: "1.deadbeef"}}
	w := doAdminJSON(router, "GET", "/admin/users", "", forged)
	assert.Equal(t, 401, w.Code)
}

func TestAdmin_GetAllUsers_RequiresAdmin(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	cookies := adminLogin(t, router, "sana", "Password@123")

	w := doAdminJSON(router, "GET", "/admin/users", "", cookies)
	assert.Equal(t, 403, w.Code)
	assert.Contains(t, w.Body.String(), "权限不足")
}

func TestAdmin_CreateUser(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	createTestUser(t, "harsi", "Harshitha", "Password@123", true)
	cookies := adminLogin(t, router, "harsi", "Password@123")

	body := `{"username": "newbie", "password": "Password@123", "full_name": "New User"}`
	w := doAdminJSON(router, "POST", "/admin/users", body, cookies)
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "用户创建成功")

	// 弱密码被拒绝
	body = `{"username": "newbie2", "password": "weakpass", "full_name": "Weak"}`
	w = doAdminJSON(router, "POST", "/admin/users", body, cookies)
	assert.Equal(t, 400, w.Code)

	// 重复用户名被拒绝
	body = `{"username": "newbie", "password": "Password@123", "full_name": "Dup"}`
	w = doAdminJSON(router, "POST", "/admin/users", body, cookies)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "用户名已存在")
}

func TestAdmin_UpdateUsername_Conflict(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	createTestUser(t, "harsi", "Harshitha", "Password@123", true)
	sana := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	cookies := adminLogin(t, router, "harsi", "Password@123")

	body := `{"username": "harsi"}`
	w := doAdminJSON(router, "PUT", fmt.Sprintf("/admin/users/%d/username", sana.ID), body, cookies)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "用户名已存在")

	body = `{"username": "sudhakar"}`
	w = doAdminJSON(router, "PUT", fmt.Sprintf("/admin/users/%d/username", sana.ID), body, cookies)
	require.Equal(t, 200, w.Code)

	var updated models.User
	require.NoError(t, database.DB.First(&updated, sana.ID).Error)
	assert.Equal(t, "sudhakar", updated.Username)
}

func TestAdmin_SetAdmin_CannotDemoteSelf(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	harsi := createTestUser(t, "harsi", "Harshitha", "Password@123", true)
	sana := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	cookies := adminLogin(t, router, "harsi", "Password@123")

	w := doAdminJSON(router, "PUT", fmt.Sprintf("/admin/users/%d/admin", harsi.ID),
		`{"is_admin": false}`, cookies)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "不能取消自己的管理员权限")

	w = doAdminJSON(router, "PUT", fmt.Sprintf("/admin/users/%d/admin", sana.ID),
		`{"is_admin": true}`, cookies)
	require.Equal(t, 200, w.Code)

	var promoted models.User
	require.NoError(t, database.DB.First(&promoted, sana.ID).Error)
	assert.True(t, promoted.IsAdmin)
}

func TestAdmin_DeleteUser(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	harsi := createTestUser(t, "harsi", "Harshitha", "Password@123", true)
	sana := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	cookies := adminLogin(t, router, "harsi", "Password@123")

	expense := createTestExpense(t, sana.ID, 120, "kept", "🎁 Gifts", "2024-01-01")

	// 不能删除自己
	w := doAdminJSON(router, "DELETE", fmt.Sprintf("/admin/users/%d", harsi.ID), "", cookies)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "不能删除自己的账号")

	w = doAdminJSON(router, "DELETE", fmt.Sprintf("/admin/users/%d", sana.ID), "", cookies)
	require.Equal(t, 200, w.Code)

	var gone models.User
	err := database.DB.First(&gone, sana.ID).Error
	assert.Error(t, err)

	// 用户删除后消费记录保留
	var kept models.Expense
	require.NoError(t, database.DB.First(&kept, expense.ID).Error)
	assert.Equal(t, 120.0, kept.Amount)
}

func TestAdmin_ExpenseScoping(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newAdminRouter(t)

	harsi := createTestUser(t, "harsi", "Harshitha", "Password@123", true)
	sana := createTestUser(t, "sana", "Sudhakar", "Password@123", false)

	mine := createTestExpense(t, sana.ID, 50, "mine", "🎁 Gifts", "2024-01-01")
	theirs := createTestExpense(t, harsi.ID, 80, "theirs", "🎁 Gifts", "2024-01-02")

	// 非管理员只能改自己的记录
	sanaCookies := adminLogin(t, router, "sana", "Password@123")
	w := doAdminJSON(router, "PUT", fmt.Sprintf("/admin/expenses/%d", theirs.ID),
		`{"amount": 1}`, sanaCookies)
	assert.Equal(t, 403, w.Code)

	w = doAdminJSON(router, "DELETE", fmt.Sprintf("/admin/expenses/%d", theirs.ID), "", sanaCookies)
	assert.Equal(t, 403, w.Code)

	// 管理员可以改任何记录
	adminCookies := adminLogin(t, router, "harsi", "Password@123")
	w = doAdminJSON(router, "PUT", fmt.Sprintf("/admin/expenses/%d", mine.ID),
		`{"amount": 60}`, adminCookies)
	require.Equal(t, 200, w.Code)

	var updated models.Expense
	require.NoError(t, database.DB.First(&updated, mine.ID).Error)
	assert.Equal(t, 60.0, updated.Amount)
}
