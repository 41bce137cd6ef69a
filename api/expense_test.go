package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpenseRouter(t *testing.T) *gin.Engine {
	initTestConfig(t)
	router := gin.New()
	h := NewExpenseHandler()

	router.GET("/categories", h.GetCategories)

	authorized := router.Group("")
	authorized.Use(middleware.JWTAuth())
	{
		authorized.POST("/expenses", h.Create)
		authorized.GET("/expenses", h.List)
		authorized.GET("/expenses/:id", h.Get)
		authorized.PUT("/expenses/:id", h.Update)
		authorized.DELETE("/expenses/:id", h.Delete)
	}
	return router
}

func TestExpenseHandler_CreateAndGet(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newExpenseRouter(t)

	user := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	token := tokenFor(t, user)

	body := `{"amount":250.5,"purpose":"Weekly groceries","category":"🛒 Groceries","date":"2024-01-15"}`
	w := doJSON(router, "POST", "/expenses", body, token)
	require.Equal(t, 200, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	created := resp["data"].(map[string]interface{})
	id := uint(created["id"].(float64))

	// 读回应与写入完全一致
	w2 := doJSON(router, "GET", fmt.Sprintf("/expenses/%d", id), "", token)
	require.Equal(t, 200, w2.Code)
	var resp2 map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp2))
	got := resp2["data"].(map[string]interface{})
	assert.Equal(t, 250.5, got["amount"])
	assert.Equal(t, "Weekly groceries", got["purpose"])
	assert.Equal(t, "🛒 Groceries", got["category"])
	assert.Equal(t, "2024-01-15", got["date"])
}

func TestExpenseHandler_Create_Validation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newExpenseRouter(t)

	user := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	token := tokenFor(t, user)

	tomorrow := time.Now().AddDate(0, 0, 1).Format(models.DateLayout)
	cases := []struct {
		name string
		body string
	}{
		{"金额为零", `{"amount":0,"purpose":"x","category":"🛒 Groceries","date":"2024-01-15"}`},
		{"金额为负", `{"amount":-5,"purpose":"x","category":"🛒 Groceries","date":"2024-01-15"}`},
		{"用途为空白", `{"amount":10,"purpose":"   ","category":"🛒 Groceries","date":"2024-01-15"}`},
		{"非法类别", `{"amount":10,"purpose":"x","category":"Gambling","date":"2024-01-15"}`},
		{"日期格式错误", `{"amount":10,"purpose":"x","category":"🛒 Groceries","date":"15/01/2024"}`},
		{"未来日期", fmt.Sprintf(`{"amount":10,"purpose":"x","category":"🛒 Groceries","date":"%s"}`, tomorrow)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/expenses", tc.body, token)
			assert.Equal(t, 400, w.Code)
		})
	}

	// 今天的日期是合法边界
	today := time.Now().Format(models.DateLayout)
	w := doJSON(router, "POST", "/expenses",
		fmt.Sprintf(`{"amount":10,"purpose":"boundary","category":"🛒 Groceries","date":"%s"}`, today), token)
	assert.Equal(t, 200, w.Code)
}

func TestExpenseHandler_Update_FullReplace(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newExpenseRouter(t)

	user := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	token := tokenFor(t, user)
	expense := createTestExpense(t, user.ID, 100, "Dinner", "🍔 Food & Dining", "2024-01-10")

	// 更新是四字段整体替换
	body := `{"amount":75.25,"purpose":"Movie night","category":"🎬 Entertainment","date":"2024-01-08"}`
	w := doJSON(router, "PUT", fmt.Sprintf("/expenses/%d", expense.ID), body, token)
	require.Equal(t, 200, w.Code)

	var got models.Expense
	require.NoError(t, database.DB.First(&got, expense.ID).Error)
	assert.Equal(t, 75.25, got.Amount)
	assert.Equal(t, "Movie night", got.Purpose)
	assert.Equal(t, "🎬 Entertainment", got.Category)
	assert.Equal(t, "2024-01-08", got.Date)

	// 不存在的记录
	w2 := doJSON(router, "PUT", "/expenses/99999", body, token)
	assert.Equal(t, 404, w2.Code)
}

func TestExpenseHandler_OwnershipIsolation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newExpenseRouter(t)

	alice := createTestUser(t, "harsi", "Harshitha", "Password@123", false)
	bob := createTestUser(t, "pandu", "swetha", "Password@123", false)
	expense := createTestExpense(t, alice.ID, 50, "Books", "📚 Education", "2024-02-01")

	bobToken := tokenFor(t, bob)

	// 他人的记录一律按不存在处理
	w := doJSON(router, "GET", fmt.Sprintf("/expenses/%d", expense.ID), "", bobToken)
	assert.Equal(t, 404, w.Code)

	w2 := doJSON(router, "PUT", fmt.Sprintf("/expenses/%d", expense.ID),
		`{"amount":1,"purpose":"x","category":"📚 Education","date":"2024-02-01"}`, bobToken)
	assert.Equal(t, 404, w2.Code)

	w3 := doJSON(router, "DELETE", fmt.Sprintf("/expenses/%d", expense.ID), "", bobToken)
	assert.Equal(t, 404, w3.Code)
}

func TestExpenseHandler_List(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newExpenseRouter(t)

	user := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	token := tokenFor(t, user)

	createTestExpense(t, user.ID, 10, "a", "🍔 Food & Dining", "2024-01-05")
	createTestExpense(t, user.ID, 20, "b", "🚗 Transportation", "2024-01-20")
	createTestExpense(t, user.ID, 30, "c", "🍔 Food & Dining", "2024-01-10")

	w := doJSON(router, "GET", "/expenses", "", token)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Total int64             `json:"total"`
			List  []models.Expense  `json:"list"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(3), resp.Data.Total)

	// 日期倒序
	for i := 1; i < len(resp.Data.List); i++ {
		assert.GreaterOrEqual(t, resp.Data.List[i-1].Date, resp.Data.List[i].Date)
	}

	// 类别筛选
	w2 := doJSON(router, "GET", "/expenses?category="+url.QueryEscape("🍔 Food & Dining"), "", token)
	require.Equal(t, 200, w2.Code)
	var resp2 struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp2))
	assert.Equal(t, int64(2), resp2.Data.Total)

	// 与数据无交集的日期范围返回空列表
	w3 := doJSON(router, "GET", "/expenses?start_date=2023-01-01&end_date=2023-12-31", "", token)
	require.Equal(t, 200, w3.Code)
	var resp3 struct {
		Data struct {
			Total int64            `json:"total"`
			List  []models.Expense `json:"list"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w3.Body.Bytes(), &resp3))
	assert.Equal(t, int64(0), resp3.Data.Total)
	assert.Empty(t, resp3.Data.List)
}

func TestExpenseHandler_Delete(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newExpenseRouter(t)

	user := createTestUser(t, "sana", "Sudhakar", "Password@123", false)
	token := tokenFor(t, user)
	expense := createTestExpense(t, user.ID, 10, "tmp", "🎁 Gifts", "2024-03-01")

	w := doJSON(router, "DELETE", fmt.Sprintf("/expenses/%d", expense.ID), "", token)
	require.Equal(t, 200, w.Code)

	// 删除后不可见
	w2 := doJSON(router, "GET", fmt.Sprintf("/expenses/%d", expense.ID), "", token)
	assert.Equal(t, 404, w2.Code)

	// 重复删除同样 404
	w3 := doJSON(router, "DELETE", fmt.Sprintf("/expenses/%d", expense.ID), "", token)
	assert.Equal(t, 404, w3.Code)
}

func TestExpenseHandler_GetCategories(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	router := newExpenseRouter(t)

	w := doJSON(router, "GET", "/categories", "", "")
	require.Equal(t, 200, w.Code)

	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 15)
	assert.Equal(t, "🍔 Food & Dining", resp.Data[0])
	assert.Contains(t, resp.Data, "📱 Technology")
	assert.Contains(t, resp.Data, "✈️ Travel")
}
