package api

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupTestDB 使用内存 SQLite 替换全局连接，测试结束后恢复
func setupTestDB(t *testing.T) func() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存库只允许单连接，避免各连接各自为政
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Expense{},
		&models.AIModel{},
		&models.AIInsight{},
	))

	oldDB := database.DB
	database.DB = db
	return func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

// initTestConfig 设置测试配置并初始化 JWT
func initTestConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Access: config.AccessConfig{PartnerUsers: []string{"harsi", "pandu"}},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	gin.SetMode(gin.TestMode)
	t.Cleanup(func() { config.GlobalConfig = nil })
	return cfg
}

// createTestUser 直接写库创建用户
func createTestUser(t *testing.T, username, fullName, password string, isAdmin bool) models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := models.User{
		Username: username,
		FullName: fullName,
		Password: string(hashed),
		IsAdmin:  isAdmin,
	}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

// createTestExpense 直接写库创建消费记录
func createTestExpense(t *testing.T, userID uint, amount float64, purpose, category, date string) models.Expense {
	expense := models.Expense{
		UserID:   userID,
		Amount:   amount,
		Purpose:  purpose,
		Category: category,
		Date:     date,
	}
	require.NoError(t, database.DB.Create(&expense).Error)
	return expense
}

func tokenFor(t *testing.T, user models.User) string {
	token, err := middleware.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return token
}

// doJSON 发送 JSON 请求，token 为空则不带认证头
func doJSON(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}
