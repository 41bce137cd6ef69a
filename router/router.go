package router

import (
	"net/http"
	"time"

	"expensetracker/adminauth"
	"expensetracker/api"
	"expensetracker/config"
	_ "expensetracker/docs"
	"expensetracker/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// 登录接口限流：每IP每分钟最多10次，信封随所在接口面
	loginLimit := middleware.LoginRateLimit(10, time.Minute)
	adminLoginLimit := middleware.AdminLoginRateLimit(10, time.Minute)

	// 后台管理 API
	adminHandler := api.NewAdminHandler()
	admin := r.Group("/admin")
	{
		admin.POST("/login", adminLoginLimit, adminHandler.AdminLogin)
		admin.POST("/logout", adminHandler.AdminLogout)

		// 需要 Cookie 认证的后台接口
		adminAuth := admin.Group("")
		adminAuth.Use(AdminAuthMiddleware())
		{
			adminAuth.GET("/current-user", adminHandler.GetCurrentUserInfo)

			adminAuth.GET("/expenses", adminHandler.GetAllExpenses)
			adminAuth.POST("/expenses", adminHandler.CreateExpense)
			adminAuth.PUT("/expenses/:id", adminHandler.UpdateExpense)
			adminAuth.DELETE("/expenses/:id", adminHandler.DeleteExpense)
			adminAuth.GET("/statistics", adminHandler.GetStatistics)

			adminAuth.GET("/users", adminHandler.GetAllUsers)
			adminAuth.POST("/users", adminHandler.CreateUser)
			adminAuth.PUT("/users/:id/username", adminHandler.UpdateUsername)
			adminAuth.PUT("/users/:id/full-name", adminHandler.UpdateFullName)
			adminAuth.PUT("/users/:id/password", adminHandler.UpdateUserPassword)
			adminAuth.PUT("/users/:id/admin", adminHandler.SetAdmin)
			adminAuth.DELETE("/users/:id", adminHandler.DeleteUser)

			adminAuth.GET("/export/excel", adminHandler.ExportExcel)

			// AI模型管理
			aiModelHandler := api.NewAIModelHandler()
			adminAuth.GET("/ai-models", aiModelHandler.GetAllAIModels)
			adminAuth.GET("/ai-models/:id", aiModelHandler.GetAIModel)
			adminAuth.POST("/ai-models", aiModelHandler.CreateAIModel)
			adminAuth.PUT("/ai-models/:id", aiModelHandler.UpdateAIModel)
			adminAuth.PUT("/ai-models/reorder", aiModelHandler.ReorderAIModels)
			adminAuth.POST("/ai-models/:id/test", aiModelHandler.TestAIModel)
			adminAuth.DELETE("/ai-models/:id", aiModelHandler.DeleteAIModel)

			// AI分析
			aiInsightHandler := api.NewAIInsightHandler()
			adminAuth.POST("/ai-insights/analyze", aiInsightHandler.Analyze)
			adminAuth.GET("/ai-insights", aiInsightHandler.ListHistory)
			adminAuth.DELETE("/ai-insights/:id", aiInsightHandler.DeleteHistory)
		}
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", loginLimit, authHandler.Login)
		}

		// 消费类别（无需登录）
		expenseHandler := api.NewExpenseHandler()
		v1.GET("/categories", expenseHandler.GetCategories)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/profile", authHandler.UpdateProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			// 消费记录相关
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 统计与洞察
			summary := authorized.Group("/summary")
			{
				summary.GET("/statistics", expenseHandler.GetStatistics)
				summary.GET("/monthly", expenseHandler.GetMonthlySummary)
				summary.GET("/insights", expenseHandler.GetInsights)
				summary.GET("/budget", expenseHandler.GetBudgetProjection)
			}

			// 合并视图（白名单用户）
			partnerHandler := api.NewPartnerHandler()
			partner := authorized.Group("/partner")
			partner.Use(middleware.PartnerOnly())
			{
				partner.GET("/expenses", partnerHandler.List)
				partner.GET("/statistics", partnerHandler.GetStatistics)
				partner.GET("/monthly", partnerHandler.GetMonthlySummary)
				partner.GET("/insights", partnerHandler.GetInsights)
			}

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
			}

			// AI分析
			aiInsightHandler := api.NewAIInsightHandler()
			ai := authorized.Group("/ai")
			{
				ai.POST("/analyze", aiInsightHandler.AnalyzeMine)
				ai.GET("/insights", aiInsightHandler.ListMyHistory)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AdminAuthMiddleware 后台管理 Cookie 认证中间件
// 校验 admin_user_id 的 HMAC 签名，伪造或缺失的 Cookie 一律拦截
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := adminauth.GetVerifiedAdminUserID(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "请先登录",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
