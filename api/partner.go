package api

import (
	"expensetracker/database"
	"expensetracker/models"
	"expensetracker/report"

	"github.com/gin-gonic/gin"
)

// PartnerHandler 合并视图处理器（全员消费，白名单用户可见）
type PartnerHandler struct{}

// NewPartnerHandler 创建合并视图处理器
func NewPartnerHandler() *PartnerHandler {
	return &PartnerHandler{}
}

// ExpenseWithOwner 带归属人姓名的消费记录
type ExpenseWithOwner struct {
	models.Expense
	FullName string `json:"full_name"`
}

// List 获取全员消费记录
// @Summary 获取全员消费记录（合并视图）
// @Description 获取所有用户的消费记录，内连接用户表（已删除用户的记录不出现在合并视图），按日期倒序
// @Tags 合并视图
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=[]ExpenseWithOwner} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "没有合并视图访问权限"
// @Router /api/v1/partner/expenses [get]
func (h *PartnerHandler) List(c *gin.Context) {
	// 内连接：归属用户已删除的记录被排除（直接按ID查询仍可取到）
	query := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.full_name").
		Joins("JOIN users ON users.id = expenses.user_id AND users.deleted_at IS NULL")

	query = applyDateRange(query, c.Query("start_date"), c.Query("end_date"))

	var expenses []ExpenseWithOwner
	if err := query.Order("expenses.date DESC, expenses.id DESC").Scan(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, expenses)
}

// GetStatistics 获取全员消费统计
// @Summary 获取全员消费统计（合并视图）
// @Description 获取所有用户指定日期范围内的消费统计：总金额、总笔数、按类别汇总（金额降序）
// @Tags 合并视图
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "没有合并视图访问权限"
// @Router /api/v1/partner/statistics [get]
func (h *PartnerHandler) GetStatistics(c *gin.Context) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	query := applyDateRange(database.DB.Model(&models.Expense{}), startDate, endDate)

	var totalAmount float64
	var totalCount int64
	query.Select("COALESCE(SUM(amount), 0)").Scan(&totalAmount)
	query.Count(&totalCount)

	var categoryStats []CategoryStat
	catQuery := applyDateRange(database.DB.Model(&models.Expense{}), startDate, endDate)
	catQuery.
		Select("category, SUM(amount) as total, COUNT(*) as count").
		Group("category").
		Order("total DESC").
		Scan(&categoryStats)

	Success(c, gin.H{
		"total_amount":   totalAmount,
		"total_count":    totalCount,
		"category_stats": categoryStats,
	})
}

// GetMonthlySummary 获取全员月度汇总
// @Summary 获取全员月度汇总（合并视图）
// @Description 获取所有用户按月汇总的消费金额，最近的月份在前，最多返回12个月
// @Tags 合并视图
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]report.MonthlyTotal} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "没有合并视图访问权限"
// @Router /api/v1/partner/monthly [get]
func (h *PartnerHandler) GetMonthlySummary(c *gin.Context) {
	series, err := monthlySeries(0)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, series)
}

// GetInsights 获取全员消费洞察
// @Summary 获取全员消费洞察（合并视图）
// @Description 获取所有用户指定日期范围内的洞察指标与环比趋势
// @Tags 合并视图
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "没有合并视图访问权限"
// @Router /api/v1/partner/insights [get]
func (h *PartnerHandler) GetInsights(c *gin.Context) {
	query := applyDateRange(database.DB.Model(&models.Expense{}),
		c.Query("start_date"), c.Query("end_date"))

	var rows []report.Row
	if err := query.Select("amount, category").Scan(&rows).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	summary := report.Insights(rows)
	resp := gin.H{
		"total_spent":         summary.TotalSpent,
		"total_spent_display": report.FormatAmount(summary.TotalSpent),
		"daily_average":       summary.DailyAverage,
		"top_category":        summary.TopCategory,
		"transaction_count":   summary.TransactionCount,
		"trend_available":     false,
	}
	if series, err := monthlySeries(0); err == nil {
		if pct, err := report.Trend(series); err == nil {
			resp["trend_available"] = true
			resp["trend_percent"] = pct
		}
	}

	Success(c, resp)
}
