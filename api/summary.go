package api

import (
	"strconv"
	"time"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/report"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryStat 类别统计
type CategoryStat struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int64   `json:"count"`
}

// applyDateRange 给查询追加可选的日期范围条件
func applyDateRange(query *gorm.DB, startDate, endDate string) *gorm.DB {
	if startDate != "" {
		if d, err := parseExpenseDate(startDate); err == nil {
			query = query.Where("date >= ?", d)
		}
	}
	if endDate != "" {
		if d, err := parseExpenseDate(endDate); err == nil {
			query = query.Where("date <= ?", d)
		}
	}
	return query
}

// GetStatistics 获取消费统计（按类别汇总）
// @Summary 获取消费统计
// @Description 获取当前用户指定日期范围内的消费统计：总金额、总笔数、按类别汇总（金额降序）
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses/statistics [get]
func (h *ExpenseHandler) GetStatistics(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	query := applyDateRange(database.DB.Model(&models.Expense{}).Where("user_id = ?", userID), startDate, endDate)

	// 总金额和总笔数
	var totalAmount float64
	var totalCount int64
	query.Select("COALESCE(SUM(amount), 0)").Scan(&totalAmount)
	query.Count(&totalCount)

	// 按类别统计
	var categoryStats []CategoryStat
	catQuery := applyDateRange(database.DB.Model(&models.Expense{}).Where("user_id = ?", userID), startDate, endDate)
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

// GetMonthlySummary 获取月度汇总
// @Summary 获取月度消费汇总
// @Description 获取当前用户按月汇总的消费金额，最近的月份在前，最多返回12个月
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]report.MonthlyTotal} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses/monthly [get]
func (h *ExpenseHandler) GetMonthlySummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	series, err := monthlySeries(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, series)
}

// monthlySeries 月度汇总查询，userID 为 0 时统计全部用户
func monthlySeries(userID uint) ([]report.MonthlyTotal, error) {
	query := database.DB.Model(&models.Expense{}).
		Select("strftime('%Y-%m', date) as month, SUM(amount) as total")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var series []report.MonthlyTotal
	err := query.
		Group("strftime('%Y-%m', date)").
		Order("month DESC").
		Limit(12).
		Scan(&series).Error
	return series, err
}

// GetInsights 获取消费洞察
// @Summary 获取消费洞察
// @Description 获取指定日期范围内的洞察指标：总支出、按30天折算的日均、最高类别、笔数，以及最近两月的环比趋势
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses/insights [get]
func (h *ExpenseHandler) GetInsights(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := applyDateRange(database.DB.Model(&models.Expense{}).Where("user_id = ?", userID),
		c.Query("start_date"), c.Query("end_date"))

	var rows []report.Row
	if err := query.Select("amount, category").Scan(&rows).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	summary := report.Insights(rows)

	// 环比趋势：数据不足或上月为0时明确标记不可用，而不是返回0
	resp := gin.H{
		"total_spent":           summary.TotalSpent,
		"total_spent_display":   report.FormatAmount(summary.TotalSpent),
		"daily_average":         summary.DailyAverage,
		"daily_average_display": report.FormatAmount(summary.DailyAverage),
		"top_category":          summary.TopCategory,
		"transaction_count":     summary.TransactionCount,
		"trend_available":       false,
	}

	if series, err := monthlySeries(userID); err == nil {
		if pct, err := report.Trend(series); err == nil {
			resp["trend_available"] = true
			resp["trend_percent"] = pct
		}
	}

	Success(c, resp)
}

// GetBudgetProjection 获取预算推算
// @Summary 获取预算推算
// @Description 按当月已发生支出和固定30天月长推算整月支出，并对比给定预算
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param monthly_budget query number true "月度预算"
// @Success 200 {object} Response{data=report.BudgetStatus} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses/budget [get]
func (h *ExpenseHandler) GetBudgetProjection(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	budget, err := strconv.ParseFloat(c.Query("monthly_budget"), 64)
	if err != nil || budget <= 0 {
		BadRequest(c, "monthly_budget 必须为正数")
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)

	var currentSpend float64
	database.DB.Model(&models.Expense{}).
		Where("user_id = ? AND date >= ? AND date <= ?",
			userID, monthStart.Format(models.DateLayout), now.Format(models.DateLayout)).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&currentSpend)

	daysElapsed := now.Day()
	status, err := report.CompareWithBudget(currentSpend, daysElapsed, budget)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "推算失败"))
		return
	}

	Success(c, status)
}
