// Package report 提供消费数据的纯计算函数：汇总指标、环比趋势、预算推算。
// 不依赖数据库，入参是查询层取出的行。
package report

import (
	"errors"

	"github.com/dustin/go-humanize"
)

// NoTopCategory 无数据时的类别占位值
const NoTopCategory = "None"

// 固定按 30 天折算日均/月度推算。这是沿用已有报表口径的有意简化，
// 改成真实天数会改变用户已经依赖的数字。
const fixedPeriodDays = 30

var (
	// ErrTrendUnavailable 数据点不足两个，无法计算环比
	ErrTrendUnavailable = errors.New("月度数据不足，无法计算环比趋势")
	// ErrZeroBaseline 上月金额为 0，环比无定义
	ErrZeroBaseline = errors.New("上月金额为 0，环比无定义")
	// ErrNoDaysElapsed 当月天数为 0，无法推算
	ErrNoDaysElapsed = errors.New("天数必须大于 0")
)

// Row 参与汇总的单条消费
type Row struct {
	Amount   float64
	Category string
}

// MonthlyTotal 月度汇总点，Month 格式 YYYY-MM
type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// InsightSummary 消费洞察指标
type InsightSummary struct {
	TotalSpent       float64 `json:"total_spent"`
	DailyAverage     float64 `json:"daily_average"`
	TopCategory      string  `json:"top_category"`
	TransactionCount int     `json:"transaction_count"`
}

// Insights 计算汇总指标：总额、按固定 30 天折算的日均、金额最高的类别、笔数
func Insights(rows []Row) InsightSummary {
	if len(rows) == 0 {
		return InsightSummary{TopCategory: NoTopCategory}
	}

	var total float64
	byCategory := make(map[string]float64)
	for _, r := range rows {
		total += r.Amount
		byCategory[r.Category] += r.Amount
	}

	top := NoTopCategory
	var topAmount float64
	for category, amount := range byCategory {
		if amount > topAmount || top == NoTopCategory {
			top = category
			topAmount = amount
		}
	}

	return InsightSummary{
		TotalSpent:       total,
		DailyAverage:     total / fixedPeriodDays,
		TopCategory:      top,
		TransactionCount: len(rows),
	}
}

// Trend 计算最近两个月的环比变化百分比
// series 按最近月份在前排列（与月度汇总查询一致）。
// 数据点不足两个返回 ErrTrendUnavailable；上月为 0 返回 ErrZeroBaseline，
// 不静默返回 0。
func Trend(series []MonthlyTotal) (float64, error) {
	if len(series) < 2 {
		return 0, ErrTrendUnavailable
	}
	latest := series[0].Total
	previous := series[1].Total
	if previous == 0 {
		return 0, ErrZeroBaseline
	}
	return (latest - previous) / previous * 100, nil
}

// BudgetProjection 按固定 30 天月推算整月支出
func BudgetProjection(currentSpend float64, daysElapsed int) (float64, error) {
	if daysElapsed <= 0 {
		return 0, ErrNoDaysElapsed
	}
	return currentSpend / float64(daysElapsed) * fixedPeriodDays, nil
}

// BudgetStatus 预算执行状态
type BudgetStatus struct {
	MonthlyBudget  float64 `json:"monthly_budget"`
	CurrentSpend   float64 `json:"current_spend"`
	ProjectedSpend float64 `json:"projected_spend"`
	Remaining      float64 `json:"remaining"`
	UsagePercent   float64 `json:"usage_percent"`
	Status         string  `json:"status"`
}

// CompareWithBudget 对比当月支出与给定预算
func CompareWithBudget(currentSpend float64, daysElapsed int, monthlyBudget float64) (BudgetStatus, error) {
	projected, err := BudgetProjection(currentSpend, daysElapsed)
	if err != nil {
		return BudgetStatus{}, err
	}

	status := "On Track"
	switch {
	case projected > monthlyBudget:
		status = "Over Budget"
	case projected > monthlyBudget*0.9:
		status = "Close to Budget Limit"
	}

	var usage float64
	if monthlyBudget > 0 {
		usage = currentSpend / monthlyBudget * 100
	}

	return BudgetStatus{
		MonthlyBudget:  monthlyBudget,
		CurrentSpend:   currentSpend,
		ProjectedSpend: projected,
		Remaining:      monthlyBudget - currentSpend,
		UsagePercent:   usage,
		Status:         status,
	}, nil
}

// FormatAmount 金额格式化为 ₹1,234.50 形式（固定符号、千分位、两位小数）
func FormatAmount(amount float64) string {
	return "₹" + humanize.FormatFloat("#,###.##", amount)
}
