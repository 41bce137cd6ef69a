package api

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/report"

	"github.com/gin-gonic/gin"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

func (h *ExportHandler) queryExpenses(c *gin.Context) ([]models.Expense, error) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Where("user_id = ?", userID)
	query = applyDateRange(query, c.Query("start_date"), c.Query("end_date"))

	var expenses []models.Expense
	err := query.Order("date DESC, id DESC").Find(&expenses).Error
	return expenses, err
}

// ExportCSV 导出消费记录为CSV
// @Summary 导出消费记录为CSV
// @Description 导出当前用户指定日期范围内的消费记录，列为 Date、Amount（带货币符号）、Purpose、Category
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {string} string "CSV文件"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	expenses, err := h.queryExpenses(c)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	startDate := c.DefaultQuery("start_date", "all")
	endDate := c.DefaultQuery("end_date", "all")
	filename := fmt.Sprintf("expenses_%s_%s.csv", startDate, endDate)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	// UTF-8 BOM，避免Excel打开时货币符号乱码
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"Date", "Amount", "Purpose", "Category"})
	for _, e := range expenses {
		w.Write([]string{
			e.Date,
			report.FormatAmount(e.Amount),
			e.Purpose,
			e.Category,
		})
	}
	w.Flush()

	c.Status(http.StatusOK)
}

// ExportJSON 导出消费记录为JSON
// @Summary 导出消费记录为JSON
// @Description 导出当前用户指定日期范围内的消费记录为JSON文件
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} []models.Expense "JSON文件"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	expenses, err := h.queryExpenses(c)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	startDate := c.DefaultQuery("start_date", "all")
	endDate := c.DefaultQuery("end_date", "all")
	filename := fmt.Sprintf("expenses_%s_%s.json", startDate, endDate)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.JSON(http.StatusOK, expenses)
}
