package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/report"

	"github.com/gin-gonic/gin"
)

// AIInsightHandler AI消费洞察处理器
type AIInsightHandler struct{}

// NewAIInsightHandler 创建AI消费洞察处理器
func NewAIInsightHandler() *AIInsightHandler {
	return &AIInsightHandler{}
}

// InsightRequest AI消费分析请求
type InsightRequest struct {
	ModelID   uint   `json:"model_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required" example:"2024-01-01"`
	EndDate   string `json:"end_date" binding:"required" example:"2024-12-31"`
}

type sseInsightFrame struct {
	Type    string `json:"type"`              // delta | done | error
	Content string `json:"content,omitempty"` // delta内容或错误信息
}

func writeInsightSSE(c *gin.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = c.Writer.WriteString("data: " + string(b) + "\n\n")
	c.Writer.Flush()
}

type insightRow struct {
	models.Expense
	FullName string
}

// Analyze 后台：AI分析消费记录（流式输出）
// @Summary AI分析消费记录
// @Description 使用配置的AI模型对指定日期范围的消费记录进行分析，SSE流式返回，结束后保存分析历史。管理员分析全员数据，非管理员只分析自己的。
// @Tags 后台管理-AI分析
// @Accept json
// @Produce text/event-stream
// @Param request body InsightRequest true "分析请求"
// @Success 200 {string} string "SSE流"
// @Failure 400 {object} map[string]interface{} "参数错误或范围内无记录"
// @Failure 404 {object} map[string]interface{} "AI模型不存在"
// @Router /admin/ai-insights/analyze [post]
func (h *AIInsightHandler) Analyze(c *gin.Context) {
	var req InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "参数错误: " + err.Error()})
		return
	}

	var aiModel models.AIModel
	if err := database.DB.First(&aiModel, req.ModelID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "AI模型不存在"})
		return
	}

	if _, err := time.Parse(models.DateLayout, req.StartDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "日期格式错误"})
		return
	}
	if _, err := time.Parse(models.DateLayout, req.EndDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "日期格式错误"})
		return
	}

	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	q := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.full_name").
		Joins("LEFT JOIN users ON expenses.user_id = users.id").
		Where("expenses.date >= ? AND expenses.date <= ?", req.StartDate, req.EndDate)
	// 后台：非管理员（cookie 登录）只分析自己的消费，管理员分析全局
	scope := uint(0)
	if !currentUser.IsAdmin {
		q = q.Where("expenses.user_id = ?", currentUser.ID)
		scope = currentUser.ID
	}
	uid := currentUser.ID

	var expenses []insightRow
	if err := q.Order("expenses.date DESC, expenses.id DESC").Scan(&expenses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询消费记录失败"})
		return
	}

	if len(expenses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "该日期范围内没有消费记录"})
		return
	}

	prompt := h.buildInsightPrompt(expenses, scope, req.StartDate, req.EndDate)
	if err := h.callAIModelStreamAndStore(c, aiModel, uid, req.StartDate, req.EndDate, prompt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "AI分析失败: " + err.Error()})
		return
	}
}

// analyzeScoped API端：仅分析当前JWT用户的消费
func (h *AIInsightHandler) analyzeScoped(c *gin.Context, userID uint) {
	var req InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var aiModel models.AIModel
	if err := database.DB.First(&aiModel, req.ModelID).Error; err != nil {
		NotFound(c, "AI模型不存在")
		return
	}

	if _, err := time.Parse(models.DateLayout, req.StartDate); err != nil {
		BadRequest(c, "日期格式错误")
		return
	}
	if _, err := time.Parse(models.DateLayout, req.EndDate); err != nil {
		BadRequest(c, "日期格式错误")
		return
	}

	var expenses []insightRow
	if err := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.full_name").
		Joins("LEFT JOIN users ON expenses.user_id = users.id").
		Where("expenses.user_id = ?", userID).
		Where("expenses.date >= ? AND expenses.date <= ?", req.StartDate, req.EndDate).
		Order("expenses.date DESC, expenses.id DESC").
		Scan(&expenses).Error; err != nil {
		InternalError(c, "查询消费记录失败")
		return
	}
	if len(expenses) == 0 {
		BadRequest(c, "该日期范围内没有消费记录")
		return
	}

	prompt := h.buildInsightPrompt(expenses, userID, req.StartDate, req.EndDate)
	if err := h.callAIModelStreamAndStore(c, aiModel, userID, req.StartDate, req.EndDate, prompt); err != nil {
		InternalError(c, "AI分析失败: "+err.Error())
		return
	}
}

// AnalyzeMine API端入口
// @Summary AI分析我的消费记录
// @Description 使用配置的AI模型分析当前用户指定日期范围的消费记录，SSE流式返回
// @Tags AI分析
// @Accept json
// @Produce text/event-stream
// @Security BearerAuth
// @Param request body InsightRequest true "分析请求"
// @Success 200 {string} string "SSE流"
// @Failure 400 {object} Response "参数错误或范围内无记录"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "AI模型不存在"
// @Router /api/v1/ai/analyze [post]
func (h *AIInsightHandler) AnalyzeMine(c *gin.Context) {
	h.analyzeScoped(c, middleware.GetCurrentUserID(c))
}

// buildInsightPrompt 构建分析提示词，scopeUserID 为 0 时按全员口径取环比
func (h *AIInsightHandler) buildInsightPrompt(expenses []insightRow, scopeUserID uint, startDate, endDate string) string {
	var rows []report.Row
	for _, exp := range expenses {
		rows = append(rows, report.Row{Amount: exp.Amount, Category: exp.Category})
	}
	summary := report.Insights(rows)

	categoryStats := make(map[string]float64)
	categoryCount := make(map[string]int)
	for _, exp := range expenses {
		categoryStats[exp.Category] += exp.Amount
		categoryCount[exp.Category]++
	}

	prompt := fmt.Sprintf(`请分析以下消费记录数据，并提供详细的总结和建议：

时间范围：%s 至 %s
总记录数：%d 条
总消费金额：%s
日均消费：%s
最高消费类别：%s

消费类别统计：
`, startDate, endDate, summary.TransactionCount,
		report.FormatAmount(summary.TotalSpent),
		report.FormatAmount(summary.DailyAverage),
		summary.TopCategory)

	for category, amount := range categoryStats {
		prompt += fmt.Sprintf("- %s: %s (%d 条记录)\n", category, report.FormatAmount(amount), categoryCount[category])
	}

	if series, err := monthlySeries(scopeUserID); err == nil {
		if pct, err := report.Trend(series); err == nil {
			prompt += fmt.Sprintf("\n最近两月环比变化：%.1f%%\n", pct)
		}
	}

	prompt += "\n详细消费记录（最近20条）：\n"
	maxRecords := 20
	if len(expenses) < maxRecords {
		maxRecords = len(expenses)
	}
	for i := 0; i < maxRecords; i++ {
		exp := expenses[i]
		prompt += fmt.Sprintf("- %s: %s 消费 %s，用途：%s，类别：%s\n",
			exp.Date,
			exp.FullName,
			report.FormatAmount(exp.Amount),
			exp.Purpose,
			exp.Category)
	}

	prompt += `
请提供：
1. 消费趋势分析
2. 主要消费类别分析
3. 消费习惯总结
4. 优化建议和理财建议

请用中文回答，内容要详细、专业、实用。`

	return prompt
}

// callAIModelStreamAndStore 调用AI模型API（流式输出），并在结束后保存分析历史
func (h *AIInsightHandler) callAIModelStreamAndStore(c *gin.Context, aiModel models.AIModel, userID uint, startDate, endDate, prompt string) error {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // 禁用nginx缓冲

	// OpenAI 兼容格式
	requestBody := map[string]interface{}{
		"model": aiModel.Name,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"stream": true,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}

	req, err := http.NewRequest("POST", strings.TrimRight(aiModel.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+aiModel.APIKey)

	client := &http.Client{Timeout: 300 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("请求AI服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("AI服务返回错误: %d, %s", resp.StatusCode, string(body))
	}

	reader := bufio.NewReader(resp.Body)
	ctx := c.Request.Context()

	var out strings.Builder
	finished := false

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("客户端断开连接")
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				finished = true
				break
			}
			return fmt.Errorf("读取流数据失败: %w", err)
		}

		if len(line) == 0 {
			continue
		}
		delta, done := h.processInsightLineToJSON(c, line)
		if delta != "" {
			out.WriteString(delta)
		}
		if done {
			finished = true
			break
		}
	}

	// 只有正常结束才保存历史
	if finished {
		insight := models.AIInsight{
			AIModelID: aiModel.ID,
			UserID:    userID,
			StartDate: startDate,
			EndDate:   endDate,
			Result:    out.String(),
		}
		_ = database.DB.Create(&insight).Error
		// 确保前端一定收到 done
		writeInsightSSE(c, sseInsightFrame{Type: "done"})
	}

	return nil
}

// processInsightLineToJSON 解析上游SSE行，向前端输出 JSON 帧；返回增量文本与是否结束
func (h *AIInsightHandler) processInsightLineToJSON(c *gin.Context, line []byte) (string, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return "", false
	}
	if !bytes.HasPrefix(line, []byte("data: ")) {
		return "", false
	}
	data := bytes.TrimPrefix(line, []byte("data: "))
	if string(data) == "[DONE]" {
		writeInsightSSE(c, sseInsightFrame{Type: "done"})
		return "", true
	}
	var streamData map[string]interface{}
	if err := json.Unmarshal(data, &streamData); err != nil {
		return "", false
	}
	content := ""
	if choices, ok := streamData["choices"].([]interface{}); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]interface{}); ok {
			if delta, ok := choice["delta"].(map[string]interface{}); ok {
				if v, ok := delta["content"].(string); ok {
					content = v
				}
			}
		}
	}
	if content == "" {
		return "", false
	}
	writeInsightSSE(c, sseInsightFrame{Type: "delta", Content: content})
	return content, false
}

// ListHistory 后台：获取AI分析历史（按模型分页）
// @Summary 获取AI分析历史
// @Tags 后台管理-AI分析
// @Produce json
// @Param model_id query int true "AI模型ID"
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页数量，默认20"
// @Success 200 {object} map[string]interface{} "获取成功"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Router /admin/ai-insights [get]
func (h *AIInsightHandler) ListHistory(c *gin.Context) {
	if _, err := getCurrentUser(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	modelID, err := parseInsightModelID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	page, pageSize := parseInsightPaging(c)

	query := database.DB.Model(&models.AIInsight{}).Where("ai_model_id = ?", modelID)
	var total int64
	query.Count(&total)

	var list []models.AIInsight
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
			"list":      list,
		},
	})
}

// ListMyHistory API端：按当前用户+模型分页返回
// @Summary 获取我的AI分析历史
// @Tags AI分析
// @Produce json
// @Security BearerAuth
// @Param model_id query int true "AI模型ID"
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页数量，默认20"
// @Success 200 {object} Response "获取成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/ai/insights [get]
func (h *AIInsightHandler) ListMyHistory(c *gin.Context) {
	modelID, err := parseInsightModelID(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	page, pageSize := parseInsightPaging(c)
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Model(&models.AIInsight{}).
		Where("ai_model_id = ? AND user_id = ?", modelID, userID)
	var total int64
	query.Count(&total)

	var list []models.AIInsight
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+err.Error())
		return
	}
	Success(c, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"list":      list,
	})
}

// DeleteHistory 软删除AI分析历史
// @Summary 删除AI分析历史
// @Tags 后台管理-AI分析
// @Produce json
// @Param id path int true "历史记录ID"
// @Success 200 {object} map[string]interface{} "删除成功"
// @Failure 400 {object} map[string]interface{} "无效的ID"
// @Failure 404 {object} map[string]interface{} "记录不存在"
// @Router /admin/ai-insights/{id} [delete]
func (h *AIInsightHandler) DeleteHistory(c *gin.Context) {
	if _, err := getCurrentUser(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	idStr := c.Param("id")
	id64, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的ID"})
		return
	}

	var insight models.AIInsight
	if err := database.DB.First(&insight, uint(id64)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "记录不存在"})
		return
	}

	if err := database.DB.Delete(&insight).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "删除失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "删除成功"})
}

func parseInsightModelID(c *gin.Context) (uint, error) {
	modelIDStr := c.Query("model_id")
	if modelIDStr == "" {
		return 0, fmt.Errorf("缺少 model_id")
	}
	modelID64, err := strconv.ParseUint(modelIDStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("无效的 model_id")
	}
	return uint(modelID64), nil
}

func parseInsightPaging(c *gin.Context) (int, int) {
	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		if v, e := strconv.Atoi(p); e == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, e := strconv.Atoi(ps); e == nil && v > 0 {
			pageSize = v
		}
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
