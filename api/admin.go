package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminHandler 后台管理处理器
type AdminHandler struct{}

// NewAdminHandler 创建后台管理处理器
func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// getCurrentUser 获取当前登录用户信息（校验 Cookie 签名，防止篡改越权）
func getCurrentUser(c *gin.Context) (*models.User, error) {
	userID, err := GetVerifiedAdminUserID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin 管理员登录（使用 session/cookie 方式）
// @Summary 管理员登录
// @Description 使用用户名和密码登录后台，登录成功后设置签名 Cookie
// @Tags 后台管理
// @Accept json
// @Produce json
// @Param request body AdminLoginRequest true "登录信息"
// @Success 200 {object} map[string]interface{} "登录成功，返回用户信息"
// @Failure 400 {object} map[string]interface{} "请求参数错误"
// @Failure 401 {object} map[string]interface{} "用户名或密码错误"
// @Router /admin/login [post]
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "参数错误"})
		return
	}

	// 用户名精确匹配（区分大小写）
	var user models.User
	if err := database.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "用户名或密码错误"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "用户名或密码错误"})
		return
	}

	// 设置 Cookie（admin_user_id、admin_is_admin 使用签名防篡改）
	setSignedAdminCookie(c, "admin_user_id", fmt.Sprintf("%d", user.ID), 86400, true)
	setAdminCookie(c, "admin_username", user.Username, 86400, false)
	setSignedAdminCookie(c, "admin_is_admin", fmt.Sprintf("%t", user.IsAdmin), 86400, false)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "登录成功",
		"data": gin.H{
			"user_id":   user.ID,
			"username":  user.Username,
			"full_name": user.FullName,
			"is_admin":  user.IsAdmin,
		},
	})
}

// GetCurrentUserInfo 获取当前登录用户信息
// @Summary 获取当前登录用户信息
// @Description 获取当前后台登录用户的详细信息
// @Tags 后台管理
// @Produce json
// @Success 200 {object} map[string]interface{} "获取成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/current-user [get]
func (h *AdminHandler) GetCurrentUserInfo(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"full_name": user.FullName,
			"is_admin":  user.IsAdmin,
		},
	})
}

// AdminLogout 管理员退出登录
// @Summary 管理员退出登录
// @Description 清除登录 Cookie，退出登录
// @Tags 后台管理
// @Produce json
// @Success 200 {object} map[string]interface{} "退出成功"
// @Router /admin/logout [post]
func (h *AdminHandler) AdminLogout(c *gin.Context) {
	setAdminCookie(c, "admin_user_id", "", -1, true)
	setAdminCookie(c, "admin_username", "", -1, false)
	setAdminCookie(c, "admin_is_admin", "", -1, false)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "已退出登录"})
}

// GetAllUsers 获取所有用户列表
// @Summary 获取用户列表
// @Description 获取系统中所有用户列表（仅管理员）
// @Tags 后台管理-用户管理
// @Produce json
// @Success 200 {object} map[string]interface{} "获取成功，返回用户列表"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Router /admin/users [get]
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return
	}

	var users []models.User
	database.DB.Order("id ASC").Find(&users)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
	})
}

// AdminCreateUserRequest 管理员创建用户请求
type AdminCreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateUser 创建用户（仅管理员）
// @Summary 创建用户
// @Description 管理员可以创建新用户，用户名和密码遵循与注册相同的校验规则
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param request body AdminCreateUserRequest true "用户信息"
// @Success 200 {object} map[string]interface{} "创建成功"
// @Failure 400 {object} map[string]interface{} "参数错误或用户名已存在"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}
	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return
	}

	var req AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	if err := ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var existing models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "用户名已存在"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "密码加密失败"})
		return
	}

	user := models.User{
		Username: req.Username,
		FullName: strings.TrimSpace(req.FullName),
		Password: string(hashedPassword),
		IsAdmin:  req.IsAdmin,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "创建失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "用户创建成功",
		"data":    user,
	})
}

// UpdateUsernameRequest 更新用户名请求
type UpdateUsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// UpdateUsername 修改用户名（仅管理员）
// @Summary 修改用户名
// @Description 管理员可以修改指定用户的用户名，新用户名需符合格式要求且未被占用
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body UpdateUsernameRequest true "新用户名"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "参数错误或用户名已存在"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/username [put]
func (h *AdminHandler) UpdateUsername(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}
	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return
	}

	userIDStr := c.Param("id")
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	var req UpdateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	if err := ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var other models.User
	if err := database.DB.Where("username = ? AND id != ?", req.Username, userID).First(&other).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "用户名已存在"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	user.Username = req.Username
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "用户名更新成功",
		"data":    user,
	})
}

// UpdateFullNameRequest 更新显示名称请求
type UpdateFullNameRequest struct {
	FullName string `json:"full_name"`
}

// UpdateFullName 修改用户显示名称（仅管理员）
// @Summary 修改用户显示名称
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body UpdateFullNameRequest true "新显示名称"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/full-name [put]
func (h *AdminHandler) UpdateFullName(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}
	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return
	}

	userIDStr := c.Param("id")
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	var req UpdateFullNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "参数错误"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	user.FullName = strings.TrimSpace(req.FullName)
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "显示名称更新成功",
		"data":    user,
	})
}

// UpdateUserPasswordRequest 更新用户密码请求
type UpdateUserPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateUserPassword 更新用户密码（仅管理员）
// @Summary 更新用户密码
// @Description 管理员可以重置指定用户的密码，新密码遵循与注册相同的强度要求
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body UpdateUserPasswordRequest true "新密码"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/password [put]
func (h *AdminHandler) UpdateUserPassword(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return
	}

	userIDStr := c.Param("id")
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	var req UpdateUserPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	if err := ValidatePassword(req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "密码加密失败"})
		return
	}

	user.Password = string(hashedPassword)
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "密码更新成功",
	})
}

// SetAdminRequest 设置管理员权限请求
type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// SetAdmin 设置用户管理员权限（仅管理员）
// @Summary 设置管理员权限
// @Description 管理员可以设置或取消其他用户的管理员权限，不能取消自己的管理员权限
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body SetAdminRequest true "管理员权限设置"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "不能取消自己的管理员权限"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/admin [put]
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return
	}

	userIDStr := c.Param("id")
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	// 不能取消自己的管理员权限
	if uint(userID) == currentUser.ID && !req.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "不能取消自己的管理员权限"})
		return
	}

	user.IsAdmin = req.IsAdmin
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "权限更新成功",
		"data":    user,
	})
}

// DeleteUser 删除用户（仅管理员，软删除）
// @Summary 删除用户
// @Description 管理员可以删除用户（软删除），不能删除自己。该用户的消费记录保留，合并视图不再展示但仍可按ID查询。
// @Tags 后台管理-用户管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} map[string]interface{} "删除成功"
// @Failure 400 {object} map[string]interface{} "不能删除自己"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return
	}

	userIDStr := c.Param("id")
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	// 不能删除自己
	if uint(userID) == currentUser.ID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "不能删除自己的账号"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	// 只删除用户本身，消费记录不级联删除
	if err := database.DB.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "删除失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "用户删除成功",
	})
}

// GetAllExpenses 获取消费记录（管理员看全部，非管理员只看自己的）
// @Summary 获取消费记录列表
// @Description 获取消费记录列表，支持分页、日期范围、类别、用户名筛选。管理员可查看所有记录并可按用户ID筛选，非管理员只能查看自己的记录。
// @Tags 后台管理-消费记录
// @Produce json
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页数量，默认20"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category query string false "类别筛选"
// @Param username query string false "用户名筛选（模糊匹配）"
// @Param user_id query int false "用户ID筛选（仅管理员可用）"
// @Success 200 {object} map[string]interface{} "获取成功，返回分页数据"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/expenses [get]
func (h *AdminHandler) GetAllExpenses(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		fmt.Sscanf(p, "%d", &page)
	}
	if ps := c.Query("page_size"); ps != "" {
		fmt.Sscanf(ps, "%d", &pageSize)
	}

	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	category := c.Query("category")
	username := c.Query("username")
	userIDFilter := c.Query("user_id")

	query := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.username, users.full_name").
		Joins("LEFT JOIN users ON expenses.user_id = users.id")

	// 权限过滤：非管理员只能看自己的数据
	if !currentUser.IsAdmin {
		query = query.Where("expenses.user_id = ?", currentUser.ID)
	} else if userIDFilter != "" {
		if uid, err := strconv.ParseUint(userIDFilter, 10, 32); err == nil {
			query = query.Where("expenses.user_id = ?", uint(uid))
		}
	}

	if startDate != "" {
		query = query.Where("expenses.date >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("expenses.date <= ?", endDate)
	}
	if category != "" {
		query = query.Where("expenses.category = ?", category)
	}
	if username != "" {
		escaped := escapeLikeValue(username)
		query = query.Where("users.username LIKE ?", "%"+escaped+"%")
	}

	var total int64
	query.Count(&total)

	type ExpenseWithUser struct {
		models.Expense
		Username string `json:"username"`
		FullName string `json:"full_name"`
	}

	var expenses []ExpenseWithUser
	offset := (page - 1) * pageSize
	query.Order("expenses.date DESC, expenses.id DESC").Offset(offset).Limit(pageSize).Scan(&expenses)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
			"list":      expenses,
		},
	})
}

// AdminCreateExpenseRequest 管理员创建消费记录请求
type AdminCreateExpenseRequest struct {
	UserID   uint    `json:"user_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Purpose  string  `json:"purpose" binding:"required"`
	Category string  `json:"category" binding:"required"`
	Date     string  `json:"date" binding:"required"` // 格式: 2006-01-02
}

// CreateExpense 创建消费记录
// @Summary 创建消费记录
// @Description 创建一条新的消费记录。管理员可以为任何用户创建，非管理员只能为自己创建。
// @Tags 后台管理-消费记录
// @Accept json
// @Produce json
// @Param request body AdminCreateExpenseRequest true "消费记录信息"
// @Success 200 {object} map[string]interface{} "创建成功"
// @Failure 400 {object} map[string]interface{} "参数错误或类别不存在"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/expenses [post]
func (h *AdminHandler) CreateExpense(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	var req AdminCreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	// 权限检查：非管理员只能为自己创建记录
	if !currentUser.IsAdmin && req.UserID != currentUser.ID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足，只能为自己创建记录"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	date, err := parseExpenseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "日期格式错误，应为: 2006-01-02"})
		return
	}

	if !models.IsValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的消费类别"})
		return
	}

	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.Purpose == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "用途不能为空"})
		return
	}

	expense := models.Expense{
		UserID:   req.UserID,
		Amount:   req.Amount,
		Purpose:  req.Purpose,
		Category: req.Category,
		Date:     date,
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "创建失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "创建成功",
		"data":    expense,
	})
}

// AdminUpdateExpenseRequest 管理员更新消费记录请求
type AdminUpdateExpenseRequest struct {
	Amount   float64 `json:"amount" binding:"omitempty,gt=0"`
	Purpose  string  `json:"purpose"`
	Category string  `json:"category"`
	Date     string  `json:"date"` // 格式: 2006-01-02
}

// UpdateExpense 更新消费记录
// @Summary 更新消费记录
// @Description 更新指定的消费记录。管理员可以更新任何记录，非管理员只能更新自己的记录。
// @Tags 后台管理-消费记录
// @Accept json
// @Produce json
// @Param id path int true "消费记录ID"
// @Param request body AdminUpdateExpenseRequest true "更新的消费记录信息"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "参数错误或类别不存在"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "记录不存在"
// @Router /admin/expenses/{id} [put]
func (h *AdminHandler) UpdateExpense(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	idStr := c.Param("id")
	var id uint
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的ID"})
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "记录不存在"})
		return
	}

	// 权限检查：非管理员只能修改自己的记录
	if !currentUser.IsAdmin && expense.UserID != currentUser.ID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足，只能修改自己的记录"})
		return
	}

	var req AdminUpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	updates := make(map[string]interface{})
	if req.Amount > 0 {
		updates["amount"] = req.Amount
	}
	if req.Purpose != "" {
		updates["purpose"] = strings.TrimSpace(req.Purpose)
	}
	if req.Category != "" {
		if !models.IsValidCategory(req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的消费类别"})
			return
		}
		updates["category"] = req.Category
	}
	if req.Date != "" {
		date, err := parseExpenseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "日期格式错误，应为: 2006-01-02"})
			return
		}
		updates["date"] = date
	}

	if err := database.DB.Model(&expense).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	database.DB.First(&expense, expense.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "更新成功",
		"data":    expense,
	})
}

// DeleteExpense 删除消费记录
// @Summary 删除消费记录
// @Description 删除指定的消费记录（软删除）。管理员可以删除任何记录，非管理员只能删除自己的记录。
// @Tags 后台管理-消费记录
// @Produce json
// @Param id path int true "消费记录ID"
// @Success 200 {object} map[string]interface{} "删除成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "记录不存在"
// @Router /admin/expenses/{id} [delete]
func (h *AdminHandler) DeleteExpense(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	idStr := c.Param("id")
	var id uint
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的ID"})
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "记录不存在"})
		return
	}

	// 权限检查：非管理员只能删除自己的记录
	if !currentUser.IsAdmin && expense.UserID != currentUser.ID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足，只能删除自己的记录"})
		return
	}

	if err := database.DB.Delete(&expense).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "删除失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "删除成功",
	})
}

// GetStatistics 获取消费统计（后台）
// @Summary 获取消费统计
// @Description 获取消费统计数据。管理员可查看所有用户的统计，非管理员只能查看自己的。
// @Tags 后台管理-统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} map[string]interface{} "获取成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/statistics [get]
func (h *AdminHandler) GetStatistics(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	buildQuery := func() *gorm.DB {
		q := database.DB.Model(&models.Expense{})
		if !currentUser.IsAdmin {
			q = q.Where("user_id = ?", currentUser.ID)
		}
		if startDate != "" {
			q = q.Where("date >= ?", startDate)
		}
		if endDate != "" {
			q = q.Where("date <= ?", endDate)
		}
		return q
	}

	var totalAmount float64
	var totalCount int64
	buildQuery().Select("COALESCE(SUM(amount), 0)").Scan(&totalAmount)
	buildQuery().Count(&totalCount)

	var categoryStats []CategoryStat
	buildQuery().
		Select("category, SUM(amount) as total, COUNT(*) as count").
		Group("category").
		Order("total DESC").
		Scan(&categoryStats)

	// 用户数量（仅管理员可见）
	var userCount int64
	if currentUser.IsAdmin {
		database.DB.Model(&models.User{}).Count(&userCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_amount":   totalAmount,
			"total_count":    totalCount,
			"user_count":     userCount,
			"category_stats": categoryStats,
		},
	})
}

// ExportExcel 导出 Excel
// @Summary 导出消费记录为Excel
// @Description 根据日期范围导出消费记录为Excel文件。管理员可导出所有用户数据，普通用户只能导出自己的数据。
// @Tags 后台管理-导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel文件"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/export/excel [get]
func (h *AdminHandler) ExportExcel(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	if startDate == "" || endDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请提供开始日期和结束日期"})
		return
	}
	if _, err := time.Parse(models.DateLayout, startDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "开始日期格式错误"})
		return
	}
	if _, err := time.Parse(models.DateLayout, endDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "结束日期格式错误"})
		return
	}

	type ExpenseWithUser struct {
		models.Expense
		Username string
	}

	var expenses []ExpenseWithUser
	query := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.username").
		Joins("LEFT JOIN users ON expenses.user_id = users.id").
		Where("expenses.date >= ? AND expenses.date <= ?", startDate, endDate)

	// 如果不是管理员，只导出当前用户的数据
	if !currentUser.IsAdmin {
		query = query.Where("expenses.user_id = ?", currentUser.ID)
	}

	query.Order("expenses.date DESC, expenses.id DESC").Scan(&expenses)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "消费记录"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 15)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 30)
	f.SetColWidth(sheetName, "E", "E", 20)
	f.SetColWidth(sheetName, "F", "F", 14)

	headers := []string{"ID", "用户名", "金额", "用途", "类别", "日期"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var totalAmount float64
	for i, expense := range expenses {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), expense.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), expense.Username)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), expense.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), expense.Purpose)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), expense.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), expense.Date)

		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), dataStyle)
		totalAmount += expense.Amount
	}

	// 汇总行
	summaryRow := len(expenses) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow), totalAmount)
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(expenses)))
	f.MergeCell(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("F%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("F%d", summaryRow), summaryStyle)

	filename := fmt.Sprintf("消费记录_%s_%s.xlsx", startDate, endDate)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "生成 Excel 失败"})
		return
	}
}
