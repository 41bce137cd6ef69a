package models

import (
	"time"

	"gorm.io/gorm"
)

// AIInsight AI消费洞察历史（单次分析的完整输出）
type AIInsight struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	AIModelID uint           `json:"ai_model_id" gorm:"index;not null"`
	UserID    uint           `json:"user_id" gorm:"index;default:0"`     // 发起分析的用户ID，0 表示后台全局分析
	StartDate string         `json:"start_date" gorm:"size:10;not null"` // YYYY-MM-DD
	EndDate   string         `json:"end_date" gorm:"size:10;not null"`   // YYYY-MM-DD
	Result    string         `json:"result" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	AIModel AIModel `json:"-" gorm:"foreignKey:AIModelID"`
}

// TableName 设置表名
func (AIInsight) TableName() string {
	return "ai_insights"
}
