package models

import (
	"time"

	"gorm.io/gorm"
)

// DateLayout 消费日期格式（只记日历日期，不含时间）
const DateLayout = "2006-01-02"

// Expense 消费记录模型
// Date 以 YYYY-MM-DD 文本存储；user_id 只是查找键，不做外键级联，
// 用户删除后记录保留（user_id 悬空）。
type Expense struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Amount    float64        `json:"amount" gorm:"type:decimal(10,2);not null"`
	Purpose   string         `json:"purpose" gorm:"size:255;not null"`
	Category  string         `json:"category" gorm:"size:50;not null"`
	Date      string         `json:"date" gorm:"size:10;not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}
