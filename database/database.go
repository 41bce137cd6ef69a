package database

import (
	"fmt"
	"log"

	"expensetracker/config"
	"expensetracker/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// SQLite 单写者，限制连接数避免 SQLITE_BUSY
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	// 自动迁移数据库表
	// 注意：expenses.user_id 不声明外键级联，用户删除后消费记录保留
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Expense{},
		&models.AIModel{},
		&models.AIInsight{},
	); err != nil {
		return err
	}

	// 初始化预置用户（仅当用户表为空且开启 seed 时）
	if err := seedUsers(cfg); err != nil {
		return err
	}

	log.Println("数据库初始化成功")
	return nil
}

// seedUsers 创建配置中的预置账号
func seedUsers(cfg *config.Config) error {
	if !cfg.Seed.Enabled || len(cfg.Seed.Users) == 0 {
		return nil
	}

	var count int64
	DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return nil
	}

	for _, su := range cfg.Seed.Users {
		if su.Username == "" || su.Password == "" {
			continue
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("预置用户 %s 密码加密失败: %w", su.Username, err)
		}
		user := models.User{
			Username: su.Username,
			Password: string(hashed),
			FullName: su.FullName,
			IsAdmin:  su.IsAdmin,
		}
		if err := DB.Create(&user).Error; err != nil {
			// 单个预置用户失败不阻断启动
			log.Printf("警告: 创建预置用户 %s 失败: %v", su.Username, err)
			continue
		}
		log.Printf("已创建预置用户: %s", su.Username)
	}
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
