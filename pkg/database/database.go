package database

import (
	"fmt"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/model"
	applog "questionnaire_backend/pkg/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector 按 driver 构造 gorm 方言
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode,
		)
		// 使用 lib/pq 注册的 postgres 驱动
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logMode := logger.Warn
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	applog.Log.Info("Database connection established", zap.String("driver", cfg.Driver), zap.String("db", cfg.DBName))
	return db, nil
}

// Migrate 建表并写入默认主数据
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return err
	}

	applog.Log.Info("Database migration completed")

	// 默认时区
	var count int64
	db.Model(&model.MasterTimeZone{}).Count(&count)
	if count == 0 {
		defaults := []model.MasterTimeZone{
			{Code: "UTC", IANAName: "UTC", DisplayName: "Coordinated Universal Time"},
			{Code: "EST", IANAName: "America/New_York", DisplayName: "Eastern Time (US & Canada)"},
			{Code: "CST", IANAName: "America/Chicago", DisplayName: "Central Time (US & Canada)"},
			{Code: "PST", IANAName: "America/Los_Angeles", DisplayName: "Pacific Time (US & Canada)"},
			{Code: "GMT", IANAName: "Europe/London", DisplayName: "London"},
			{Code: "CET", IANAName: "Europe/Berlin", DisplayName: "Central European Time"},
			{Code: "IST", IANAName: "Asia/Kolkata", DisplayName: "India Standard Time"},
			{Code: "CST-CN", IANAName: "Asia/Shanghai", DisplayName: "China Standard Time"},
			{Code: "AEST", IANAName: "Australia/Sydney", DisplayName: "Australian Eastern Time"},
		}
		if err := db.Create(&defaults).Error; err != nil {
			return err
		}
	}

	return nil
}
