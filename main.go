// @title 问卷管理后端 API
// @version 1.0
// @description 表单设计、条件规则、作答计分与导出服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"path/filepath"
	"questionnaire_backend/internal/app"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// 命令行参数
	configFile := flag.String("config", "configs/config.yaml", "配置文件路径")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	adminEmail := flag.String("admin-email", "", "初始管理员邮箱，账号不存在时创建")
	adminPassword := flag.String("admin-password", "", "初始管理员密码")
	flag.Parse()

	// .env 不存在时忽略
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}

	cfg, err := config.LoadConfig(filepath.Dir(*configFile))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg, *configFile)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	if *adminEmail != "" {
		if err := application.EnsureAdmin(*adminEmail, *adminPassword); err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
	}

	application.Run()
}
