package controller

import (
	"context"
	"net/http"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewHealthController rdb 为空时不检查 Redis
func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// @Summary 健康检查
// @Description 检查当前租户数据库与 Redis 状态
// @Tags 系统
// @Produce json
// @Param X-Tenant-ID header string false "租户"
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthTimeout)
	defer cancel()

	components := gin.H{"database": c.pingDatabase(reqCtx)}
	if c.Redis != nil {
		components["redis"] = status(c.Redis.Ping(reqCtx).Err())
	}

	var down []string
	for name, state := range components {
		if state != "up" {
			down = append(down, name)
		}
	}
	if len(down) > 0 {
		sort.Strings(down)
		util.Error(ctx, http.StatusServiceUnavailable, "Service unavailable", down...)
		return
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"tenant":     service.TenantFromContext(reqCtx),
		"components": components,
	})
}

// pingDatabase 检查本次请求路由到的库
func (c *HealthController) pingDatabase(ctx context.Context) string {
	sqlDB, err := database.FromContext(ctx, c.DB).DB()
	if err != nil {
		return "down"
	}
	return status(sqlDB.PingContext(ctx))
}

func status(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}
