package middleware

import (
	"fmt"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TenantResolver interface {
	Resolve(tenantID string) (*gorm.DB, bool, error)
}

// Tenant 按 X-Tenant-ID 选择数据库，未带请求头时使用默认库
func Tenant(registry TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(util.HeaderTenantID))
		db, ok, err := registry.Resolve(tenantID)
		if err != nil {
			c.Error(fmt.Errorf("open tenant %s: %w", tenantID, err))
			c.Abort()
			return
		}
		if !ok {
			c.Error(fmt.Errorf("%w: %s", util.ErrUnknownTenant, tenantID))
			c.Abort()
			return
		}

		ctx := database.WithDB(c.Request.Context(), db)
		if tenantID != "" {
			ctx = service.WithTenant(ctx, tenantID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
