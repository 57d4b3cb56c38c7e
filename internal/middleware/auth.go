package middleware

import (
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 需挂在 Tenant 之后，令牌的租户必须与请求租户一致
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			c.Error(util.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			c.Error(util.ErrUnauthorized)
			c.Abort()
			return
		}

		tenantID := service.TenantFromContext(c.Request.Context())
		if !claims.AllowsTenant(tenantID) {
			logger.Log.Warn("Token used outside its tenant",
				zap.Uint("userId", claims.UserID),
				zap.String("tokenTenant", claims.TenantID),
				zap.String("requestTenant", tenantID),
			)
			c.Error(util.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// RoleMiddleware 管理员拥有全部权限
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			c.Error(util.ErrUnauthorized)
			c.Abort()
			return
		}

		hasRole := user.Role == model.Admin
		for _, role := range roles {
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			c.Error(util.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
