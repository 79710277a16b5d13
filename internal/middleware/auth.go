package middleware

import (
	"compliance_training_backend/internal/config"
	"compliance_training_backend/internal/util"
	"compliance_training_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}

// TryAuthMiddleware 有令牌且有效时写入上下文，否则直接放行
func TryAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
			if err != nil {
				logger.Log.Debug("ignoring invalid token", zap.String("path", c.FullPath()), zap.Error(err))
			} else {
				util.SetUserInContext(c, claims)
			}
		}
		c.Next()
	}
}

// SelfOrAdminMiddleware 只允许访问路径中本人的数据；管理员不受限制。
// auth.require_token 关闭时不做任何检查
func SelfOrAdminMiddleware(cfg *config.Config, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Auth.RequireToken {
			c.Next()
			return
		}

		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !claims.IsAdmin && claims.EmployeeID != c.Param(param) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !claims.IsAdmin {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
