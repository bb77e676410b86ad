// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"story-loop-api/pkg/logger"
	"story-loop-api/pkg/utils"
)

// UserIDHeader 匿名模式下用于区分会话所有者的请求头
const UserIDHeader = "X-User-ID"

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
	// SkipPaths 跳过认证的路径前缀
	SkipPaths []string
	// Enabled 是否启用认证
	Enabled bool
}

// Auth 认证中间件
// 未启用时从 X-User-ID 读取所有者（可为空），启用时要求 Bearer access token。
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			setUser(c, strings.TrimSpace(c.GetHeader(UserIDHeader)))
			c.Next()
			return
		}

		for _, path := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := jwtManager.ParseToken(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, utils.ErrExpiredToken) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}
		if claims.Type != utils.TokenTypeAccess {
			abortUnauthorized(c, "invalid token type")
			return
		}

		setUser(c, claims.UserID)
		c.Next()
	}
}

func setUser(c *gin.Context, userID string) {
	if userID == "" {
		return
	}
	c.Set("user_id", userID)
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.UserIDKey, userID))
}

// abortUnauthorized 终止请求并返回 401
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":     http.StatusUnauthorized,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}
