package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"healthbot/internal/pkg/ctxutil"
	httputil "healthbot/internal/pkg/http"
	"healthbot/internal/pkg/jwt"
)

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入 user_id / paid 到 context
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Fail(c, http.StatusUnauthorized, 40101, "Unauthorized")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.Fail(c, http.StatusUnauthorized, 40101, "Invalid authorization header")
			return
		}

		claims, err := jwtUtil.ValidateToken(parts[1])
		if err != nil {
			code := 40102
			if errors.Is(err, jwt.ErrExpiredToken) {
				code = 40103
			}
			httputil.Fail(c, http.StatusUnauthorized, code, "Invalid or expired token")
			return
		}

		c.Request = c.Request.WithContext(ctxutil.WithUser(c.Request.Context(), claims.UserID, claims.Paid))
		c.Next()
	}
}

// QueryIdentity 未配置 JWT 时使用，从 user_id / is_paid 查询参数读取身份
func QueryIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			httputil.Fail(c, http.StatusBadRequest, 40001, "user_id is required")
			return
		}

		paid := false
		if raw := c.Query("is_paid"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				httputil.Fail(c, http.StatusBadRequest, 40001, "is_paid must be a boolean", err.Error())
				return
			}
			paid = v
		}

		c.Request = c.Request.WithContext(ctxutil.WithUser(c.Request.Context(), userID, paid))
		c.Next()
	}
}
