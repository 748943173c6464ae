package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/jwt"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// gin.Context 中的认证信息键
const (
	CtxUserID   = "user_id"
	CtxUserType = "user_type"
	CtxIsAdmin  = "is_admin"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp" // time.Time
)

// TokenBlacklist 已吊销 jti 的查询接口，*redis.Client 实现该接口
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

func abortUnauthenticated(c *gin.Context, message string) {
	response.Abort(c, http.StatusUnauthorized, response.CodeUnauthenticated, message)
}

func abortForbidden(c *gin.Context, message string) {
	response.Abort(c, http.StatusForbidden, response.CodeForbidden, message)
}

// bearerToken 解析 Authorization: Bearer <token>
func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// JWTAuth Access Token 认证中间件
// blacklist 为 nil 或查询出错时不拦截（Redis 不可用时登出的 Token 在过期前仍可用）
func JWTAuth(jwtMgr *jwt.Manager, blacklist TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortUnauthenticated(c, "缺少认证头")
			return
		}
		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthenticated(c, "认证头格式无效")
			return
		}

		claims, err := jwtMgr.ParseToken(raw)
		if err != nil {
			abortUnauthenticated(c, "Token 无效或已过期")
			return
		}
		if claims.TokenType != jwt.TokenTypeAccess {
			abortUnauthenticated(c, "Token 类型无效")
			return
		}

		if blacklist != nil {
			if revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && revoked {
				abortUnauthenticated(c, "Token 已失效，请重新登录")
				return
			}
		}

		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserType, claims.UserType)
		c.Set(CtxIsAdmin, claims.IsAdmin)
		c.Set(CtxTokenJTI, claims.ID)
		c.Set(CtxTokenExp, exp)

		c.Next()
	}
}

// RequireUserType 仅允许指定账号类型（vtuber / listener）
func RequireUserType(allowedTypes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxUserType)
		if !exists {
			abortUnauthenticated(c, "未认证")
			return
		}

		userType, _ := v.(string)
		for _, t := range allowedTypes {
			if userType == t {
				c.Next()
				return
			}
		}

		abortForbidden(c, "当前账号类型无权访问")
	}
}

// AdminOnly 仅依据 Token 中的 is_admin 声明做粗筛，service 层按最新数据再次校验
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxIsAdmin)
		if !exists {
			abortUnauthenticated(c, "未认证")
			return
		}

		if isAdmin, _ := v.(bool); !isAdmin {
			abortForbidden(c, "需要管理员权限")
			return
		}

		c.Next()
	}
}
