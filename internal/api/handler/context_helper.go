package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/api/middleware"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// MustGetUserID 提取 JWTAuth 注入的 user_id；缺失时写入 401，调用方在 ok=false 时直接 return
func MustGetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		response.Unauthorized(c, response.CodeUnauthenticated, "未认证")
		return "", false
	}
	return userID, true
}

// GetTokenInfo 当前 Access Token 的 jti 与过期时间，登出时写黑名单用
func GetTokenInfo(c *gin.Context) (jti string, exp time.Time) {
	jti = c.GetString(middleware.CtxTokenJTI)
	if v, ok := c.Get(middleware.CtxTokenExp); ok {
		exp, _ = v.(time.Time)
	}
	return jti, exp
}

// PathID 读取路径中的 UUID 参数并规范化；格式非法时写入 400，避免非法值落到数据库层
func PathID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.InvalidParams(c, "ID 格式无效")
		return "", false
	}
	return id.String(), true
}
