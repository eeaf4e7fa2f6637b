package handler

import (
	"github.com/gin-gonic/gin"

	"bonus-wheel/internal/api/middleware"
	"bonus-wheel/pkg/response"
)

// OptionalUserID 读取 OptionalJWT 注入的 user_id；匿名请求返回 nil
func OptionalUserID(c *gin.Context) *string {
	uid := c.GetString(middleware.ContextUserID)
	if uid == "" {
		return nil
	}
	return &uid
}

// bindJSON 绑定请求体；请求体超限返回 413，其余绑定失败返回 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.AbortBodyTooLarge(c)
			return false
		}
		response.BadRequest(c, 10001, "参数校验失败")
		return false
	}
	return true
}
