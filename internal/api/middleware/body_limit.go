package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bonus-wheel/pkg/response"
)

// CodeBodyTooLarge 请求体超限业务码
const CodeBodyTooLarge = 10005

// BodyLimit 请求体大小限制
// 声明的 Content-Length 超限时直接返回 413；未声明长度时由 MaxBytesReader 在读取时截断，
// 处理器通过 IsBodyTooLarge 识别并返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			AbortBodyTooLarge(c)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// IsBodyTooLarge 判断绑定错误是否由请求体超限引起
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// AbortBodyTooLarge 返回 413 并终止请求
func AbortBodyTooLarge(c *gin.Context) {
	response.Error(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "请求体过大")
	c.Abort()
}
