package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey はリクエストIDを gin.Context に保存するキーです。
	RequestIDKey = "request_id"

	RequestIDHeader = "X-Request-Id"

	// UserKey は認証ゲートを通過したユーザー名を保存するキーです。
	UserKey = "auth.user"
)

// RequestID は受け取った X-Request-Id を引き継ぎ、無ければ採番します。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
