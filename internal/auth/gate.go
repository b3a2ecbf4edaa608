package auth

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gateway/internal/apperr"
)

const notAuthorizedMessage = "Not authorized!"

// RequireLogin は個別ルートに付ける保護ゲートです。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authorize(c) {
			apperr.Abort(c, apperr.New(apperr.KindUnauthorized, notAuthorizedMessage))
			return
		}
		c.Next()
	}
}

// RestrictPrefix は全リクエストに掛けるゲートです。
// パスが prefix で始まる場合だけ認証を要求し、それ以外は素通しします。
//
// RequireLogin とは独立しているため、prefix 外で RequireLogin も付いていない
// ルートは誰でも呼び出せます。
func (m *Manager) RestrictPrefix(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}
		if !authorize(c) {
			apperr.Abort(c, apperr.New(apperr.KindUnauthorized, notAuthorizedMessage))
			return
		}
		c.Next()
	}
}

func authorize(c *gin.Context) bool {
	user, ok := IsAuthenticated(sessions.Default(c))
	if !ok {
		return false
	}
	c.Set(ContextUserKey, user)
	return true
}
