package users

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gateway/internal/apperr"
)

// Lister はユーザー一覧を返せるストアが実装します。
type Lister interface {
	Find(ctx context.Context) ([]Summary, error)
}

// ListHandler は GET /api/users 系のハンドラーを返します。
// 認可はルート側のミドルウェアに任せます。
func ListHandler(store Lister) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := store.Find(c.Request.Context())
		if err != nil {
			apperr.Abort(c, apperr.Internal(fmt.Errorf("list users: %w", err)))
			return
		}
		if list == nil {
			list = []Summary{}
		}
		c.JSON(http.StatusOK, list)
	}
}
