// Package apperr はハンドラーの失敗を種別付きエラーとして集約し、
// 単一のミドルウェアで HTTP レスポンスへ変換する仕組みを提供します。
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/auth-gateway/internal/observability"
)

// Kind はエラーの種別タグです。
type Kind string

const (
	KindBadRequest   Kind = "h400"
	KindUnauthorized Kind = "h401"
	KindNotFound     Kind = "h404"
	KindConflict     Kind = "h409"
	KindInternal     Kind = "h500"
	KindUnavailable  Kind = "h503"
)

var kindStatus = map[Kind]int{
	KindBadRequest:   http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindInternal:     http.StatusInternalServerError,
	KindUnavailable:  http.StatusServiceUnavailable,
}

const internalMessage = "Internal server error."

// Status は種別に対応する HTTP ステータスを返します。未知の種別は 500 です。
func (k Kind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error はハンドラーチェーンを流れる種別付きエラーです。
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New は詳細メッセージ付きのエラーを作成します。
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Internal は下位コンポーネントの失敗を h500 として包みます。
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Detail: internalMessage, Err: err}
}

// Abort はエラーを記録してチェーンを打ち切ります。
// レスポンスの書き込みは Funnel に任せます。
func Abort(c *gin.Context, err *Error) {
	_ = c.Error(err)
	c.Abort()
}

// Funnel は全ハンドラーを包むミドルウェアです。
// チェーン終了後に記録された最後のエラーを一度だけレスポンスへ変換します。
func Funnel(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		var appErr *Error
		if !errors.As(last.Err, &appErr) {
			appErr = Internal(last.Err)
		}

		entry := logger.WithFields(logrus.Fields{
			"kind":       appErr.Kind,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(observability.RequestIDKey),
		})

		if c.Writer.Written() {
			entry.WithError(last.Err).Warn("error recorded after response was written")
			return
		}

		status := appErr.Kind.Status()
		message := appErr.Detail
		if status >= http.StatusInternalServerError {
			entry.WithError(appErr.Err).Error("request failed")
			if message == "" || appErr.Kind == KindInternal {
				message = internalMessage
			}
		} else {
			entry.Info(appErr.Detail)
		}

		c.JSON(status, gin.H{
			"code":    appErr.Kind,
			"message": message,
		})
	}
}

// Recovery は後続で起きた panic を h500 として記録します。
// Funnel の内側に登録すると、panic も他の失敗と同じ形のレスポンスになります。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		Abort(c, Internal(fmt.Errorf("panic: %v", recovered)))
	})
}

// NotFound はどのルートにも一致しなかったリクエストを h404 にします。
func NotFound(c *gin.Context) {
	Abort(c, New(KindNotFound, fmt.Sprintf("The requested path '%s' doesn't exist.", c.Request.URL.RequestURI())))
}
