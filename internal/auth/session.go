package auth

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gateway/internal/config"
	"github.com/yourusername/auth-gateway/internal/observability"
)

const (
	SessionCookieName = "ag_session"
	sessionKeyUser    = "username"
)

// ContextUserKey は、ハンドラー間でログイン済みユーザー名を共有するためのキーです。
const ContextUserKey = observability.UserKey

// SessionOptions はセッションクッキーの属性を返します。
func SessionOptions(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeSeconds,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewSessionStore は設定に応じたセッションストアを作成します。
// memory はサーバー側に値を持つため、ログアウト後に古いクッキーを再送されても復活しません。
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		store = memstore.NewStore([]byte(cfg.SessionSecret))
	case config.SessionStoreCookie:
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.SessionStore)
	}
	store.Options(SessionOptions(cfg))
	return store, nil
}

// IsAuthenticated はセッションにユーザー名が入っているかを判定します。
// 保護ゲートと制限プレフィックスゲートはどちらもこの判定を使います。
func IsAuthenticated(session sessions.Session) (string, bool) {
	if session == nil {
		return "", false
	}
	user, ok := session.Get(sessionKeyUser).(string)
	if !ok || user == "" {
		return "", false
	}
	return user, true
}
