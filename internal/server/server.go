// Package server は gin エンジンの組み立てとルーティングを行います。
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/auth-gateway/internal/apperr"
	"github.com/yourusername/auth-gateway/internal/auth"
	"github.com/yourusername/auth-gateway/internal/config"
	"github.com/yourusername/auth-gateway/internal/observability"
	"github.com/yourusername/auth-gateway/internal/users"
)

const (
	serviceName    = "auth-gateway"
	serviceVersion = "0.1.0"
	healthTimeout  = 2 * time.Second
)

// Deps はルーターの組み立てに必要な依存関係です。
type Deps struct {
	Config       *config.Config
	Store        users.Store
	Hasher       auth.Hasher
	SessionStore sessions.Store
	Logger       logrus.FieldLogger
	Metrics      *observability.Metrics
}

// NewRouter はミドルウェアとルートを登録した gin エンジンを返します。
//
// ミドルウェアの順序:
// リクエストID → アクセスログ → メトリクス → エラー集約 → panic 回復 → セキュリティヘッダー → CORS → セッション → 制限プレフィックスゲート
// エラー集約は後続すべてを包むため、どの失敗もここで一度だけレスポンスになります。
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Config == nil || d.Store == nil || d.Hasher == nil || d.SessionStore == nil || d.Logger == nil {
		return nil, fmt.Errorf("server: missing dependency")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.RequestID())
	router.Use(observability.AccessLog(d.Logger))
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
	}
	router.Use(apperr.Funnel(d.Logger))
	router.Use(apperr.Recovery())
	router.Use(SecurityHeaders(d.Config.GinMode == gin.ReleaseMode))
	router.Use(cors.New(corsConfig(d.Config)))
	router.Use(sessions.Sessions(auth.SessionCookieName, d.SessionStore))

	authManager := auth.NewManager(d.Config, d.Store, d.Hasher, recorderFor(d.Metrics))
	router.Use(authManager.RestrictPrefix(d.Config.RestrictedPrefix))

	setupRoutes(router, d, authManager)
	return router, nil
}

func setupRoutes(router *gin.Engine, d Deps, authManager *auth.Manager) {
	router.GET("/health", healthHandler(d.Store))
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	listUsers := users.ListHandler(d.Store)

	api := router.Group("/api")
	{
		api.POST("/register", authManager.Register)
		api.POST("/login", authManager.Login)
		api.GET("/logout", authManager.Logout)

		// 個別ルートの保護ゲート
		api.GET("/users", authManager.RequireLogin(), listUsers)
	}

	// d.Config.RestrictedPrefix 配下はグローバルゲートで保護される
	restricted := router.Group(d.Config.RestrictedPrefix)
	{
		restricted.GET("/users", listUsers)
	}

	router.NoRoute(apperr.NotFound)
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// 任意のオリジンを許可しつつクッキーを送れるようにする
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		corsCfg.AllowOrigins = origins
	}
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		observability.RequestIDHeader,
	}
	corsCfg.ExposeHeaders = []string{observability.RequestIDHeader}
	return corsCfg
}

func recorderFor(m *observability.Metrics) auth.EventRecorder {
	if m == nil {
		return nil
	}
	return m
}

func healthHandler(store users.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			apperr.Abort(c, &apperr.Error{
				Kind:   apperr.KindUnavailable,
				Detail: "user store is unreachable",
				Err:    err,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	}
}
