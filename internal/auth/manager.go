// Package auth は認証・認可機能を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/auth-gateway/internal/apperr"
	"github.com/yourusername/auth-gateway/internal/config"
	"github.com/yourusername/auth-gateway/internal/users"
)

const (
	welcomeMessage    = "Welcome home. Country roads."
	badLoginMessage   = "You shall not pass!"
	loggedOutMessage  = "logged out"
	takenMessage      = "Username is already taken."
	badRequestMessage = "Send username and password as a JSON object."
)

// 認証イベントのラベル
const (
	EventRegister = "register"
	EventLogin    = "login"
	EventLogout   = "logout"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// EventRecorder は認証イベントの結果を記録します。
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// CredentialStore は認証で使うユーザーストアの操作です。
type CredentialStore interface {
	AddNewUser(ctx context.Context, cred users.Credential) ([]int64, error)
	AuthUser(ctx context.Context, username string) (*users.User, error)
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	cfg      *config.Config
	store    CredentialStore
	hasher   Hasher
	recorder EventRecorder
}

// NewManager は認証マネージャーを作成します。recorder は nil でも構いません。
func NewManager(cfg *config.Config, store CredentialStore, hasher Hasher, recorder EventRecorder) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		hasher:   hasher,
		recorder: recorder,
	}
}

// 形や強度の検証はしない。空文字列もそのまま受け付ける。
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register は /api/register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		m.record(EventRegister, OutcomeFailure)
		apperr.Abort(c, apperr.New(apperr.KindBadRequest, badRequestMessage))
		return
	}

	hash, err := m.hasher.Hash(req.Password)
	if err != nil {
		m.record(EventRegister, OutcomeError)
		apperr.Abort(c, apperr.Internal(fmt.Errorf("hash password: %w", err)))
		return
	}

	ids, err := m.store.AddNewUser(c.Request.Context(), users.Credential{
		Username: req.Username,
		Password: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			m.record(EventRegister, OutcomeFailure)
			apperr.Abort(c, &apperr.Error{Kind: apperr.KindConflict, Detail: takenMessage, Err: err})
			return
		}
		m.record(EventRegister, OutcomeError)
		apperr.Abort(c, apperr.Internal(fmt.Errorf("add user: %w", err)))
		return
	}
	if len(ids) == 0 {
		m.record(EventRegister, OutcomeError)
		apperr.Abort(c, apperr.Internal(errors.New("add user: store returned no id")))
		return
	}

	// ストアが正規化した名前ではなく、送られてきた名前をそのまま使う
	session := sessions.Default(c)
	session.Set(sessionKeyUser, req.Username)
	if err := session.Save(); err != nil {
		m.record(EventRegister, OutcomeError)
		apperr.Abort(c, apperr.Internal(fmt.Errorf("save session: %w", err)))
		return
	}

	m.record(EventRegister, OutcomeSuccess)
	c.JSON(http.StatusCreated, gin.H{"newUserId": ids[0]})
}

// Login は /api/login のハンドラーです。
// 失敗時はセッションに触れません。
func (m *Manager) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		m.record(EventLogin, OutcomeFailure)
		apperr.Abort(c, apperr.New(apperr.KindBadRequest, badRequestMessage))
		return
	}

	user, err := m.store.AuthUser(c.Request.Context(), req.Username)
	if err != nil {
		m.record(EventLogin, OutcomeError)
		apperr.Abort(c, apperr.Internal(fmt.Errorf("look up user: %w", err)))
		return
	}
	if user == nil || !m.hasher.Compare(user.Password, req.Password) {
		m.record(EventLogin, OutcomeFailure)
		apperr.Abort(c, apperr.New(apperr.KindUnauthorized, badLoginMessage))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyUser, user.Username)
	if err := session.Save(); err != nil {
		m.record(EventLogin, OutcomeError)
		apperr.Abort(c, apperr.Internal(fmt.Errorf("save session: %w", err)))
		return
	}

	m.record(EventLogin, OutcomeSuccess)
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

// Logout は /api/logout のハンドラーです。
// セッションが無い場合も 200 を返します。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if hasSession(c, session) {
		session.Clear()
		opts := SessionOptions(m.cfg)
		opts.MaxAge = -1
		session.Options(opts)
		if err := session.Save(); err != nil {
			m.record(EventLogout, OutcomeError)
			apperr.Abort(c, apperr.Internal(fmt.Errorf("destroy session: %w", err)))
			return
		}
	}

	m.record(EventLogout, OutcomeSuccess)
	c.JSON(http.StatusOK, gin.H{"message": loggedOutMessage})
}

func hasSession(c *gin.Context, session sessions.Session) bool {
	if _, ok := IsAuthenticated(session); ok {
		return true
	}
	_, err := c.Cookie(SessionCookieName)
	return err == nil
}

func (m *Manager) record(event, outcome string) {
	if m.recorder != nil {
		m.recorder.RecordAuthEvent(event, outcome)
	}
}
