// Package users はユーザー資格情報の永続化と一覧APIを提供します。
package users

import (
	"context"
	"errors"
)

// ErrUsernameTaken はユーザー名が既に登録済みの場合に返されます。
var ErrUsernameTaken = errors.New("username already taken")

// Credential は登録時に保存する資格情報です。Password はハッシュ済みの値を入れます。
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User はストアに保存されたユーザーです。
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Summary は一覧APIで返す公開情報です（パスワードハッシュを含まない）。
type Summary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Store はユーザー資格情報の保存先です。
// ユーザー名の一意性は実装側が保証します。
type Store interface {
	// AddNewUser はユーザーを追加し、採番されたIDを返します。
	AddNewUser(ctx context.Context, cred Credential) ([]int64, error)
	// AuthUser はユーザー名で検索します。見つからない場合は nil, nil を返します。
	AuthUser(ctx context.Context, username string) (*User, error)
	// Find は全ユーザーをID順で返します。
	Find(ctx context.Context) ([]Summary, error)
	Ping(ctx context.Context) error
	Close() error
}
