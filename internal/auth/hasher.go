package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードの一方向ハッシュと照合を行います。
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// bcrypt が鍵として使うのは先頭 72 バイトまで
const bcryptMaxPasswordBytes = 72

// BcryptHasher は bcrypt による Hasher です。
// 72 バイトを超えるパスワードは先頭 72 バイトに切り詰めてから扱います。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は指定コストの BcryptHasher を作成します。
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password)) == nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxPasswordBytes {
		b = b[:bcryptMaxPasswordBytes]
	}
	return b
}
