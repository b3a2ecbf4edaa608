package users

import (
	"context"
	"sync"
)

// MemoryStore はプロセス内メモリにユーザーを保持するストアです（開発・テスト用）。
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*User
	order  []*User
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]*User)}
}

func (s *MemoryStore) AddNewUser(ctx context.Context, cred Credential) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[cred.Username]; exists {
		return nil, ErrUsernameTaken
	}
	s.nextID++
	user := &User{ID: s.nextID, Username: cred.Username, Password: cred.Password}
	s.byName[user.Username] = user
	s.order = append(s.order, user)
	return []int64{user.ID}, nil
}

func (s *MemoryStore) AuthUser(ctx context.Context, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byName[username]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) Find(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Summary, len(s.order))
	for i, u := range s.order {
		list[i] = Summary{ID: u.ID, Username: u.Username}
	}
	return list, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}
