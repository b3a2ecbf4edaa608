package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	userSeqKey    = "users:seq"
	userByNameKey = "users:byname"
	userIDsKey    = "users:ids"
	userKeyPrefix = "user:"
)

// RedisStore は Redis にユーザーを保存します。
// ユーザー名の一意性は users:byname への HSETNX で保証します。
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) AddNewUser(ctx context.Context, cred Credential) ([]int64, error) {
	id, err := s.rdb.Incr(ctx, userSeqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis incr failed: %w", err)
	}

	claimed, err := s.rdb.HSetNX(ctx, userByNameKey, cred.Username, id).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hsetnx failed: %w", err)
	}
	if !claimed {
		return nil, ErrUsernameTaken
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey(id), map[string]any{
			"id":       id,
			"username": cred.Username,
			"password": cred.Password,
		})
		pipe.ZAdd(ctx, userIDsKey, redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		// 名前の予約だけが残らないように戻す
		s.rdb.HDel(context.WithoutCancel(ctx), userByNameKey, cred.Username)
		return nil, fmt.Errorf("redis save user failed: %w", err)
	}
	return []int64{id}, nil
}

func (s *RedisStore) AuthUser(ctx context.Context, username string) (*User, error) {
	rawID, err := s.rdb.HGet(ctx, userByNameKey, username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", rawID, err)
	}

	fields, err := s.rdb.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	// 登録途中（名前だけ予約済み）のユーザーは存在しないものとして扱う
	if len(fields) == 0 {
		return nil, nil
	}
	return &User{
		ID:       id,
		Username: fields["username"],
		Password: fields["password"],
	}, nil
}

func (s *RedisStore) Find(ctx context.Context) ([]Summary, error) {
	ids, err := s.rdb.ZRange(ctx, userIDsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange failed: %w", err)
	}

	cmds := make([]*redis.StringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, raw := range ids {
			cmds[i] = pipe.HGet(ctx, userKeyPrefix+raw, "username")
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipeline failed: %w", err)
	}

	list := make([]Summary, 0, len(ids))
	for i, raw := range ids {
		username, err := cmds[i].Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis hget failed: %w", err)
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt user id %q: %w", raw, err)
		}
		list = append(list, Summary{ID: id, Username: username})
	}
	return list, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func userKey(id int64) string {
	return userKeyPrefix + strconv.FormatInt(id, 10)
}
