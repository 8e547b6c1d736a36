package service

import (
	"Chirper/internal/pkg/consts"
	"Chirper/internal/pkg/redis"
	"context"
	"time"

	"github.com/google/uuid"
)

// RunGuard 单次运行互斥：防止手动触发和定时触发并发执行各自发一条。
// 拿不到锁说明已有运行在途。
type RunGuard interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

type redisRunGuard struct {
	ttl time.Duration
}

func NewRedisRunGuard() RunGuard {
	return &redisRunGuard{ttl: 5 * time.Minute}
}

// Acquire SetNX 抢占运行租约，TTL 兜底持有者崩溃的情况
func (s *redisRunGuard) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := redis.TryLock(ctx, consts.TweetRunLock, token, s.ttl, 1)
	if err != nil || !ok {
		return nil, ok, err
	}

	release := func() {
		redis.UnLock(ctx, consts.TweetRunLock, token)
	}
	return release, true, nil
}
