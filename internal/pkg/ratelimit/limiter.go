package ratelimit

import (
	"sync"
	"time"
)

// Limiter 固定窗口计数限流器，按字符串 key 分桶。
// 状态仅存在于进程内存中，重启即清空，多实例部署时各实例独立计数。
type Limiter struct {
	mu        sync.Mutex
	maxEvents int
	window    time.Duration
	events    map[string][]time.Time
	now       func() time.Time
}

func NewLimiter(maxEvents int, window time.Duration) *Limiter {
	return &Limiter{
		maxEvents: maxEvents,
		window:    window,
		events:    make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Allow 检查 key 是否还有配额，检查时顺带淘汰窗口外的旧事件
func (s *Limiter) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	windowStart := s.now().Add(-s.window)

	valid := s.events[key][:0]
	for _, t := range s.events[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	s.events[key] = valid

	return len(valid) < s.maxEvents
}

// Record 记录一次已放行的事件
func (s *Limiter) Record(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[key] = append(s.events[key], s.now())
}
