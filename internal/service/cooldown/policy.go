package cooldown

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultCooldown 每次成功提交后的静默窗口。
	DefaultCooldown = 30 * time.Second
	// DefaultHourlyCap 滚动一小时内允许的提交次数。
	DefaultHourlyCap = 10

	cooldownKeyPrefix = "mood_cooldown:"
	usageKeyPrefix    = "mood_usage:"
)

// Store 提供策略状态的读写。参考实现把状态放在浏览器本地存储里，抽成接口
// 后测试可以注入内存实现。
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryStore 是 Store 的进程内实现。
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore 创建空的内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Verdict 是一次准入检查的结果。
type Verdict struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// Policy enforces a per-key submission throttle: a fixed cooldown after each
// recorded submission plus a rolling-hour cap. It is a UX throttle, not a
// security control.
type Policy struct {
	store     Store
	now       func() time.Time
	cooldown  time.Duration
	hourlyCap int
}

// Option 调整策略参数。
type Option func(*Policy)

// WithClock 注入测试时钟。
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// WithCooldown 覆盖静默窗口时长。
func WithCooldown(d time.Duration) Option {
	return func(p *Policy) { p.cooldown = d }
}

// WithHourlyCap 覆盖每小时上限。
func WithHourlyCap(n int) Option {
	return func(p *Policy) { p.hourlyCap = n }
}

// NewPolicy 创建策略引擎。
func NewPolicy(store Store, opts ...Option) *Policy {
	p := &Policy{
		store:     store,
		now:       time.Now,
		cooldown:  DefaultCooldown,
		hourlyCap: DefaultHourlyCap,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type usageData struct {
	Timestamps []int64 `json:"timestamps"`
}

// Allow 检查 key 当前能否提交。每次检查都会重算滚动窗口，丢弃一小时前的记录。
func (p *Policy) Allow(key string) Verdict {
	now := p.now()

	if raw, ok := p.store.Get(cooldownKeyPrefix + key); ok {
		if end, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cooldownEnd := time.UnixMilli(end)
			if now.Before(cooldownEnd) {
				return Verdict{Allowed: false, RetryAfter: cooldownEnd.Sub(now)}
			}
		}
	}

	usage := p.usage(key, now)
	if len(usage.Timestamps) >= p.hourlyCap {
		oldest := time.UnixMilli(usage.Timestamps[0])
		return Verdict{
			Allowed:    false,
			RetryAfter: oldest.Add(time.Hour).Sub(now),
		}
	}

	return Verdict{Allowed: true, Remaining: p.hourlyCap - len(usage.Timestamps)}
}

// Record 登记一次成功提交并启动静默窗口。
func (p *Policy) Record(key string) {
	now := p.now()

	cooldownEnd := now.Add(p.cooldown)
	p.store.Set(cooldownKeyPrefix+key, strconv.FormatInt(cooldownEnd.UnixMilli(), 10))

	usage := p.usage(key, now)
	usage.Timestamps = append(usage.Timestamps, now.UnixMilli())
	if encoded, err := json.Marshal(usage); err == nil {
		p.store.Set(usageKeyPrefix+key, string(encoded))
	}
}

// usage 读取并修剪使用记录，只保留最近一小时内的时间戳。
func (p *Policy) usage(key string, now time.Time) usageData {
	var usage usageData
	raw, ok := p.store.Get(usageKeyPrefix + key)
	if !ok {
		return usage
	}
	if err := json.Unmarshal([]byte(raw), &usage); err != nil {
		return usageData{}
	}

	cutoff := now.Add(-time.Hour).UnixMilli()
	kept := usage.Timestamps[:0]
	for _, ts := range usage.Timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	usage.Timestamps = kept
	return usage
}
