package xlimit

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry 本地固定窗口的计数状态
type Entry struct {
	// Count 窗口内已观察到的请求数
	Count int

	// ResetAt 窗口到期时间；过期条目在下次访问时重新初始化
	ResetAt time.Time
}

// Store 本地计数器的存储接口
//
// 显式注入而非包级单例，测试可以替换确定性时钟和全新存储。
// 实现不要求并发安全：localBackend 持锁串行化所有读-改-写。
type Store interface {
	// Get 读取键的计数状态
	Get(key string) (Entry, bool)

	// Set 写入键的计数状态
	Set(key string, e Entry)

	// Delete 删除键
	Delete(key string)

	// Sweep 删除所有已过期的条目，返回删除数量
	Sweep(now time.Time) int

	// Len 返回当前条目数
	Len() int
}

// =============================================================================
// mapStore：无上界 map 存储 + 清扫
// =============================================================================

// mapStore 基于 map 的默认存储
// 条目不会在过期时被主动删除，依赖调用方的概率式 Sweep 控制内存
type mapStore struct {
	entries map[string]Entry
}

// newMapStore 创建 map 存储
func newMapStore() *mapStore {
	return &mapStore{
		entries: make(map[string]Entry),
	}
}

func (s *mapStore) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

func (s *mapStore) Set(key string, e Entry) {
	s.entries[key] = e
}

func (s *mapStore) Delete(key string) {
	delete(s.entries, key)
}

func (s *mapStore) Sweep(now time.Time) int {
	removed := 0
	for key, e := range s.entries {
		if now.After(e.ResetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *mapStore) Len() int {
	return len(s.entries)
}

// =============================================================================
// lruStore：有界 LRU 存储
// =============================================================================

// lruStore 基于 LRU 的有界存储
//
// 概率式清扫在突发后的低流量期间给不出内存上界；需要硬上界时用此实现。
// 逐出一个活跃条目等价于该客户端窗口重置，只造成轻微的过量放行，
// 不是安全性问题。
type lruStore struct {
	c *lru.Cache[string, Entry]
}

// newLRUStore 创建有界 LRU 存储
func newLRUStore(maxEntries int) (*lruStore, error) {
	c, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &lruStore{c: c}, nil
}

func (s *lruStore) Get(key string) (Entry, bool) {
	return s.c.Get(key)
}

func (s *lruStore) Set(key string, e Entry) {
	s.c.Add(key, e)
}

func (s *lruStore) Delete(key string) {
	s.c.Remove(key)
}

func (s *lruStore) Sweep(now time.Time) int {
	removed := 0
	for _, key := range s.c.Keys() {
		if e, ok := s.c.Peek(key); ok && now.After(e.ResetAt) {
			s.c.Remove(key)
			removed++
		}
	}
	return removed
}

func (s *lruStore) Len() int {
	return s.c.Len()
}

// 确保两种存储都实现了 Store 接口
var (
	_ Store = (*mapStore)(nil)
	_ Store = (*lruStore)(nil)
)
