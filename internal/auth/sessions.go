package auth

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Session：登录后保存在会话中的用户信息
type Session struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// SessionStore：会话存储
// 约束：Get 未命中返回 (Session{}, false, nil)；过期会话视为未命中
type SessionStore interface {
	Get(ctx context.Context, id string) (Session, bool, error)
	Set(ctx context.Context, id string, s Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore：进程内 LRU 会话存储（单实例部署默认）
// 背景：容量满时淘汰最久未访问的会话；每次读取命中都会续期
type MemoryStore struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type entry struct {
	id  string
	s   Session
	exp time.Time
}

func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *MemoryStore) Get(_ context.Context, id string) (Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[id]
	if !ok {
		return Session{}, false, nil
	}
	it := e.Value.(entry)
	now := c.now()
	if !now.Before(it.exp) {
		c.lst.Remove(e)
		delete(c.dict, id)
		return Session{}, false, nil
	}
	it.exp = now.Add(c.ttl)
	e.Value = it
	c.lst.MoveToFront(e)
	return it.s, true, nil
}

func (c *MemoryStore) Set(_ context.Context, id string, s Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := entry{id: id, s: s, exp: c.now().Add(c.ttl)}
	if e, ok := c.dict[id]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return nil
	}
	c.dict[id] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(entry).id)
		c.lst.Remove(back)
	}
	return nil
}

func (c *MemoryStore) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[id]; ok {
		c.lst.Remove(e)
		delete(c.dict, id)
	}
	return nil
}

// Len：当前会话数（含尚未被访问清理的过期项）
func (c *MemoryStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
