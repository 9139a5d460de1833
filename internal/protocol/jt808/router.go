package jt808

import (
	"context"
	"sync"
)

// Handler 业务处理器，返回需要下发的应答消息
type Handler func(ctx context.Context, m Message) ([]Message, error)

// Router 按消息类型分发已解码消息
type Router struct {
	mu sync.RWMutex
	m  map[MessageType]Handler
}

func NewRouter() *Router { return &Router{m: make(map[MessageType]Handler)} }

func (r *Router) Register(t MessageType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[t] = h
}

// Route 未注册处理器的消息直接忽略
func (r *Router) Route(ctx context.Context, m Message) ([]Message, error) {
	r.mu.RLock()
	h := r.m[m.MessageType()]
	r.mu.RUnlock()
	if h == nil {
		return nil, nil
	}
	return h(ctx, m)
}
