package document

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrSuperseded 表示渲染完成前已有更新的预览生效，本次结果已被释放。
var ErrSuperseded = errors.New("预览已被更新的渲染取代")

// Preview 管理每个会话的“当前预览”：新结果生效时释放旧结果，
// 渲染失败时保留旧结果，较早发起但较晚完成的渲染直接丢弃。
type Preview struct {
	asm *Assembler

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	seq       uint64 // 最近一次发起的渲染序号
	installed uint64 // 当前生效结果的序号
	current   *Handle
	closed    bool
}

func NewPreview(asm *Assembler) *Preview {
	return &Preview{asm: asm, sessions: map[string]*session{}}
}

// Update 为会话 key 渲染新的预览并替换当前结果。
func (p *Preview) Update(ctx context.Context, key string, req Request) (Handle, error) {
	p.mu.Lock()
	s, ok := p.sessions[key]
	if !ok {
		s = &session{}
		p.sessions[key] = s
	}
	s.seq++
	mine := s.seq
	p.mu.Unlock()

	h, err := p.asm.Render(ctx, req)
	if err != nil {
		p.mu.Lock()
		// 首次渲染就失败且没有更新的渲染在进行时，不留下空会话
		if p.sessions[key] == s && s.current == nil && s.seq == mine {
			delete(p.sessions, key)
		}
		p.mu.Unlock()
		return Handle{}, err
	}

	p.mu.Lock()
	if s.closed || mine < s.installed {
		p.mu.Unlock()
		p.release(ctx, h.ID)
		return Handle{}, ErrSuperseded
	}
	old := s.current
	s.current = &h
	s.installed = mine
	p.mu.Unlock()

	if old != nil {
		p.release(ctx, old.ID)
	}
	return h, nil
}

// Current 返回会话当前生效的预览。
func (p *Preview) Current(key string) (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[key]
	if !ok || s.current == nil {
		return Handle{}, false
	}
	return *s.current, true
}

// Close 结束会话并释放其当前预览。
func (p *Preview) Close(ctx context.Context, key string) error {
	p.mu.Lock()
	s, ok := p.sessions[key]
	if !ok {
		p.mu.Unlock()
		return ErrNotFound
	}
	delete(p.sessions, key)
	s.closed = true
	cur := s.current
	s.current = nil
	p.mu.Unlock()

	if cur == nil {
		return nil
	}
	return p.asm.Release(ctx, cur.ID)
}

// CloseAll 释放所有会话，用于进程退出。
func (p *Preview) CloseAll(ctx context.Context) {
	p.mu.Lock()
	keys := make([]string, 0, len(p.sessions))
	for k := range p.sessions {
		keys = append(keys, k)
	}
	p.mu.Unlock()
	for _, k := range keys {
		_ = p.Close(ctx, k)
	}
}

func (p *Preview) release(ctx context.Context, id string) {
	if err := p.asm.Release(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("[WARN] preview: 释放 %s 失败: %v", id, err)
	}
}
