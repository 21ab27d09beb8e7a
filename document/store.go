package document

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("文档不存在或已释放")

// Handle 描述一份已生成的 PDF。调用方持有 Handle 期间负责在不再需要时释放它。
type Handle struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Mode      string    `json:"mode"`
	Pages     int       `json:"pages"`
	Labels    int       `json:"labels"`
	Overflows int       `json:"overflows"` // 触及字号下限仍放不下的文本块数量
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store 保存渲染结果的字节数据，直到被显式释放。
type Store interface {
	Put(ctx context.Context, h Handle, data []byte) error
	Get(ctx context.Context, id string) (Handle, []byte, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore 是进程内实现，适合单实例部署与测试。
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
}

type memoryDoc struct {
	handle Handle
	data   []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]memoryDoc{}}
}

func (s *MemoryStore) Put(_ context.Context, h Handle, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[h.ID] = memoryDoc{handle: h, data: data}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Handle, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return Handle{}, nil, ErrNotFound
	}
	return d.handle, d.data, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// Len 返回当前持有的文档数。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
