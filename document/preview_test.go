package document

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPreviewReplacesAndReleases(t *testing.T) {
	a, store := newTestAssembler(&fakeEngine{perChar: 0.2})
	p := NewPreview(a)
	ctx := context.Background()

	first, err := p.Update(ctx, "s1", productRequest(1, "a"))
	if err != nil {
		t.Fatalf("第一次预览失败: %v", err)
	}
	second, err := p.Update(ctx, "s1", productRequest(2, "b"))
	if err != nil {
		t.Fatalf("第二次预览失败: %v", err)
	}
	if _, _, err := a.Open(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("旧预览应被释放")
	}
	if cur, ok := p.Current("s1"); !ok || cur.ID != second.ID {
		t.Fatalf("当前预览应为第二次结果: %+v", cur)
	}
	if store.Len() != 1 {
		t.Fatalf("同一会话只应保留一个文档，实际 %d", store.Len())
	}

	if err := p.Close(ctx, "s1"); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("关闭会话应释放当前预览")
	}
	if err := p.Close(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("重复关闭应返回 ErrNotFound，实际 %v", err)
	}
}

func TestPreviewFailureKeepsCurrent(t *testing.T) {
	engine := &fakeEngine{perChar: 0.2}
	a, _ := newTestAssembler(engine)
	p := NewPreview(a)
	ctx := context.Background()

	good, err := p.Update(ctx, "s", productRequest(1, "a"))
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}
	engine.renderErr = errors.New("boom")
	if _, err := p.Update(ctx, "s", productRequest(1, "b")); err == nil {
		t.Fatalf("应返回渲染错误")
	}
	cur, ok := p.Current("s")
	if !ok || cur.ID != good.ID {
		t.Fatalf("失败的渲染不应替换当前预览")
	}
	if _, _, err := a.Open(ctx, good.ID); err != nil {
		t.Fatalf("当前预览不应被释放: %v", err)
	}
}

func TestPreviewDropsStaleRender(t *testing.T) {
	engine := &fakeEngine{perChar: 0.2, gate: make(chan struct{})}
	a, store := newTestAssembler(engine)
	p := NewPreview(a)
	ctx := context.Background()

	type result struct {
		h   Handle
		err error
	}
	slow := make(chan result, 1)
	go func() {
		h, err := p.Update(ctx, "s", productRequest(1, "slow"))
		slow <- result{h, err}
	}()

	// 等待慢渲染领取序号
	deadline := time.Now().Add(2 * time.Second)
	for {
		p.mu.Lock()
		started := p.sessions["s"] != nil && p.sessions["s"].seq == 1
		p.mu.Unlock()
		if started || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	fast, err := p.Update(ctx, "s", productRequest(1, "fast"))
	if err != nil {
		t.Fatalf("快速预览失败: %v", err)
	}
	close(engine.gate)
	r := <-slow
	if !errors.Is(r.err, ErrSuperseded) {
		t.Fatalf("较晚完成的旧渲染应被丢弃，实际 %v", r.err)
	}
	if cur, _ := p.Current("s"); cur.ID != fast.ID {
		t.Fatalf("当前预览应保持为较新的结果")
	}
	if store.Len() != 1 {
		t.Fatalf("被丢弃的渲染应已释放，剩余 %d", store.Len())
	}
}

func TestPreviewCloseAll(t *testing.T) {
	a, store := newTestAssembler(&fakeEngine{perChar: 0.2})
	p := NewPreview(a)
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if _, err := p.Update(ctx, key, productRequest(1, key)); err != nil {
			t.Fatalf("预览失败: %v", err)
		}
	}
	p.CloseAll(ctx)
	if store.Len() != 0 {
		t.Fatalf("CloseAll 后不应保留文档")
	}
}

func TestPreviewFirstFailureLeavesNoSession(t *testing.T) {
	engine := &fakeEngine{perChar: 0.2, renderErr: errors.New("boom")}
	a, _ := newTestAssembler(engine)
	p := NewPreview(a)
	ctx := context.Background()

	if _, err := p.Update(ctx, "s", productRequest(1, "a")); err == nil {
		t.Fatalf("应返回渲染错误")
	}
	if _, ok := p.Current("s"); ok {
		t.Fatalf("失败的首次渲染不应产生当前预览")
	}
	p.mu.Lock()
	n := len(p.sessions)
	p.mu.Unlock()
	if n != 0 {
		t.Fatalf("失败的首次渲染不应留下会话，实际 %d 个", n)
	}
	if err := p.Close(ctx, "s"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("会话不存在时关闭应返回 ErrNotFound，实际 %v", err)
	}
}
