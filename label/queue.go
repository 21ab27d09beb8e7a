package label

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrItemNotFound 表示队列中没有指定 ID 的条目。
var ErrItemNotFound = errors.New("条目不存在")

// Queue 是按打印顺序排列的标签队列。它只存在于进程内存中，且不是并发安全的。
type Queue struct {
	mode  Mode
	items []Item
}

// NewQueue 创建指定模式的空队列。
func NewQueue(mode Mode) *Queue { return &Queue{mode: mode} }

// Mode 返回队列当前模式。
func (q *Queue) Mode() Mode { return q.mode }

// Len 返回条目数量。
func (q *Queue) Len() int { return len(q.items) }

// SetMode 切换模式并清空队列；模式相同时不做任何事。
func (q *Queue) SetMode(mode Mode) {
	if q.mode == mode {
		return
	}
	q.mode = mode
	q.items = nil
}

// Add 以 qty 份（至少 1 份）复制 item 并插入到队列头部，每份分配新 ID。
// 返回新插入的条目。
func (q *Queue) Add(qty int, item Item) ([]Item, error) {
	if item.Empty() {
		return nil, ErrEmptyItem
	}
	if err := item.Validate(q.mode); err != nil {
		return nil, err
	}
	if qty < 1 {
		qty = 1
	}
	added := make([]Item, 0, qty)
	for i := 0; i < qty; i++ {
		c := item.Clone()
		c.ID = uuid.NewString()
		added = append(added, c)
	}
	q.items = append(append(make([]Item, 0, len(added)+len(q.items)), added...), q.items...)
	return added, nil
}

// Prepend 把导入得到的条目整体放到队列头部，保持其相对顺序。
func (q *Queue) Prepend(items []Item) error {
	for _, it := range items {
		if err := it.Validate(q.mode); err != nil {
			return err
		}
	}
	out := make([]Item, 0, len(items)+len(q.items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	q.items = append(out, q.items...)
	return nil
}

func (q *Queue) index(id string) int {
	for i, it := range q.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Update 用 fn 修改指定条目。fn 收到的是副本，修改后的结果需通过校验才会写回。
func (q *Queue) Update(id string, fn func(*Item)) error {
	i := q.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	next := q.items[i].Clone()
	fn(&next)
	next.ID = id
	if err := next.Validate(q.mode); err != nil {
		return err
	}
	q.items[i] = next
	return nil
}

// SetFontSize 设置条目的名义字号（按滑块范围钳制）。
func (q *Queue) SetFontSize(id string, pt float64) error {
	return q.Update(id, func(it *Item) { it.FontSize = ClampFontSize(pt) })
}

// ResetFontSize 恢复模式默认字号。
func (q *Queue) ResetFontSize(id string) error {
	return q.Update(id, func(it *Item) { it.FontSize = 0 })
}

// Delete 删除条目，返回是否存在。
func (q *Queue) Delete(id string) bool {
	i := q.index(id)
	if i < 0 {
		return false
	}
	q.items = append(q.items[:i:i], q.items[i+1:]...)
	return true
}

// Move 把 activeID 对应的条目移动到 overID 当前所在的位置（拖拽排序语义）。
func (q *Queue) Move(activeID, overID string) error {
	from, to := q.index(activeID), q.index(overID)
	if from < 0 || to < 0 {
		return fmt.Errorf("移动失败 %w: %s 或 %s", ErrItemNotFound, activeID, overID)
	}
	if from == to {
		return nil
	}
	it := q.items[from]
	rest := append(q.items[:from:from], q.items[from+1:]...)
	out := make([]Item, 0, len(q.items))
	out = append(out, rest[:to]...)
	out = append(out, it)
	out = append(out, rest[to:]...)
	q.items = out
	return nil
}

// Clear 清空队列。
func (q *Queue) Clear() { q.items = nil }

// Snapshot 返回队列的不可变快照，渲染只应使用快照。
func (q *Queue) Snapshot() []Item {
	out := make([]Item, len(q.items))
	for i, it := range q.items {
		out[i] = it.Clone()
	}
	return out
}
