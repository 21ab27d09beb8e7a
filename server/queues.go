package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ByLCY/labelsheet/document"
	"github.com/ByLCY/labelsheet/label"
	"github.com/ByLCY/labelsheet/spreadsheet"
)

// queueSet 保存每个会话的编辑队列。label.Queue 本身不是并发安全的，所有操作都在 mu 下进行。
type queueSet struct {
	mu sync.Mutex
	m  map[string]*label.Queue
}

func newQueueSet() *queueSet { return &queueSet{m: map[string]*label.Queue{}} }

// with 在锁内对会话 key 的队列执行 fn；队列不存在时返回 404。
func (s *queueSet) with(key string, fn func(q *label.Queue) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.m[key]
	if !ok {
		return ErrNotFound(fmt.Sprintf("队列 %s 不存在", key))
	}
	return fn(q)
}

// QueueDTO: GET /queues/:session
type QueueDTO struct {
	Mode  string    `json:"mode"`
	Items []ItemDTO `json:"items"`
}

// QueueModeRequest: PUT /queues/:session
type QueueModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// AddItemRequest: POST /queues/:session/items
type AddItemRequest struct {
	Quantity int     `json:"quantity"`
	Item     ItemDTO `json:"item"`
}

// MoveRequest: POST /queues/:session/move
type MoveRequest struct {
	ActiveID string `json:"activeId" binding:"required"`
	OverID   string `json:"overId" binding:"required"`
}

// FontSizeRequest: PUT /queues/:session/items/:id/font-size
type FontSizeRequest struct {
	Size float64 `json:"size" binding:"required"`
}

// QueueRenderRequest: POST /queues/:session/render, PUT /queues/:session/preview
type QueueRenderRequest struct {
	ShowOutline bool   `json:"showOutline"`
	StartOffset int    `json:"startOffset"`
	TextAlign   string `json:"textAlign"`
}

func registerQueueRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/queues/:session", h.GetQueue)
	r.PUT("/queues/:session", h.PutQueue)
	r.DELETE("/queues/:session", h.DeleteQueue)
	r.POST("/queues/:session/items", h.AddQueueItem)
	r.DELETE("/queues/:session/items", h.ClearQueue)
	r.PUT("/queues/:session/items/:id", h.UpdateQueueItem)
	r.DELETE("/queues/:session/items/:id", h.DeleteQueueItem)
	r.PUT("/queues/:session/items/:id/font-size", h.SetQueueFontSize)
	r.DELETE("/queues/:session/items/:id/font-size", h.ResetQueueFontSize)
	r.POST("/queues/:session/move", h.MoveQueueItem)
	r.POST("/queues/:session/import", h.ImportQueue)
	r.POST("/queues/:session/render", h.RenderQueue)
	r.PUT("/queues/:session/preview", h.PreviewQueue)
}

func queueDTO(q *label.Queue) QueueDTO {
	out := QueueDTO{Mode: string(q.Mode()), Items: []ItemDTO{}}
	for _, it := range q.Snapshot() {
		out.Items = append(out.Items, fromItem(it))
	}
	return out
}

// respondQueue 在锁内执行 fn，成功后返回队列的最新内容。
func (h *Handler) respondQueue(c *gin.Context, status int, fn func(q *label.Queue) error) {
	var out QueueDTO
	err := h.queues.with(c.Param("session"), func(q *label.Queue) error {
		if err := fn(q); err != nil {
			return err
		}
		out = queueDTO(q)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, out)
}

func (h *Handler) GetQueue(c *gin.Context) {
	h.respondQueue(c, http.StatusOK, func(*label.Queue) error { return nil })
}

// PutQueue 创建会话队列，或切换已有队列的模式（切换会清空队列）。
func (h *Handler) PutQueue(c *gin.Context) {
	var req QueueModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, ErrInvalid("invalid json"))
		return
	}
	mode, err := label.ParseMode(req.Mode)
	if err != nil {
		h.fail(c, ErrInvalid(err.Error()))
		return
	}
	key := c.Param("session")
	h.queues.mu.Lock()
	q, ok := h.queues.m[key]
	if !ok {
		q = label.NewQueue(mode)
		h.queues.m[key] = q
	}
	q.SetMode(mode)
	out := queueDTO(q)
	h.queues.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteQueue(c *gin.Context) {
	key := c.Param("session")
	h.queues.mu.Lock()
	_, ok := h.queues.m[key]
	delete(h.queues.m, key)
	h.queues.mu.Unlock()
	if !ok {
		h.fail(c, ErrNotFound(fmt.Sprintf("队列 %s 不存在", key)))
		return
	}
	c.Status(http.StatusNoContent)
}

// AddQueueItem 把 quantity 份条目加到队列头部。
func (h *Handler) AddQueueItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, ErrInvalid("invalid json"))
		return
	}
	h.respondQueue(c, http.StatusCreated, func(q *label.Queue) error {
		qty := max(req.Quantity, 1)
		if q.Len()+qty > h.maxItems {
			return ErrInvalid(fmt.Sprintf("队列条目数将超过上限 %d", h.maxItems))
		}
		item, err := req.Item.toItem(q.Mode())
		if err != nil {
			return err
		}
		_, err = q.Add(qty, item)
		return err
	})
}

func (h *Handler) ClearQueue(c *gin.Context) {
	h.respondQueue(c, http.StatusOK, func(q *label.Queue) error {
		q.Clear()
		return nil
	})
}

// UpdateQueueItem 替换条目内容；请求未给出字号时保留原字号。
func (h *Handler) UpdateQueueItem(c *gin.Context) {
	var req ItemDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, ErrInvalid("invalid json"))
		return
	}
	id := c.Param("id")
	h.respondQueue(c, http.StatusOK, func(q *label.Queue) error {
		next, err := req.toItem(q.Mode())
		if err != nil {
			return err
		}
		if next.Empty() {
			return label.ErrEmptyItem
		}
		return q.Update(id, func(it *label.Item) {
			size := it.FontSize
			*it = next
			if req.CustomFontSize == 0 {
				it.FontSize = size
			}
		})
	})
}

func (h *Handler) DeleteQueueItem(c *gin.Context) {
	id := c.Param("id")
	h.respondQueue(c, http.StatusOK, func(q *label.Queue) error {
		if !q.Delete(id) {
			return fmt.Errorf("%w: %s", label.ErrItemNotFound, id)
		}
		return nil
	})
}

func (h *Handler) SetQueueFontSize(c *gin.Context) {
	var req FontSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Size <= 0 {
		h.fail(c, ErrInvalid("size 必须为正数"))
		return
	}
	id := c.Param("id")
	h.respondQueue(c, http.StatusOK, func(q *label.Queue) error {
		return q.SetFontSize(id, req.Size)
	})
}

func (h *Handler) ResetQueueFontSize(c *gin.Context) {
	id := c.Param("id")
	h.respondQueue(c, http.StatusOK, func(q *label.Queue) error {
		return q.ResetFontSize(id)
	})
}

// MoveQueueItem 把 activeId 移到 overId 当前所在的位置。
func (h *Handler) MoveQueueItem(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, ErrInvalid("invalid json"))
		return
	}
	h.respondQueue(c, http.StatusOK, func(q *label.Queue) error {
		return q.Move(req.ActiveID, req.OverID)
	})
}

// ImportQueue 解析上传的 CSV 并把结果整体放到队列头部，模式取队列当前模式。
func (h *Handler) ImportQueue(c *gin.Context) {
	src, closeSrc, err := uploadSource(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeSrc()

	var mode label.Mode
	if err := h.queues.with(c.Param("session"), func(q *label.Queue) error {
		mode = q.Mode()
		return nil
	}); err != nil {
		h.fail(c, err)
		return
	}
	items, err := spreadsheet.Import(src, mode)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondQueue(c, http.StatusOK, func(q *label.Queue) error {
		if q.Mode() != mode {
			return ErrConflict("导入期间队列模式已改变")
		}
		if q.Len()+len(items) > h.maxItems {
			return ErrInvalid(fmt.Sprintf("队列条目数将超过上限 %d", h.maxItems))
		}
		return q.Prepend(items)
	})
}

// snapshotRequest 在锁内取队列快照，组装渲染请求。
func (h *Handler) snapshotRequest(c *gin.Context) (document.Request, bool) {
	var body QueueRenderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.fail(c, ErrInvalid("invalid json"))
			return document.Request{}, false
		}
	}
	opts, err := RenderRequest{StartOffset: body.StartOffset, ShowOutline: body.ShowOutline, TextAlign: body.TextAlign}.options(h.asm.Grid())
	if err != nil {
		h.fail(c, err)
		return document.Request{}, false
	}
	var req document.Request
	if err := h.queues.with(c.Param("session"), func(q *label.Queue) error {
		req = document.Request{Mode: q.Mode(), Items: q.Snapshot(), Options: opts}
		return nil
	}); err != nil {
		h.fail(c, err)
		return document.Request{}, false
	}
	return req, true
}

func (h *Handler) RenderQueue(c *gin.Context) {
	req, ok := h.snapshotRequest(c)
	if !ok {
		return
	}
	handle, err := h.asm.Render(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, handle)
}

// PreviewQueue 用队列快照刷新同名会话的预览。
func (h *Handler) PreviewQueue(c *gin.Context) {
	req, ok := h.snapshotRequest(c)
	if !ok {
		return
	}
	handle, err := h.preview.Update(c.Request.Context(), c.Param("session"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handle)
}
