// Package document 把布局与渲染串成一次完整的打印文档生成，并管理生成结果的生命周期。
package document

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ByLCY/labelsheet/binding"
	"github.com/ByLCY/labelsheet/label"
	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/renderer"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Request 是一次渲染的完整输入。Items 会在渲染开始前复制一份。
type Request struct {
	Mode    label.Mode           `json:"mode"`
	Items   []label.Item         `json:"items"`
	Options layout.RenderOptions `json:"options"`
}

// Options 配置 Assembler 的静态部分。
type Options struct {
	Grid             layout.Grid // 零值使用 DefaultGrid
	FilenameTemplate string      // 默认 binding.DefaultFilename
	Author           string
	Creator          string
	Fonts            map[string]string // 覆盖常规体/粗体的字体 src
}

type Assembler struct {
	engine renderer.Engine
	store  Store
	opts   Options
	clock  Clock
	id     IDGen
}

func NewAssembler(engine renderer.Engine, store Store, opts Options) *Assembler {
	if store == nil {
		store = NewMemoryStore()
	}
	if opts.Grid == (layout.Grid{}) {
		opts.Grid = layout.DefaultGrid
	}
	if opts.FilenameTemplate == "" {
		opts.FilenameTemplate = binding.DefaultFilename
	}
	return &Assembler{
		engine: engine,
		store:  store,
		opts:   opts,
		clock:  realClock{},
		id:     ulidGen{},
	}
}

// Grid 返回生效的纸张几何。
func (a *Assembler) Grid() layout.Grid { return a.opts.Grid }

// Store 返回底层存储。
func (a *Assembler) Store() Store { return a.store }

// Layout 只做布局计算（含校准），不产出 PDF。
func (a *Assembler) Layout(ctx context.Context, req Request) (*layout.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.engine == nil {
		return nil, fmt.Errorf("document: 未配置渲染引擎")
	}
	items := make([]label.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = it.Clone()
	}
	return layout.Build(items, req.Mode, layout.BuildOptions{
		Typesetter: a.engine,
		Grid:       a.opts.Grid,
		Render:     req.Options,
		Fonts:      a.opts.Fonts,
		Meta: layout.DocumentMeta{
			Author:  a.opts.Author,
			Creator: a.opts.Creator,
		},
	})
}

// Render 生成 PDF 并存入 Store。任一步骤失败都不会留下任何已存储的文档。
func (a *Assembler) Render(ctx context.Context, req Request) (Handle, error) {
	res, err := a.Layout(ctx, req)
	if err != nil {
		return Handle{}, err
	}
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	data, err := a.engine.Render(res)
	if err != nil {
		return Handle{}, fmt.Errorf("渲染 PDF 失败: %w", err)
	}

	id, err := a.id.New()
	if err != nil {
		return Handle{}, fmt.Errorf("生成文档 ID 失败: %w", err)
	}
	now := a.clock.Now()
	h := Handle{
		ID:        id,
		Filename: binding.Filename(a.opts.FilenameTemplate, now, map[string]any{
			"mode":   string(req.Mode),
			"labels": res.Labels,
			"pages":  len(res.Pages),
			"sheet":  map[string]any{"name": a.opts.Grid.Name},
		}),
		Mode:      string(req.Mode),
		Pages:     len(res.Pages),
		Labels:    res.Labels,
		Overflows: countOverflows(res),
		Size:      len(data),
		CreatedAt: now.UTC(),
	}
	if err := a.store.Put(ctx, h, data); err != nil {
		return Handle{}, err
	}
	if h.Overflows > 0 {
		log.Printf("[WARN] document %s: %d 个文本块在最小字号下仍然超宽", h.ID, h.Overflows)
	}
	log.Printf("[INFO] document %s: %d 页 %d 个标签 %d 字节", h.ID, h.Pages, h.Labels, h.Size)
	return h, nil
}

// Open 读取已生成的文档。
func (a *Assembler) Open(ctx context.Context, id string) (Handle, []byte, error) {
	return a.store.Get(ctx, id)
}

// Release 释放文档；已释放或不存在时返回 ErrNotFound。
func (a *Assembler) Release(ctx context.Context, id string) error {
	return a.store.Delete(ctx, id)
}

func countOverflows(res *layout.Result) int {
	n := 0
	for _, p := range res.Pages {
		for _, tb := range p.Texts {
			if tb.Overflow {
				n++
			}
		}
	}
	return n
}
