package layout

import (
	"fmt"

	"github.com/ByLCY/labelsheet/label"
)

// Build 对一组条目做校准、分页与单元格排版，生成可直接渲染的布局结果。
// items 是调用方的不可变快照；每次调用都从零开始，不共享可变状态。
func Build(items []label.Item, mode label.Mode, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	grid := opts.Grid
	if grid.isZero() {
		grid = DefaultGrid
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := CheckPages(len(items), opts.Render.StartOffset, grid); err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := it.Validate(mode); err != nil {
			return nil, err
		}
	}

	fonts := DefaultFonts()
	for _, name := range []string{FontRegular, FontBold} {
		if src := opts.Fonts[name]; src != "" {
			fonts[name] = FontResource{Name: name, Src: src, Style: fonts[name].Style}
		}
	}
	factor, err := Calibrate(opts.Typesetter, fonts[FontBold])
	if err != nil {
		return nil, err
	}

	cl := newCellLayout(opts.Typesetter, factor, fonts, grid, opts.Render)
	pages, err := Paginate(items, grid, opts.Render, cl.layoutCell)
	if err != nil {
		return nil, fmt.Errorf("单元格排版失败: %w", err)
	}

	meta := opts.Meta
	if meta.Title == "" {
		meta.Title = fmt.Sprintf("%s %s", grid.Name, mode)
	}
	return &Result{
		Pages:       pages,
		Resources:   ResourceSet{Fonts: fonts},
		Meta:        meta,
		Calibration: factor,
		Labels:      len(items),
	}, nil
}
