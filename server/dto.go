package server

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ByLCY/labelsheet/label"
	"github.com/ByLCY/labelsheet/layout"
)

// ItemDTO 是前端使用的扁平条目结构。
type ItemDTO struct {
	ID             string  `json:"id"`
	SKU            string  `json:"sku,omitempty"`
	Price          string  `json:"price,omitempty"`
	CxInner        string  `json:"cxInner,omitempty"`
	Voltage        string  `json:"voltage,omitempty"`
	MeasureText    string  `json:"measureText,omitempty"`
	Wrap           bool    `json:"wrap,omitempty"`
	CustomFontSize float64 `json:"customFontSize,omitempty"`
}

// RenderRequest: POST /render, POST /layout, PUT /previews/:session
type RenderRequest struct {
	Mode        string    `json:"mode" binding:"required"`
	Items       []ItemDTO `json:"items"`
	ShowOutline bool      `json:"showOutline"`
	StartOffset int       `json:"startOffset"`
	TextAlign   string    `json:"textAlign"`
}

// ExportRequest: POST /export
type ExportRequest struct {
	Items []ItemDTO `json:"items"`
}

// ImportResponse: POST /import
type ImportResponse struct {
	Mode  string    `json:"mode"`
	Items []ItemDTO `json:"items"`
}

func (d ItemDTO) toItem(mode label.Mode) (label.Item, error) {
	var it label.Item
	switch mode {
	case label.ModeProduct:
		volt, err := label.ParseVoltage(d.Voltage)
		if err != nil {
			return it, ErrInvalid(err.Error())
		}
		it = label.NewProduct(label.ProductFields{SKU: d.SKU, Price: d.Price, Note: d.CxInner, Voltage: volt})
	case label.ModeMeasure:
		it = label.NewMeasurement(label.MeasureFields{Text: d.MeasureText, Wrap: d.Wrap})
	default:
		return it, ErrInvalid(fmt.Sprintf("未知模式 %q", mode))
	}
	if d.ID != "" {
		it.ID = d.ID
	}
	if d.CustomFontSize < 0 {
		return it, ErrInvalid(fmt.Sprintf("条目 %s 的字号不能为负", it.ID))
	}
	if d.CustomFontSize > 0 {
		it.FontSize = label.ClampFontSize(d.CustomFontSize)
	}
	return it, nil
}

func fromItem(it label.Item) ItemDTO {
	d := ItemDTO{ID: it.ID, CustomFontSize: it.FontSize}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if p := it.Product; p != nil {
		d.SKU, d.Price, d.CxInner, d.Voltage = p.SKU, p.Price, p.Note, string(p.Voltage)
	}
	if m := it.Measure; m != nil {
		d.MeasureText, d.Wrap = m.Text, m.Wrap
	}
	return d
}

func toItems(mode label.Mode, dtos []ItemDTO) ([]label.Item, error) {
	items := make([]label.Item, 0, len(dtos))
	for _, d := range dtos {
		it, err := d.toItem(mode)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (r RenderRequest) options(grid layout.Grid) (layout.RenderOptions, error) {
	if r.StartOffset < 0 {
		return layout.RenderOptions{}, ErrInvalid("startOffset 不能为负")
	}
	if limit := layout.MaxStartOffset(grid); r.StartOffset > limit {
		return layout.RenderOptions{}, ErrInvalid(fmt.Sprintf("startOffset %d 超过上限 %d", r.StartOffset, limit))
	}
	return layout.RenderOptions{
		ShowOutline: r.ShowOutline,
		StartOffset: r.StartOffset,
		Align:       layout.ParseAlign(r.TextAlign),
	}, nil
}
