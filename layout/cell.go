package layout

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ByLCY/labelsheet/label"
)

// 单元格排版常量。比例值是与既有打印件兼容的约定，不要随意调整。
const (
	cellPaddingX     = 1.5  // 左右内边距
	lineHeightFactor = 1.15 // 行高 = 实际字号 × 系数
	noteRatio        = 0.75 // 备注行相对标签字号
	voltageRatio     = 2.0  // 电压数字相对标签字号
	voltsLabelRatio  = 0.35 // "VOLTS" 相对电压数字的最终字号
	zoneGap          = 1.0  // 左右分区之间的间隙
	zoneInset        = 1.0  // 电压框的上下右缩进
	zonePadding      = 0.5  // 电压框内边距
	voltageBorder    = 0.2
	outlineWidth     = 0.05
)

// 元素角色，写入调试 JSON，也便于测试定位。
const (
	RoleTitle   = "title"
	RolePrice   = "price"
	RoleNote    = "note"
	RoleVoltage = "voltage"
	RoleVolts   = "volts"
	RoleMeasure = "measure"
	RoleOutline = "outline"
	RoleZone    = "voltage-zone"
)

const voltsLabel = "VOLTS"

var lineHeightSpec = LineHeightSpec{Factor: lineHeightFactor}

// cellLayout 把一个条目排进一个格子，产出带完整样式的元素，不保留跨格子的状态。
type cellLayout struct {
	ts    Typesetter
	sizer Sizer
	fonts map[string]FontResource
	grid  Grid
	opts  RenderOptions
	upper cases.Caser
}

func newCellLayout(ts Typesetter, factor float64, fonts map[string]FontResource, grid Grid, opts RenderOptions) *cellLayout {
	return &cellLayout{
		ts:    ts,
		sizer: NewSizer(ts, factor),
		fonts: fonts,
		grid:  grid,
		opts:  opts,
		upper: cases.Upper(language.Und),
	}
}

// lineSpec 描述格子里的一行文本：内容、字体、起始名义字号与颜色。
type lineSpec struct {
	role  string
	text  string
	font  string
	start float64
	color Color
}

// place 把一组单行文本按各自缩放结果垂直居中排进 (x, y, width, height) 区域。
func (c *cellLayout) place(page *Page, slot int, specs []lineSpec, x, y, width, height float64, align Align) error {
	boxes := make([]TextBox, 0, len(specs))
	total := 0.0
	for _, s := range specs {
		font := c.fonts[s.font]
		size, err := c.sizer.Fit([]string{s.text}, font, width, s.start)
		if err != nil {
			return err
		}
		tb, err := c.textBox(slot, s, []string{s.text}, size, x, width, align)
		if err != nil {
			return err
		}
		total += tb.Height
		boxes = append(boxes, tb)
	}
	cursor := y + (height-total)/2
	for _, tb := range boxes {
		tb.Y = cursor
		cursor += tb.Height
		if tb.Content == "" {
			continue
		}
		page.Texts = append(page.Texts, tb)
	}
	return nil
}

// textBox 以已确定的名义字号构造文本块（Y 由调用方填写）。
func (c *cellLayout) textBox(slot int, s lineSpec, lines []string, nominal, x, width float64, align Align) (TextBox, error) {
	font := c.fonts[s.font]
	size := Length{Value: nominal * c.sizer.Factor, Unit: UnitPT}
	lh := lineHeightSpec.Resolve(size, UnitMM)
	tb := TextBox{
		Role:        s.role,
		Slot:        slot,
		X:           x,
		Width:       width,
		LineHeight:  lh,
		Font:        s.font,
		FontSize:    size.ToMM(),
		NominalSize: nominal,
		Color:       s.color,
		Align:       string(align),
	}
	for i, ln := range lines {
		w, err := c.ts.TextWidth(ln, font, size.ToPT())
		if err != nil {
			return TextBox{}, err
		}
		if w > width {
			tb.Overflow = true
		}
		tb.Lines = append(tb.Lines, TextLine{Content: ln, Width: w, Height: lh})
		if i > 0 {
			tb.Content += "\n"
		}
		tb.Content += ln
	}
	tb.Height = lh * float64(len(lines))
	return tb, nil
}

// layoutCell 把 item 排进左上角为 (x, y) 的格子。
func (c *cellLayout) layoutCell(page *Page, slot int, item label.Item, x, y float64) error {
	g := c.grid
	if c.opts.ShowOutline {
		page.Rects = append(page.Rects, Rect{
			Role: RoleOutline, Slot: slot,
			X: x, Y: y, Width: g.CellWidth, Height: g.CellHeight,
			Radius:      g.CornerRadius,
			StrokeColor: ColorOutline,
			StrokeWidth: outlineWidth,
		})
	}
	align := c.opts.Align
	if align == "" {
		align = AlignCenter
	}
	base := item.EffectiveFontSize()
	switch item.Kind {
	case label.ModeProduct:
		if item.Product == nil {
			return fmt.Errorf("产品标签 %s 缺少字段", item.ID)
		}
		return c.layoutProduct(page, slot, *item.Product, base, x, y, align)
	case label.ModeMeasure:
		if item.Measure == nil {
			return fmt.Errorf("尺寸标签 %s 缺少字段", item.ID)
		}
		return c.layoutMeasure(page, slot, *item.Measure, base, x, y, align)
	default:
		return fmt.Errorf("条目 %s 的类型 %q 未知", item.ID, item.Kind)
	}
}

func (c *cellLayout) productLines(p label.ProductFields, base float64) []lineSpec {
	return []lineSpec{
		{role: RoleTitle, text: c.upper.String(p.SKU), font: FontBold, start: base, color: ColorBlack},
		{role: RolePrice, text: p.Price, font: FontRegular, start: base, color: ColorBlack},
		{role: RoleNote, text: c.upper.String(p.Note), font: FontRegular, start: base * noteRatio, color: ColorMuted},
	}
}

func (c *cellLayout) layoutProduct(page *Page, slot int, p label.ProductFields, base, x, y float64, align Align) error {
	g := c.grid
	if p.Voltage == label.VoltageNone {
		return c.place(page, slot, c.productLines(p, base), x+cellPaddingX, y, g.CellWidth-2*cellPaddingX, g.CellHeight, align)
	}

	// 左区固定左对齐，不受全局对齐设置影响
	half := g.CellWidth / 2
	leftWidth := half - zoneGap - cellPaddingX
	if err := c.place(page, slot, c.productLines(p, base), x+cellPaddingX, y, leftWidth, g.CellHeight, AlignLeft); err != nil {
		return err
	}

	zx, zy := x+half, y+zoneInset
	zw, zh := half-zoneInset, g.CellHeight-2*zoneInset
	page.Rects = append(page.Rects, Rect{
		Role: RoleZone, Slot: slot,
		X: zx, Y: zy, Width: zw, Height: zh,
		Radius:      g.CornerRadius,
		StrokeColor: ColorBlack,
		StrokeWidth: voltageBorder,
	})

	innerW := zw - 2*zonePadding
	digits := p.Voltage.Digits()
	bold := c.fonts[FontBold]
	digitSize, err := c.sizer.Fit([]string{digits}, bold, innerW, base*voltageRatio)
	if err != nil {
		return err
	}
	return c.place(page, slot, []lineSpec{
		{role: RoleVoltage, text: digits, font: FontBold, start: digitSize, color: ColorBlack},
		{role: RoleVolts, text: voltsLabel, font: FontBold, start: digitSize * voltsLabelRatio, color: ColorBlack},
	}, zx+zonePadding, zy, innerW, zh, AlignCenter)
}

func (c *cellLayout) layoutMeasure(page *Page, slot int, m label.MeasureFields, base, x, y float64, align Align) error {
	g := c.grid
	text := c.upper.String(m.Text)
	availW := g.CellWidth - 2*cellPaddingX
	spec := lineSpec{role: RoleMeasure, text: text, font: FontBold, start: base, color: ColorBlack}
	if !m.Wrap {
		return c.place(page, slot, []lineSpec{spec}, x+cellPaddingX, y, availW, g.CellHeight, align)
	}

	// 在起始字号下按可用宽度贪心折行，再把所有行作为一组缩放
	bold := c.fonts[FontBold]
	start := Length{Value: base * c.sizer.Factor, Unit: UnitPT}
	wrapped, err := c.ts.LayoutLines(text, availW, bold, start.ToMM(), lineHeightSpec.Resolve(start, UnitMM))
	if err != nil {
		return err
	}
	contents := make([]string, 0, len(wrapped))
	for _, ln := range wrapped {
		contents = append(contents, ln.Content)
	}
	if len(contents) == 0 {
		contents = []string{""}
	}
	size, err := c.sizer.Fit(contents, bold, availW, base)
	if err != nil {
		return err
	}
	tb, err := c.textBox(slot, spec, contents, size, x+cellPaddingX, availW, align)
	if err != nil {
		return err
	}
	tb.Y = y + (g.CellHeight-tb.Height)/2
	if tb.Content != "" {
		page.Texts = append(page.Texts, tb)
	}
	return nil
}
