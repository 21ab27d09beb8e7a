package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/labelsheet/label"
	"github.com/ByLCY/labelsheet/layout"
)

// maxCopies 限制单条声明展开的份数，与界面上数量输入框一致。
const maxCopies = 999

// Sheet 是队列文件编译后的渲染输入。
type Sheet struct {
	Name    string
	Mode    label.Mode
	Options layout.RenderOptions
	Items   []label.Item
}

// Compile 把语法树转换为渲染输入；条目按文件中的顺序排列，copies 在原位展开。
// 条目经由 label.Queue 加入：Queue.Add 总是插到头部，所以按声明的逆序加入。
func Compile(doc *Document) (*Sheet, error) {
	if doc == nil {
		return nil, fmt.Errorf("队列文件为空")
	}
	sheet := &Sheet{Name: doc.Name}
	modeSet := false
	var decls []*ItemDecl
	for _, sec := range doc.Sections {
		switch {
		case sec.Sheet != nil:
			set, err := applySheet(sheet, sec.Sheet.Block)
			if err != nil {
				return nil, err
			}
			modeSet = modeSet || set
		case sec.Items != nil:
			decls = append(decls, sec.Items.Decls...)
		}
	}
	if !modeSet {
		sheet.Mode = label.ModeProduct
		if len(decls) > 0 {
			sheet.Mode = declMode(decls[0])
		}
	}

	items := make([]label.Item, len(decls))
	copies := make([]int, len(decls))
	for i, d := range decls {
		var err error
		if items[i], copies[i], err = compileItem(d); err != nil {
			return nil, err
		}
	}
	q := label.NewQueue(sheet.Mode)
	for i := len(decls) - 1; i >= 0; i-- {
		if _, err := q.Add(copies[i], items[i]); err != nil {
			return nil, posErr(decls[i].Pos, err)
		}
	}
	sheet.Items = q.Snapshot()
	return sheet, nil
}

func applySheet(sheet *Sheet, block *Block) (modeSet bool, err error) {
	if block == nil {
		return false, nil
	}
	for _, st := range block.Statements {
		raw := st.Value.Raw()
		switch st.Key {
		case "mode":
			mode, err := label.ParseMode(raw)
			if err != nil {
				return false, posErr(st.Pos, err)
			}
			sheet.Mode = mode
			modeSet = true
		case "outline":
			b, err := parseBool(raw)
			if err != nil {
				return false, posErr(st.Pos, err)
			}
			sheet.Options.ShowOutline = b
		case "offset":
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return false, posErr(st.Pos, fmt.Errorf("offset 必须为非负整数，实际 %q", raw))
			}
			// 实际纸张可能更小，Build 会按生效的网格再检查一次
			if limit := layout.MaxStartOffset(layout.DefaultGrid); n > limit {
				return false, posErr(st.Pos, fmt.Errorf("offset %d 超过上限 %d", n, limit))
			}
			sheet.Options.StartOffset = n
		case "align":
			sheet.Options.Align = layout.ParseAlign(strings.ToLower(raw))
		default:
			return false, posErr(st.Pos, fmt.Errorf("sheet 不支持属性 %q", st.Key))
		}
	}
	return modeSet, nil
}

func declMode(d *ItemDecl) label.Mode {
	if d.Kind == "measure" {
		return label.ModeMeasure
	}
	return label.ModeProduct
}

// compileItem 返回声明的条目及其份数。
func compileItem(d *ItemDecl) (label.Item, int, error) {
	var item label.Item
	var product label.ProductFields
	var measure label.MeasureFields
	copies := 1
	fontSize := 0.0

	kind := declMode(d)
	if kind == label.ModeProduct {
		product.SKU = string(d.Title)
	} else {
		measure.Text = string(d.Title)
	}

	var stmts []*Assignment
	if d.Block != nil {
		stmts = d.Block.Statements
	}
	for _, st := range stmts {
		raw := st.Value.Raw()
		var err error
		switch {
		case st.Key == "copies":
			copies, err = strconv.Atoi(raw)
			if err == nil && (copies < 1 || copies > maxCopies) {
				err = fmt.Errorf("copies 超出范围 1-%d: %d", maxCopies, copies)
			}
		case st.Key == "size":
			fontSize, err = parseSize(raw)
		case kind == label.ModeProduct && st.Key == "price":
			product.Price = raw
		case kind == label.ModeProduct && st.Key == "note":
			product.Note = raw
		case kind == label.ModeProduct && st.Key == "voltage":
			product.Voltage, err = label.ParseVoltage(raw)
		case kind == label.ModeMeasure && st.Key == "wrap":
			measure.Wrap, err = parseBool(raw)
		default:
			err = fmt.Errorf("%s 不支持属性 %q", d.Kind, st.Key)
		}
		if err != nil {
			return item, 0, posErr(st.Pos, err)
		}
	}

	if kind == label.ModeProduct {
		item = label.NewProduct(product)
	} else {
		item = label.NewMeasurement(measure)
	}
	item.FontSize = fontSize
	return item, copies, nil
}

// parseSize 接受 pt 或无单位数值，其他长度单位换算为 pt，结果钳制到滑块范围。
func parseSize(raw string) (float64, error) {
	l := layout.ParseRawLengthStr(raw)
	if l.Value <= 0 {
		return 0, fmt.Errorf("字号不合法: %q", raw)
	}
	pt := l.Value
	if l.Unit != layout.UnitNone && l.Unit != layout.UnitPT {
		pt = l.ToPT()
	}
	return label.ClampFontSize(pt), nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "yes", "on", "sim":
		return true, nil
	case "false", "no", "off", "nao":
		return false, nil
	default:
		return false, fmt.Errorf("无法解析布尔值 %q", raw)
	}
}

func posErr(pos lexer.Position, err error) error {
	return fmt.Errorf("%s: %w", pos, err)
}
