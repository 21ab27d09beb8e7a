package layout

import "fmt"

// Grid 描述一种不干胶标签纸的物理几何（单位 mm），渲染期间不可变。
type Grid struct {
	Name         string  `json:"name" yaml:"name"`
	PageWidth    float64 `json:"pageWidth" yaml:"page_width"`
	PageHeight   float64 `json:"pageHeight" yaml:"page_height"`
	Columns      int     `json:"columns" yaml:"columns"`
	Rows         int     `json:"rows" yaml:"rows"`
	CellWidth    float64 `json:"cellWidth" yaml:"cell_width"`
	CellHeight   float64 `json:"cellHeight" yaml:"cell_height"`
	MarginLeft   float64 `json:"marginLeft" yaml:"margin_left"`
	MarginTop    float64 `json:"marginTop" yaml:"margin_top"`
	ColumnGap    float64 `json:"columnGap" yaml:"column_gap"`
	RowGap       float64 `json:"rowGap" yaml:"row_gap"`
	CornerRadius float64 `json:"cornerRadius" yaml:"corner_radius"`
}

// DefaultGrid 是随产品发布的 A4 7×18 标签纸。
var DefaultGrid = Grid{
	Name:         "A4249",
	PageWidth:    210,
	PageHeight:   297,
	Columns:      7,
	Rows:         18,
	CellWidth:    26,
	CellHeight:   15,
	MarginLeft:   8,
	MarginTop:    13,
	ColumnGap:    2,
	RowGap:       0,
	CornerRadius: 0.5,
}

// LabelsPerPage 返回每页的格子数。
func (g Grid) LabelsPerPage() int { return g.Columns * g.Rows }

// Slot 返回页内第 i 个格子的左上角坐标及其行列号。
func (g Grid) Slot(i int) (x, y float64, col, row int) {
	col = i % g.Columns
	row = i / g.Columns
	x = g.MarginLeft + float64(col)*(g.CellWidth+g.ColumnGap)
	y = g.MarginTop + float64(row)*(g.CellHeight+g.RowGap)
	return x, y, col, row
}

// Validate 只做构造期的基本检查。
func (g Grid) Validate() error {
	if g.Columns <= 0 || g.Rows <= 0 {
		return fmt.Errorf("网格行列数必须为正: %dx%d", g.Columns, g.Rows)
	}
	if g.CellWidth <= 0 || g.CellHeight <= 0 {
		return fmt.Errorf("格子尺寸必须为正: %gx%g", g.CellWidth, g.CellHeight)
	}
	if g.PageWidth <= 0 || g.PageHeight <= 0 {
		return fmt.Errorf("页面尺寸必须为正: %gx%g", g.PageWidth, g.PageHeight)
	}
	if g.MarginLeft < 0 || g.MarginTop < 0 || g.ColumnGap < 0 || g.RowGap < 0 || g.CornerRadius < 0 {
		return fmt.Errorf("边距、间隙与圆角不能为负")
	}
	return nil
}

func (g Grid) isZero() bool { return g.Columns == 0 && g.Rows == 0 && g.CellWidth == 0 }
