package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/ByLCY/labelsheet/label"
)

// MaxPages 是单次排版允许生成的页数上限（含只有占位的前导页）。
const MaxPages = 1000

// ErrTooManyPages 表示条目数与起始偏移合计超出 MaxPages 页。
var ErrTooManyPages = errors.New("排版页数超过上限")

// CellFunc 在页内指定格子中排版一个条目。
type CellFunc func(page *Page, slot int, item label.Item, x, y float64) error

// PageCount 返回 n 个条目加 offset 个前导空位所需的页数，至少 1 页。
// 分别按页取整再合并余数，n+offset 超出 int 范围时也不会溢出。
func PageCount(n, offset int, grid Grid) int {
	n, offset = max(n, 0), max(offset, 0)
	per := grid.LabelsPerPage()
	whole := n/per + offset/per
	if whole < n/per { // 溢出时饱和
		return math.MaxInt
	}
	rest := (n%per + offset%per + per - 1) / per
	if whole > math.MaxInt-rest {
		return math.MaxInt
	}
	return max(whole+rest, 1)
}

// MaxStartOffset 返回在 grid 上仍能放下至少一个条目的最大起始偏移。
func MaxStartOffset(grid Grid) int {
	return MaxPages*grid.LabelsPerPage() - 1
}

// CheckPages 检查 n 个条目加 offset 个空位是否在 MaxPages 以内。
func CheckPages(n, offset int, grid Grid) error {
	if pages := PageCount(n, offset, grid); pages > MaxPages {
		return fmt.Errorf("%w: 需要 %d 页，最多 %d 页", ErrTooManyPages, pages, MaxPages)
	}
	return nil
}

// Paginate 按队列顺序依次把条目分配到 (页, 行, 列)，前面补 offset 个占位格。
// 占位格不产生任何绘制调用；offset 超过一页时会产生只有占位的前导页。
func Paginate(items []label.Item, grid Grid, opts RenderOptions, cell CellFunc) ([]Page, error) {
	offset := max(opts.StartOffset, 0)
	if err := CheckPages(len(items), offset, grid); err != nil {
		return nil, err
	}
	per := grid.LabelsPerPage()
	pages := make([]Page, PageCount(len(items), offset, grid))
	for i := range pages {
		pages[i] = Page{Number: i + 1, Width: grid.PageWidth, Height: grid.PageHeight}
	}
	for i, item := range items {
		slot := offset + i
		page := &pages[slot/per]
		x, y, _, _ := grid.Slot(slot % per)
		if err := cell(page, slot, item, x, y); err != nil {
			return nil, err
		}
	}
	return pages, nil
}
