package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ByLCY/labelsheet/label"
	"github.com/ByLCY/labelsheet/layout"
	canvasrenderer "github.com/ByLCY/labelsheet/renderer/canvas"
)

// fakeEngine 以字符数估算宽度；SKU 为 "slow" 的文档会阻塞到 gate 关闭。
type fakeEngine struct {
	perChar   float64
	renderErr error
	gate      chan struct{}
}

func (f *fakeEngine) TextWidth(content string, _ layout.FontResource, sizePt float64) (float64, error) {
	return float64(len([]rune(content))) * sizePt * f.perChar, nil
}

func (f *fakeEngine) LayoutLines(content string, _ float64, _ layout.FontResource, fontSize, _ float64) ([]layout.TextLine, error) {
	return []layout.TextLine{{Content: content, Height: fontSize}}, nil
}

func (f *fakeEngine) Render(res *layout.Result) ([]byte, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	for _, p := range res.Pages {
		for _, tb := range p.Texts {
			if tb.Content == "SLOW" && f.gate != nil {
				<-f.gate
			}
		}
	}
	return []byte(fmt.Sprintf("%%PDF-fake %d", len(res.Pages))), nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("doc-%d", s.n), nil
}

func newTestAssembler(engine *fakeEngine) (*Assembler, *MemoryStore) {
	store := NewMemoryStore()
	a := NewAssembler(engine, store, Options{})
	a.clock = fixedClock{t: time.UnixMilli(1700000000123)}
	a.id = &seqID{}
	return a, store
}

func productRequest(n int, sku string) Request {
	items := make([]label.Item, n)
	for i := range items {
		items[i] = label.NewProduct(label.ProductFields{SKU: sku, Price: "1,00", Note: "un"})
	}
	return Request{Mode: label.ModeProduct, Items: items}
}

func TestRenderStoresDocument(t *testing.T) {
	a, store := newTestAssembler(&fakeEngine{perChar: 0.2})
	ctx := context.Background()

	h, err := a.Render(ctx, productRequest(130, "cx464"))
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if h.ID != "doc-1" || h.Pages != 2 || h.Labels != 130 || h.Mode != "product" {
		t.Fatalf("Handle 错误: %+v", h)
	}
	if h.Filename != "startools_print_1700000000123.pdf" {
		t.Fatalf("文件名错误: %s", h.Filename)
	}
	got, data, err := a.Open(ctx, h.ID)
	if err != nil || got != h || !bytes.HasPrefix(data, []byte("%PDF")) || h.Size != len(data) {
		t.Fatalf("读取文档失败: %+v %v", got, err)
	}

	if err := a.Release(ctx, h.ID); err != nil {
		t.Fatalf("释放失败: %v", err)
	}
	if err := a.Release(ctx, h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("重复释放应返回 ErrNotFound，实际 %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("释放后不应保留文档")
	}
}

func TestFailedRenderStoresNothing(t *testing.T) {
	a, store := newTestAssembler(&fakeEngine{perChar: 0.2, renderErr: errors.New("disk full")})
	if _, err := a.Render(context.Background(), productRequest(1, "a")); err == nil {
		t.Fatalf("渲染错误应向上返回")
	}
	if store.Len() != 0 {
		t.Fatalf("失败的渲染不应存储任何文档")
	}

	a, store = newTestAssembler(&fakeEngine{perChar: 0})
	_, err := a.Render(context.Background(), productRequest(1, "a"))
	var ce *layout.CalibrationError
	if !errors.As(err, &ce) || store.Len() != 0 {
		t.Fatalf("校准失败应中止渲染，实际 %v", err)
	}
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	a, store := newTestAssembler(&fakeEngine{perChar: 0.2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Render(ctx, productRequest(1, "a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("已取消的上下文应返回 context.Canceled，实际 %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("取消后不应存储文档")
	}
}

func TestRenderDoesNotMutateCallerItems(t *testing.T) {
	a, _ := newTestAssembler(&fakeEngine{perChar: 0.2})
	req := productRequest(1, "abc")
	if _, err := a.Render(context.Background(), req); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if req.Items[0].Product.SKU != "abc" {
		t.Fatalf("调用方的条目不应被修改")
	}
}

func TestRenderWithCanvasEngine(t *testing.T) {
	a := NewAssembler(canvasrenderer.NewRenderer(""), nil, Options{})
	req := Request{
		Mode: label.ModeMeasure,
		Items: []label.Item{
			label.NewMeasurement(label.MeasureFields{Text: "74x107"}),
			label.NewMeasurement(label.MeasureFields{Text: "parafuso sextavado inox 3/8", Wrap: true}),
		},
		Options: layout.RenderOptions{ShowOutline: true, StartOffset: 3},
	}
	h, err := a.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	_, data, err := a.Open(context.Background(), h.ID)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("应生成真实 PDF: %v", err)
	}
	if len(h.ID) != 26 {
		t.Fatalf("ID 应为 ULID: %s", h.ID)
	}
}

func TestFilenameTemplateAndFonts(t *testing.T) {
	store := NewMemoryStore()
	a := NewAssembler(&fakeEngine{perChar: 0.2}, store, Options{
		FilenameTemplate: "${sheet.name}_${mode}_${labels}x${pages}",
		Fonts:            map[string]string{layout.FontRegular: "embed:gomono"},
	})
	a.clock = fixedClock{t: time.UnixMilli(1)}
	a.id = &seqID{}
	ctx := context.Background()

	h, err := a.Render(ctx, productRequest(3, "a"))
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if h.Filename != "A4249_product_3x1.pdf" {
		t.Fatalf("文件名错误: %s", h.Filename)
	}
	res, err := a.Layout(ctx, productRequest(1, "a"))
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	if got := res.Resources.Fonts[layout.FontRegular].Src; got != "embed:gomono" {
		t.Fatalf("配置的常规体未生效: %s", got)
	}
}
