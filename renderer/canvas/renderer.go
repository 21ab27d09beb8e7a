package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/labelsheet/fonts"
	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/renderer"
)

const defaultStrokeWidth = 0.2

// Renderer 用 tdewolff/canvas 把标签页输出为 PDF，同时充当布局的 Typesetter，
// 度量与绘制使用同一组字体面。
type Renderer struct {
	baseDir string

	// canvas 的字体对象不保证并发安全，度量与绘制串行执行
	drawMu sync.Mutex

	fontMu   sync.Mutex
	families map[string]loadedFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ renderer.Engine   = (*Renderer)(nil)
)

type loadedFamily struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// NewRenderer 创建渲染器；相对路径的字体文件从 baseDir 读取，baseDir 为空时只接受 embed: 字体。
func NewRenderer(baseDir string) *Renderer {
	return &Renderer{baseDir: baseDir, families: map[string]loadedFamily{}}
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	r.drawMu.Lock()
	defer r.drawMu.Unlock()

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, fmt.Errorf("第 %d 页绘制失败: %w", page.Number, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// TextWidth 实现 layout.Typesetter：返回 content 在 sizePt 点下的宽度（mm）。
func (r *Renderer) TextWidth(content string, font layout.FontResource, sizePt float64) (float64, error) {
	r.drawMu.Lock()
	defer r.drawMu.Unlock()
	face, err := r.fontFace(font, sizePt, layout.ColorBlack)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(content), nil
}

// LayoutLines 实现 layout.Typesetter。fontSize 与 lineHeight 以 mm 传入，
// 字体面按 pt 创建；行距超出字形高度的部分记在后续行的 GapBefore 上。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64) ([]layout.TextLine, error) {
	r.drawMu.Lock()
	defer r.drawMu.Unlock()
	face, err := r.fontFace(font, toPt(fontSize), layout.ColorBlack)
	if err != nil {
		return nil, err
	}
	lines := wrapText(content, width, face.TextWidth)
	glyph := face.Metrics().LineHeight
	if glyph <= 0 {
		glyph = lineHeight
	}
	gap := math.Max(lineHeight-glyph, 0)
	for i := range lines {
		lines[i].Height = glyph
		if i > 0 {
			lines[i].GapBefore = gap
		}
	}
	return lines, nil
}

// drawPage 先画边框，再画文本，文本不会被边框覆盖。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	r.drawRects(ctx, page.Rects)
	for _, tb := range page.Texts {
		fontRes := resolveFontResource(tb.Font, resources.Fonts)
		if err := r.drawTextBox(ctx, tb, fontRes); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(fontRes, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch layout.Align(strings.ToLower(tb.Align)) {
	case layout.AlignCenter:
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	metrics := face.Metrics()
	glyphHeight := metrics.Ascent + metrics.Descent
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.LineHeight
		}
		// 字形在行盒内垂直居中，基线 = 行顶 + 半个行距 + 上升部
		baseline := cursorY + (lineHeight-glyphHeight)/2 + metrics.Ascent
		ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += lineHeight
	}
	return nil
}

// drawRects 只描边绘制圆角矩形。
func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		w := rc.StrokeWidth
		if w <= 0 {
			w = defaultStrokeWidth
		}
		ctx.SetFillColor(color.RGBA{})
		ctx.SetStrokeColor(colorFromLayout(rc.StrokeColor))
		ctx.SetStrokeWidth(w)
		shape := canvas.Rectangle(rc.Width, rc.Height)
		if rc.Radius > 0 {
			shape = canvas.RoundedRectangle(rc.Width, rc.Height, rc.Radius)
		}
		ctx.DrawPath(rc.X, rc.Y, shape)
	}
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := font.Name + "|" + font.Src + "|" + font.Style
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if lf, ok := r.families[key]; ok {
		return lf.family, lf.style, nil
	}

	lf := loadedFamily{family: canvas.NewFontFamily(font.Name), style: parseFontStyle(font.Style)}
	data, err := r.fontBytes(font.Src)
	if err == nil {
		err = lf.family.LoadFont(data, 0, lf.style)
	}
	if err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("加载字体 %s (%s): %w", font.Name, font.Src, err)
	}
	r.families[key] = lf
	return lf.family, lf.style, nil
}

// fontBytes 读取 embed:<name> 内置字体，或 baseDir 下的字体文件。
func (r *Renderer) fontBytes(src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("字体缺少 src")
	case strings.HasPrefix(src, "embed:"):
		return fonts.Load(src)
	case filepath.IsAbs(src):
		return os.ReadFile(src)
	case r.baseDir == "":
		return nil, fmt.Errorf("未指定资源目录，不能读取字体文件 %s", src)
	default:
		return os.ReadFile(filepath.Join(r.baseDir, src))
	}
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts[layout.FontRegular]; ok {
		return font
	}
	return layout.DefaultFonts()[layout.FontRegular]
}

func parseFontStyle(style string) canvas.FontStyle {
	if strings.EqualFold(style, "bold") {
		return canvas.FontBold
	}
	return canvas.FontRegular
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
