package layout

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有坐标与尺寸均以毫米为单位，原点为页面左上角。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages       []Page       `json:"pages"`
	Resources   ResourceSet  `json:"resources"`
	Meta        DocumentMeta `json:"meta"`
	Calibration float64      `json:"calibration"` // 本次渲染使用的字号校准系数
	Labels      int          `json:"labels"`      // 实际绘制的标签数（不含占位）
}

// ResourceSet 记录渲染所需的字体。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径或 embed:* 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// 内置的两种字重。
const (
	FontRegular = "Regular"
	FontBold    = "Bold"
)

// DefaultFonts 返回使用内置 Go 字体的资源表。
func DefaultFonts() map[string]FontResource {
	return map[string]FontResource{
		FontRegular: {Name: FontRegular, Src: "embed:goregular", Style: "regular"},
		FontBold:    {Name: FontBold, Src: "embed:gobold", Style: "bold"},
	}
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	ColorBlack   = Color{}
	ColorMuted   = Color{R: 120, G: 120, B: 120}
	ColorOutline = Color{R: 220, G: 220, B: 220}
)

// Page 记录页面尺寸与可以直接渲染的元素。渲染器先绘制 Rects，再绘制 Texts。
type Page struct {
	Number int       `json:"number"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Texts  []TextBox `json:"texts"`
	Rects  []Rect    `json:"rects,omitempty"`
}

// TextBox 表示一个已经排好坐标的文本块，自带完整样式，不依赖任何环境状态。
type TextBox struct {
	Content     string     `json:"content"`
	Role        string     `json:"role"` // title/price/note/voltage/volts/measure
	Slot        int        `json:"slot"` // 在整个偏移+条目序列中的序号
	X           float64    `json:"x"`
	Y           float64    `json:"y"` // 第一行顶部
	Width       float64    `json:"width"`
	LineHeight  float64    `json:"lineHeight"`
	Font        string     `json:"font"`
	FontSize    float64    `json:"fontSize"`    // 已校准的实际字号（mm）
	NominalSize float64    `json:"nominalSize"` // 自动缩放后的名义字号（pt）
	Color       Color      `json:"color"`
	Lines       []TextLine `json:"lines"`
	Height      float64    `json:"height"`
	Align       string     `json:"align,omitempty"` // left/center（默认 left）
	Overflow    bool       `json:"overflow,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// Rect 表示一个可带圆角的矩形。
type Rect struct {
	Role        string  `json:"role"` // outline/voltage-zone
	Slot        int     `json:"slot"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Radius      float64 `json:"radius"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"` // mm，矩形只描边不填充
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
