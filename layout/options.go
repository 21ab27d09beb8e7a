package layout

// BuildOptions 配置布局阶段所需的依赖，例如排版后端与网格几何。
type BuildOptions struct {
	Typesetter Typesetter
	Grid       Grid          // 为零值时使用 DefaultGrid
	Render     RenderOptions // 每次渲染的显示选项
	Meta       DocumentMeta
	Fonts      map[string]string // FontRegular/FontBold → 字体 src，覆盖内置字体
}

// Align 是标签内文本的水平对齐方式。
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
)

// ParseAlign 支持 left/center 及 start 别名，其余输入回落为 center。
func ParseAlign(v string) Align {
	switch v {
	case "left", "start", "esquerda":
		return AlignLeft
	default:
		return AlignCenter
	}
}

// RenderOptions 是一次渲染的临时显示选项。
type RenderOptions struct {
	ShowOutline bool  `json:"showOutline" yaml:"show_outline"`
	StartOffset int   `json:"startOffset" yaml:"start_offset"` // 第一个条目之前跳过的空位数
	Align       Align `json:"textAlign" yaml:"text_align"`
}

// Typesetter 是输出引擎暴露给布局的度量能力。
// 约定：宽度与 fontSize/lineHeight 入参均为毫米（mm），sizePt 为已校准的实际点数。
// LayoutLines 在空白处贪心折行，单词超宽时在词内断开，显式换行总是开始新行。
type Typesetter interface {
	TextWidth(content string, font FontResource, sizePt float64) (float64, error)
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64) ([]TextLine, error)
}
