package layout

// 自动缩放的默认下限与步长（名义 pt）。
const (
	DefaultFitFloor = 3.5
	DefaultFitStep  = 0.3
)

// Sizer 在给定可用宽度内逐步缩小名义字号，直到文本放得下或触及下限。
// 所有字号都是名义 pt，测量时乘以 Factor 交给输出引擎。
type Sizer struct {
	Typesetter Typesetter
	Factor     float64
	Floor      float64
	Step       float64
}

// NewSizer 使用默认下限与步长。
func NewSizer(ts Typesetter, factor float64) Sizer {
	return Sizer{Typesetter: ts, Factor: factor, Floor: DefaultFitFloor, Step: DefaultFitStep}
}

// Width 返回多行文本在名义字号 sizePt 下的最大宽度（mm）。
func (s Sizer) Width(lines []string, font FontResource, sizePt float64) (float64, error) {
	widest := 0.0
	for _, ln := range lines {
		w, err := s.Typesetter.TextWidth(ln, font, sizePt*s.Factor)
		if err != nil {
			return 0, err
		}
		if w > widest {
			widest = w
		}
	}
	return widest, nil
}

// Fit 返回 lines 中最宽一行能放进 maxWidth 的最大候选字号。
// 候选序列为 start, start-step, ...，不会低于 Floor；触及下限时仍可能溢出，这不是错误。
func (s Sizer) Fit(lines []string, font FontResource, maxWidth, startPt float64) (float64, error) {
	floor, step := s.Floor, s.Step
	if step <= 0 {
		step = DefaultFitStep
	}
	size := startPt
	for k := 1; ; k++ {
		w, err := s.Width(lines, font, size)
		if err != nil {
			return 0, err
		}
		if w <= maxWidth || size <= floor {
			return size, nil
		}
		// 第 k 个候选为 start-k*step
		size = startPt - float64(k)*step
		if size < floor {
			size = floor
		}
	}
}
