package layout

import (
	"strconv"
	"strings"
)

// Unit 记录长度值书写时的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位，按原值使用
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// pt 与 mm 的换算常数。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// 每种单位折合多少毫米；后缀按书写顺序匹配。
var unitSuffixes = []struct {
	suffix string
	unit   Unit
	mm     float64
}{
	{"mm", UnitMM, 1},
	{"cm", UnitCM, 10},
	{"in", UnitIN, 25.4},
	{"pt", UnitPT, PtToMm},
}

// Length 保留数值和它的单位，换算延迟到使用处。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func mmPerUnit(u Unit) float64 {
	for _, s := range unitSuffixes {
		if s.unit == u {
			return s.mm
		}
	}
	return 1
}

// To 换算到 UnitMM 或 UnitPT；无单位数值原样返回。
func (l Length) To(target Unit) float64 {
	if l.Unit == UnitNone || l.Unit == target {
		return l.Value
	}
	mm := l.Value * mmPerUnit(l.Unit)
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr 解析 "8.5pt"、"3mm" 之类的长度；无法解析时返回零值。
func ParseRawLengthStr(value string) Length {
	v := strings.ToLower(strings.TrimSpace(value))
	out := Length{}
	for _, s := range unitSuffixes {
		if rest, ok := strings.CutSuffix(v, s.suffix); ok {
			v, out.Unit = strings.TrimSpace(rest), s.unit
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}
	}
	out.Value = f
	return out
}

// LineHeightSpec 以字号的倍数表示行高。
type LineHeightSpec struct {
	Factor float64 `json:"factor"`
}

// Resolve 以 fontSize 为基准求出 target 单位下的行高；Factor 未设置时取 1.15。
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	f := s.Factor
	if f <= 0 {
		f = lineHeightFactor
	}
	return fontSize.To(target) * f
}
