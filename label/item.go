package label

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Mode 是整份文档的记录类型，决定队列中每个条目启用哪一组字段。
type Mode string

const (
	ModeProduct Mode = "product"
	ModeMeasure Mode = "measure"
)

// ParseMode 接受 product/measure 以及旧版前端使用的 PRODUCT/MEASURE 写法。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product", "produto", "produtos":
		return ModeProduct, nil
	case "measure", "measurement", "medida", "medidas":
		return ModeMeasure, nil
	default:
		return "", fmt.Errorf("未知的标签模式 %q", s)
	}
}

// DefaultFontSize 返回该模式下未指定字号时使用的名义字号（pt）。
func (m Mode) DefaultFontSize() float64 {
	if m == ModeMeasure {
		return 14
	}
	return 8.5
}

// Voltage 是产品标签右侧电压徽标的取值。
type Voltage string

const (
	VoltageNone Voltage = ""
	Voltage127  Voltage = "127V"
	Voltage220  Voltage = "220V"
)

// ParseVoltage 把 "220"、"220v"、"NONE"、"DESL" 等输入归一化。
func ParseVoltage(s string) (Voltage, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "V")
	switch v {
	case "", "NONE", "DESL", "OFF":
		return VoltageNone, nil
	case "127":
		return Voltage127, nil
	case "220":
		return Voltage220, nil
	default:
		return VoltageNone, fmt.Errorf("不支持的电压 %q", s)
	}
}

// Digits 返回徽标中绘制的数字部分，例如 "220"。
func (v Voltage) Digits() string { return strings.TrimSuffix(string(v), "V") }

// ProductFields 是产品模式下的字段。价格保持原样，不做数值校验。
type ProductFields struct {
	SKU     string  `json:"sku"`
	Price   string  `json:"price"`
	Note    string  `json:"note"`
	Voltage Voltage `json:"voltage,omitempty"`
}

// MeasureFields 是尺寸模式下的字段。
type MeasureFields struct {
	Text string `json:"text"`
	Wrap bool   `json:"wrap,omitempty"`
}

// Item 是队列中的一张标签。Kind 决定 Product 与 Measure 中哪一个有效，
// 另一个必须为空。
type Item struct {
	ID       string         `json:"id"`
	Kind     Mode           `json:"kind"`
	Product  *ProductFields `json:"product,omitempty"`
	Measure  *MeasureFields `json:"measure,omitempty"`
	FontSize float64        `json:"fontSize,omitempty"` // 名义字号（pt），0 表示使用模式默认值
}

var (
	ErrEmptyItem    = errors.New("标签内容为空")
	ErrKindMismatch = errors.New("标签类型与文档模式不一致")
)

// NewProduct 创建一个新的产品标签并分配 ID。
func NewProduct(f ProductFields) Item {
	return Item{ID: uuid.NewString(), Kind: ModeProduct, Product: &f}
}

// NewMeasurement 创建一个新的尺寸标签并分配 ID。
func NewMeasurement(f MeasureFields) Item {
	return Item{ID: uuid.NewString(), Kind: ModeMeasure, Measure: &f}
}

// Validate 检查条目与文档模式一致，且只携带其类型对应的字段。
func (it Item) Validate(mode Mode) error {
	if it.Kind != mode {
		return fmt.Errorf("%w: 条目 %s 为 %s，文档为 %s", ErrKindMismatch, it.ID, it.Kind, mode)
	}
	switch it.Kind {
	case ModeProduct:
		if it.Product == nil || it.Measure != nil {
			return fmt.Errorf("产品标签 %s 字段不合法", it.ID)
		}
	case ModeMeasure:
		if it.Measure == nil || it.Product != nil {
			return fmt.Errorf("尺寸标签 %s 字段不合法", it.ID)
		}
	default:
		return fmt.Errorf("条目 %s 的类型 %q 未知", it.ID, it.Kind)
	}
	if it.FontSize < 0 || math.IsNaN(it.FontSize) || math.IsInf(it.FontSize, 0) {
		return fmt.Errorf("条目 %s 的字号 %g 不合法", it.ID, it.FontSize)
	}
	return nil
}

// Empty 表示条目中所有相关字段都为空。
func (it Item) Empty() bool {
	switch {
	case it.Product != nil:
		p := it.Product
		return strings.TrimSpace(p.SKU) == "" && strings.TrimSpace(p.Price) == "" && strings.TrimSpace(p.Note) == ""
	case it.Measure != nil:
		return strings.TrimSpace(it.Measure.Text) == ""
	default:
		return true
	}
}

// Incomplete 表示产品标签缺少 SKU、价格、备注中的某一项（界面会先请求确认）。
func (it Item) Incomplete() bool {
	if it.Product == nil {
		return false
	}
	p := it.Product
	return p.SKU == "" || p.Price == "" || p.Note == ""
}

// EffectiveFontSize 返回条目的名义字号，未设置时回落到模式默认值。
func (it Item) EffectiveFontSize() float64 {
	if it.FontSize > 0 {
		return it.FontSize
	}
	return it.Kind.DefaultFontSize()
}

// Clone 返回不共享字段指针的副本。
func (it Item) Clone() Item {
	out := it
	if it.Product != nil {
		p := *it.Product
		out.Product = &p
	}
	if it.Measure != nil {
		m := *it.Measure
		out.Measure = &m
	}
	return out
}

// 字号滑块的取值范围。
const (
	MinFontSize  = 4.0
	MaxFontSize  = 24.0
	FontSizeStep = 0.5
)

// ClampFontSize 把字号限制在滑块范围内并对齐到 0.5pt。
func ClampFontSize(pt float64) float64 {
	if math.IsNaN(pt) {
		return MinFontSize
	}
	pt = math.Max(MinFontSize, math.Min(MaxFontSize, pt))
	return math.Round(pt/FontSizeStep) * FontSizeStep
}
