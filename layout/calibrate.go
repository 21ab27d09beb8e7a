package layout

import (
	"fmt"
	"math"
)

// 校准基准：粗体 10pt 的基准字符串在输出引擎中必须恰好 26mm 宽。
const (
	BenchmarkText    = "CX464 - 74X107"
	BenchmarkSizePt  = 10.0
	BenchmarkWidthMM = 26.0
)

// CalibrationError 表示基准测量结果不可用，本次渲染必须中止。
type CalibrationError struct {
	Measured float64
	Err      error
}

func (e *CalibrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("字号校准失败: %v", e.Err)
	}
	return fmt.Sprintf("字号校准失败: 基准宽度 %gmm 不可用", e.Measured)
}

func (e *CalibrationError) Unwrap() error { return e.Err }

// Calibrate 返回使名义字号在输出引擎中复现基准物理宽度的乘数。
func Calibrate(ts Typesetter, bold FontResource) (float64, error) {
	if ts == nil {
		return 0, &CalibrationError{Err: fmt.Errorf("缺少排版后端")}
	}
	w, err := ts.TextWidth(BenchmarkText, bold, BenchmarkSizePt)
	if err != nil {
		return 0, &CalibrationError{Err: err}
	}
	if !(w > 0) || math.IsInf(w, 0) {
		return 0, &CalibrationError{Measured: w}
	}
	return BenchmarkWidthMM / w, nil
}
