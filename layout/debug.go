package layout

import (
	"encoding/json"
	"io"
	"os"
)

// EncodeDebugJSON 把布局结果写成带缩进的 JSON，供前端叠加显示溢出与格子位置。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteDebugJSON 将布局结果输出到文件。
func WriteDebugJSON(res *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeDebugJSON(f, res)
}
