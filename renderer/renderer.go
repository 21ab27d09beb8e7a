package renderer

import "github.com/ByLCY/labelsheet/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据以及可能的错误；实现必须可被多个渲染并发调用。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Engine 同时提供文本度量与最终输出，布局与渲染共用同一套字体数据。
type Engine interface {
	Renderer
	layout.Typesetter
}
