package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultFilename 是下载文件名的默认模板，timestamp 为 Unix 毫秒。
const DefaultFilename = "startools_print_${timestamp}.pdf"

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 或 ${path|layout} 替换为 data 中的值。
// layout 仅对 time.Time 生效，采用 Go 的时间布局写法。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path, format, _ := strings.Cut(groups[1], "|")
		path = strings.TrimSpace(path)
		if path == "" {
			return match
		}
		val, ok := resolvePath(data, path)
		if !ok {
			return match
		}
		return formatValue(val, strings.TrimSpace(format))
	})
}

func formatValue(val any, format string) string {
	switch v := val.(type) {
	case time.Time:
		if format == "" {
			format = time.RFC3339
		}
		return v.Format(format)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Filename 用 now 与 fields 填充模板，清理掉文件名中不安全的字符并保证以 .pdf 结尾。
// 模板中可用 ${timestamp}（Unix 毫秒）、${now|layout} 以及 fields 中的任意路径。
func Filename(template string, now time.Time, fields map[string]any) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultFilename
	}
	data := map[string]any{}
	for k, v := range fields {
		data[k] = v
	}
	data["timestamp"] = now.UnixMilli()
	data["now"] = now
	name := Interpolate(template, data)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '$', '{', '}':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// resolvePath 按 a.b.c 逐级深入嵌套的 map，任何一级缺失都返回 false。
func resolvePath(data any, path string) (any, bool) {
	cur := data
	for _, key := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}
