package canvasrenderer

import (
	"strings"

	"github.com/ByLCY/labelsheet/layout"
)

// measureFunc 返回一段文本的宽度（mm）。
type measureFunc func(string) float64

// wrapText 把 content 按 limit 贪心折行。每个显式换行都开始一个新段落，
// 空段落保留为空行；行内连续空白折叠为一个空格。limit<=0 表示不限宽。
func wrapText(content string, limit float64, measure measureFunc) []layout.TextLine {
	content = strings.ReplaceAll(content, "\r", "")
	var out []layout.TextLine
	for _, p := range strings.Split(content, "\n") {
		if limit <= 0 {
			text := strings.Join(strings.Fields(p), " ")
			out = append(out, layout.TextLine{Content: text, Width: measure(text)})
			continue
		}
		out = append(out, wrapParagraph(p, limit, measure)...)
	}
	return out
}

func wrapParagraph(p string, limit float64, measure measureFunc) []layout.TextLine {
	words := strings.Fields(p)
	if len(words) == 0 {
		return []layout.TextLine{{}}
	}
	var lines []layout.TextLine
	cur := ""
	flush := func() {
		if cur != "" {
			lines = append(lines, layout.TextLine{Content: cur, Width: measure(cur)})
			cur = ""
		}
	}
	for _, w := range words {
		if cur != "" {
			if joined := cur + " " + w; measure(joined) <= limit {
				cur = joined
				continue
			}
			flush()
		}
		if measure(w) <= limit {
			cur = w
			continue
		}
		pieces := breakWord(w, limit, measure)
		for _, piece := range pieces[:len(pieces)-1] {
			lines = append(lines, layout.TextLine{Content: piece, Width: measure(piece)})
		}
		cur = pieces[len(pieces)-1]
	}
	flush()
	return lines
}

// breakWord 在字符边界拆分超宽单词，每段至少一个字符。
func breakWord(word string, limit float64, measure measureFunc) []string {
	var pieces []string
	runes := []rune(word)
	start := 0
	for i := 1; i < len(runes); i++ {
		if measure(string(runes[start:i+1])) > limit {
			pieces = append(pieces, string(runes[start:i]))
			start = i
		}
	}
	return append(pieces, string(runes[start:]))
}
