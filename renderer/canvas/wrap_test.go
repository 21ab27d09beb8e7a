package canvasrenderer

import (
	"testing"
	"unicode/utf8"
)

// 每个字符 1mm 的等宽度量。
func monoWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func contents(t *testing.T, content string, limit float64) []string {
	t.Helper()
	var out []string
	for _, ln := range wrapText(content, limit, monoWidth) {
		if ln.Width != monoWidth(ln.Content) {
			t.Fatalf("行宽与内容不符: %+v", ln)
		}
		out = append(out, ln.Content)
	}
	return out
}

func TestWrapTextCases(t *testing.T) {
	cases := []struct {
		name    string
		content string
		limit   float64
		want    []string
	}{
		{"fits", "abc def", 7, []string{"abc def"}},
		{"break at space", "abc def", 6, []string{"abc", "def"}},
		{"collapse spaces", "  abc    def  ", 20, []string{"abc def"}},
		{"long word", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"long word joins next", "abcdefgh ij", 5, []string{"abcde", "fgh", "ij"}},
		{"blank paragraph", "a\n\nb", 5, []string{"a", "", "b"}},
		{"trailing newline", "a\n", 5, []string{"a", ""}},
		{"empty", "", 5, []string{""}},
		{"crlf", "a\r\nb", 5, []string{"a", "b"}},
		{"unlimited", "abc   def\nxyz", 0, []string{"abc def", "xyz"}},
	}
	for _, c := range cases {
		got := contents(t, c.content, c.limit)
		if len(got) != len(c.want) {
			t.Fatalf("%s: got %q want %q", c.name, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%s: got %q want %q", c.name, got, c.want)
			}
		}
	}
}

func TestBreakWordKeepsAtLeastOneRune(t *testing.T) {
	got := breakWord("çãé", 0.5, monoWidth)
	if len(got) != 3 || got[0] != "ç" || got[2] != "é" {
		t.Fatalf("每段至少保留一个字符: %q", got)
	}
}
