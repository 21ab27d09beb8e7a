package binding

import (
	"testing"
	"time"
)

func TestFilenameDefaultTemplate(t *testing.T) {
	now := time.UnixMilli(1712345678901)
	if got := Filename("", now, nil); got != "startools_print_1712345678901.pdf" {
		t.Fatalf("默认文件名错误: %s", got)
	}
}

func TestFilenameLayoutAndSanitize(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	got := Filename("etiquetas/${now|2006-01-02_1504}", now, nil)
	if got != "etiquetas_2024-03-09_1405.pdf" {
		t.Fatalf("文件名错误: %s", got)
	}
	if got := Filename("x_${missing}.PDF", now, nil); got != "x___missing_.PDF" {
		t.Fatalf("未知占位符应被清理为安全字符: %s", got)
	}
}

func TestFilenameFields(t *testing.T) {
	now := time.UnixMilli(1000)
	fields := map[string]any{
		"mode":      "product",
		"labels":    12,
		"sheet":     map[string]any{"name": "A4249"},
		"timestamp": "ignored",
	}
	got := Filename("${sheet.name}_${mode}_${labels}_${timestamp}", now, fields)
	if got != "A4249_product_12_1000.pdf" {
		t.Fatalf("文件名字段替换错误: %s", got)
	}
}

func TestInterpolatePaths(t *testing.T) {
	data := map[string]any{
		"sheet": map[string]any{"name": "A4249", "size": 3.5},
		"meta":  map[string]string{"author": "loja"},
	}
	got := Interpolate("${sheet.name}-${sheet.size}-${meta.author}-${sheet.name.x}-${meta.none}", data)
	if got != "A4249-3.5-loja-${sheet.name.x}-${meta.none}" {
		t.Fatalf("插值错误: %s", got)
	}
	if Interpolate("${a}", nil) != "${a}" {
		t.Fatalf("data 为空时应原样返回")
	}
}
