package spreadsheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/ByLCY/labelsheet/label"
)

func TestImportProductsDropsEmptyRows(t *testing.T) {
	src := "\ufeffsku;Preço;cx inner;Voltagem;Fonte\n" +
		"cx464;R$ 10,00;cx 12;220;9,5\n" +
		";;;;\n" +
		"lampada;5,90;;;\n"
	items, err := Import(strings.NewReader(src), label.ModeProduct)
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("空行应被丢弃，实际 %d 条", len(items))
	}
	first := items[0]
	if first.Product.SKU != "cx464" || first.Product.Price != "R$ 10,00" || first.Product.Note != "cx 12" {
		t.Fatalf("字段错误: %+v", first.Product)
	}
	if first.Product.Voltage != label.Voltage220 || first.FontSize != 9.5 {
		t.Fatalf("可选列未生效: %+v size=%g", first.Product, first.FontSize)
	}
	if items[1].FontSize != 0 || items[1].ID == first.ID || first.ID == "" {
		t.Fatalf("ID 或默认字号错误: %+v", items[1])
	}
}

func TestImportWindows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("medida,quebrar\n\"AÇO INOX 3/8\"\"\",sim\n")
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	items, err := Import(strings.NewReader(encoded), label.ModeMeasure)
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if len(items) != 1 || items[0].Measure.Text != "AÇO INOX 3/8\"" || !items[0].Measure.Wrap {
		t.Fatalf("Windows-1252 解码错误: %+v", items)
	}
}

func TestImportMissingColumns(t *testing.T) {
	_, err := Import(strings.NewReader("NOME,VALOR\na,b\n"), label.ModeProduct)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("缺列应返回 ErrMissingColumns，实际 %v", err)
	}
	_, err = Import(strings.NewReader(""), label.ModeMeasure)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("空文件应返回 ErrMissingColumns，实际 %v", err)
	}
}

func TestImportRowError(t *testing.T) {
	_, err := Import(strings.NewReader("SKU,VOLTAGEM\na,110\n"), label.ModeProduct)
	var re *RowError
	if !errors.As(err, &re) || re.Row != 1 {
		t.Fatalf("非法电压应返回 RowError，实际 %v", err)
	}
}

func TestTemplateHeaders(t *testing.T) {
	var buf bytes.Buffer
	if err := Template(&buf, label.ModeProduct); err != nil {
		t.Fatalf("模板失败: %v", err)
	}
	if buf.String() != "\ufeffSKU,PRECO,CX_INNER\n" {
		t.Fatalf("产品模板错误: %q", buf.String())
	}
	if TemplateFilename(label.ModeMeasure) != "modelo_medida.csv" {
		t.Fatalf("模板文件名错误")
	}
}

func TestExportCanBeReimported(t *testing.T) {
	src := []label.Item{
		label.NewProduct(label.ProductFields{SKU: "A1", Price: "1,00", Note: "cx, 6", Voltage: label.Voltage127}),
		label.NewProduct(label.ProductFields{SKU: "B2"}),
	}
	src[1].FontSize = 12
	var buf bytes.Buffer
	if err := Export(&buf, label.ModeProduct, src); err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	back, err := Import(&buf, label.ModeProduct)
	if err != nil {
		t.Fatalf("重新导入失败: %v", err)
	}
	if len(back) != 2 || *back[0].Product != *src[0].Product || back[1].FontSize != 12 {
		t.Fatalf("导出内容不一致: %+v", back)
	}
	if err := Export(&buf, label.ModeMeasure, src); !errors.Is(err, label.ErrKindMismatch) {
		t.Fatalf("模式不一致应报错，实际 %v", err)
	}
}

func TestImportMalformed(t *testing.T) {
	_, err := Import(strings.NewReader(`"abc,1,2`), label.ModeProduct)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("引号未闭合应返回 ErrMalformed，实际 %v", err)
	}
	big := bytes.Repeat([]byte("a"), maxImportBytes+1)
	_, err = Import(bytes.NewReader(big), label.ModeMeasure)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("超出大小上限应返回 ErrMalformed，实际 %v", err)
	}
}
