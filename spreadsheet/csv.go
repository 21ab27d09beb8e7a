// Package spreadsheet 负责标签队列与表格文件（CSV）之间的导入导出。
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/labelsheet/label"
)

// 列名（归一化后）。
const (
	ColSKU     = "SKU"
	ColPrice   = "PRECO"
	ColNote    = "CX_INNER"
	ColMeasure = "MEDIDA"
	ColVoltage = "VOLTAGEM"
	ColWrap    = "QUEBRAR"
	ColSize    = "FONTE"
)

// 单个文件的上限，超出视为误传。
const maxImportBytes = 8 << 20

var (
	ErrMissingColumns = errors.New("表格缺少必需的列")
	// ErrMalformed 表示文件本身无法作为 CSV 读取：格式错误、编码错误或超出大小上限。
	ErrMalformed = errors.New("表格格式无效")
)

// RowError 指出出错的数据行（从 1 开始，不含表头）。
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("第 %d 行: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Headers 返回模式对应的模板表头。
func Headers(mode label.Mode) []string {
	if mode == label.ModeMeasure {
		return []string{ColMeasure}
	}
	return []string{ColSKU, ColPrice, ColNote}
}

// TemplateFilename 返回模板下载的文件名。
func TemplateFilename(mode label.Mode) string {
	if mode == label.ModeMeasure {
		return "modelo_medida.csv"
	}
	return "modelo_produto.csv"
}

var foldHeader = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeHeader 去掉重音与大小写差异："Preço" → "PRECO"，"cx inner" → "CX_INNER"。
func normalizeHeader(h string) string {
	s, _, err := transform.String(foldHeader, strings.TrimSpace(h))
	if err != nil {
		s = h
	}
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' {
			return '_'
		}
		return r
	}, s)
}

// decode 识别 BOM（UTF-8/UTF-16），无 BOM 且不是合法 UTF-8 时按 Windows-1252 解码。
func decode(raw []byte) ([]byte, error) {
	var fallback transform.Transformer = xunicode.UTF8.NewDecoder()
	if !utf8.Valid(raw) {
		fallback = charmap.Windows1252.NewDecoder()
	}
	out, _, err := transform.Bytes(xunicode.BOMOverride(fallback), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: 编码无法识别: %v", ErrMalformed, err)
	}
	return out, nil
}

// sniffComma 按表头行中分号与逗号的数量选择分隔符（巴西版 Excel 默认使用分号）。
func sniffComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// Import 读取 CSV 并转换为指定模式的条目。全部相关字段为空的行会被丢弃，
// 每一行都会分配新的 ID。
func Import(r io.Reader, mode label.Mode) ([]label.Item, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取表格失败: %w", err)
	}
	if len(raw) > maxImportBytes {
		return nil, fmt.Errorf("%w: 超过 %d 字节", ErrMalformed, maxImportBytes)
	}
	data, err := decode(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffComma(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: 文件为空", ErrMissingColumns)
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		name := normalizeHeader(h)
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}
	found := false
	for _, h := range Headers(mode) {
		if _, ok := cols[h]; ok {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: 需要 %s", ErrMissingColumns, strings.Join(Headers(mode), ", "))
	}

	cell := func(rec []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var items []label.Item
	for n, rec := range records[1:] {
		var it label.Item
		if mode == label.ModeMeasure {
			wrap, err := parseFlag(cell(rec, ColWrap))
			if err != nil {
				return nil, &RowError{Row: n + 1, Err: err}
			}
			it = label.NewMeasurement(label.MeasureFields{Text: cell(rec, ColMeasure), Wrap: wrap})
		} else {
			volt, err := label.ParseVoltage(cell(rec, ColVoltage))
			if err != nil {
				return nil, &RowError{Row: n + 1, Err: err}
			}
			it = label.NewProduct(label.ProductFields{
				SKU:     cell(rec, ColSKU),
				Price:   cell(rec, ColPrice),
				Note:    cell(rec, ColNote),
				Voltage: volt,
			})
		}
		if it.Empty() {
			continue
		}
		size, err := parseSize(cell(rec, ColSize))
		if err != nil {
			return nil, &RowError{Row: n + 1, Err: err}
		}
		it.FontSize = size
		items = append(items, it)
	}
	return items, nil
}

func parseFlag(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "", "0", "n", "nao", "não", "no", "false":
		return false, nil
	case "1", "s", "sim", "x", "y", "yes", "true":
		return true, nil
	default:
		return false, fmt.Errorf("无法识别的 %s 取值 %q", ColWrap, v)
	}
}

// parseSize 接受 "9"、"9,5"、"9.5"，空值表示使用默认字号。
func parseSize(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("无法识别的 %s 取值 %q", ColSize, v)
	}
	return label.ClampFontSize(f), nil
}

func newWriter(w io.Writer) (*csv.Writer, io.Closer) {
	tw := transform.NewWriter(w, xunicode.UTF8BOM.NewEncoder())
	return csv.NewWriter(tw), tw
}

// Template 写出带 UTF-8 BOM 的空模板，Excel 打开时不会乱码。
func Template(w io.Writer, mode label.Mode) error {
	cw, closer := newWriter(w)
	if err := cw.Write(Headers(mode)); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return closer.Close()
}

// Export 把条目写成可以再次导入的 CSV，包含可选列。
func Export(w io.Writer, mode label.Mode, items []label.Item) error {
	cw, closer := newWriter(w)
	var header []string
	if mode == label.ModeMeasure {
		header = []string{ColMeasure, ColWrap, ColSize}
	} else {
		header = []string{ColSKU, ColPrice, ColNote, ColVoltage, ColSize}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, it := range items {
		if err := it.Validate(mode); err != nil {
			return err
		}
		size := ""
		if it.FontSize > 0 {
			size = strconv.FormatFloat(it.FontSize, 'f', -1, 64)
		}
		var rec []string
		if mode == label.ModeMeasure {
			wrap := ""
			if it.Measure.Wrap {
				wrap = "sim"
			}
			rec = []string{it.Measure.Text, wrap, size}
		} else {
			p := it.Product
			rec = []string{p.SKU, p.Price, p.Note, p.Voltage.Digits(), size}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return closer.Close()
}
