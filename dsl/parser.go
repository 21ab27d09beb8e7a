package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|[vV])?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document 是队列文件的语法树根：queue <名称> <版本> { sheet {...} items {...} }。
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'queue' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section 是 sheet 设置或 items 列表之一。
type Section struct {
	Sheet *SheetSection `parser:"  @@"`
	Items *ItemsSection `parser:"| @@"`
}

// Kind 返回段名。
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Sheet != nil:
		return "sheet"
	case s.Items != nil:
		return "items"
	default:
		return "unknown"
	}
}

// SheetSection 保存本次渲染的选项（mode/outline/offset/align）。
type SheetSection struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Block *Block         `parser:"'sheet' @@"`
}

// ItemsSection 按打印顺序列出标签。
type ItemsSection struct {
	Decls []*ItemDecl `parser:"'items' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// ItemDecl 声明一个标签，例如 `product "CX464" { price: "9,90" }`。
type ItemDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Kind  string         `parser:"@( 'product' | 'measure' )"`
	Title StringLiteral  `parser:"@String"`
	Block *Block         `parser:"@@?"`
}

type Block struct {
	Statements []*Assignment `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Assignment 形如 key: value。
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' @@"`
}

type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Raw 返回书写时的原文，字符串去掉引号。
func (v *Value) Raw() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral 在捕获时按 Go 字符串规则去引号。
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("字符串字面量缺少内容")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse 从 r 读取并解析队列文件。
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
