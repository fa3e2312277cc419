package model

import "strings"

// DefaultGlyph 是未知访问修饰符的兜底符号 (最低可见性)
const DefaultGlyph = '-'

// AccessTable 将源码访问修饰符映射为 UML 可见性符号。
// 值类型，构造后只读；由调用方注入给序列化器。
type AccessTable struct {
	glyphs   map[string]rune
	fallback rune
}

// DefaultAccessTable 返回 C# 风格的默认映射
func DefaultAccessTable() AccessTable {
	return NewAccessTable(map[string]rune{
		"":                   '-',
		"private":            '-',
		"protected":          '#',
		"private protected":  '#',
		"protected internal": '#',
		"internal":           '#',
		"public":             '+',
	}, DefaultGlyph)
}

// NewAccessTable 复制传入的映射，调用方之后对 map 的修改不会影响表
func NewAccessTable(glyphs map[string]rune, fallback rune) AccessTable {
	copied := make(map[string]rune, len(glyphs))
	for k, v := range glyphs {
		copied[NormalizeAccess(k)] = v
	}
	if fallback == 0 {
		fallback = DefaultGlyph
	}
	return AccessTable{glyphs: copied, fallback: fallback}
}

// With 返回一个覆盖了部分映射的新表
func (t AccessTable) With(overrides map[string]rune) AccessTable {
	merged := make(map[string]rune, len(t.glyphs)+len(overrides))
	for k, v := range t.glyphs {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[NormalizeAccess(k)] = v
	}
	return AccessTable{glyphs: merged, fallback: t.fallback}
}

// Glyph 查找修饰符对应的符号，未知修饰符返回兜底符号
func (t AccessTable) Glyph(keyword string) rune {
	if g, ok := t.Lookup(keyword); ok {
		return g
	}
	if t.fallback == 0 {
		return DefaultGlyph
	}
	return t.fallback
}

// Lookup 查找修饰符，第二个返回值表示是否为已知修饰符
func (t AccessTable) Lookup(keyword string) (rune, bool) {
	g, ok := t.glyphs[NormalizeAccess(keyword)]
	return g, ok
}

// Keywords 返回表中所有已知修饰符
func (t AccessTable) Keywords() []string {
	keys := make([]string, 0, len(t.glyphs))
	for k := range t.glyphs {
		keys = append(keys, k)
	}
	return keys
}

// NormalizeAccess 统一大小写与空白，并将 C# 中等价的组合修饰符归一
// (e.g., "internal protected" -> "protected internal")
func NormalizeAccess(keyword string) string {
	fields := strings.Fields(strings.ToLower(keyword))
	switch strings.Join(fields, " ") {
	case "internal protected":
		return "protected internal"
	case "protected private":
		return "private protected"
	}
	return strings.Join(fields, " ")
}
