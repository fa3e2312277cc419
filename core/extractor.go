package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CodMac/uml-lens/model"
)

// Language 标识源码语言
type Language string

const (
	LangCSharp Language = "csharp"
	LangJava   Language = "java"
	LangGo     Language = "go"
)

// ErrUnsupportedLanguage 表示没有为文件注册对应的 Extractor
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Extractor 从单个文件中提取类型声明。
// 对调用方而言提取是原子的：返回错误时不应使用任何声明。
type Extractor interface {
	Extract(fileName string, content []byte) ([]*model.Declaration, error)
}

var (
	extractorMap  = make(map[Language]Extractor)
	extensionMap  = make(map[string]Language)
	languageNames = make(map[string]Language)
)

// RegisterExtractor 注册一个语言与其对应的 Extractor 及文件扩展名
func RegisterExtractor(lang Language, extractor Extractor, extensions ...string) {
	extractorMap[lang] = extractor
	languageNames[string(lang)] = lang
	for _, ext := range extensions {
		extensionMap[strings.ToLower(ext)] = lang
	}
}

// GetExtractor 根据语言类型获取对应的 Extractor 实例。
func GetExtractor(lang Language) (Extractor, error) {
	extractor, ok := extractorMap[lang]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for language %q: %w", lang, ErrUnsupportedLanguage)
	}
	return extractor, nil
}

// LanguageOf 根据文件扩展名判断语言
func LanguageOf(fileName string) (Language, bool) {
	lang, ok := extensionMap[strings.ToLower(filepath.Ext(fileName))]
	return lang, ok
}

// ParseLanguage 将名称转换为已注册的语言
func ParseLanguage(name string) (Language, bool) {
	lang, ok := languageNames[strings.ToLower(strings.TrimSpace(name))]
	return lang, ok
}

// Extensions 返回语言对应的扩展名；lang 为空时返回全部，结果有序
func Extensions(lang Language) []string {
	var exts []string
	for ext, l := range extensionMap {
		if lang == "" || l == lang {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// ExtractorFor 根据文件名选择 Extractor
func ExtractorFor(fileName string) (Extractor, error) {
	lang, ok := LanguageOf(fileName)
	if !ok {
		return nil, fmt.Errorf("no extractor for file %q: %w", fileName, ErrUnsupportedLanguage)
	}
	return GetExtractor(lang)
}

// ExtractorFunc 允许普通函数作为 Extractor
type ExtractorFunc func(fileName string, content []byte) ([]*model.Declaration, error)

func (f ExtractorFunc) Extract(fileName string, content []byte) ([]*model.Declaration, error) {
	return f(fileName, content)
}
