package parser

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var ErrParseFailed = errors.New("tree-sitter parse failed")

// TreeSitterParser 封装单一语言的 tree-sitter 解析器，非并发安全
type TreeSitterParser struct {
	parser *sitter.Parser
}

// NewParser 使用语言绑定返回的指针创建解析器
// (e.g., tree_sitter_java.Language())
func NewParser(language unsafe.Pointer) (*TreeSitterParser, error) {
	p := sitter.NewParser()
	if err := p.SetLanguage(sitter.NewLanguage(language)); err != nil {
		p.Close()
		return nil, fmt.Errorf("set language: %w", err)
	}
	return &TreeSitterParser{parser: p}, nil
}

// Parse 解析源码，调用方负责 Close 返回的 Tree
func (p *TreeSitterParser) Parse(source []byte) (*sitter.Tree, error) {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, ErrParseFailed
	}
	return tree, nil
}

func (p *TreeSitterParser) Close() { p.parser.Close() }

// ParseWith 创建一次性解析器，解析后立即释放
func ParseWith(language unsafe.Pointer, source []byte) (*sitter.Tree, error) {
	p, err := NewParser(language)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse(source)
}

// ==========================================
// 节点辅助工具 (Node Helpers)
// ==========================================

// Content 返回节点对应的源码文本，nil 节点返回空串
func Content(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

// CompactContent 返回折叠了空白的节点文本，用于类型和参数描述
func CompactContent(node *sitter.Node, source []byte) string {
	return strings.Join(strings.Fields(Content(node, source)), " ")
}

// FieldContent 返回指定字段子节点的文本
func FieldContent(node *sitter.Node, field string, source []byte) string {
	if node == nil {
		return ""
	}
	return CompactContent(node.ChildByFieldName(field), source)
}

// FindChildOfKind 返回第一个指定类型的直接子节点
func FindChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// ChildrenOfKind 返回所有指定类型的直接子节点
func ChildrenOfKind(node *sitter.Node, kinds ...string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var result []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		for _, kind := range kinds {
			if child.Kind() == kind {
				result = append(result, child)
				break
			}
		}
	}
	return result
}

// NamedChildren 返回全部具名子节点
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	result := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			result = append(result, child)
		}
	}
	return result
}

// Lines 返回节点的起止行号 (从 1 开始)
func Lines(node *sitter.Node) (int, int) {
	if node == nil {
		return 0, 0
	}
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}
